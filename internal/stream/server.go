package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	chunkFrames     int
	readWait        time.Duration
	pollInterval    time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

func defaultOptions() options {
	return options{
		chunkFrames:     DefaultChunkFrames,
		readWait:        DefaultReadWait,
		pollInterval:    time.Second,
		shutdownTimeout: 5 * time.Second,
		logger:          slog.Default(),
	}
}

// Option configures the handler, server and supervisor.
type Option func(*options)

// WithChunkFrames sets how many frames a reader pulls from the ring per read.
func WithChunkFrames(n int) Option {
	return func(o *options) { o.chunkFrames = n }
}

// WithReadWait sets how long a reader sleeps when the ring has no new frames.
func WithReadWait(d time.Duration) Option {
	return func(o *options) { o.readWait = d }
}

// WithPollInterval sets how often the supervisor re-reads the snapshot.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) { o.pollInterval = d }
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) { o.shutdownTimeout = d }
}

// WithLogger sets the slog.Logger used for connection logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// Handler
// ---------------------------------------------------------------------------

// Handler serves the endless WAV stream on / and /stream.wav.
type Handler struct {
	ring       *Ring
	sampleRate int
	opts       options
	log        *slog.Logger
	clients    atomic.Int64
}

// NewHandler returns a handler streaming ring at sampleRate.
func NewHandler(ring *Ring, sampleRate int, optFns ...Option) *Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Handler{
		ring:       ring,
		sampleRate: sampleRate,
		opts:       opts,
		log:        opts.logger,
	}
}

// Clients returns the number of connected listeners.
func (h *Handler) Clients() int { return int(h.clients.Load()) }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/stream.wav" {
		http.NotFound(w, r)
		return
	}

	rd := NewReader(h.ring, h.sampleRate, h.opts.chunkFrames, h.opts.readWait)
	clients := h.clients.Add(1)
	defer h.clients.Add(-1)

	h.log.InfoContext(r.Context(), "stream client connected",
		slog.String("remote", r.RemoteAddr),
		slog.Uint64("epoch", rd.epoch),
		slog.Int64("clients", clients),
	)

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	written, err := h.pump(r.Context(), w, flusher, rd)
	h.log.InfoContext(r.Context(), "stream client disconnected",
		slog.String("remote", r.RemoteAddr),
		slog.Int64("bytes", written),
		slog.String("reason", reason(err)),
	)
}

// pump copies reader output to w until the client goes away or the reader
// signals end-of-stream.
func (h *Handler) pump(ctx context.Context, w io.Writer, flusher http.Flusher, rd *Reader) (int64, error) {
	buf := make([]byte, 4*h.opts.chunkFrames+len(rd.header))
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := rd.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return total, err
		}
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, io.EOF):
		return "epoch changed"
	case errors.Is(err, context.Canceled):
		return "client closed"
	case err == nil:
		return "done"
	default:
		return err.Error()
	}
}

// ---------------------------------------------------------------------------
// Server: wires the handler into net/http.Server with graceful shutdown.
// ---------------------------------------------------------------------------

// Server listens on one port until its context is cancelled.
type Server struct {
	addr            string
	handler         http.Handler
	shutdownTimeout time.Duration
}

// NewServer binds handler to addr.
func NewServer(addr string, handler http.Handler, optFns ...Option) *Server {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{addr: addr, handler: handler, shutdownTimeout: opts.shutdownTimeout}
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			// Streams never go idle on their own; cut whatever is left.
			_ = httpServer.Close()
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// Addr formats a listen address for port on all interfaces.
func Addr(port uint16) string {
	return ":" + strconv.Itoa(int(port))
}
