package stream

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/go-soulwhistle/internal/params"
)

// Snapshotter is the read side of params.Store.
type Snapshotter interface {
	Snapshot() params.Params
}

// Supervisor polls the snapshot and keeps an HTTP server running on the
// configured port while streaming is enabled.
type Supervisor struct {
	store   Snapshotter
	handler http.Handler
	opts    options
	log     *slog.Logger

	// listen is replaced in tests.
	listen func(ctx context.Context, addr string) error

	running    bool
	port       uint16
	failedPort uint16
	cancel     context.CancelFunc
	done       chan error
}

// NewSupervisor returns a supervisor serving handler.
func NewSupervisor(store Snapshotter, handler http.Handler, optFns ...Option) *Supervisor {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	s := &Supervisor{
		store:   store,
		handler: handler,
		opts:    opts,
		log:     opts.logger,
	}
	s.listen = func(ctx context.Context, addr string) error {
		return NewServer(addr, s.handler, WithShutdownTimeout(s.opts.shutdownTimeout)).Start(ctx)
	}
	return s
}

// Run polls until ctx is cancelled, then stops any running server.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.pollInterval)
	defer ticker.Stop()
	defer s.stop()

	for {
		s.step(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// step reconciles the running server with one snapshot.
func (s *Supervisor) step(ctx context.Context) {
	s.reap()

	p := s.store.Snapshot()
	want := p.StreamEnabled
	if !want {
		s.failedPort = 0
	}

	switch {
	case want && s.running && s.port != p.StreamPort:
		s.log.Info("stream port changed", slog.Int("from", int(s.port)), slog.Int("to", int(p.StreamPort)))
		s.stop()
		s.start(ctx, p.StreamPort)
	case want && !s.running && s.failedPort != p.StreamPort:
		s.start(ctx, p.StreamPort)
	case !want && s.running:
		s.stop()
	}
}

func (s *Supervisor) start(ctx context.Context, port uint16) {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	addr := Addr(port)
	go func() { done <- s.listen(runCtx, addr) }()

	s.running = true
	s.port = port
	s.cancel = cancel
	s.done = done
	s.log.Info("stream server started", slog.Int("port", int(port)))
}

func (s *Supervisor) stop() {
	if !s.running {
		return
	}
	s.cancel()
	if err := <-s.done; err != nil {
		s.log.Warn("stream server stopped with error", slog.Int("port", int(s.port)), slog.String("error", err.Error()))
	}
	s.running = false
	s.log.Info("stream server stopped", slog.Int("port", int(s.port)))
}

// reap notices a server that exited on its own, typically because the port
// could not be bound. That port is not retried until the snapshot changes.
func (s *Supervisor) reap() {
	if !s.running {
		return
	}
	select {
	case err := <-s.done:
		s.cancel()
		s.running = false
		s.failedPort = s.port
		if err != nil {
			s.log.Error("stream server failed", slog.Int("port", int(s.port)), slog.String("error", err.Error()))
		}
	default:
	}
}

// Running reports whether a server is active and on which port. It must not
// be called concurrently with Run.
func (s *Supervisor) Running() (bool, uint16) {
	return s.running, s.port
}
