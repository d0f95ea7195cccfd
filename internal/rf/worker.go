package rf

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hz.tools/sdr"

	"github.com/example/go-soulwhistle/internal/params"
	"github.com/example/go-soulwhistle/internal/synth"
	"github.com/example/go-soulwhistle/internal/waveform"
)

// Worker pacing.
const (
	DefaultChunkSamples = 4096
	IdleSleep           = 100 * time.Millisecond
	AbsentSleep         = 2 * time.Second
	StartFailSleep      = time.Second
)

// Store is the part of params.Store the worker uses.
type Store interface {
	Snapshot() params.Params
	SetRFDetected(bool)
	DisableRF()
}

type workerOptions struct {
	launcher      Launcher
	probe         Probe
	checkInterval time.Duration
	chunkSamples  int
	antennaPort   int
	seed          *uint64
	logger        *slog.Logger
}

// Option configures a Worker.
type Option func(*workerOptions)

// WithLauncher overrides how transmitter processes are started.
func WithLauncher(l Launcher) Option {
	return func(o *workerOptions) { o.launcher = l }
}

// WithProbe overrides the hardware presence check.
func WithProbe(p Probe) Option {
	return func(o *workerOptions) { o.probe = p }
}

// WithCheckInterval sets how often hardware presence is re-probed.
func WithCheckInterval(d time.Duration) Option {
	return func(o *workerOptions) { o.checkInterval = d }
}

// WithChunkSamples sets how many I/Q samples are written per iteration.
func WithChunkSamples(n int) Option {
	return func(o *workerOptions) {
		if n > 0 {
			o.chunkSamples = n
		}
	}
}

// WithAntennaPort sets the transmitter's antenna power flag.
func WithAntennaPort(port int) Option {
	return func(o *workerOptions) { o.antennaPort = port }
}

// WithSeed makes the worker's engine noise reproducible.
func WithSeed(seed uint64) Option {
	return func(o *workerOptions) { o.seed = &seed }
}

// WithLogger sets the worker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *workerOptions) { o.logger = l }
}

// Worker is the RF transmit loop. It owns its own synthesis engine, the
// encoder and the transmitter process; nothing in it is shared.
type Worker struct {
	store  Store
	errs   chan<- string
	log    *slog.Logger
	engine *synth.Engine
	enc    *Encoder
	tx     *Transmitter
	det    *Detector
	opts   workerOptions

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration)

	generation uint64
	samples    sdr.SamplesI8
	buf        []byte
}

// NewWorker returns a worker rendering at audioRate. Error messages meant
// for the user are sent on errs without blocking; errs may be nil.
func NewWorker(store Store, audioRate float64, errs chan<- string, optFns ...Option) *Worker {
	o := workerOptions{
		launcher:      ExecLauncher{},
		probe:         ExecProbe(""),
		checkInterval: DefaultCheckInterval,
		chunkSamples:  DefaultChunkSamples,
		antennaPort:   1,
		logger:        slog.Default(),
	}
	for _, fn := range optFns {
		fn(&o)
	}

	var engineOpts []synth.Option
	if o.seed != nil {
		engineOpts = append(engineOpts, synth.WithSeed(*o.seed))
	}

	return &Worker{
		store:  store,
		errs:   errs,
		log:    o.logger,
		engine: synth.NewEngine(audioRate, engineOpts...),
		enc:    NewEncoder(audioRate),
		tx:     NewTransmitter(o.launcher),
		det:    NewDetector(o.probe, o.checkInterval),
		opts:   o,
		sleep:  sleepCtx,
	}
}

// Transmitter exposes the process state for status reporting.
func (w *Worker) Transmitter() *Transmitter { return w.tx }

// Run loops until ctx is cancelled. Cancelling stops the transmitter
// process at once, unblocking a write to a stalled process; it is also
// stopped on return.
func (w *Worker) Run(ctx context.Context) error {
	defer w.tx.Stop()
	stop := context.AfterFunc(ctx, w.tx.Stop)
	defer stop()

	for ctx.Err() == nil {
		w.step(ctx)
	}
	return nil
}

// step runs one iteration: presence check, process reconciliation and one
// chunk of I/Q output.
func (w *Worker) step(ctx context.Context) {
	p := w.store.Snapshot()

	if present, changed := w.det.Present(ctx); changed {
		w.store.SetRFDetected(present)
		p.RFDetected = present
		w.log.Info("rf hardware presence changed", "detected", present)
	}

	if p.Generation != w.generation {
		w.generation = p.Generation
		w.engine.Reset()
		w.enc.Reset()
	}

	if !p.RFEnabled {
		w.tx.Stop()
		w.sleep(ctx, IdleSleep)
		return
	}

	if !p.RFDetected {
		w.tx.Stop()
		w.store.DisableRF()
		w.report(ErrHardwareAbsent.Error())
		w.sleep(ctx, AbsentSleep)
		return
	}

	tn := Tuning{FreqHz: p.RFFreqHz, GainDB: p.RFGainDB, AntennaPort: w.opts.antennaPort}
	started, err := w.tx.Ensure(ctx, tn)
	if err != nil {
		w.store.DisableRF()
		w.report(fmt.Sprintf("Failed to start hackrf_transfer: %v", err))
		w.sleep(ctx, StartFailSleep)
		return
	}
	if started {
		w.log.Info("rf transmitter started",
			"freq_hz", tn.FreqHz,
			"gain_db", tn.GainDB,
			"mode", p.RFMode.String(),
		)
	}

	w.buf = w.render(&p, w.buf[:0])
	if err := w.tx.Write(w.buf); err != nil {
		w.log.Warn("rf transmitter write failed; restarting", "error", err)
	}
}

// render fills one chunk of interleaved I/Q bytes.
func (w *Worker) render(p *params.Params, dst []byte) []byte {
	ticks := max(w.opts.chunkSamples/w.enc.Oversample(), 1)
	mode := p.RFMode
	if !mode.IsRFMode() {
		mode = waveform.WBFM
	}

	w.samples = w.samples[:0]
	for range ticks {
		v := waveform.Reshape(w.engine.NextRF(p), p.RFPulseType)
		w.samples = w.enc.Encode(w.samples, v, mode)
	}
	return AppendBytes(dst, w.samples)
}

func (w *Worker) report(msg string) {
	w.log.Warn("rf worker", "message", msg)
	if w.errs == nil {
		return
	}
	select {
	case w.errs <- msg:
	default:
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
