package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/go-soulwhistle/internal/audio"
	"github.com/example/go-soulwhistle/internal/config"
	"github.com/example/go-soulwhistle/internal/params"
	"github.com/example/go-soulwhistle/internal/playback"
	"github.com/example/go-soulwhistle/internal/rf"
	"github.com/example/go-soulwhistle/internal/stream"
	"github.com/example/go-soulwhistle/internal/synth"
)

func newRunCmd() *cobra.Command {
	var statusInterval time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play the signal and run the RF and streaming workers",
		Long: "Opens the audio device and starts the RF transmit worker and the " +
			"stream supervisor. SIGHUP reloads the params file; SIGINT/SIGTERM stop.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)

			return runSession(ctx, cfg, sessionOptions{
				reload:         hup,
				statusInterval: statusInterval,
				log:            slog.Default(),
			})
		},
	}

	cmd.Flags().DurationVar(&statusInterval, "status-interval", 30*time.Second, "How often to log session status (0 disables)")

	return cmd
}

type sessionOptions struct {
	reload         <-chan os.Signal
	statusInterval time.Duration
	log            *slog.Logger
}

// session holds everything one run wires together.
type session struct {
	format     audio.SampleFormat
	store      *params.Store
	ring       *stream.Ring
	source     *playback.Source
	worker     *rf.Worker
	handler    *stream.Handler
	supervisor *stream.Supervisor
	rfErrors   chan string
}

func newSession(cfg config.Config, log *slog.Logger) (*session, error) {
	p, err := initialParams(cfg)
	if err != nil {
		return nil, err
	}
	format, err := audio.ParseSampleFormat(cfg.Audio.Format)
	if err != nil {
		return nil, err
	}

	rate := cfg.Audio.SampleRate
	s := &session{
		format:   format,
		store:    params.NewStore(p),
		ring:     stream.NewRing(stream.CapacityFor(rate, cfg.Stream.BufferMS)),
		rfErrors: make(chan string, 8),
	}

	s.source = playback.NewSource(s.store, synth.NewEngine(float64(rate)), s.ring, format, cfg.Audio.Channels)

	s.worker = rf.NewWorker(s.store, float64(rate), s.rfErrors,
		rf.WithLauncher(rf.ExecLauncher{Path: cfg.RF.TransferPath}),
		rf.WithProbe(rf.ExecProbe(cfg.RF.InfoPath)),
		rf.WithCheckInterval(cfg.RF.CheckInterval),
		rf.WithChunkSamples(cfg.RF.ChunkSamples),
		rf.WithAntennaPort(cfg.RF.AntennaPort),
		rf.WithLogger(log.With("component", "rf")),
	)

	streamLog := log.With("component", "stream")
	s.handler = stream.NewHandler(s.ring, rate,
		stream.WithChunkFrames(cfg.Stream.ChunkFrames),
		stream.WithReadWait(time.Duration(cfg.Stream.ReadWaitMS)*time.Millisecond),
		stream.WithLogger(streamLog),
	)
	s.supervisor = stream.NewSupervisor(s.store, s.handler,
		stream.WithPollInterval(time.Duration(cfg.Stream.PollIntervalMS)*time.Millisecond),
		stream.WithShutdownTimeout(cfg.Stream.ShutdownTimeout),
		stream.WithLogger(streamLog),
	)
	return s, nil
}

func runSession(ctx context.Context, cfg config.Config, opts sessionOptions) error {
	log := opts.log
	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	dev, err := playback.Open(playback.Config{
		Name:       cfg.Audio.Device,
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		Format:     s.format,
		BufferMS:   cfg.Audio.BufferMS,
	}, s.source, log)
	if err != nil {
		return err
	}
	defer func() { _ = dev.Close() }()
	if err := dev.Start(); err != nil {
		return fmt.Errorf("start audio device: %w", err)
	}

	snap := s.store.Snapshot()
	log.Info("session started",
		"device", dev.Name(),
		"playing", snap.Playing,
		"being_type", snap.Coherence.BeingType.String(),
		"stream_enabled", snap.StreamEnabled,
		"stream_port", snap.StreamPort,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.worker.Run(gctx) })
	g.Go(func() error { return s.supervisor.Run(gctx) })
	g.Go(func() error {
		s.loop(gctx, cfg, opts)
		return nil
	})

	err = g.Wait()
	log.Info("session stopped")
	return err
}

// loop relays RF errors, handles reloads and logs status until ctx ends.
func (s *session) loop(ctx context.Context, cfg config.Config, opts sessionOptions) {
	log := opts.log

	var status <-chan time.Time
	if opts.statusInterval > 0 {
		t := time.NewTicker(opts.statusInterval)
		defer t.Stop()
		status = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.rfErrors:
			log.Warn("rf error", "message", msg)
		case <-opts.reload:
			s.reload(cfg, log)
		case <-status:
			s.logStatus(log)
		}
	}
}

// reload re-reads the params file and re-applies the stream flags, so a
// stream started from the command line survives the swap.
func (s *session) reload(cfg config.Config, log *slog.Logger) {
	path := cfg.ParamsFile
	if path == "" {
		log.Warn("reload requested but no params file is configured")
		return
	}
	p, err := params.LoadFile(path)
	if err == nil {
		err = applyStreamFlags(&p, cfg.Stream)
	}
	if err != nil {
		log.Error("reload params", "path", path, "error", err)
		return
	}
	next := s.store.Replace(p)
	log.Info("params reloaded",
		"path", path,
		"generation", next.Generation,
		"being_type", next.Coherence.BeingType.String(),
	)
}

func (s *session) logStatus(log *slog.Logger) {
	p := s.store.Snapshot()
	log.Info("status",
		"playing", p.Playing,
		"session_seconds", p.SessionSeconds,
		"session_phase", p.SessionPhase.String(),
		"beat_hz", p.Coherence.BeatHz(),
		"brainwave", p.Coherence.BrainwaveState(),
		"rf_enabled", p.RFEnabled,
		"rf_detected", p.RFDetected,
		"rf_state", s.worker.Transmitter().State().String(),
		"clients", s.handler.Clients(),
	)
}
