//go:build !headless

package playback

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/example/go-soulwhistle/internal/audio"
)

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
	otoCfg  Config
)

type otoDevice struct {
	player *oto.Player

	mu      sync.Mutex
	started bool
}

func otoFormat(f audio.SampleFormat) (oto.Format, error) {
	switch f {
	case audio.FormatFloat32LE:
		return oto.FormatFloat32LE, nil
	case audio.FormatInt16LE:
		return oto.FormatSignedInt16LE, nil
	case audio.FormatUint8:
		return oto.FormatUnsignedInt8, nil
	default:
		return 0, fmt.Errorf("unsupported sample format %v", f)
	}
}

func openSystem(cfg Config, src io.Reader) (Device, error) {
	format, err := otoFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       format,
			BufferSize:   cfg.bufferDuration(),
		})
		if otoErr == nil {
			<-ready
			otoCfg = cfg
		}
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoCfg.SampleRate != cfg.SampleRate || otoCfg.Channels != cfg.Channels || otoCfg.Format != cfg.Format {
		return nil, fmt.Errorf("audio context already open at %d Hz, %d ch, %v", otoCfg.SampleRate, otoCfg.Channels, otoCfg.Format)
	}

	return &otoDevice{player: otoCtx.NewPlayer(src)}, nil
}

func (d *otoDevice) Name() string { return "oto" }

func (d *otoDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		d.player.Play()
		d.started = true
	}
	return nil
}

func (d *otoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = false
	return d.player.Close()
}
