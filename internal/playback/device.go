package playback

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/example/go-soulwhistle/internal/audio"
)

// NullDeviceName selects the silent device that paces the source in real
// time without touching audio hardware.
const NullDeviceName = "null"

// Config describes the output device.
type Config struct {
	// Name is "default" for the system device or "null".
	Name       string
	SampleRate int
	Channels   int
	Format     audio.SampleFormat
	BufferMS   int
}

// Validate rejects configurations no backend can open.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > 8 {
		return fmt.Errorf("channels must be 1-8, got %d", c.Channels)
	}
	if c.BufferMS < 0 {
		return fmt.Errorf("buffer_ms must be non-negative, got %d", c.BufferMS)
	}
	return nil
}

func (c Config) bufferDuration() time.Duration {
	return time.Duration(c.BufferMS) * time.Millisecond
}

// Device is an output stream pulling from a Source.
type Device interface {
	// Start begins pulling samples.
	Start() error
	// Close stops playback and releases the device.
	Close() error
	// Name identifies the backend in logs.
	Name() string
}

// Open opens the device named by cfg, reading from src.
func Open(cfg Config, src io.Reader, log *slog.Logger) (Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	if strings.EqualFold(cfg.Name, NullDeviceName) {
		return NewNullDevice(cfg, src), nil
	}
	dev, err := openSystem(cfg, src)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	log.Info("audio device opened",
		"backend", dev.Name(),
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"format", cfg.Format.String(),
	)
	return dev, nil
}
