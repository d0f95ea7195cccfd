package playback

import (
	"io"
	"sync"
	"time"
)

const nullTick = 10 * time.Millisecond

// NullDevice discards audio but drains its source at the configured rate,
// which keeps session timing and the stream mirror running headless.
type NullDevice struct {
	src        io.Reader
	blockBytes int
	tick       time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewNullDevice returns a device pulling cfg.SampleRate frames per second
// from src.
func NewNullDevice(cfg Config, src io.Reader) *NullDevice {
	frameBytes := cfg.Format.BytesPerSample() * max(cfg.Channels, 1)
	frames := max(cfg.SampleRate*int(nullTick/time.Millisecond)/1000, 1)
	return &NullDevice{
		src:        src,
		blockBytes: frames * frameBytes,
		tick:       nullTick,
	}
}

func (d *NullDevice) Name() string { return NullDeviceName }

func (d *NullDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.pump(d.stop, d.done)
	return nil
}

func (d *NullDevice) pump(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, d.blockBytes)
	t := time.NewTicker(d.tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			_, _ = io.ReadFull(d.src, buf)
		}
	}
}

func (d *NullDevice) Close() error {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}
