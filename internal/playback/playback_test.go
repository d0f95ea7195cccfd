package playback

import (
	"encoding/binary"
	"io"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/go-soulwhistle/internal/audio"
	"github.com/example/go-soulwhistle/internal/params"
	"github.com/example/go-soulwhistle/internal/stream"
	"github.com/example/go-soulwhistle/internal/synth"
	"github.com/example/go-soulwhistle/internal/waveform"
)

func playingParams() params.Params {
	p := params.Default()
	p.Playing = true
	p.CarrierVol = 0.5
	p.CarrierType = waveform.Sine
	p.MasterVol = 1
	return p
}

func f32At(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
}

func TestSource_StereoMatchesEngine(t *testing.T) {
	store := params.NewStore(playingParams())
	src := NewSource(store, synth.NewEngine(48000, synth.WithSeed(3)), nil, audio.FormatFloat32LE, 2)

	buf := make([]byte, 64*8)
	n, err := src.Read(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("Read = %d, %v", n, err)
	}

	ref := synth.NewEngine(48000, synth.WithSeed(3))
	p := store.Snapshot()
	for i := range 64 {
		l, r := ref.Next(&p)
		if got := f32At(buf, 2*i); got != float32(l) {
			t.Fatalf("frame %d L = %v; want %v", i, got, l)
		}
		if got := f32At(buf, 2*i+1); got != float32(r) {
			t.Fatalf("frame %d R = %v; want %v", i, got, r)
		}
	}
}

func TestSource_WholeFramesOnly(t *testing.T) {
	store := params.NewStore(playingParams())
	src := NewSource(store, synth.NewEngine(48000), nil, audio.FormatInt16LE, 2)

	if n, _ := src.Read(make([]byte, 3)); n != 0 {
		t.Errorf("short read = %d; want 0", n)
	}
	if n, _ := src.Read(make([]byte, 10)); n != 8 {
		t.Errorf("read = %d; want 8", n)
	}
}

func TestSource_MonoDownmix(t *testing.T) {
	p := playingParams()
	p.Coherence.BeingType = params.BeingFocus10
	p.Coherence.Enabled = true
	p.Coherence.Volume = 1
	store := params.NewStore(p)

	mono := NewSource(store, synth.NewEngine(48000, synth.WithSeed(1)), nil, audio.FormatFloat32LE, 1)
	buf := make([]byte, 32*4)
	if _, err := mono.Read(buf); err != nil {
		t.Fatal(err)
	}

	ref := synth.NewEngine(48000, synth.WithSeed(1))
	snap := store.Snapshot()
	for i := range 32 {
		l, r := ref.Next(&snap)
		want := (float32(l) + float32(r)) / 2
		if got := f32At(buf, i); math.Abs(float64(got-want)) > 1e-6 {
			t.Fatalf("sample %d = %v; want %v", i, got, want)
		}
	}
}

func TestSource_MirrorsToRingWhenStreaming(t *testing.T) {
	ring := stream.NewRing(1024)
	store := params.NewStore(playingParams())
	src := NewSource(store, synth.NewEngine(48000), ring, audio.FormatFloat32LE, 2)

	_, _ = src.Read(make([]byte, 16*8))
	if ring.Len() != 0 {
		t.Fatalf("ring has %d frames with streaming disabled", ring.Len())
	}

	store.Update(func(p *params.Params) { p.StreamEnabled = true })
	buf := make([]byte, 16*8)
	_, _ = src.Read(buf)
	frames := ring.Snapshot()
	if len(frames) != 16 {
		t.Fatalf("ring has %d frames; want 16", len(frames))
	}
	for i, f := range frames {
		if f.L != f32At(buf, 2*i) || f.R != f32At(buf, 2*i+1) {
			t.Fatalf("frame %d = %+v differs from device output", i, f)
		}
	}
}

func TestSource_GenerationChangeResetsAndFlushes(t *testing.T) {
	ring := stream.NewRing(1024)
	p := playingParams()
	p.StreamEnabled = true
	store := params.NewStore(p)
	src := NewSource(store, synth.NewEngine(48000, synth.WithSeed(9)), ring, audio.FormatFloat32LE, 2)

	first := make([]byte, 32*8)
	_, _ = src.Read(first)
	_, _ = src.Read(make([]byte, 32*8))
	epoch := ring.Epoch()

	next := store.Snapshot()
	store.Replace(next)
	after := make([]byte, 32*8)
	_, _ = src.Read(after)

	if ring.Epoch() == epoch {
		t.Error("ring not flushed on generation change")
	}
	if ring.Len() != 32 {
		t.Errorf("ring holds %d frames after flush; want 32", ring.Len())
	}
	for i := range 64 {
		if f32At(after, i) != f32At(first, i) {
			t.Fatalf("sample %d differs: engine not reset", i)
		}
	}
}

func TestSource_WritesSessionTelemetry(t *testing.T) {
	store := params.NewStore(playingParams())
	src := NewSource(store, synth.NewEngine(1000), nil, audio.FormatFloat32LE, 2)

	_, _ = src.Read(make([]byte, 500*8))
	if got := store.Snapshot().SessionSeconds; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("session seconds = %v; want 0.5", got)
	}
}

type countingReader struct{ n atomic.Int64 }

func (c *countingReader) Read(p []byte) (int, error) {
	c.n.Add(int64(len(p)))
	return len(p), nil
}

func TestNullDevice_PumpsUntilClosed(t *testing.T) {
	src := &countingReader{}
	cfg := Config{Name: NullDeviceName, SampleRate: 48000, Channels: 2, Format: audio.FormatFloat32LE}
	dev, err := Open(cfg, src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if dev.Name() != NullDeviceName {
		t.Errorf("Name() = %q", dev.Name())
	}
	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for src.n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := dev.Close(); err != nil {
		t.Fatal(err)
	}
	pulled := src.n.Load()
	if pulled == 0 {
		t.Fatal("null device never read from its source")
	}
	if pulled%8 != 0 {
		t.Errorf("pulled %d bytes; not whole frames", pulled)
	}

	time.Sleep(3 * nullTick)
	if src.n.Load() != pulled {
		t.Error("null device kept reading after Close")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"stereo", Config{SampleRate: 48000, Channels: 2}, true},
		{"zero rate", Config{SampleRate: 0, Channels: 2}, false},
		{"no channels", Config{SampleRate: 48000, Channels: 0}, false},
		{"negative buffer", Config{SampleRate: 48000, Channels: 2, BufferMS: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v; ok want %v", err, tt.ok)
			}
		})
	}
}

var _ io.Reader = (*Source)(nil)
