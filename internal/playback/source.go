// Package playback drives the synthesis engine from the audio device's pull
// callback and mirrors every rendered block into the streaming ring.
package playback

import (
	"github.com/example/go-soulwhistle/internal/audio"
	"github.com/example/go-soulwhistle/internal/params"
	"github.com/example/go-soulwhistle/internal/stream"
	"github.com/example/go-soulwhistle/internal/synth"
)

// Store is the part of params.Store the audio callback uses.
type Store interface {
	Snapshot() params.Params
	SetSession(seconds float64, phase params.SessionPhase)
}

// Source is the device's io.Reader. Each Read renders one block from a
// single params snapshot, so a block never mixes two configurations.
type Source struct {
	store    Store
	engine   *synth.Engine
	ring     *stream.Ring
	format   audio.SampleFormat
	channels int

	generation uint64
	frames     []stream.Frame
}

// NewSource returns a source rendering engine output as channels
// interleaved samples in format. ring may be nil when streaming is not
// wired.
func NewSource(store Store, engine *synth.Engine, ring *stream.Ring, format audio.SampleFormat, channels int) *Source {
	return &Source{
		store:      store,
		engine:     engine,
		ring:       ring,
		format:     format,
		channels:   max(channels, 1),
		generation: store.Snapshot().Generation,
	}
}

// FrameBytes returns the encoded size of one interleaved frame.
func (s *Source) FrameBytes() int {
	return s.format.BytesPerSample() * s.channels
}

// Read fills p with whole frames. It never blocks and never fails.
func (s *Source) Read(p []byte) (int, error) {
	bps := s.format.BytesPerSample()
	fb := s.FrameBytes()
	n := len(p) / fb
	if n == 0 {
		return 0, nil
	}

	snap := s.store.Snapshot()
	if snap.Generation != s.generation {
		s.generation = snap.Generation
		s.engine.Reset()
		if s.ring != nil {
			s.ring.Flush()
		}
	}

	mirror := snap.StreamEnabled && s.ring != nil
	s.frames = s.frames[:0]

	for i := range n {
		l, r := s.engine.Next(&snap)
		fl, fr := float32(l), float32(r)
		off := i * fb

		if s.channels == 1 {
			s.format.PutSample(p[off:], (fl+fr)/2)
		} else {
			s.format.PutSample(p[off:], fl)
			s.format.PutSample(p[off+bps:], fr)
			for ch := 2; ch < s.channels; ch++ {
				s.format.PutSample(p[off+ch*bps:], 0)
			}
		}

		if mirror {
			s.frames = append(s.frames, stream.Frame{L: fl, R: fr})
		}
	}

	if mirror {
		s.ring.PushBatch(s.frames)
	}

	secs, phase := s.engine.Coherence().Session()
	s.store.SetSession(secs, phase)
	return n * fb, nil
}
