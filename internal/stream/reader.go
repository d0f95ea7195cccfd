package stream

import (
	"io"
	"time"

	"github.com/example/go-soulwhistle/internal/audio"
)

// Reader defaults.
const (
	DefaultChunkFrames = 1024
	DefaultReadWait    = 5 * time.Millisecond
)

// Reader produces one client's byte stream: the 44-byte WAV header followed
// by 16-bit stereo PCM pulled from the ring. It ends with io.EOF once the
// ring has been flushed since the reader was created.
//
// Read returns (0, nil) after a short sleep when no frames are available,
// keeping the connection open without busy-waiting.
type Reader struct {
	ring    *Ring
	epoch   uint64
	cursor  uint64
	header  []byte
	pcm     []byte
	pending []byte
	frames  []Frame
	wait    time.Duration
	sleep   func(time.Duration)
}

// NewReader captures the ring's current epoch and prepares the header for a
// stereo stream at sampleRate.
func NewReader(ring *Ring, sampleRate, chunkFrames int, wait time.Duration) *Reader {
	if chunkFrames < 1 {
		chunkFrames = DefaultChunkFrames
	}
	hdr := audio.StreamHeader(sampleRate, audio.StereoChannels)
	return &Reader{
		ring:   ring,
		epoch:  ring.Epoch(),
		header: hdr[:],
		frames: make([]Frame, chunkFrames),
		wait:   wait,
		sleep:  time.Sleep,
	}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.ring.Epoch() != r.epoch {
		return 0, io.EOF
	}

	if len(r.header) > 0 {
		n := copy(p, r.header)
		r.header = r.header[n:]
		return n, nil
	}

	if len(r.pending) == 0 {
		n := r.ring.ReadFrom(&r.cursor, r.frames)
		if n == 0 {
			if r.wait > 0 {
				r.sleep(r.wait)
			}
			return 0, nil
		}
		buf := r.pcm[:0]
		for _, f := range r.frames[:n] {
			buf = audio.AppendPCM16(buf, f.L, f.R)
		}
		r.pcm = buf
		r.pending = buf
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
