// Package stream serves the live speaker mix over HTTP as an endless WAV
// response. The audio callback pushes stereo frames into a Ring; each
// connected client drains it through its own Reader cursor.
package stream

import (
	"sync"
	"sync/atomic"
)

// Frame is one stereo sample pair.
type Frame struct {
	L, R float32
}

// Ring is a bounded overwrite-oldest buffer of frames with one producer and
// any number of cursor-holding consumers. Positions are absolute frame
// counts, so a cursor stays meaningful across wrap-around.
type Ring struct {
	mu    sync.RWMutex
	buf   []Frame
	head  uint64 // oldest retained frame
	tail  uint64 // next frame to write
	epoch atomic.Uint64
}

// CapacityFor returns the frame capacity for bufferMS of audio at
// sampleRate, never less than one frame.
func CapacityFor(sampleRate, bufferMS int) int {
	return max(sampleRate*bufferMS/1000, 1)
}

// NewRing returns an empty ring holding up to capacity frames.
func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]Frame, max(capacity, 1))}
}

// PushBatch appends frames under a single lock acquisition, evicting the
// oldest frames beyond capacity.
func (r *Ring) PushBatch(frames []Frame) {
	if len(frames) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	size := uint64(len(r.buf))
	if uint64(len(frames)) > size {
		// Only the newest frames can survive; account for the skipped ones.
		skipped := uint64(len(frames)) - size
		r.tail += skipped
		frames = frames[skipped:]
	}
	for _, f := range frames {
		r.buf[r.tail%size] = f
		r.tail++
	}
	if r.tail-r.head > size {
		r.head = r.tail - size
	}
}

// ReadFrom copies up to len(dst) frames starting at *cursor and advances the
// cursor. A cursor outside the retained range is moved to the oldest frame.
// It returns the number of frames copied; zero when the ring is empty or the
// cursor has caught up with the producer.
func (r *Ring) ReadFrom(cursor *uint64, dst []Frame) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.head == r.tail {
		*cursor = r.tail
		return 0
	}
	if *cursor < r.head || *cursor > r.tail {
		*cursor = r.head
	}

	size := uint64(len(r.buf))
	n := min(uint64(len(dst)), r.tail-*cursor)
	for i := range n {
		dst[i] = r.buf[(*cursor+i)%size]
	}
	*cursor += n
	return int(n)
}

// Flush discards every buffered frame and bumps the epoch so readers started
// before the flush end their streams.
func (r *Ring) Flush() {
	r.mu.Lock()
	r.head = r.tail
	r.epoch.Add(1)
	r.mu.Unlock()
}

// Epoch returns the current flush generation.
func (r *Ring) Epoch() uint64 { return r.epoch.Load() }

// Len returns the number of retained frames.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int(r.tail - r.head)
}

// Cap returns the capacity in frames.
func (r *Ring) Cap() int { return len(r.buf) }

// Snapshot returns the retained frames, oldest first.
func (r *Ring) Snapshot() []Frame {
	var cursor uint64
	out := make([]Frame, r.Cap())
	n := r.ReadFrom(&cursor, out)
	return out[:n]
}
