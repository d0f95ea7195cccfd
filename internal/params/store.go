package params

import "sync"

// Store is the shared handle to the configuration snapshot. Readers copy the
// whole structure out; writers hold the lock only for the duration of a
// mutation and never across I/O or sleeps.
type Store struct {
	mu sync.RWMutex
	p  Params
}

// NewStore returns a store holding a clamped copy of p.
func NewStore(p Params) *Store {
	p.Clamp()
	return &Store{p: p}
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// Update applies fn under the write lock and clamps the result. Generation
// is preserved; use Replace for whole-snapshot swaps.
func (s *Store) Update(fn func(*Params)) Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen := s.p.Generation
	fn(&s.p)
	s.p.Generation = gen
	s.p.Clamp()
	return s.p
}

// Replace swaps in a whole new snapshot, for example after loading a preset.
// RF transmission is always forced off and the generation is bumped so the
// audio loops reset their phase state. Detected-hardware status survives.
func (s *Store) Replace(p Params) Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Generation = s.p.Generation + 1
	p.RFEnabled = false
	p.RFDetected = s.p.RFDetected
	p.SessionSeconds = 0
	p.SessionPhase = PhaseStartup
	p.Clamp()
	s.p = p
	return s.p
}

// SetSession writes back the audio callback's session telemetry.
func (s *Store) SetSession(seconds float64, phase SessionPhase) {
	s.mu.Lock()
	s.p.SessionSeconds = seconds
	s.p.SessionPhase = phase
	s.mu.Unlock()
}

// SetRFDetected records the hardware-presence probe result.
func (s *Store) SetRFDetected(detected bool) {
	s.mu.Lock()
	s.p.RFDetected = detected
	s.mu.Unlock()
}

// DisableRF clears the transmission request.
func (s *Store) DisableRF() {
	s.mu.Lock()
	s.p.RFEnabled = false
	s.mu.Unlock()
}

// Generation returns the current snapshot generation.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p.Generation
}
