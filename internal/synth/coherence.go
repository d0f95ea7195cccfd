package synth

import (
	"math"

	"github.com/example/go-soulwhistle/internal/params"
)

// Coherence is the binaural beat generator and session state machine. It is
// owned by a single loop and is not safe for concurrent use.
type Coherence struct {
	rate float64

	left, right    float64
	h220, h495     float64
	gammaTimer     float64
	gammaElapsed   float64
	gammaActive    bool
	sessionSamples uint64
	phase          params.SessionPhase
}

// NewCoherence returns a coherence engine running at sampleRate Hz.
func NewCoherence(sampleRate float64) *Coherence {
	return &Coherence{rate: sampleRate}
}

// UpdateTimer advances the session clock by one sample without producing
// audio.
func (c *Coherence) UpdateTimer(cfg params.Coherence) {
	c.sessionSamples++
	if next := PhaseAt(c.minutes(), cfg); next > c.phase {
		c.phase = next
	}
}

// Next advances the session by one sample and returns the stereo pair. A
// disabled configuration yields silence while the session clock keeps
// running.
func (c *Coherence) Next(cfg params.Coherence) (float64, float64) {
	c.UpdateTimer(cfg)
	if !cfg.Enabled {
		return 0, 0
	}

	dt := 1 / c.rate
	leftHz, rightHz := cfg.LeftHz, cfg.RightHz
	if cfg.BeingType == params.BeingFocus10 {
		leftHz, rightHz = c.gamma(dt, leftHz, rightHz)
	}

	c.left = advance(c.left, leftHz, dt)
	c.right = advance(c.right, rightHz, dt)
	l := math.Sin(c.left)
	r := math.Sin(c.right)

	if cfg.Harmonic220 {
		c.h220 = advance(c.h220, Harmonic220Hz, dt)
		h := math.Sin(c.h220) * Harmonic220Volume
		l += h
		r += h
	}
	if cfg.Harmonic495 {
		c.h495 = advance(c.h495, Harmonic495Hz, dt)
		h := math.Sin(c.h495) * Harmonic495Volume
		l += h
		r += h
	}

	vol := cfg.Volume * c.multiplier(cfg)
	return l * vol, r * vol
}

// gamma runs the burst timer and returns the carriers to use for this sample.
func (c *Coherence) gamma(dt, leftHz, rightHz float64) (float64, float64) {
	c.gammaTimer += dt
	if c.gammaTimer >= GammaIntervalSec && !c.gammaActive {
		c.gammaActive = true
		c.gammaElapsed = 0
	}
	if !c.gammaActive {
		return leftHz, rightHz
	}

	c.gammaElapsed += dt
	if c.gammaElapsed >= GammaDurationSec {
		c.gammaActive = false
		c.gammaTimer = 0
	}
	return GammaCarrierHz, GammaCarrierHz + GammaBeatHz
}

// multiplier evaluates the ramp for the tracked phase, which never moves
// backwards.
func (c *Coherence) multiplier(cfg params.Coherence) float64 {
	return phaseVolume(c.phase, c.minutes(), cfg)
}

// Reset zeroes every phase, timer and the session clock.
func (c *Coherence) Reset() {
	*c = Coherence{rate: c.rate}
}

// Session returns the elapsed session time in seconds and the current phase.
func (c *Coherence) Session() (float64, params.SessionPhase) {
	return float64(c.sessionSamples) / c.rate, c.phase
}

// GammaActive reports whether a gamma burst is currently overriding the
// carriers.
func (c *Coherence) GammaActive() bool { return c.gammaActive }

func (c *Coherence) minutes() float64 {
	return float64(c.sessionSamples) / c.rate / 60
}

// PhaseAt returns the session phase for the given elapsed minutes.
func PhaseAt(minutes float64, cfg params.Coherence) params.SessionPhase {
	switch {
	case minutes < cfg.StartupMin:
		return params.PhaseStartup
	case minutes < cfg.InductionEnd():
		return params.PhaseInduction
	case minutes < cfg.StabilizationEnd():
		return params.PhaseStabilization
	default:
		return params.PhaseReturn
	}
}

// VolumeMultiplier returns the session ramp at the given elapsed minutes:
// 0→1 over startup, 1 through induction and stabilization, 1→0.3 over return.
func VolumeMultiplier(minutes float64, cfg params.Coherence) float64 {
	return phaseVolume(PhaseAt(minutes, cfg), minutes, cfg)
}

func phaseVolume(phase params.SessionPhase, minutes float64, cfg params.Coherence) float64 {
	switch phase {
	case params.PhaseStartup:
		if cfg.StartupMin <= 0 {
			return 1
		}
		return math.Min(minutes/cfg.StartupMin, 1)
	case params.PhaseReturn:
		if cfg.ReturnMin <= 0 {
			return ReturnFloor
		}
		progress := (minutes - cfg.StabilizationEnd()) / cfg.ReturnMin
		drop := 1 - ReturnFloor
		return 1 - math.Max(0, math.Min(progress*drop, drop))
	default:
		return 1
	}
}
