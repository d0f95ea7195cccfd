// Package synth implements the signal synthesis engine and the binaural
// coherence engine. An Engine owns its oscillator state; every real-time loop
// builds its own instance and shares only the params snapshot.
package synth

import (
	"math"
	"math/rand/v2"

	"github.com/example/go-soulwhistle/internal/params"
	"github.com/example/go-soulwhistle/internal/waveform"
)

const twoPi = 2 * math.Pi

type options struct {
	seed    uint64
	seedSet bool
}

// Option configures an Engine.
type Option func(*options)

// WithSeed fixes the noise generator seed, making output reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seedSet = true
	}
}

// Layers holds the raw, unscaled output of the six signal layers for one
// sample.
type Layers struct {
	Carrier  float64
	Harmonic float64
	Ping     float64
	Chirp    float64
	Pad      float64
	Breath   float64
}

// Mix scales each layer by its configured volume and sums them.
func (l Layers) Mix(p *params.Params) float64 {
	return l.Carrier*p.CarrierVol +
		l.Harmonic*p.HarmonicVol +
		l.Ping*p.PingVol +
		l.Chirp*p.ChirpVol +
		l.Pad*p.PadVol +
		l.Breath*p.BreathVol
}

// Engine is one instance of the signal synthesis engine. It is not safe for
// concurrent use.
type Engine struct {
	rate float64
	dt   float64

	carrier    float64
	carrier783 float64
	schumann   float64
	fm         float64
	harmonic   float64
	ping       float64
	pad        float64
	chirp      float64
	breath     float64
	chirpTimer float64

	seed      uint64
	noise     *rand.Rand
	coherence *Coherence
}

// NewEngine returns an engine generating samples at sampleRate Hz.
func NewEngine(sampleRate float64, opts ...Option) *Engine {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if !o.seedSet {
		o.seed = rand.Uint64()
	}

	e := &Engine{
		rate:      sampleRate,
		dt:        1 / sampleRate,
		seed:      o.seed,
		coherence: NewCoherence(sampleRate),
	}
	e.noise = newNoise(o.seed)
	return e
}

// SampleRate returns the rate the engine was built for.
func (e *Engine) SampleRate() float64 { return e.rate }

// Coherence exposes the embedded coherence engine for session telemetry.
func (e *Engine) Coherence() *Coherence { return e.coherence }

// Next produces one stereo sample for speaker playback. A paused
// configuration returns silence and advances nothing.
func (e *Engine) Next(p *params.Params) (float64, float64) {
	if !p.Playing {
		return 0, 0
	}

	layers := e.layers(p)
	mono := 0.0
	if !p.LockSignalLayer {
		mono = layers.Mix(p)
	}

	cl, cr := e.nextCoherence(p)
	return (mono + cl) * p.MasterVol, (mono + cr) * p.MasterVol
}

// NextRF produces one mono baseband sample for the RF encoder. The carrier
// layer is replaced by the continuous 7.83 Hz envelope. With the signal
// layer locked only the coherence pair, averaged to mono, is transmitted,
// whatever the being type. The play flag does not gate RF.
func (e *Engine) NextRF(p *params.Params) float64 {
	layers := e.layers(p)

	var v float64
	if p.LockSignalLayer {
		cl, cr := e.coherence.Next(p.Coherence)
		v = (cl + cr) * 0.5
	} else {
		e.nextCoherence(p)
		layers.Carrier = AMDepth + AMDepth*math.Sin(e.schumann)
		v = layers.Mix(p)
	}
	return v * p.MasterVol
}

func (e *Engine) nextCoherence(p *params.Params) (float64, float64) {
	if p.Coherence.BeingType == params.BeingUnknown {
		e.coherence.UpdateTimer(p.Coherence)
		return 0, 0
	}
	return e.coherence.Next(p.Coherence)
}

// Reset clears every oscillator, timer and the coherence session, and
// reseeds the noise source.
func (e *Engine) Reset() {
	*e = Engine{
		rate:      e.rate,
		dt:        e.dt,
		seed:      e.seed,
		noise:     newNoise(e.seed),
		coherence: e.coherence,
	}
	e.coherence.Reset()
}

// layers advances every oscillator by one tick and returns the raw layer
// values.
func (e *Engine) layers(p *params.Params) Layers {
	dt := e.dt
	var out Layers

	// Carrier.
	e.carrier = advance(e.carrier, CarrierHz, dt)
	e.carrier783 = advance(e.carrier783, Carrier783Hz, dt)
	e.schumann = advance(e.schumann, SchumannHz, dt)
	envelope := AMDepth + AMDepth*math.Sin(e.schumann)

	switch p.CarrierType {
	case waveform.SchumannAM:
		out.Carrier = math.Sin(e.carrier) * envelope
	case waveform.SchumannFM:
		e.fm = advance(e.fm, CarrierHz+FMRangeHz*math.Sin(e.schumann), dt)
		out.Carrier = math.Sin(e.fm)
	case waveform.Schumann783AM:
		out.Carrier = math.Sin(e.carrier783) * envelope
	case waveform.Square:
		out.Carrier = waveform.Generate(e.carrier, waveform.Square)
	default:
		out.Carrier = math.Sin(e.carrier)
	}

	e.harmonic = advance(e.harmonic, HarmonicHz, dt)
	out.Harmonic = waveform.Generate(e.harmonic, p.HarmonicType)

	e.ping = advance(e.ping, p.PingFreqHz, dt)
	out.Ping = waveform.Generate(e.ping, p.PingType)

	out.Chirp = e.nextChirp(p.ChirpType, dt)

	e.pad = advance(e.pad, PadHz, dt)
	out.Pad = waveform.Generate(e.pad, p.PadType)

	e.breath = advance(e.breath, BreathLFOHz, dt)
	out.Breath = e.nextBreath(p.BreathType)

	return out
}

func (e *Engine) nextChirp(kind waveform.Kind, dt float64) float64 {
	e.chirpTimer += dt
	if e.chirpTimer > ChirpPeriodSec {
		e.chirpTimer = 0
	}
	if e.chirpTimer >= ChirpWindowSec {
		e.chirp = 0
		return 0
	}

	freq := ChirpBaseHz
	switch kind {
	case waveform.OrganicChirp:
		freq += math.Sin(e.chirpTimer*ChirpFMRate) * ChirpFMRangeHz
	case waveform.SyntheticChirp:
		progress := e.chirpTimer / ChirpWindowSec
		freq = ChirpSweepStartHz + (ChirpSweepEndHz-ChirpSweepStartHz)*progress
	}
	e.chirp = advance(e.chirp, freq, dt)

	var base float64
	switch kind {
	case waveform.Square, waveform.Saw:
		base = waveform.Generate(e.chirp, kind)
	default:
		base = math.Sin(e.chirp)
	}
	return base * ChirpEnvelope(e.chirpTimer)
}

func (e *Engine) nextBreath(kind waveform.Kind) float64 {
	noise := e.noise.Float64()*2 - 1
	switch kind {
	case waveform.LFOBreathing:
		env := AMDepth + AMDepth*math.Sin(e.breath)
		return noise * env * env
	case waveform.PinkNoise:
		return noise * PinkNoiseFactor
	case waveform.Sine:
		return math.Sin(e.breath)
	default:
		return noise
	}
}

// ChirpEnvelope is the triangular chirp amplitude at t seconds into the
// active window; zero outside it.
func ChirpEnvelope(t float64) float64 {
	if t < 0 || t >= ChirpWindowSec {
		return 0
	}
	progress := t / ChirpWindowSec
	if progress < 0.5 {
		return progress * 2
	}
	return 2 * (1 - progress)
}

func advance(phase, freq, dt float64) float64 {
	return math.Mod(phase+twoPi*freq*dt, twoPi)
}

func newNoise(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
