// Package params defines the configuration snapshot shared by the speaker
// callback, the RF worker and the streaming loop, plus the thread-safe handle
// those loops read it through.
package params

import (
	"math"

	"github.com/example/go-soulwhistle/internal/waveform"
)

// Default values and valid ranges.
const (
	DefaultMasterVolume = 0.1
	DefaultPingHz       = 17000.0
	DefaultRFFreqHz     = 1_420_405_752 // hydrogen line
	DefaultRFGainDB     = 30
	DefaultStreamPort   = 1123
	PingMinHz           = 1000.0
	PingMaxHz           = 100000.0
	RFFreqMinHz         = 1_000_000
	RFFreqMaxHz         = 6_000_000_000
	RFGainMaxDB         = 47
	StreamPortMin       = 1024
	StreamPortMax       = 65535
	DefaultCoherenceVol = 0.5
	DefaultCustomBeatHz = 4.1
	OptimalCarrierHz    = 400.0
	BeatMinHz           = 0.1
	BeatMaxHz           = 30.0
	DefaultStartupMin   = 2.0
	DefaultInductionMin = 13.0
	DefaultStabilizeMin = 10.0
	DefaultReturnMin    = 5.0
	deltaMaxHz          = 4.0
	thetaMaxHz          = 8.0
	alphaMaxHz          = 12.0
	betaMaxHz           = 30.0
)

// Params is the configuration snapshot. Loops copy it out of a Store once per
// block and never lock per sample.
type Params struct {
	PresetTitle       string `yaml:"preset_title,omitempty" json:"preset_title,omitempty"`
	PresetDescription string `yaml:"preset_description,omitempty" json:"preset_description,omitempty"`
	Experimental      bool   `yaml:"experimental,omitempty" json:"experimental,omitempty"`

	CarrierVol   float64       `yaml:"carrier_vol" json:"carrier_vol"`
	CarrierType  waveform.Kind `yaml:"carrier_type" json:"carrier_type"`
	HarmonicVol  float64       `yaml:"harmonic_vol" json:"harmonic_vol"`
	HarmonicType waveform.Kind `yaml:"harmonic_type" json:"harmonic_type"`
	PingVol      float64       `yaml:"ping_vol" json:"ping_vol"`
	PingType     waveform.Kind `yaml:"ping_type" json:"ping_type"`
	PingFreqHz   float64       `yaml:"ping_freq_hz" json:"ping_freq_hz"`
	ChirpVol     float64       `yaml:"chirp_vol" json:"chirp_vol"`
	ChirpType    waveform.Kind `yaml:"chirp_type" json:"chirp_type"`
	PadVol       float64       `yaml:"pad_vol" json:"pad_vol"`
	PadType      waveform.Kind `yaml:"pad_type" json:"pad_type"`
	BreathVol    float64       `yaml:"breath_vol" json:"breath_vol"`
	BreathType   waveform.Kind `yaml:"breath_type" json:"breath_type"`

	MasterVol float64 `yaml:"master_vol" json:"master_vol"`
	Playing   bool    `yaml:"playing" json:"playing"`

	RFEnabled   bool          `yaml:"rf_enabled" json:"rf_enabled"`
	RFFreqHz    uint64        `yaml:"rf_freq_hz" json:"rf_freq_hz"`
	RFGainDB    uint32        `yaml:"rf_gain" json:"rf_gain"`
	RFMode      waveform.Kind `yaml:"rf_mode" json:"rf_mode"`
	RFPulseType waveform.Kind `yaml:"rf_pulse_type" json:"rf_pulse_type"`
	RFDetected  bool          `yaml:"rf_detected" json:"rf_detected"`

	// LockSignalLayer silences the six signal layers; coherence still runs.
	LockSignalLayer bool `yaml:"lock_signal_layer" json:"lock_signal_layer"`

	StreamEnabled bool   `yaml:"stream_enabled" json:"stream_enabled"`
	StreamPort    uint16 `yaml:"stream_port" json:"stream_port"`

	Coherence Coherence `yaml:"coherence" json:"coherence"`

	// Telemetry written back by the audio callback.
	SessionSeconds float64      `yaml:"-" json:"-"`
	SessionPhase   SessionPhase `yaml:"-" json:"-"`

	// Generation increases on every whole-structure Replace.
	Generation uint64 `yaml:"-" json:"-"`
}

// Default returns a snapshot with every layer silent, RF and streaming off,
// and a low master volume.
func Default() Params {
	return Params{
		CarrierType:  waveform.SchumannAM,
		HarmonicType: waveform.Sine,
		PingType:     waveform.Sine,
		PingFreqHz:   DefaultPingHz,
		ChirpType:    waveform.OrganicChirp,
		PadType:      waveform.Sine,
		BreathType:   waveform.LFOBreathing,

		MasterVol: DefaultMasterVolume,
		Playing:   true,

		RFFreqHz:    DefaultRFFreqHz,
		RFGainDB:    DefaultRFGainDB,
		RFMode:      waveform.WBFM,
		RFPulseType: waveform.Sine,

		StreamPort: DefaultStreamPort,

		Coherence: DefaultCoherence(),
	}
}

// Clamp silently corrects every numeric field into its valid range.
func (p *Params) Clamp() {
	p.CarrierVol = clampUnit(p.CarrierVol)
	p.HarmonicVol = clampUnit(p.HarmonicVol)
	p.PingVol = clampUnit(p.PingVol)
	p.ChirpVol = clampUnit(p.ChirpVol)
	p.PadVol = clampUnit(p.PadVol)
	p.BreathVol = clampUnit(p.BreathVol)
	p.MasterVol = clampUnit(p.MasterVol)

	p.PingFreqHz = clampRange(p.PingFreqHz, PingMinHz, PingMaxHz)

	if p.RFFreqHz < RFFreqMinHz {
		p.RFFreqHz = RFFreqMinHz
	} else if p.RFFreqHz > RFFreqMaxHz {
		p.RFFreqHz = RFFreqMaxHz
	}
	if p.RFGainDB > RFGainMaxDB {
		p.RFGainDB = RFGainMaxDB
	}
	if !p.RFMode.IsRFMode() {
		p.RFMode = waveform.WBFM
	}

	if p.StreamPort < StreamPortMin {
		p.StreamPort = StreamPortMin
	}

	p.Coherence.Clamp()
}

// SignalMix returns the six layer volumes in mixing order: carrier,
// harmonic, ping, chirp, pad, breath.
func (p *Params) SignalMix() [6]float64 {
	return [6]float64{p.CarrierVol, p.HarmonicVol, p.PingVol, p.ChirpVol, p.PadVol, p.BreathVol}
}

func clampUnit(v float64) float64 { return clampRange(v, 0, 1) }

func clampRange(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
