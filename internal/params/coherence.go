package params

import (
	"fmt"
	"math"
	"strings"
)

// BeingType selects a named entrainment preset.
type BeingType int

const (
	BeingUnknown BeingType = iota
	BeingFocus10
	BeingFocus12
	BeingFocus15
	BeingFocus21
	BeingCustom

	numBeingTypes
)

var beingNames = [numBeingTypes]string{
	BeingUnknown: "Unknown",
	BeingFocus10: "HumanFocus10",
	BeingFocus12: "HumanFocus12",
	BeingFocus15: "HumanFocus15",
	BeingFocus21: "HumanFocus21",
	BeingCustom:  "HumanCustom",
}

var beingPresetFiles = [numBeingTypes]string{
	BeingUnknown: "DEFAULT_uap_frequencies.json",
	BeingFocus10: "DEFAULT_focus_10_mind_awake.json",
	BeingFocus12: "DEFAULT_focus_12_expanded.json",
	BeingFocus15: "DEFAULT_focus_15_no_time.json",
	BeingFocus21: "DEFAULT_focus_21_bridge.json",
	BeingCustom:  "DEFAULT_deep_focus_active.json",
}

func (b BeingType) String() string {
	if b < 0 || b >= numBeingTypes {
		return fmt.Sprintf("BeingType(%d)", int(b))
	}
	return beingNames[b]
}

// PresetFile returns the file name of the bundled default preset for b.
func (b BeingType) PresetFile() string {
	if b < 0 || b >= numBeingTypes {
		return ""
	}
	return beingPresetFiles[b]
}

// MarshalText encodes the being type by name.
func (b BeingType) MarshalText() ([]byte, error) {
	if b < 0 || b >= numBeingTypes {
		return nil, fmt.Errorf("params: invalid being type %d", int(b))
	}
	return []byte(beingNames[b]), nil
}

// UnmarshalText accepts the canonical name, case-insensitively.
func (b *BeingType) UnmarshalText(text []byte) error {
	name := strings.TrimSpace(string(text))
	for i, n := range beingNames {
		if strings.EqualFold(n, name) {
			*b = BeingType(i)
			return nil
		}
	}
	return fmt.Errorf("params: unknown being type %q", name)
}

// SessionPhase is the coherence session state.
type SessionPhase int

const (
	PhaseStartup SessionPhase = iota
	PhaseInduction
	PhaseStabilization
	PhaseReturn
)

func (p SessionPhase) String() string {
	switch p {
	case PhaseStartup:
		return "Startup"
	case PhaseInduction:
		return "Induction"
	case PhaseStabilization:
		return "Stabilization"
	case PhaseReturn:
		return "Return"
	default:
		return fmt.Sprintf("SessionPhase(%d)", int(p))
	}
}

// Coherence configures the binaural engine. The beat frequency is always
// derived from the two carriers.
type Coherence struct {
	Enabled      bool      `yaml:"enabled" json:"enabled"`
	BeingType    BeingType `yaml:"being_type" json:"being_type"`
	LeftHz       float64   `yaml:"left_carrier" json:"left_carrier"`
	RightHz      float64   `yaml:"right_carrier" json:"right_carrier"`
	Harmonic220  bool      `yaml:"harmonic_220hz" json:"harmonic_220hz"`
	Harmonic495  bool      `yaml:"harmonic_495hz" json:"harmonic_495hz"`
	CustomBeatHz float64   `yaml:"custom_binaural_hz" json:"custom_binaural_hz"`
	Volume       float64   `yaml:"volume" json:"volume"`

	StartupMin   float64 `yaml:"startup_duration_min" json:"startup_duration_min"`
	InductionMin float64 `yaml:"induction_duration_min" json:"induction_duration_min"`
	StabilizeMin float64 `yaml:"stabilization_duration_min" json:"stabilization_duration_min"`
	ReturnMin    float64 `yaml:"return_duration_min" json:"return_duration_min"`
}

// DefaultCoherence returns the disabled default: both carriers at 400 Hz
// (no beat) and the standard 2/13/10/5 minute session.
func DefaultCoherence() Coherence {
	return Coherence{
		LeftHz:       OptimalCarrierHz,
		RightHz:      OptimalCarrierHz,
		CustomBeatHz: DefaultCustomBeatHz,
		Volume:       DefaultCoherenceVol,
		StartupMin:   DefaultStartupMin,
		InductionMin: DefaultInductionMin,
		StabilizeMin: DefaultStabilizeMin,
		ReturnMin:    DefaultReturnMin,
	}
}

// Clamp keeps carriers and durations non-negative, the custom beat inside
// 0.1..30 Hz and the volume inside 0..1.
func (c *Coherence) Clamp() {
	c.LeftHz = nonNegative(c.LeftHz)
	c.RightHz = nonNegative(c.RightHz)
	c.CustomBeatHz = clampRange(c.CustomBeatHz, BeatMinHz, BeatMaxHz)
	c.Volume = clampUnit(c.Volume)
	c.StartupMin = nonNegative(c.StartupMin)
	c.InductionMin = nonNegative(c.InductionMin)
	c.StabilizeMin = nonNegative(c.StabilizeMin)
	c.ReturnMin = nonNegative(c.ReturnMin)
	if c.BeingType < 0 || c.BeingType >= numBeingTypes {
		c.BeingType = BeingUnknown
	}
}

// ApplyCustomBinaural sets the carriers to 400 Hz and 400+beat Hz and turns
// on the low harmonics for slow beats.
func (c *Coherence) ApplyCustomBinaural(beatHz float64) {
	beat := clampRange(beatHz, BeatMinHz, BeatMaxHz)
	c.CustomBeatHz = beat
	c.LeftHz = OptimalCarrierHz
	c.RightHz = OptimalCarrierHz + beat
	c.Harmonic220 = beat < thetaMaxHz
	c.Harmonic495 = beat < deltaMaxHz
}

// BeatHz is |left - right|.
func (c Coherence) BeatHz() float64 { return math.Abs(c.LeftHz - c.RightHz) }

// BrainwaveState names the band the current beat falls in.
func (c Coherence) BrainwaveState() string {
	return BrainwaveBand(c.BeatHz())
}

// BrainwaveBand names the EEG band of a beat frequency.
func BrainwaveBand(hz float64) string {
	switch {
	case hz < deltaMaxHz:
		return "Delta"
	case hz < thetaMaxHz:
		return "Theta"
	case hz < alphaMaxHz:
		return "Alpha"
	case hz < betaMaxHz:
		return "Beta"
	default:
		return "Gamma"
	}
}

// InductionEnd, StabilizationEnd and TotalMinutes return the cumulative
// phase boundaries in minutes.
func (c Coherence) InductionEnd() float64 { return c.StartupMin + c.InductionMin }

func (c Coherence) StabilizationEnd() float64 { return c.InductionEnd() + c.StabilizeMin }

func (c Coherence) TotalMinutes() float64 { return c.StabilizationEnd() + c.ReturnMin }

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
