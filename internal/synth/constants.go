package synth

// Oscillator frequencies in Hz.
const (
	SchumannHz   = 7.83
	CarrierHz    = 100.0
	Carrier783Hz = 783.0
	HarmonicHz   = 528.0
	PadHz        = 432.0
	BreathLFOHz  = 0.2

	ChirpBaseHz       = 2500.0
	ChirpSweepStartHz = 2000.0
	ChirpSweepEndHz   = 3000.0
	ChirpFMRangeHz    = 50.0
	ChirpFMRate       = 20.0
	ChirpPeriodSec    = 10.0
	ChirpWindowSec    = 0.2

	// AMDepth is both the offset and the depth of the 7.83 Hz envelope,
	// so the envelope spans 0..1.
	AMDepth = 0.5
	// FMRangeHz is the carrier deviation of the SchumannFM variant.
	FMRangeHz = 20.0

	PinkNoiseFactor = 0.8
)

// Coherence engine constants.
const (
	Harmonic220Hz     = 220.0
	Harmonic220Volume = 0.15
	Harmonic495Hz     = 495.0
	Harmonic495Volume = 0.1

	GammaIntervalSec = 35.0
	GammaDurationSec = 3.0
	GammaCarrierHz   = 300.0
	GammaBeatHz      = 393.0

	// ReturnFloor is the volume multiplier at the end of the return phase.
	ReturnFloor = 0.3
)
