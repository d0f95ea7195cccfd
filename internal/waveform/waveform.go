// Package waveform holds the closed catalog of signal shapes and the pure
// functions that turn a phase angle (or a baseband value) into a sample.
package waveform

import (
	"fmt"
	"math"
	"strings"
)

// Kind selects a signal shape. The set is closed: every Kind has an entry in
// the kinds table below.
type Kind int

const (
	// Carrier variants.
	SchumannAM Kind = iota
	SchumannFM
	Schumann783AM
	Sine100Hz

	// Standard waves.
	Sine
	Triangle
	Square
	Saw

	// Noise.
	WhiteNoise
	PinkNoise
	LFOBreathing

	// Chirps.
	OrganicChirp
	SyntheticChirp

	// RF modulation modes.
	WBFM
	NBFM
	AM

	numKinds
)

// GenerateFunc maps a phase angle in radians to a sample in [-1, 1].
type GenerateFunc func(phase float64) float64

// ReshapeFunc remaps a continuous baseband value to a reshaped one.
type ReshapeFunc func(v float64) float64

type kindInfo struct {
	name     string
	generate GenerateFunc
	reshape  ReshapeFunc
	rfMode   bool
}

// kinds is indexed by Kind. TestKindTableComplete fails when a Kind is added
// without an entry here.
var kinds = [numKinds]kindInfo{
	SchumannAM:     {name: "SchumannAM", generate: sine, reshape: identity},
	SchumannFM:     {name: "SchumannFM", generate: sine, reshape: identity},
	Schumann783AM:  {name: "Schumann783AM", generate: sine, reshape: identity},
	Sine100Hz:      {name: "Sine100Hz", generate: sine, reshape: identity},
	Sine:           {name: "Sine", generate: sine, reshape: identity},
	Triangle:       {name: "Triangle", generate: triangle, reshape: foldTriangle},
	Square:         {name: "Square", generate: square, reshape: hardSign},
	Saw:            {name: "Saw", generate: saw, reshape: foldSaw},
	WhiteNoise:     {name: "WhiteNoise", generate: sine, reshape: identity},
	PinkNoise:      {name: "PinkNoise", generate: sine, reshape: identity},
	LFOBreathing:   {name: "LfoBreathing", generate: sine, reshape: identity},
	OrganicChirp:   {name: "OrganicChirp", generate: sine, reshape: identity},
	SyntheticChirp: {name: "SyntheticChirp", generate: sine, reshape: identity},
	WBFM:           {name: "WBFM", generate: sine, reshape: identity, rfMode: true},
	NBFM:           {name: "NBFM", generate: sine, reshape: identity, rfMode: true},
	AM:             {name: "AM", generate: sine, reshape: identity, rfMode: true},
}

// Generate returns the sample of kind k at the given phase. Kinds without a
// phase-based shape (noise, chirps, carriers, RF modes) fall back to sine.
func Generate(phase float64, k Kind) float64 {
	if !k.Valid() {
		return sine(phase)
	}
	return kinds[k].generate(phase)
}

// Reshape converts a continuous baseband value into the shape selected by k.
// Square takes the hard sign, Triangle an arcsine fold, Saw a linear fold.
// Everything else passes the value through.
func Reshape(v float64, k Kind) float64 {
	if !k.Valid() {
		return v
	}
	return kinds[k].reshape(v)
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool { return k >= 0 && k < numKinds }

// IsRFMode reports whether k is one of the RF modulation mode markers.
func (k Kind) IsRFMode() bool { return k.Valid() && kinds[k].rfMode }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].name
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("waveform: invalid kind %d", int(k))
	}
	return []byte(kinds[k].name), nil
}

// UnmarshalText decodes a kind name, case-insensitively.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind looks up a kind by its name, ignoring case and surrounding space.
func ParseKind(s string) (Kind, error) {
	name := strings.TrimSpace(s)
	for i := range kinds {
		if strings.EqualFold(kinds[i].name, name) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("waveform: unknown kind %q", s)
}

// Kinds returns every declared kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

func sine(phase float64) float64 { return math.Sin(phase) }

// triangle is 2/pi * asin(sin(phase)).
func triangle(phase float64) float64 {
	return math.Asin(math.Sin(phase)) * 2 / math.Pi
}

func square(phase float64) float64 {
	if math.Sin(phase) >= 0 {
		return 1
	}
	return -1
}

// saw is 2 * (x - floor(x + 0.5)) with x = phase / 2pi.
func saw(phase float64) float64 {
	x := phase / (2 * math.Pi)
	return 2 * (x - math.Floor(x+0.5))
}

func identity(v float64) float64 { return v }

func hardSign(v float64) float64 {
	if v > 0 {
		return 1
	}
	return -1
}

func foldTriangle(v float64) float64 {
	return clamp(math.Asin(clamp(v)) * 2 / math.Pi)
}

func foldSaw(v float64) float64 {
	return clamp(v*2 - 1)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
