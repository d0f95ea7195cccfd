// Package rf turns the synthesis engine's baseband output into 8-bit I/Q
// samples and feeds them to an external SDR transmitter process.
package rf

import (
	"math"

	hzrf "hz.tools/rf"
	"hz.tools/sdr"

	"github.com/example/go-soulwhistle/internal/waveform"
)

// Fixed transmit parameters.
var (
	SampleRate    = 2 * hzrf.MHz
	NBFMDeviation = 12.5 * hzrf.KHz
	WBFMDeviation = 75 * hzrf.KHz
)

const fullScale = 127

// Deviation returns the peak FM deviation for mode; zero for AM and
// non-RF kinds.
func Deviation(mode waveform.Kind) hzrf.Hz {
	switch mode {
	case waveform.NBFM:
		return NBFMDeviation
	case waveform.WBFM:
		return WBFMDeviation
	default:
		return 0
	}
}

// Oversample is the number of RF samples emitted per audio tick.
func Oversample(audioRate float64) int {
	if audioRate <= 0 {
		return 1
	}
	return max(int(float64(SampleRate)/audioRate), 1)
}

// Encoder converts baseband values in [-1, 1] to I/Q samples at SampleRate.
// FM modes integrate into a running phase owned by the encoder.
type Encoder struct {
	oversample int
	phase      float64
}

// NewEncoder returns an encoder for an engine running at audioRate.
func NewEncoder(audioRate float64) *Encoder {
	return &Encoder{oversample: Oversample(audioRate)}
}

// Oversample returns the RF samples emitted per Encode call.
func (e *Encoder) Oversample() int { return e.oversample }

// Encode appends one audio tick's worth of I/Q samples for v to dst.
//
// AM puts the value on I with Q held at zero. NBFM and WBFM treat v as the
// instantaneous frequency deviation and emit cos/sin of the integrated phase.
func (e *Encoder) Encode(dst sdr.SamplesI8, v float64, mode waveform.Kind) sdr.SamplesI8 {
	if mode == waveform.AM {
		i := quantize(v)
		for range e.oversample {
			dst = append(dst, [2]int8{i, 0})
		}
		return dst
	}

	dev := Deviation(mode)
	if dev == 0 {
		dev = WBFMDeviation
	}
	step := v * float64(dev) * 2 * math.Pi / float64(SampleRate)
	for range e.oversample {
		e.phase = math.Mod(e.phase+step, 2*math.Pi)
		dst = append(dst, [2]int8{quantize(math.Cos(e.phase)), quantize(math.Sin(e.phase))})
	}
	return dst
}

// Reset zeroes the FM phase.
func (e *Encoder) Reset() { e.phase = 0 }

// AppendBytes interleaves samples as signed I, Q byte pairs, the format
// hackrf_transfer reads from stdin.
func AppendBytes(dst []byte, samples sdr.SamplesI8) []byte {
	for _, s := range samples {
		dst = append(dst, byte(s[0]), byte(s[1]))
	}
	return dst
}

func quantize(v float64) int8 {
	return int8(math.Round(math.Max(-1, math.Min(1, v)) * fullScale))
}
