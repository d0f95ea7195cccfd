package audio

import (
	"github.com/cwbudde/algo-dsp/dsp/signal"
	timestats "github.com/cwbudde/algo-dsp/stats/time"
)

// PeakNormalize scales samples in place so the peak amplitude reaches 1.0.
// Silence is returned unchanged.
func PeakNormalize(samples []float32) []float32 {
	if len(samples) == 0 {
		return samples
	}

	x := toFloat64(samples)
	if timestats.Peak(x) == 0 {
		return samples
	}
	out, err := signal.Normalize(x, 1)
	if err != nil {
		return samples
	}
	fromFloat64(samples, out)

	return samples
}

// DCBlock removes the DC offset of each channel of interleaved samples in
// place.
func DCBlock(samples []float32, channels int) []float32 {
	if channels < 1 {
		return samples
	}

	for c := range channels {
		ch := deinterleave(samples, channels, c)
		if len(ch) == 0 {
			continue
		}
		out, err := signal.RemoveDC(ch)
		if err != nil {
			continue
		}
		for i, v := range out {
			samples[i*channels+c] = float32(v)
		}
	}

	return samples
}

// DCBlockHook wraps DCBlock as a Hook.
func DCBlockHook() Hook {
	return func(c Clip) Clip {
		DCBlock(c.Samples, c.Channels)
		return c
	}
}

// FadeIn applies a linear fade-in ramp over ms milliseconds to interleaved
// samples.
func FadeIn(samples []float32, sampleRate, channels int, ms float64) []float32 {
	n := fadeFrames(len(samples), sampleRate, channels, ms)
	for f := range n {
		g := float32(f) / float32(n)
		for c := range channels {
			samples[f*channels+c] *= g
		}
	}

	return samples
}

// FadeOut applies a linear fade-out ramp over ms milliseconds to interleaved
// samples, ending at exactly zero.
func FadeOut(samples []float32, sampleRate, channels int, ms float64) []float32 {
	n := fadeFrames(len(samples), sampleRate, channels, ms)
	frames := len(samples) / max(channels, 1)
	for f := range n {
		g := float32(f) / float32(n)
		idx := (frames - 1 - f) * channels
		for c := range channels {
			samples[idx+c] *= g
		}
	}

	return samples
}

// FadeHook wraps FadeIn and FadeOut as a Hook.
func FadeHook(ms float64) Hook {
	return func(c Clip) Clip {
		FadeIn(c.Samples, c.SampleRate, c.Channels, ms)
		FadeOut(c.Samples, c.SampleRate, c.Channels, ms)
		return c
	}
}

func fadeFrames(total, sampleRate, channels int, ms float64) int {
	if channels < 1 || sampleRate < 1 || ms <= 0 {
		return 0
	}
	n := int(ms / 1000 * float64(sampleRate))
	return min(n, total/channels)
}

// ZeroCrossingHz estimates the dominant frequency of a mono signal from its
// zero crossings, two per period.
func ZeroCrossingHz(samples []float32, sampleRate int) float64 {
	if len(samples) < 2 || sampleRate < 1 {
		return 0
	}

	crossings := timestats.ZeroCrossings(toFloat64(samples))
	seconds := float64(len(samples)) / float64(sampleRate)
	return float64(crossings) / 2 / seconds
}

// RMS returns the root mean square of samples.
func RMS(samples []float32) float64 {
	return timestats.RMS(toFloat64(samples))
}

func toFloat64(samples []float32) []float64 {
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = float64(v)
	}
	return out
}

func fromFloat64(dst []float32, src []float64) {
	for i, v := range src {
		dst[i] = float32(v)
	}
}

// deinterleave copies channel c out of interleaved samples.
func deinterleave(samples []float32, channels, c int) []float64 {
	frames := len(samples) / channels
	out := make([]float64, frames)
	for f := range frames {
		out[f] = float64(samples[f*channels+c])
	}
	return out
}
