// Package audio holds PCM and WAV helpers shared by the streaming server, the
// speaker backend and the offline render and analyze commands.
package audio

import "fmt"

// BitDepth is the PCM width used on every WAV path.
const BitDepth = 16

// Default playback format.
const (
	DefaultSampleRate = 48000
	StereoChannels    = 2
)

// Clip is interleaved float PCM with its format.
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of sample frames in the clip.
func (c Clip) Frames() int {
	if c.Channels < 1 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Seconds returns the clip duration.
func (c Clip) Seconds() float64 {
	if c.SampleRate < 1 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// Channel extracts one channel as a mono slice.
func (c Clip) Channel(ch int) []float32 {
	if ch < 0 || ch >= c.Channels {
		return nil
	}
	out := make([]float32, 0, c.Frames())
	for i := ch; i < len(c.Samples); i += c.Channels {
		out = append(out, c.Samples[i])
	}
	return out
}

func (c Clip) validate() error {
	if c.SampleRate < 1 {
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.Channels < 1 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	if len(c.Samples)%c.Channels != 0 {
		return fmt.Errorf("sample count %d is not a multiple of %d channels", len(c.Samples), c.Channels)
	}
	return nil
}

// Hook post-processes a clip before it is written.
type Hook func(Clip) Clip

// ApplyHooks runs hooks in order.
func ApplyHooks(clip Clip, hooks ...Hook) Clip {
	out := clip
	for _, hook := range hooks {
		out = hook(out)
	}

	return out
}
