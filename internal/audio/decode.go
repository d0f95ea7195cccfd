package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cwbudde/wav"
)

// ErrFormatMismatch is returned when a decoded WAV does not match the expected format.
var ErrFormatMismatch = errors.New("WAV format mismatch")

// DecodeWAV decodes 16-bit PCM WAV bytes into an interleaved clip.
func DecodeWAV(data []byte) (Clip, error) {
	if len(data) == 0 {
		return Clip{}, errors.New("empty WAV input")
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Clip{}, errors.New("invalid WAV file")
	}
	if dec.BitDepth != BitDepth {
		return Clip{}, fmt.Errorf("%w: bit depth %d, want %d", ErrFormatMismatch, dec.BitDepth, BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return Clip{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Samples:    buf.Data,
	}, nil
}

// Expect checks the clip's rate and channel count.
func (c Clip) Expect(sampleRate, channels int) error {
	if c.SampleRate != sampleRate {
		return fmt.Errorf("%w: sample rate %d, want %d", ErrFormatMismatch, c.SampleRate, sampleRate)
	}
	if c.Channels != channels {
		return fmt.Errorf("%w: channels %d, want %d", ErrFormatMismatch, c.Channels, channels)
	}
	return nil
}
