package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// SampleFormat is a device output sample encoding.
type SampleFormat int

const (
	FormatFloat32LE SampleFormat = iota
	FormatInt16LE
	FormatUint8
)

// ParseSampleFormat accepts "f32", "s16" or "u8" (and a few long aliases).
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f32", "float32", "f32le", "":
		return FormatFloat32LE, nil
	case "s16", "int16", "s16le":
		return FormatInt16LE, nil
	case "u8", "uint8":
		return FormatUint8, nil
	default:
		return 0, fmt.Errorf("unknown sample format %q (want f32, s16 or u8)", s)
	}
}

func (f SampleFormat) String() string {
	switch f {
	case FormatFloat32LE:
		return "f32"
	case FormatInt16LE:
		return "s16"
	case FormatUint8:
		return "u8"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// BytesPerSample returns the encoded width of one sample.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatInt16LE:
		return 2
	case FormatUint8:
		return 1
	default:
		return 4
	}
}

// PutSample encodes v into dst, which must hold BytesPerSample bytes.
func (f SampleFormat) PutSample(dst []byte, v float32) {
	switch f {
	case FormatInt16LE:
		binary.LittleEndian.PutUint16(dst, uint16(PCM16(v)))
	case FormatUint8:
		dst[0] = PCMU8(v)
	default:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
	}
}

// PCMU8 converts a float sample to unsigned 8-bit with 128 as silence.
func PCMU8(s float32) uint8 {
	v := float64(s)
	if math.IsNaN(v) {
		return 128
	}
	return uint8(math.Round(math.Max(-1, math.Min(1, v))*127) + 128)
}
