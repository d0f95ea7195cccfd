package audio

import (
	"encoding/binary"
	"io"
	"math"
)

// HeaderSize is the length of the canonical RIFF/WAVE header.
const HeaderSize = 44

// unknownSize marks a streamed chunk whose final length is not known.
const unknownSize = 0xFFFFFFFF

// StreamHeader builds a 44-byte 16-bit PCM WAV header for an unbounded
// stream. Both the RIFF chunk size and the data sub-chunk size are set to
// 0xFFFFFFFF, the conventional marker for an unknown length.
func StreamHeader(sampleRate, channels int) [HeaderSize]byte {
	byteRate := sampleRate * channels * BitDepth / 8
	blockAlign := channels * BitDepth / 8

	var hdr [HeaderSize]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], unknownSize)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], BitDepth)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], unknownSize)

	return hdr
}

// WriteWAVHeaderStreaming writes StreamHeader to w.
func WriteWAVHeaderStreaming(w io.Writer, sampleRate, channels int) (int, error) {
	hdr := StreamHeader(sampleRate, channels)
	return w.Write(hdr[:])
}

// PCM16 converts a float sample to a signed 16-bit value. Input is clamped
// to [-1, 1]; NaN maps to silence.
func PCM16(s float32) int16 {
	v := float64(s)
	if math.IsNaN(v) {
		return 0
	}
	return int16(math.Max(-1.0, math.Min(1.0, v)) * 32767)
}

// AppendPCM16 appends samples to dst as little-endian 16-bit integers.
func AppendPCM16(dst []byte, samples ...float32) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(PCM16(s)))
	}
	return dst
}

// WritePCM16Samples encodes float32 samples as little-endian 16-bit signed
// integers and writes them to w.
func WritePCM16Samples(w io.Writer, samples []float32) (int, error) {
	return w.Write(AppendPCM16(make([]byte, 0, len(samples)*2), samples...))
}
