package testutil

import (
	"encoding/binary"
	"errors"
	"testing"
)

// AssertValidWAV checks that data is a 16-bit PCM WAV file with the given
// sample rate and channel count and at least one frame.
func AssertValidWAV(tb testing.TB, data []byte, sampleRate, channels int) {
	tb.Helper()

	assertFmtChunk(tb, data, sampleRate, channels)

	dataSize, err := findDataChunkSize(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}

	if frames := dataSize / uint32(2*channels); frames == 0 {
		tb.Fatal("WAV: data chunk contains zero frames")
	}
}

// AssertStreamingHeader checks a 44-byte endless-stream header: RIFF and
// data sizes are 0xFFFFFFFF and the format is 16-bit PCM.
func AssertStreamingHeader(tb testing.TB, hdr []byte, sampleRate, channels int) {
	tb.Helper()

	assertFmtChunk(tb, hdr, sampleRate, channels)

	if got := binary.LittleEndian.Uint32(hdr[4:8]); got != 0xFFFFFFFF {
		tb.Fatalf("stream header: RIFF size = %#x; want 0xFFFFFFFF", got)
	}

	if string(hdr[36:40]) != "data" {
		tb.Fatalf("stream header: missing data chunk (got %q)", string(hdr[36:40]))
	}

	if got := binary.LittleEndian.Uint32(hdr[40:44]); got != 0xFFFFFFFF {
		tb.Fatalf("stream header: data size = %#x; want 0xFFFFFFFF", got)
	}
}

// AssertWAVDurationApprox asserts that the WAV audio duration falls within
// [minSec, maxSec], computed from the data chunk size.
func AssertWAVDurationApprox(tb testing.TB, data []byte, sampleRate, channels int, minSec, maxSec float64) {
	tb.Helper()

	dataSize, err := findDataChunkSize(data)
	if err != nil {
		tb.Fatalf("WAV duration check: %v", err)
	}
	frames := dataSize / uint32(2*channels)

	durationSec := float64(frames) / float64(sampleRate)
	if durationSec < minSec || durationSec > maxSec {
		tb.Fatalf("WAV duration %.3fs out of expected range [%.3fs, %.3fs]", durationSec, minSec, maxSec)
	}
}

func assertFmtChunk(tb testing.TB, data []byte, sampleRate, channels int) {
	tb.Helper()

	if len(data) < 44 {
		tb.Fatalf("WAV data too short: %d bytes", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		tb.Fatalf("WAV: missing RIFF header (got %q)", string(data[0:4]))
	}

	if string(data[8:12]) != "WAVE" {
		tb.Fatalf("WAV: missing WAVE marker (got %q)", string(data[8:12]))
	}

	if string(data[12:16]) != "fmt " {
		tb.Fatalf("WAV: missing fmt chunk (got %q)", string(data[12:16]))
	}

	if audioFmt := binary.LittleEndian.Uint16(data[20:22]); audioFmt != 1 {
		tb.Fatalf("WAV: expected PCM format (1), got %d", audioFmt)
	}

	if got := binary.LittleEndian.Uint16(data[22:24]); int(got) != channels {
		tb.Fatalf("WAV: expected %d channels, got %d", channels, got)
	}

	if got := binary.LittleEndian.Uint32(data[24:28]); int(got) != sampleRate {
		tb.Fatalf("WAV: expected sample rate %d, got %d", sampleRate, got)
	}

	if bitDepth := binary.LittleEndian.Uint16(data[34:36]); bitDepth != 16 {
		tb.Fatalf("WAV: expected 16-bit depth, got %d", bitDepth)
	}
}

// findDataChunkSize walks the WAV chunk list to locate the "data" sub-chunk
// and returns its size in bytes.
func findDataChunkSize(data []byte) (uint32, error) {
	// Start after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])

		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		if id == "data" {
			return size, nil
		}

		offset += 8 + int(size)
		// Pad to even boundary.
		if size%2 != 0 {
			offset++
		}
	}

	return 0, errors.New("data chunk not found in WAV")
}
