package stream

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/example/go-soulwhistle/internal/audio"
)

// ProbeResult describes the stream header returned by a live endpoint.
type ProbeResult struct {
	ContentType string
	SampleRate  int
	Channels    int
	BitDepth    int
}

// Probe connects to a running stream, reads the 44-byte header and checks
// that it declares an unbounded 16-bit PCM WAV stream.
func Probe(ctx context.Context, url string) (ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ProbeResult{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return ProbeResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ProbeResult{}, fmt.Errorf("unexpected stream status: %s", resp.Status)
	}

	res := ProbeResult{ContentType: resp.Header.Get("Content-Type")}
	if !strings.HasPrefix(res.ContentType, "audio/wav") {
		return res, fmt.Errorf("unexpected content type %q", res.ContentType)
	}

	var hdr [audio.HeaderSize]byte
	if _, err := io.ReadFull(resp.Body, hdr[:]); err != nil {
		return res, fmt.Errorf("reading stream header: %w", err)
	}
	return parseHeader(res, hdr)
}

func parseHeader(res ProbeResult, hdr [audio.HeaderSize]byte) (ProbeResult, error) {
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" || string(hdr[36:40]) != "data" {
		return res, fmt.Errorf("malformed WAV header")
	}
	if binary.LittleEndian.Uint32(hdr[4:8]) != unknownSizeMarker ||
		binary.LittleEndian.Uint32(hdr[40:44]) != unknownSizeMarker {
		return res, fmt.Errorf("stream header declares a finite length")
	}
	if binary.LittleEndian.Uint16(hdr[20:22]) != 1 {
		return res, fmt.Errorf("stream is not PCM")
	}

	res.Channels = int(binary.LittleEndian.Uint16(hdr[22:24]))
	res.SampleRate = int(binary.LittleEndian.Uint32(hdr[24:28]))
	res.BitDepth = int(binary.LittleEndian.Uint16(hdr[34:36]))
	return res, nil
}

const unknownSizeMarker = 0xFFFFFFFF
