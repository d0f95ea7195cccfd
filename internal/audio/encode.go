package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// EncodeWAV encodes an interleaved clip as a 16-bit PCM WAV byte slice.
func EncodeWAV(clip Clip) ([]byte, error) {
	var buf bytes.Buffer

	// wav.NewEncoder requires an io.WriteSeeker; bytes.Buffer is not one.
	if err := WriteWAV(&seekBuffer{buf: &buf}, clip); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAV encodes clip into ws, patching the header sizes on close.
func WriteWAV(ws io.WriteSeeker, clip Clip) error {
	if err := clip.validate(); err != nil {
		return err
	}

	enc := wav.NewEncoder(ws, clip.SampleRate, BitDepth, clip.Channels, 1) // 1 = PCM

	pcmBuf := &goaudio.Float32Buffer{
		Data:           clip.Samples,
		Format:         &goaudio.Format{SampleRate: clip.SampleRate, NumChannels: clip.Channels},
		SourceBitDepth: BitDepth,
	}

	if err := enc.Write(pcmBuf); err != nil {
		return fmt.Errorf("writing PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing encoder: %w", err)
	}
	return nil
}

// seekBuffer wraps a bytes.Buffer to satisfy io.WriteSeeker.
type seekBuffer struct {
	buf *bytes.Buffer
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if s.pos == s.buf.Len() {
		n, err := s.buf.Write(p)
		s.pos += n
		return n, err
	}
	// Overwrite in place, growing the buffer for any remainder.
	data := s.buf.Bytes()
	n := copy(data[s.pos:], p)
	if n < len(p) {
		s.buf.Write(p[n:])
		n = len(p)
	}
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case io.SeekStart:
		newPos = int(offset)
	case io.SeekCurrent:
		newPos = s.pos + int(offset)
	case io.SeekEnd:
		newPos = s.buf.Len() + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if newPos < 0 || newPos > s.buf.Len() {
		return 0, fmt.Errorf("seek out of range: %d", newPos)
	}
	s.pos = newPos
	return int64(newPos), nil
}
