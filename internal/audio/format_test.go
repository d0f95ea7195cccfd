package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestParseSampleFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    SampleFormat
		wantErr bool
	}{
		{"f32", FormatFloat32LE, false},
		{"", FormatFloat32LE, false},
		{"S16", FormatInt16LE, false},
		{" u8 ", FormatUint8, false},
		{"s24", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSampleFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSampleFormat(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSampleFormat(%q) = %s; want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestSampleFormat_PutSample(t *testing.T) {
	t.Run("float32", func(t *testing.T) {
		buf := make([]byte, FormatFloat32LE.BytesPerSample())
		FormatFloat32LE.PutSample(buf, 0.25)
		if got := math.Float32frombits(binary.LittleEndian.Uint32(buf)); got != 0.25 {
			t.Errorf("decoded %v; want 0.25", got)
		}
	})

	t.Run("int16", func(t *testing.T) {
		buf := make([]byte, FormatInt16LE.BytesPerSample())
		FormatInt16LE.PutSample(buf, -1.5)
		if got := int16(binary.LittleEndian.Uint16(buf)); got != -32767 {
			t.Errorf("decoded %d; want -32767", got)
		}
	})

	t.Run("uint8", func(t *testing.T) {
		buf := make([]byte, FormatUint8.BytesPerSample())
		tests := []struct {
			in   float32
			want uint8
		}{
			{0, 128},
			{1, 255},
			{-1, 1},
			{2, 255},
			{float32(math.NaN()), 128},
		}
		for _, tt := range tests {
			FormatUint8.PutSample(buf, tt.in)
			if buf[0] != tt.want {
				t.Errorf("PutSample(%v) = %d; want %d", tt.in, buf[0], tt.want)
			}
		}
	})
}
