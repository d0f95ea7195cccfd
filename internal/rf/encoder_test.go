package rf

import (
	"math"
	"slices"
	"testing"

	hzrf "hz.tools/rf"
	"hz.tools/sdr"

	"github.com/example/go-soulwhistle/internal/waveform"
)

func TestTransmitParameters(t *testing.T) {
	tests := []struct {
		name string
		got  hzrf.Hz
		want float64
	}{
		{"sample rate", SampleRate, 2_000_000},
		{"nbfm deviation", Deviation(waveform.NBFM), 12_500},
		{"wbfm deviation", Deviation(waveform.WBFM), 75_000},
		{"am deviation", Deviation(waveform.AM), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if float64(tt.got) != tt.want {
				t.Errorf("got %v; want %v Hz", float64(tt.got), tt.want)
			}
		})
	}
}

func TestOversample(t *testing.T) {
	tests := []struct {
		rate float64
		want int
	}{
		{48000, 41},
		{44100, 45},
		{96000, 20},
		{0, 1},
		{4e6, 1},
	}
	for _, tt := range tests {
		if got := Oversample(tt.rate); got != tt.want {
			t.Errorf("Oversample(%v) = %d; want %d", tt.rate, got, tt.want)
		}
	}
}

func TestEncode_AM(t *testing.T) {
	e := NewEncoder(48000)
	for _, v := range []float64{-1, -0.5, 0, 0.25, 0.5, 1, 3} {
		out := e.Encode(nil, v, waveform.AM)
		if len(out) != e.Oversample() {
			t.Fatalf("len = %d; want %d", len(out), e.Oversample())
		}
		want := math.Max(-1, math.Min(1, v))
		for _, s := range out {
			if s[1] != 0 {
				t.Fatalf("AM Q = %d; want 0", s[1])
			}
			if got := float64(s[0]) / 127; math.Abs(got-want) > 1.0/127 {
				t.Errorf("AM(%v) recovered %v", v, got)
			}
		}
	}
}

// recoverFM unwraps the per-sample phase steps and converts the mean back
// to a baseband value.
func recoverFM(start float64, out sdr.SamplesI8, dev float64) float64 {
	prev := start
	total := 0.0
	for _, s := range out {
		ph := math.Atan2(float64(s[1]), float64(s[0]))
		d := ph - prev
		for d > math.Pi {
			d -= 2 * math.Pi
		}
		for d < -math.Pi {
			d += 2 * math.Pi
		}
		total += d
		prev = ph
	}
	step := total / float64(len(out))
	return step * float64(SampleRate) / (2 * math.Pi * dev)
}

func TestEncode_FMRecoversBaseband(t *testing.T) {
	for _, mode := range []waveform.Kind{waveform.NBFM, waveform.WBFM} {
		for _, v := range []float64{-0.8, -0.2, 0.3, 0.5, 1} {
			e := NewEncoder(48000)
			out := e.Encode(nil, v, mode)
			got := recoverFM(0, out, float64(Deviation(mode)))
			if math.Abs(got-v) > 0.02 {
				t.Errorf("%v: recovered %v from %v", mode, got, v)
			}
		}
	}
}

func TestEncode_FMConstantEnvelope(t *testing.T) {
	e := NewEncoder(48000)
	var out sdr.SamplesI8
	for i := range 200 {
		out = e.Encode(out, math.Sin(float64(i)/10), waveform.WBFM)
	}
	for i, s := range out {
		mag := math.Hypot(float64(s[0]), float64(s[1])) / 127
		if math.Abs(mag-1) > 0.02 {
			t.Fatalf("sample %d magnitude %v", i, mag)
		}
	}
}

func TestEncode_FMPhaseContinuesAcrossCalls(t *testing.T) {
	e := NewEncoder(48000)
	first := e.Encode(nil, 0.5, waveform.WBFM)
	last := first[len(first)-1]
	start := math.Atan2(float64(last[1]), float64(last[0]))

	second := e.Encode(nil, 0.5, waveform.WBFM)
	if got := recoverFM(start, second, float64(WBFMDeviation)); math.Abs(got-0.5) > 0.02 {
		t.Errorf("second tick recovered %v; want 0.5", got)
	}

	e.Reset()
	again := e.Encode(nil, 0.5, waveform.WBFM)
	if !slices.Equal(again, first) {
		t.Error("Reset did not restore the initial phase")
	}
}

func TestAppendBytes(t *testing.T) {
	got := AppendBytes([]byte{9}, sdr.SamplesI8{{1, -1}, {-127, 127}})
	want := []byte{9, 1, 0xFF, 0x81, 0x7F}
	if !slices.Equal(got, want) {
		t.Errorf("AppendBytes = %v; want %v", got, want)
	}
}
