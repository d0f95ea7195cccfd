// Package bench measures how fast the real-time synthesis paths run compared
// to the audio they produce, for the soulwhistle bench command.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"hz.tools/sdr"

	"github.com/example/go-soulwhistle/internal/params"
	"github.com/example/go-soulwhistle/internal/rf"
	"github.com/example/go-soulwhistle/internal/synth"
	"github.com/example/go-soulwhistle/internal/waveform"
)

// Benchmarked paths.
const (
	PathSpeaker = "speaker"
	PathRF      = "rf"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing for a single render run.
type RunResult struct {
	Index         int
	Path          string
	Cold          bool // true for the first run of a path
	Duration      time.Duration
	AudioDuration time.Duration
	RTF           float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		mn = min(mn, d)
		mx = max(mx, d)
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// ---------------------------------------------------------------------------
// Workloads
// ---------------------------------------------------------------------------

// Workload renders the given number of audio frames.
type Workload func(frames int)

// SpeakerWorkload renders stereo frames the way the device callback does.
func SpeakerWorkload(p params.Params, sampleRate float64) Workload {
	engine := synth.NewEngine(sampleRate, synth.WithSeed(1))
	p.Playing = true
	return func(frames int) {
		for range frames {
			engine.Next(&p)
		}
	}
}

// RFWorkload renders baseband ticks and encodes them to I/Q bytes the way
// the RF worker does.
func RFWorkload(p params.Params, sampleRate float64) Workload {
	engine := synth.NewEngine(sampleRate, synth.WithSeed(1))
	enc := rf.NewEncoder(sampleRate)
	mode := p.RFMode
	if !mode.IsRFMode() {
		mode = waveform.WBFM
	}
	var iq sdr.SamplesI8
	var buf []byte
	return func(frames int) {
		for range frames {
			v := waveform.Reshape(engine.NextRF(&p), p.RFPulseType)
			iq = enc.Encode(iq[:0], v, mode)
			buf = rf.AppendBytes(buf[:0], iq)
		}
	}
}

// Run times runs renders of audioDur worth of frames at sampleRate.
func Run(path string, runs int, sampleRate int, audioDur time.Duration, w Workload) []RunResult {
	frames := int(audioDur.Seconds() * float64(sampleRate))
	results := make([]RunResult, 0, runs)
	for i := range runs {
		start := time.Now()
		w(frames)
		elapsed := time.Since(start)
		results = append(results, RunResult{
			Index:         i,
			Path:          path,
			Cold:          i == 0,
			Duration:      elapsed,
			AudioDuration: audioDur,
			RTF:           CalcRTF(elapsed, audioDur),
		})
	}
	return results
}

// ---------------------------------------------------------------------------
// RTF helpers
// ---------------------------------------------------------------------------

// CalcRTF returns render_duration / audio_duration.
// Returns 0 if audioDur is zero to avoid division by zero.
func CalcRTF(renderDur, audioDur time.Duration) float64 {
	if audioDur <= 0 {
		return 0
	}
	return float64(renderDur) / float64(audioDur)
}

// MeanRTF averages the RTF of results.
func MeanRTF(results []RunResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.RTF
	}
	return sum / float64(len(results))
}

// CheckRTFThreshold returns an error if meanRTF > threshold.
// A threshold of 0 disables the gate.
func CheckRTFThreshold(meanRTF, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if meanRTF > threshold {
		return fmt.Errorf("mean RTF %.4f exceeds threshold %.4f", meanRTF, threshold)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-8s  %-5s  %-5s  %10s  %12s  %8s\n", "Path", "Run", "Cold", "MS", "Audio(ms)", "RTF")
	fmt.Fprintln(sb, strings.Repeat("-", 58))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-8s  %-5d  %-5s  %10.2f  %12.1f  %8.4f\n",
			r.Path,
			r.Index+1,
			cold,
			float64(r.Duration.Microseconds())/1000,
			float64(r.AudioDuration.Milliseconds()),
			r.RTF,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 58))
	fmt.Fprintf(sb, "%-8s  %-5s  %-5s  %10.2f  (min)\n", "", "", "", float64(stats.Min.Microseconds())/1000)
	fmt.Fprintf(sb, "%-8s  %-5s  %-5s  %10.2f  (mean)\n", "", "", "", float64(stats.Mean.Microseconds())/1000)
	fmt.Fprintf(sb, "%-8s  %-5s  %-5s  %10.2f  (max)\n", "", "", "", float64(stats.Max.Microseconds())/1000)

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Path       string  `json:"path"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	AudioMS    float64 `json:"audio_ms"`
	RTF        float64 `json:"rtf"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:  ms(stats.Min),
			MeanMS: ms(stats.Mean),
			MaxMS:  ms(stats.Max),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:      r.Index,
			Path:       r.Path,
			Cold:       r.Cold,
			DurationMS: ms(r.Duration),
			AudioMS:    ms(r.AudioDuration),
			RTF:        r.RTF,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
