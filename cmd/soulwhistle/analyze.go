package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/go-soulwhistle/internal/audio"
	"github.com/example/go-soulwhistle/internal/params"
)

// windowReport is the analysis of one window of a stereo recording.
type windowReport struct {
	StartSec float64
	LeftHz   float64
	RightHz  float64
	BeatHz   float64
	Band     string
	LeftRMS  float64
	RightRMS float64
}

func newAnalyzeCmd() *cobra.Command {
	var window float64

	cmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Estimate per-window carrier frequencies and binaural beat of a stereo WAV",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			clip, err := audio.DecodeWAV(data)
			if err != nil {
				return err
			}
			reports, err := analyzeClip(clip, window)
			if err != nil {
				return err
			}
			return printReports(os.Stdout, clip, reports)
		},
	}

	cmd.Flags().Float64Var(&window, "window", 1, "Analysis window length in seconds")

	return cmd
}

func analyzeClip(clip audio.Clip, windowSec float64) ([]windowReport, error) {
	if clip.Channels < 2 {
		return nil, fmt.Errorf("binaural analysis needs a stereo file, got %d channel(s)", clip.Channels)
	}
	if windowSec <= 0 {
		return nil, fmt.Errorf("window must be positive, got %v", windowSec)
	}

	left, right := clip.Channel(0), clip.Channel(1)
	win := max(int(windowSec*float64(clip.SampleRate)), 2)

	var reports []windowReport
	for start := 0; start+win <= len(left); start += win {
		l, r := left[start:start+win], right[start:start+win]
		lh := audio.ZeroCrossingHz(l, clip.SampleRate)
		rh := audio.ZeroCrossingHz(r, clip.SampleRate)
		beat := math.Abs(lh - rh)
		reports = append(reports, windowReport{
			StartSec: float64(start) / float64(clip.SampleRate),
			LeftHz:   lh,
			RightHz:  rh,
			BeatHz:   beat,
			Band:     params.BrainwaveBand(beat),
			LeftRMS:  audio.RMS(l),
			RightRMS: audio.RMS(r),
		})
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("file shorter than one %.2fs window", windowSec)
	}
	return reports, nil
}

func printReports(w io.Writer, clip audio.Clip, reports []windowReport) error {
	fmt.Fprintf(w, "%d Hz, %d channels, %.2fs\n\n", clip.SampleRate, clip.Channels, clip.Seconds())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "start_s\tleft_hz\tright_hz\tbeat_hz\tband\tleft_rms\tright_rms\t")

	var beatSum float64
	for _, r := range reports {
		beatSum += r.BeatHz
		fmt.Fprintf(tw, "%.2f\t%.2f\t%.2f\t%.2f\t%s\t%.3f\t%.3f\t\n",
			r.StartSec, r.LeftHz, r.RightHz, r.BeatHz, r.Band, r.LeftRMS, r.RightRMS)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	mean := beatSum / float64(len(reports))
	_, err := fmt.Fprintf(w, "\nmean beat: %.2f Hz (%s)\n", mean, params.BrainwaveBand(mean))
	return err
}
