package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-soulwhistle/internal/bench"
	"github.com/example/go-soulwhistle/internal/params"
)

type benchOptions struct {
	Runs       int
	Seconds    float64
	SampleRate int
	Paths      []string
}

func newBenchCmd() *cobra.Command {
	var (
		opts         benchOptions
		format       string
		rtfThreshold float64
		cpuProfile   string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the speaker and RF render paths against real time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if format != "table" && format != "json" {
				return errors.New("--format must be 'table' or 'json'")
			}
			if opts.SampleRate == 0 {
				opts.SampleRate = cfg.Audio.SampleRate
			}

			p, err := initialParams(cfg)
			if err != nil {
				return err
			}

			if cpuProfile != "" {
				f, err := os.Create(cpuProfile)
				if err != nil {
					return fmt.Errorf("create cpu profile: %w", err)
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return fmt.Errorf("start cpu profile: %w", err)
				}
				defer pprof.StopCPUProfile()
			}

			results, err := runBench(p, opts)
			if err != nil {
				return err
			}
			writeBenchReport(cmd.OutOrStdout(), results, format)

			return bench.CheckRTFThreshold(bench.MeanRTF(results), rtfThreshold)
		},
	}

	cmd.Flags().IntVar(&opts.Runs, "runs", 5, "Runs per path")
	cmd.Flags().Float64Var(&opts.Seconds, "seconds", 10, "Audio seconds rendered per run")
	cmd.Flags().IntVar(&opts.SampleRate, "sample-rate", 0, "Render sample rate (0 = audio.sample_rate)")
	cmd.Flags().StringSliceVar(&opts.Paths, "path", []string{bench.PathSpeaker, bench.PathRF}, "Paths to benchmark (speaker,rf)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().Float64Var(&rtfThreshold, "rtf-threshold", 0, "Fail when mean RTF exceeds this value (0 disables)")
	cmd.Flags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile to this file")

	return cmd
}

func runBench(p params.Params, opts benchOptions) ([]bench.RunResult, error) {
	if opts.Runs < 1 {
		return nil, errors.New("--runs must be at least 1")
	}
	if opts.Seconds <= 0 {
		return nil, errors.New("--seconds must be positive")
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", opts.SampleRate)
	}

	rate := float64(opts.SampleRate)
	dur := time.Duration(opts.Seconds * float64(time.Second))

	var results []bench.RunResult
	for _, path := range opts.Paths {
		var w bench.Workload
		switch path {
		case bench.PathSpeaker:
			w = bench.SpeakerWorkload(p, rate)
		case bench.PathRF:
			w = bench.RFWorkload(p, rate)
		default:
			return nil, fmt.Errorf("unknown bench path %q", path)
		}
		results = append(results, bench.Run(path, opts.Runs, opts.SampleRate, dur, w)...)
	}
	return results, nil
}

func writeBenchReport(w io.Writer, results []bench.RunResult, format string) {
	durations := make([]time.Duration, len(results))
	for i, r := range results {
		durations[i] = r.Duration
	}
	stats := bench.ComputeStats(durations)

	switch format {
	case "json":
		bench.FormatJSON(results, stats, w)
	default:
		bench.FormatTable(results, stats, w)
		fmt.Fprintf(w, "mean RTF: %.4f\n", bench.MeanRTF(results))
	}
}
