package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-soulwhistle/internal/stream"
)

func newHealthCmd() *cobra.Command {
	var url string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that a running stream endpoint serves a valid WAV header",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if url == "" {
				url = fmt.Sprintf("http://127.0.0.1:%d/stream.wav", cfg.Stream.Port)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := stream.Probe(ctx, url)
			if err != nil {
				return fmt.Errorf("stream health: %w", err)
			}
			_, err = fmt.Fprintf(os.Stdout, "ok %d Hz %d ch %d-bit\n", res.SampleRate, res.Channels, res.BitDepth)
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Stream URL to probe (default: local stream port)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Probe timeout")

	return cmd
}
