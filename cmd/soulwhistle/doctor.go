package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-soulwhistle/internal/doctor"
	"github.com/example/go-soulwhistle/internal/params"
	"github.com/example/go-soulwhistle/internal/rf"
)

func newDoctorCmd() *cobra.Command {
	var requireRF bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local RF tooling, hardware and streaming checks",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			probe := rf.ExecProbe(cfg.RF.InfoPath)
			dcfg := doctor.Config{
				TransferPath: cfg.RF.TransferPath,
				InfoPath:     cfg.RF.InfoPath,
				LookPath:     exec.LookPath,
				Probe: func() bool {
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					return probe(ctx)
				},
				RequireRF:  requireRF,
				StreamPort: cfg.Stream.Port,
				Listen:     net.Listen,
				ParamsFile: cfg.ParamsFile,
				LoadParams: func(path string) error {
					_, err := params.LoadFile(path)
					return err
				},
			}

			result := doctor.Run(dcfg, os.Stdout)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(os.Stdout, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().BoolVar(&requireRF, "require-rf", false, "Fail when RF tooling or hardware is missing")

	return cmd
}
