package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-soulwhistle/internal/config"
	"github.com/example/go-soulwhistle/internal/params"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "soulwhistle",
		Short:         "Layered signal synthesizer with binaural coherence, RF output and WAV streaming",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newBenchCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := config.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
	if err != nil {
		slog.Warn("falling back to info logging", "error", err)
	}
}

func requireConfig() (config.Config, error) {
	if activeCfg.Audio.SampleRate == 0 {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}

// initialParams builds the starting snapshot: the params file when one is
// configured, then the process-level stream settings on top.
func initialParams(cfg config.Config) (params.Params, error) {
	p := params.Default()
	if cfg.ParamsFile != "" {
		loaded, err := params.LoadFile(cfg.ParamsFile)
		if err != nil {
			return params.Params{}, err
		}
		p = loaded
	}
	if err := applyStreamFlags(&p, cfg.Stream); err != nil {
		return params.Params{}, err
	}
	return p, nil
}

// applyStreamFlags puts the process-level stream settings on top of a
// snapshot loaded from file, then clamps it.
func applyStreamFlags(p *params.Params, st config.StreamConfig) error {
	if st.Enabled {
		if st.Port < params.StreamPortMin || st.Port > params.StreamPortMax {
			return fmt.Errorf("stream port %d out of range %d-%d", st.Port, params.StreamPortMin, params.StreamPortMax)
		}
		p.StreamEnabled = true
		p.StreamPort = uint16(st.Port)
	}
	p.Clamp()
	return nil
}
