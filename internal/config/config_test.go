package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their
// defaults and parses args.
func newFlagBinder(t *testing.T, defaults Config, args ...string) *fakeBinder {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return &fakeBinder{fs: fs}
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("Audio.SampleRate = %d; want 48000", cfg.Audio.SampleRate)
	}

	if cfg.Audio.Channels != 2 {
		t.Errorf("Audio.Channels = %d; want 2", cfg.Audio.Channels)
	}

	if cfg.Audio.Format != "f32" {
		t.Errorf("Audio.Format = %q; want %q", cfg.Audio.Format, "f32")
	}

	if cfg.Stream.Port != 1123 {
		t.Errorf("Stream.Port = %d; want 1123", cfg.Stream.Port)
	}

	if cfg.Stream.Enabled {
		t.Error("Stream.Enabled = true; want false")
	}

	if cfg.Stream.ShutdownTimeout != 5*time.Second {
		t.Errorf("Stream.ShutdownTimeout = %v; want 5s", cfg.Stream.ShutdownTimeout)
	}

	if cfg.RF.TransferPath != "hackrf_transfer" {
		t.Errorf("RF.TransferPath = %q", cfg.RF.TransferPath)
	}

	if cfg.RF.CheckInterval != 5*time.Second {
		t.Errorf("RF.CheckInterval = %v; want 5s", cfg.RF.CheckInterval)
	}

	if cfg.RF.ChunkSamples != 4096 {
		t.Errorf("RF.ChunkSamples = %d; want 4096", cfg.RF.ChunkSamples)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	checks := []struct {
		flag string
		want string
	}{
		{"audio-sample-rate", "48000"},
		{"audio-device", "default"},
		{"stream", "false"},
		{"stream-port", "1123"},
		{"rf-check-interval", "5s"},
		{"log-level", "info"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}

		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}
}

func TestFlagKeysCoverRegisteredFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())

	bound := make(map[string]bool, len(flagKeys))
	for _, fk := range flagKeys {
		bound[fk.flag] = true
	}
	fs.VisitAll(func(f *pflag.Flag) {
		if !bound[f.Name] {
			t.Errorf("flag %q has no config key", f.Name)
		}
	})
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:      newFlagBinder(t, defaults),
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg != defaults {
		t.Errorf("Load() = %+v; want %+v", cfg, defaults)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	defaults := DefaultConfig()
	binder := newFlagBinder(t, defaults,
		"--stream",
		"--stream-port=8123",
		"--audio-device=null",
		"--rf-check-interval=2s",
		"--log-level=debug",
	)

	cfg, err := Load(LoadOptions{
		Cmd:      binder,
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Stream.Enabled {
		t.Error("Stream.Enabled = false; want true")
	}

	if cfg.Stream.Port != 8123 {
		t.Errorf("Stream.Port = %d; want 8123", cfg.Stream.Port)
	}

	if cfg.Audio.Device != "null" {
		t.Errorf("Audio.Device = %q; want %q", cfg.Audio.Device, "null")
	}

	if cfg.RF.CheckInterval != 2*time.Second {
		t.Errorf("RF.CheckInterval = %v; want 2s", cfg.RF.CheckInterval)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SOULWHISTLE_LOG_LEVEL", "warn")
	t.Setenv("SOULWHISTLE_STREAM_PORT", "9999")
	t.Setenv("SOULWHISTLE_RF_TRANSFER_PATH", "/opt/hackrf/bin/hackrf_transfer")

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:      newFlagBinder(t, defaults),
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Stream.Port != 9999 {
		t.Errorf("Stream.Port = %d; want 9999", cfg.Stream.Port)
	}

	if cfg.RF.TransferPath != "/opt/hackrf/bin/hackrf_transfer" {
		t.Errorf("RF.TransferPath = %q", cfg.RF.TransferPath)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "soulwhistle.yaml")

	content := `
log_level: error
params_file: presets/focus10.json
audio:
  sample_rate: 44100
  channels: 1
stream:
  enabled: true
  shutdown_timeout: 750ms
rf:
  antenna_port: 0
`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(t, defaults),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.ParamsFile != "presets/focus10.json" {
		t.Errorf("ParamsFile = %q", cfg.ParamsFile)
	}

	if cfg.Audio.SampleRate != 44100 || cfg.Audio.Channels != 1 {
		t.Errorf("Audio = %+v", cfg.Audio)
	}

	if !cfg.Stream.Enabled {
		t.Error("Stream.Enabled = false; want true")
	}

	if cfg.Stream.ShutdownTimeout != 750*time.Millisecond {
		t.Errorf("Stream.ShutdownTimeout = %v; want 750ms", cfg.Stream.ShutdownTimeout)
	}

	if cfg.RF.AntennaPort != 0 {
		t.Errorf("RF.AntennaPort = %d; want 0", cfg.RF.AntennaPort)
	}

	// Untouched keys keep their defaults.
	if cfg.Stream.Port != defaults.Stream.Port {
		t.Errorf("Stream.Port = %d; want %d", cfg.Stream.Port, defaults.Stream.Port)
	}
}

func TestLoad_FlagBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "soulwhistle.yaml")
	if err := os.WriteFile(cfgFile, []byte("stream:\n  port: 2000\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(t, defaults, "--stream-port=3000"),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Stream.Port != 3000 {
		t.Errorf("Stream.Port = %d; want 3000", cfg.Stream.Port)
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"),
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() with missing explicit config file: want error")
	}
}

func TestLoad_NoConfigFileInWorkingDir(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("Audio.SampleRate = %d; want 48000", cfg.Audio.SampleRate)
	}
}

// --- ParseLogLevel ---

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		level   string
		wantLvl slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			lvl, err := ParseLogLevel(tc.level)
			if err != nil {
				t.Fatalf("ParseLogLevel(%q) error: %v", tc.level, err)
			}
			if lvl != tc.wantLvl {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.level, lvl, tc.wantLvl)
			}
		})
	}
}

func TestParseLogLevel_Unknown(t *testing.T) {
	lvl, err := ParseLogLevel("verbose")
	if err == nil {
		t.Error("want error for unknown log level")
	}
	if lvl != slog.LevelInfo {
		t.Errorf("fallback level = %v; want info", lvl)
	}
}
