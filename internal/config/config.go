package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Audio      AudioConfig  `mapstructure:"audio"`
	Stream     StreamConfig `mapstructure:"stream"`
	RF         RFConfig     `mapstructure:"rf"`
	ParamsFile string       `mapstructure:"params_file"`
	LogLevel   string       `mapstructure:"log_level"`
}

type AudioConfig struct {
	SampleRate int    `mapstructure:"sample_rate"`
	Channels   int    `mapstructure:"channels"`
	Format     string `mapstructure:"format"`
	Device     string `mapstructure:"device"`
	BufferMS   int    `mapstructure:"buffer_ms"`
}

type StreamConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Port            int           `mapstructure:"port"`
	BufferMS        int           `mapstructure:"buffer_ms"`
	ChunkFrames     int           `mapstructure:"chunk_frames"`
	ReadWaitMS      int           `mapstructure:"read_wait_ms"`
	PollIntervalMS  int           `mapstructure:"poll_interval_ms"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RFConfig struct {
	TransferPath  string        `mapstructure:"transfer_path"`
	InfoPath      string        `mapstructure:"info_path"`
	AntennaPort   int           `mapstructure:"antenna_port"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
	ChunkSamples  int           `mapstructure:"chunk_samples"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate: 48000,
			Channels:   2,
			Format:     "f32",
			Device:     "default",
			BufferMS:   50,
		},
		Stream: StreamConfig{
			Enabled:         false,
			Port:            1123,
			BufferMS:        2000,
			ChunkFrames:     1024,
			ReadWaitMS:      5,
			PollIntervalMS:  1000,
			ShutdownTimeout: 5 * time.Second,
		},
		RF: RFConfig{
			TransferPath:  "hackrf_transfer",
			InfoPath:      "hackrf_info",
			AntennaPort:   1,
			CheckInterval: 5 * time.Second,
			ChunkSamples:  4096,
		},
		ParamsFile: "",
		LogLevel:   "info",
	}
}

// flagKeys maps each command-line flag to its config key.
var flagKeys = []struct{ flag, key string }{
	{"audio-sample-rate", "audio.sample_rate"},
	{"audio-channels", "audio.channels"},
	{"audio-format", "audio.format"},
	{"audio-device", "audio.device"},
	{"audio-buffer-ms", "audio.buffer_ms"},
	{"stream", "stream.enabled"},
	{"stream-port", "stream.port"},
	{"stream-buffer-ms", "stream.buffer_ms"},
	{"stream-chunk-frames", "stream.chunk_frames"},
	{"stream-read-wait-ms", "stream.read_wait_ms"},
	{"stream-poll-interval-ms", "stream.poll_interval_ms"},
	{"stream-shutdown-timeout", "stream.shutdown_timeout"},
	{"rf-transfer-path", "rf.transfer_path"},
	{"rf-info-path", "rf.info_path"},
	{"rf-antenna-port", "rf.antenna_port"},
	{"rf-check-interval", "rf.check_interval"},
	{"rf-chunk-samples", "rf.chunk_samples"},
	{"params", "params_file"},
	{"log-level", "log_level"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.Int("audio-sample-rate", defaults.Audio.SampleRate, "Output sample rate in Hz")
	fs.Int("audio-channels", defaults.Audio.Channels, "Output channel count (1 downmixes to mono)")
	fs.String("audio-format", defaults.Audio.Format, "Device sample format (f32|s16|u8)")
	fs.String("audio-device", defaults.Audio.Device, "Output device (default|null)")
	fs.Int("audio-buffer-ms", defaults.Audio.BufferMS, "Device buffer length in milliseconds (0 = backend default)")
	fs.Bool("stream", defaults.Stream.Enabled, "Start with HTTP WAV streaming enabled")
	fs.Int("stream-port", defaults.Stream.Port, "HTTP streaming port")
	fs.Int("stream-buffer-ms", defaults.Stream.BufferMS, "Streaming ring buffer length in milliseconds")
	fs.Int("stream-chunk-frames", defaults.Stream.ChunkFrames, "Frames pulled from the ring per client read")
	fs.Int("stream-read-wait-ms", defaults.Stream.ReadWaitMS, "Client sleep when no new frames are buffered")
	fs.Int("stream-poll-interval-ms", defaults.Stream.PollIntervalMS, "How often the stream supervisor re-reads settings")
	fs.Duration("stream-shutdown-timeout", defaults.Stream.ShutdownTimeout, "Graceful shutdown period for the stream server")
	fs.String("rf-transfer-path", defaults.RF.TransferPath, "Path to the hackrf_transfer executable")
	fs.String("rf-info-path", defaults.RF.InfoPath, "Path to the hackrf_info executable")
	fs.Int("rf-antenna-port", defaults.RF.AntennaPort, "Antenna port power flag passed to the transmitter")
	fs.Duration("rf-check-interval", defaults.RF.CheckInterval, "How often hardware presence is re-probed")
	fs.Int("rf-chunk-samples", defaults.RF.ChunkSamples, "I/Q samples written to the transmitter per iteration")
	fs.String("params", defaults.ParamsFile, "Signal parameters file (YAML or JSON)")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("SOULWHISTLE")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("soulwhistle")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// bindFlags attaches each registered flag to its nested key so flags, env
// and config file all address the same setting. Flags missing from fs are
// skipped.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := fs.Lookup(fk.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(fk.key, f); err != nil {
			return fmt.Errorf("%s: %w", fk.flag, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("audio.sample_rate", c.Audio.SampleRate)
	v.SetDefault("audio.channels", c.Audio.Channels)
	v.SetDefault("audio.format", c.Audio.Format)
	v.SetDefault("audio.device", c.Audio.Device)
	v.SetDefault("audio.buffer_ms", c.Audio.BufferMS)
	v.SetDefault("stream.enabled", c.Stream.Enabled)
	v.SetDefault("stream.port", c.Stream.Port)
	v.SetDefault("stream.buffer_ms", c.Stream.BufferMS)
	v.SetDefault("stream.chunk_frames", c.Stream.ChunkFrames)
	v.SetDefault("stream.read_wait_ms", c.Stream.ReadWaitMS)
	v.SetDefault("stream.poll_interval_ms", c.Stream.PollIntervalMS)
	v.SetDefault("stream.shutdown_timeout", c.Stream.ShutdownTimeout)
	v.SetDefault("rf.transfer_path", c.RF.TransferPath)
	v.SetDefault("rf.info_path", c.RF.InfoPath)
	v.SetDefault("rf.antenna_port", c.RF.AntennaPort)
	v.SetDefault("rf.check_interval", c.RF.CheckInterval)
	v.SetDefault("rf.chunk_samples", c.RF.ChunkSamples)
	v.SetDefault("params_file", c.ParamsFile)
	v.SetDefault("log_level", c.LogLevel)
}
