package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jlpoolen/retina/internal/camera"
)

// fileConfig is the YAML config file schema. Durations are strings in
// Go duration syntax ("2s", "1m"). Pointer fields distinguish "absent"
// from zero values.
type fileConfig struct {
	CamerasFile string          `yaml:"cameras_file"`
	Cameras     []camera.Config `yaml:"cameras"`
	BaseDir     string          `yaml:"base_dir"`

	FFmpegPath       string `yaml:"ffmpeg_path"`
	RecorderLogLevel string `yaml:"recorder_log_level"`
	RecordTimeout    string `yaml:"record_timeout"`
	RecordDuration   string `yaml:"record_duration"`

	MaxRestarts     *int     `yaml:"max_restarts"`
	BackoffInitial  string   `yaml:"backoff_initial"`
	BackoffMax      string   `yaml:"backoff_max"`
	BackoffMultiply *float64 `yaml:"backoff_multiply"`

	PollInterval    string `yaml:"poll_interval"`
	PreSpawnDelay   string `yaml:"pre_spawn_delay"`
	LaunchStagger   string `yaml:"launch_stagger"`
	LaunchJitter    string `yaml:"launch_jitter"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`

	MetricsAddr string `yaml:"metrics_addr"`
	LogFormat   string `yaml:"log_format"`
	Verbose     *bool  `yaml:"verbose"`
}

// LoadFile applies a YAML config file on top of cfg. Flags parsed
// afterwards still take precedence because they re-set the fields.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if fc.CamerasFile != "" {
		cfg.CamerasFile = fc.CamerasFile
	}
	if len(fc.Cameras) > 0 {
		cfg.Cameras = fc.Cameras
	}
	if fc.BaseDir != "" {
		cfg.BaseDir = fc.BaseDir
	}
	if fc.FFmpegPath != "" {
		cfg.FFmpegPath = fc.FFmpegPath
	}
	if fc.RecorderLogLevel != "" {
		cfg.RecorderLogLevel = fc.RecorderLogLevel
	}
	if fc.MaxRestarts != nil {
		cfg.MaxRestarts = *fc.MaxRestarts
	}
	if fc.BackoffMultiply != nil {
		cfg.BackoffMultiply = *fc.BackoffMultiply
	}
	if fc.MetricsAddr != "" {
		cfg.MetricsAddr = fc.MetricsAddr
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}

	durations := []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"record_timeout", fc.RecordTimeout, &cfg.RecordTimeout},
		{"record_duration", fc.RecordDuration, &cfg.RecordDuration},
		{"backoff_initial", fc.BackoffInitial, &cfg.BackoffInitial},
		{"backoff_max", fc.BackoffMax, &cfg.BackoffMax},
		{"poll_interval", fc.PollInterval, &cfg.PollInterval},
		{"pre_spawn_delay", fc.PreSpawnDelay, &cfg.PreSpawnDelay},
		{"launch_stagger", fc.LaunchStagger, &cfg.LaunchStagger},
		{"launch_jitter", fc.LaunchJitter, &cfg.LaunchJitter},
		{"shutdown_timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.field, err)
		}
		*d.dst = parsed
	}

	return nil
}
