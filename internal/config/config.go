// Package config provides configuration management for retina-record.
package config

import (
	"time"

	"github.com/jlpoolen/retina/internal/camera"
)

// Config holds all configuration options for the recording launcher.
type Config struct {
	// Input
	CamerasFile string          // tab-delimited camera list
	Cameras     []camera.Config // cameras from the YAML config file

	// Paths
	BaseDir string // run directories are created under here

	// Recorder
	FFmpegPath        string
	RecorderLogLevel  string
	RecordTimeout     time.Duration // RTSP socket timeout
	RecordDuration    time.Duration // cap per recording, 0 = unbounded
	CredentialUserEnv string
	CredentialPassEnv string

	// Restart policy
	MaxRestarts     int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
	BackoffMultiply float64

	// Supervision
	PollInterval    time.Duration
	PreSpawnDelay   time.Duration
	LaunchStagger   time.Duration
	LaunchJitter    time.Duration
	ShutdownTimeout time.Duration

	// Observability
	MetricsAddr string
	Verbose     bool
	LogFormat   string // json, text

	// Diagnostic modes
	PrintCmd      bool
	SkipPreflight bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseDir: "recordings",

		FFmpegPath:        "ffmpeg",
		RecorderLogLevel:  "warning",
		RecordTimeout:     15 * time.Second,
		RecordDuration:    0, // Unbounded
		CredentialUserEnv: "RETINA_RTSP_USER",
		CredentialPassEnv: "RETINA_RTSP_PASS",

		MaxRestarts:     3,
		BackoffInitial:  2 * time.Second,
		BackoffMax:      60 * time.Second,
		BackoffMultiply: 2.0,

		PollInterval:    5 * time.Second,
		PreSpawnDelay:   time.Second,
		LaunchStagger:   time.Second,
		LaunchJitter:    250 * time.Millisecond,
		ShutdownTimeout: 10 * time.Second,

		MetricsAddr: "0.0.0.0:17091",
		Verbose:     false,
		LogFormat:   "json",
	}
}
