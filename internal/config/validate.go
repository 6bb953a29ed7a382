package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration and returns all problems joined,
// so the operator fixes everything in one pass instead of replaying
// the launcher error by error.
func (c *Config) Validate() error {
	var errs []error

	if c.CamerasFile == "" && len(c.Cameras) == 0 {
		errs = append(errs, ValidationError{
			Field:   "cameras",
			Message: "no cameras: pass a camera list file or set cameras in the config file",
		})
	}
	if c.BaseDir == "" {
		errs = append(errs, ValidationError{Field: "base-dir", Message: "must not be empty"})
	}
	if c.FFmpegPath == "" {
		errs = append(errs, ValidationError{Field: "ffmpeg", Message: "must not be empty"})
	}
	if c.MaxRestarts < 0 {
		errs = append(errs, ValidationError{Field: "max-restarts", Message: "must be >= 0"})
	}
	if c.BackoffInitial <= 0 {
		errs = append(errs, ValidationError{Field: "backoff-initial", Message: "must be positive"})
	}
	if c.BackoffMax < c.BackoffInitial {
		errs = append(errs, ValidationError{Field: "backoff-max", Message: "must be >= backoff-initial"})
	}
	if c.BackoffMultiply < 1.0 {
		errs = append(errs, ValidationError{Field: "backoff-multiply", Message: "must be >= 1.0"})
	}
	if c.PollInterval <= 0 {
		errs = append(errs, ValidationError{Field: "poll-interval", Message: "must be positive"})
	}
	if c.PreSpawnDelay < 0 {
		errs = append(errs, ValidationError{Field: "pre-spawn-delay", Message: "must be >= 0"})
	}
	if c.LaunchStagger < 0 {
		errs = append(errs, ValidationError{Field: "launch-stagger", Message: "must be >= 0"})
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "shutdown-timeout", Message: "must be positive"})
	}
	if c.RecordTimeout < 0 {
		errs = append(errs, ValidationError{Field: "record-timeout", Message: "must be >= 0"})
	}
	if c.RecordDuration < 0 {
		errs = append(errs, ValidationError{Field: "record-duration", Message: "must be >= 0"})
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, ValidationError{Field: "log-format", Message: "must be json or text"})
	}
	if c.MetricsAddr == "" {
		errs = append(errs, ValidationError{Field: "metrics-addr", Message: "must not be empty"})
	}

	return errors.Join(errs...)
}
