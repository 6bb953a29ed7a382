// Package recorder builds the external recording command for a camera.
package recorder

import (
	"context"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/jlpoolen/retina/internal/worker"
)

// Credentials carries the RTSP login injected into the stream URL.
// Storage is an external concern; EnvCredentials is the default source.
type Credentials struct {
	Username string
	Password string
}

// CredentialSource supplies credentials at spawn time.
type CredentialSource interface {
	Lookup(cameraName string) (Credentials, error)
}

// EnvCredentials reads a single shared login from environment
// variables, matching how the launcher scripts this replaces were run.
type EnvCredentials struct {
	UserVar string
	PassVar string
}

// Lookup returns the credentials from the configured environment
// variables. Empty values are passed through: some cameras allow
// anonymous streams.
func (e EnvCredentials) Lookup(string) (Credentials, error) {
	return Credentials{
		Username: os.Getenv(e.UserVar),
		Password: os.Getenv(e.PassVar),
	}, nil
}

// Config holds the recorder invocation options shared by all workers.
type Config struct {
	// BinaryPath is the path to the ffmpeg binary.
	BinaryPath string

	// Timeout is the RTSP socket read timeout.
	Timeout time.Duration

	// Duration caps a single recording. 0 = unbounded.
	Duration time.Duration

	// LogLevel is ffmpeg's -loglevel value.
	LogLevel string

	// StopTimeout is how long a cancelled recording gets to exit
	// after SIGTERM before it is killed.
	StopTimeout time.Duration

	// Credentials supplies the RTSP login.
	Credentials CredentialSource
}

// DefaultConfig returns recorder defaults.
func DefaultConfig() *Config {
	return &Config{
		BinaryPath:  "ffmpeg",
		Timeout:     15 * time.Second,
		LogLevel:    "warning",
		StopTimeout: 10 * time.Second,
		Credentials: EnvCredentials{UserVar: "RETINA_RTSP_USER", PassVar: "RETINA_RTSP_PASS"},
	}
}

// FFmpegRecorder builds ffmpeg commands that copy an RTSP stream to an
// MP4 file. It implements worker.CommandBuilder. Arguments are always
// a structured list; camera names and addresses never pass through a
// shell.
type FFmpegRecorder struct {
	config *Config
}

// New creates a recorder command builder.
func New(cfg *Config) *FFmpegRecorder {
	return &FFmpegRecorder{config: cfg}
}

// Name returns "ffmpeg".
func (r *FFmpegRecorder) Name() string {
	return "ffmpeg"
}

// BuildCommand creates the recording command for one worker. The
// returned command is not started; the worker owns its lifecycle.
func (r *FFmpegRecorder) BuildCommand(ctx context.Context, spec worker.Spec) (*exec.Cmd, error) {
	streamURL, err := r.authenticatedURL(spec)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", r.config.LogLevel,
		"-rtsp_transport", "tcp",
	}

	if r.config.Timeout > 0 {
		// -timeout is the RTSP socket timeout, in microseconds
		args = append(args, "-timeout", strconv.FormatInt(r.config.Timeout.Microseconds(), 10))
	}

	args = append(args, "-i", streamURL)

	if r.config.Duration > 0 {
		args = append(args, "-t", strconv.FormatInt(int64(r.config.Duration.Seconds()), 10))
	}

	// Stream copy, no transcode. -y because a restarted worker reuses
	// its output path.
	args = append(args, "-c", "copy", "-y", spec.Paths.Output)

	cmd := exec.CommandContext(ctx, r.config.BinaryPath, args...)

	// A cancelled run must SIGTERM ffmpeg and let it finalize the MP4;
	// only a StopTimeout overrun gets SIGKILL.
	worker.GracefulCancel(cmd, r.config.StopTimeout)

	return cmd, nil
}

// authenticatedURL injects credentials into the resolved stream URL as
// userinfo.
func (r *FFmpegRecorder) authenticatedURL(spec worker.Spec) (string, error) {
	u, err := url.Parse(spec.URL)
	if err != nil {
		return "", err
	}

	if r.config.Credentials != nil {
		creds, err := r.config.Credentials.Lookup(spec.Camera.Name)
		if err != nil {
			return "", err
		}
		if creds.Username != "" {
			u.User = url.UserPassword(creds.Username, creds.Password)
		}
	}

	return u.String(), nil
}

// Config returns the recorder configuration.
func (r *FFmpegRecorder) Config() *Config {
	return r.config
}
