package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses command-line flags into a Config. A -config YAML
// file, when given, is loaded first so flags set on the command line
// override file values. The camera list file may be passed either via
// -cameras or as the single positional argument.
func ParseFlags() (*Config, error) {
	return parseFlags(os.Args[1:])
}

func parseFlags(args []string) (*Config, error) {
	cfg := DefaultConfig()

	// The config file has to be applied before flag registration, so
	// its values become the flag defaults the command line overrides.
	if path := configPathFromArgs(args); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	fs := flag.NewFlagSet("retina-record", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "YAML config file (flags override file values)")

	// Input
	fs.StringVar(&cfg.CamerasFile, "cameras", cfg.CamerasFile, "Tab-delimited camera list (model, name, address)")
	fs.StringVar(&cfg.BaseDir, "base-dir", cfg.BaseDir, "Directory run directories are created under")

	// Recorder
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "Path to ffmpeg binary")
	fs.StringVar(&cfg.RecorderLogLevel, "recorder-loglevel", cfg.RecorderLogLevel, "ffmpeg -loglevel value")
	fs.DurationVar(&cfg.RecordTimeout, "record-timeout", cfg.RecordTimeout, "RTSP socket timeout (0 disables)")
	fs.DurationVar(&cfg.RecordDuration, "record-duration", cfg.RecordDuration, "Cap per recording (0 = record until stopped)")

	// Restart policy
	fs.IntVar(&cfg.MaxRestarts, "max-restarts", cfg.MaxRestarts, "Restart budget per camera after the initial start")
	fs.DurationVar(&cfg.BackoffInitial, "backoff-initial", cfg.BackoffInitial, "First restart delay")
	fs.DurationVar(&cfg.BackoffMax, "backoff-max", cfg.BackoffMax, "Restart delay cap")
	fs.Float64Var(&cfg.BackoffMultiply, "backoff-multiply", cfg.BackoffMultiply, "Restart delay growth factor")

	// Supervision
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Worker state poll interval")
	fs.DurationVar(&cfg.PreSpawnDelay, "pre-spawn-delay", cfg.PreSpawnDelay, "Delay before each spawn attempt")
	fs.DurationVar(&cfg.LaunchStagger, "launch-stagger", cfg.LaunchStagger, "Delay between camera launches")
	fs.DurationVar(&cfg.LaunchJitter, "launch-jitter", cfg.LaunchJitter, "Max extra per-camera launch jitter")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Grace period before SIGKILL on shutdown")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or text")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Enable debug logging")

	// Diagnostic modes
	fs.BoolVar(&cfg.PrintCmd, "print-cmd", cfg.PrintCmd, "Print the recording command for the first camera and exit")
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip startup environment checks")

	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if rest := fs.Args(); len(rest) > 0 {
		if len(rest) > 1 {
			return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest[1:], " "))
		}
		cfg.CamerasFile = rest[0]
	}

	return cfg, nil
}

// configPathFromArgs extracts the -config value without a full parse.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "-config" || arg == "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "-config="):
			return strings.TrimPrefix(arg, "-config=")
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

// printUsage prints categorized flag help.
func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "Usage: retina-record [flags] [camera-list]\n\n")
	fmt.Fprintf(out, "Launches one supervised ffmpeg recording per camera in the list.\n")
	fmt.Fprintf(out, "The camera list is tab-delimited: model, name, address.\n\n")

	categories := []struct {
		title string
		flags []string
	}{
		{"Input", []string{"cameras", "config", "base-dir"}},
		{"Recorder", []string{"ffmpeg", "recorder-loglevel", "record-timeout", "record-duration"}},
		{"Restart policy", []string{"max-restarts", "backoff-initial", "backoff-max", "backoff-multiply"}},
		{"Supervision", []string{"poll-interval", "pre-spawn-delay", "launch-stagger", "launch-jitter", "shutdown-timeout"}},
		{"Observability", []string{"metrics-addr", "log-format", "verbose"}},
		{"Diagnostics", []string{"print-cmd", "skip-preflight"}},
	}

	for _, cat := range categories {
		fmt.Fprintf(out, "%s:\n", cat.title)
		for _, name := range cat.flags {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			fmt.Fprintf(out, "  -%-18s %s", f.Name, f.Usage)
			if f.DefValue != "" && f.DefValue != "false" {
				fmt.Fprintf(out, " (default %s)", f.DefValue)
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Credentials are read from RETINA_RTSP_USER and RETINA_RTSP_PASS.\n")
}
