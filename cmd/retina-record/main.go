// retina-record launches one supervised ffmpeg recording per camera in
// a tab-delimited camera list, restarts crashed recordings with
// exponential backoff, and reports the outcome per camera.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jlpoolen/retina/internal/camera"
	"github.com/jlpoolen/retina/internal/config"
	"github.com/jlpoolen/retina/internal/logging"
	"github.com/jlpoolen/retina/internal/metrics"
	"github.com/jlpoolen/retina/internal/preflight"
	"github.com/jlpoolen/retina/internal/recorder"
	"github.com/jlpoolen/retina/internal/report"
	"github.com/jlpoolen/retina/internal/resolver"
	"github.com/jlpoolen/retina/internal/session"
	"github.com/jlpoolen/retina/internal/supervisor"
	"github.com/jlpoolen/retina/internal/worker"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("retina-record %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration:\n%v\n", err)
		return 1
	}

	cams, err := loadCameras(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(cams) == 0 {
		fmt.Fprintln(os.Stderr, "Error: camera list is empty")
		return 1
	}

	res := resolver.New()
	rec := recorder.New(&recorder.Config{
		BinaryPath:  cfg.FFmpegPath,
		Timeout:     cfg.RecordTimeout,
		Duration:    cfg.RecordDuration,
		LogLevel:    cfg.RecorderLogLevel,
		StopTimeout: cfg.ShutdownTimeout,
		Credentials: recorder.EnvCredentials{
			UserVar: cfg.CredentialUserEnv,
			PassVar: cfg.CredentialPassEnv,
		},
	})

	if cfg.PrintCmd {
		return printCommand(res, rec, cams[0])
	}

	if !cfg.SkipPreflight {
		result := preflight.RunAll(len(cams), cfg.FFmpegPath, cfg.BaseDir)
		preflight.PrintResults(result)
		if !result.Passed {
			fmt.Fprintln(os.Stderr, "Preflight checks failed (use -skip-preflight to override)")
			return 1
		}
	}

	sess, err := session.New(cfg.BaseDir, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose, sess.RunLogPath())
	logging.SetDefault(logger)

	logger.Info("retina_record_starting",
		"version", version,
		"cameras", len(cams),
		"run_dir", sess.Dir,
		"max_restarts", cfg.MaxRestarts,
	)

	collector := metrics.NewCollector()
	collector.SetRunInfo(version, sess.Dir)

	metricsServer := metrics.NewServer(cfg.MetricsAddr, logger)
	if err := metricsServer.Start(); err != nil {
		logger.Error("metrics_server_start_failed", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := supervisor.New(supervisor.Config{
		Session:  sess,
		Resolver: res,
		Builder:  rec,
		Logger:   logger,
		Metrics:  collector,
		Backoff: worker.BackoffConfig{
			Initial:    cfg.BackoffInitial,
			Max:        cfg.BackoffMax,
			Multiplier: cfg.BackoffMultiply,
			JitterPct:  worker.DefaultBackoffConfig().JitterPct,
		},
		MaxRestarts:     cfg.MaxRestarts,
		PreSpawnDelay:   cfg.PreSpawnDelay,
		LaunchStagger:   cfg.LaunchStagger,
		LaunchJitter:    cfg.LaunchJitter,
		PollInterval:    cfg.PollInterval,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})

	rep, err := sup.Run(ctx, cams)
	if err != nil {
		logger.Error("run_failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Print(report.FormatSummary(rep))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics_server_shutdown_failed", "error", err)
	}

	logger.Info("retina_record_done",
		"cameras", len(rep.Cameras),
		"errors", rep.Failed(),
		"duration", rep.Duration.String(),
	)

	if rep.Failed() > 0 {
		return 1
	}
	return 0
}

// loadCameras merges the tab-delimited list file with any cameras from
// the YAML config file, rejecting duplicate names across the merge.
func loadCameras(cfg *config.Config) ([]camera.Config, error) {
	var cams []camera.Config
	if cfg.CamerasFile != "" {
		fromFile, err := camera.LoadFile(cfg.CamerasFile)
		if err != nil {
			return nil, err
		}
		cams = fromFile
	}
	cams = append(cams, cfg.Cameras...)
	if err := camera.CheckUnique(cams); err != nil {
		return nil, err
	}
	return cams, nil
}

// printCommand shows the exact recording command for the first camera
// without running anything. Lets the operator sanity-check flags.
func printCommand(res *resolver.Resolver, rec *recorder.FFmpegRecorder, cam camera.Config) int {
	url, err := res.Resolve(cam.Model, cam.Address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	cmd, err := rec.BuildCommand(context.Background(), worker.Spec{
		Camera: cam,
		URL:    url,
		Paths: session.WorkerPaths{
			Log:    camera.SanitizeName(cam.Name) + ".log",
			ErrLog: camera.SanitizeName(cam.Name) + ".err.log",
			Output: camera.SanitizeName(cam.Name) + ".mp4",
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(cmd.String())
	return 0
}
