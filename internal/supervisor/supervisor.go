// Package supervisor launches and monitors one recording worker per
// camera, handles group shutdown, and builds the end-of-run report.
package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jlpoolen/retina/internal/camera"
	"github.com/jlpoolen/retina/internal/metrics"
	"github.com/jlpoolen/retina/internal/report"
	"github.com/jlpoolen/retina/internal/resolver"
	"github.com/jlpoolen/retina/internal/session"
	"github.com/jlpoolen/retina/internal/worker"
)

// Config holds everything a Supervisor needs to run a camera batch.
type Config struct {
	Session  *session.RunSession
	Resolver *resolver.Resolver
	Builder  worker.CommandBuilder
	Logger   *slog.Logger

	// Metrics is optional; nil disables metric updates.
	Metrics *metrics.Collector

	Backoff       worker.BackoffConfig
	MaxRestarts   int
	PreSpawnDelay time.Duration

	// LaunchStagger spaces out worker launches; LaunchJitter adds a
	// per-camera offset on top so batches never align exactly.
	LaunchStagger time.Duration
	LaunchJitter  time.Duration

	PollInterval    time.Duration
	ShutdownTimeout time.Duration
}

// entry pairs a camera with its launch outcome, in input order. A
// camera that never got a worker carries the reason in skipErr.
type entry struct {
	cam     camera.Config
	url     string
	worker  *worker.Worker
	skipErr error
}

// Supervisor runs a group of recording workers to completion. One
// Supervisor per invocation; Run may only be called once.
type Supervisor struct {
	cfg     Config
	logger  *slog.Logger
	jitter  *worker.JitterSource
	runSeed int64

	mu      sync.Mutex
	entries []*entry

	activeWorkers int
	failedWorkers int
	totalStarts   int
	totalRestarts int
	exitCodes     map[int]int

	uptimes *report.UptimeTracker
}

// New creates a Supervisor. Zero poll interval and shutdown timeout
// fall back to 5s and 10s.
func New(cfg Config) *Supervisor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runSeed := cfg.Session.StartedAt.UnixNano()
	return &Supervisor{
		cfg:       cfg,
		logger:    logger,
		jitter:    worker.NewJitterSource(runSeed),
		runSeed:   runSeed,
		exitCodes: make(map[int]int),
		uptimes:   report.NewUptimeTracker(),
	}
}

// Run launches a worker per camera in input order, monitors the group
// until every worker reaches a terminal state or the context is
// cancelled, and returns the run report. A duplicate camera name
// rejects the whole batch before anything launches; an unsupported
// model skips only that camera.
func (s *Supervisor) Run(ctx context.Context, cams []camera.Config) (*report.RunReport, error) {
	if err := camera.CheckUnique(cams); err != nil {
		return nil, err
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.SetCamerasConfigured(len(cams))
	}

	start := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Launch in its own goroutine: stagger delays space out spawns but
	// must not suspend polling of workers already running.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		launched := s.launch(runCtx, cams, &wg)
		s.logger.Info("launch_complete",
			"workers", launched,
			"skipped", len(cams)-launched,
			"run_dir", s.cfg.Session.Dir,
		)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			s.logger.Info("all_workers_done")
			return s.buildReport(start), nil
		case <-ticker.C:
			s.pollOnce()
		case <-ctx.Done():
			s.shutdown(done)
			return s.buildReport(start), nil
		}
	}
}

// launch starts workers in input order with staggered delays. Returns
// the number of workers actually launched.
func (s *Supervisor) launch(ctx context.Context, cams []camera.Config, wg *sync.WaitGroup) int {
	launched := 0
	for _, cam := range cams {
		e := &entry{cam: cam}
		s.mu.Lock()
		s.entries = append(s.entries, e)
		s.mu.Unlock()

		url, err := s.cfg.Resolver.Resolve(cam.Model, cam.Address)
		if err != nil {
			e.skipErr = err
			s.logger.Warn("camera_skipped",
				"camera", cam.Name,
				"model", cam.Model,
				"error", err,
			)
			continue
		}
		e.url = url

		if launched > 0 && s.cfg.LaunchStagger > 0 {
			delay := s.cfg.LaunchStagger + s.jitter.CameraJitter(cam.Name, s.cfg.LaunchJitter)
			select {
			case <-ctx.Done():
				e.skipErr = ctx.Err()
				continue
			case <-time.After(delay):
			}
		}

		paths := s.cfg.Session.WorkerPaths(cam.Name, time.Now())
		w := worker.New(worker.Config{
			Spec: worker.Spec{
				Camera:  cam,
				URL:     url,
				Paths:   paths,
				WorkDir: s.cfg.Session.Dir,
			},
			Builder:       s.cfg.Builder,
			Backoff:       worker.NewBackoff(cam.Name, s.runSeed, s.cfg.Backoff),
			Logger:        s.logger,
			MaxRestarts:   s.cfg.MaxRestarts,
			PreSpawnDelay: s.cfg.PreSpawnDelay,
			Callbacks: worker.Callbacks{
				OnStateChange: s.onStateChange,
				OnStart:       s.onStart,
				OnExit:        s.onExit,
				OnRestart:     s.onRestart,
			},
		})
		e.worker = w
		launched++

		s.logger.Info("worker_launching",
			"camera", cam.Name,
			"model", cam.Model,
			"url", url,
		)

		wg.Add(1)
		go func() {
			defer wg.Done()
			// Failures surface through state and the report.
			_ = w.Run(ctx)
		}()
	}
	return launched
}

// shutdown stops all live workers concurrently and waits for the group
// to drain, bounded by the shutdown timeout plus a grace second.
func (s *Supervisor) shutdown(done <-chan struct{}) {
	s.mu.Lock()
	var live []*worker.Worker
	for _, e := range s.entries {
		if e.worker != nil && e.worker.State().IsActive() {
			live = append(live, e.worker)
		}
	}
	s.mu.Unlock()

	s.logger.Info("shutdown_initiated", "live_workers", len(live))

	var stopWg sync.WaitGroup
	for _, w := range live {
		stopWg.Add(1)
		go func(w *worker.Worker) {
			defer stopWg.Done()
			if err := w.Stop(s.cfg.ShutdownTimeout); err != nil {
				s.logger.Warn("worker_stop_timeout",
					"camera", w.CameraName(),
					"error", err,
				)
			}
		}(w)
	}
	stopWg.Wait()

	select {
	case <-done:
		s.logger.Info("shutdown_complete")
	case <-time.After(s.cfg.ShutdownTimeout + time.Second):
		s.logger.Warn("shutdown_drain_timeout")
	}
}

// pollOnce logs a state snapshot and refreshes the gauges.
func (s *Supervisor) pollOnce() {
	counts := make(map[worker.State]int)
	s.mu.Lock()
	for _, e := range s.entries {
		if e.worker != nil {
			counts[e.worker.State()]++
		}
	}
	s.mu.Unlock()

	s.logger.Info("poll",
		"starting", counts[worker.StateStarting],
		"running", counts[worker.StateRunning],
		"restarting", counts[worker.StateRestarting],
		"exited", counts[worker.StateExited],
		"failed", counts[worker.StateFailed],
	)

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.SetActiveWorkers(counts[worker.StateRunning])
		s.cfg.Metrics.SetFailedWorkers(counts[worker.StateFailed])
	}
}

func (s *Supervisor) onStateChange(cameraName string, oldState, newState worker.State) {
	s.logger.Debug("worker_state_changed",
		"camera", cameraName,
		"from", oldState.String(),
		"to", newState.String(),
	)

	s.mu.Lock()
	switch {
	case newState == worker.StateRunning:
		s.activeWorkers++
	case oldState == worker.StateRunning:
		s.activeWorkers--
	}
	if newState == worker.StateFailed {
		s.failedWorkers++
	}
	active, failed := s.activeWorkers, s.failedWorkers
	s.mu.Unlock()

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.SetActiveWorkers(active)
		s.cfg.Metrics.SetFailedWorkers(failed)
	}
}

func (s *Supervisor) onStart(cameraName string, pid int) {
	s.mu.Lock()
	s.totalStarts++
	s.mu.Unlock()

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.WorkerStarted()
	}
}

func (s *Supervisor) onExit(cameraName string, exitCode int, uptime time.Duration) {
	s.mu.Lock()
	s.exitCodes[exitCode]++
	s.mu.Unlock()
	s.uptimes.Add(uptime)

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.WorkerExited(exitCode)
	}
}

func (s *Supervisor) onRestart(cameraName string, attempt int, delay time.Duration) {
	s.mu.Lock()
	s.totalRestarts++
	s.mu.Unlock()

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.WorkerRestarted()
	}
}

// buildReport assembles the per-camera outcomes in input order.
func (s *Supervisor) buildReport(start time.Time) *report.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &report.RunReport{
		SessionID:     s.cfg.Session.ID,
		RunDir:        s.cfg.Session.Dir,
		StartedAt:     s.cfg.Session.StartedAt,
		Duration:      time.Since(start),
		TotalStarts:   s.totalStarts,
		TotalRestarts: s.totalRestarts,
		ExitCodes:     make(map[int]int, len(s.exitCodes)),
		UptimeP50:     s.uptimes.Quantile(0.50),
		UptimeP95:     s.uptimes.Quantile(0.95),
		UptimeP99:     s.uptimes.Quantile(0.99),
	}
	for code, n := range s.exitCodes {
		r.ExitCodes[code] = n
	}

	for _, e := range s.entries {
		cr := report.CameraReport{
			Name:     e.cam.Name,
			Model:    e.cam.Model,
			URL:      e.url,
			ExitCode: -1,
		}
		switch {
		case e.worker != nil:
			w := e.worker
			cr.FinalState = w.State().String()
			cr.ExitCode = w.ExitCode()
			cr.Restarts = w.Restarts()
			cr.LogPath = w.Spec().Paths.Log
			cr.ErrLogPath = w.Spec().Paths.ErrLog
			cr.OutputPath = w.Spec().Paths.Output
			if w.State() == worker.StateFailed {
				cr.Err = worker.ErrRestartsExhausted.Error()
			}
		case e.skipErr != nil:
			cr.FinalState = "skipped"
			cr.Err = e.skipErr.Error()
		}
		r.Cameras = append(r.Cameras, cr)
	}

	return r
}

// ActiveWorkers returns the number of currently running workers.
func (s *Supervisor) ActiveWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeWorkers
}

// Workers returns the launched workers in input order.
func (s *Supervisor) Workers() []*worker.Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*worker.Worker
	for _, e := range s.entries {
		if e.worker != nil {
			out = append(out, e.worker)
		}
	}
	return out
}
