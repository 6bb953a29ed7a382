package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/jlpoolen/retina/internal/camera"
	"github.com/jlpoolen/retina/internal/session"
)

// Spec carries everything a command builder needs to record one
// camera: the config, the resolved stream URL, the worker's file
// paths, and the run directory the child executes in.
type Spec struct {
	Camera  camera.Config
	URL     string
	Paths   session.WorkerPaths
	WorkDir string
}

// CommandBuilder creates the recording command for a worker.
// The interface decouples the worker from ffmpeg specifics and lets
// tests substitute short-lived shell commands.
type CommandBuilder interface {
	// BuildCommand returns a ready-to-start command. The worker sets
	// the working directory and output files and owns the lifecycle.
	BuildCommand(ctx context.Context, spec Spec) (*exec.Cmd, error)

	// Name returns a human-readable name for this process type.
	Name() string
}

// Callbacks contains optional hooks for worker lifecycle events.
type Callbacks struct {
	// OnStateChange is called when the worker state changes.
	OnStateChange func(cameraName string, oldState, newState State)

	// OnStart is called when the recording process starts.
	OnStart func(cameraName string, pid int)

	// OnExit is called when the recording process exits.
	OnExit func(cameraName string, exitCode int, uptime time.Duration)

	// OnRestart is called before a restart attempt.
	OnRestart func(cameraName string, attempt int, delay time.Duration)
}

// Config holds configuration for creating a Worker.
type Config struct {
	Spec      Spec
	Builder   CommandBuilder
	Backoff   *Backoff
	Logger    *slog.Logger
	Callbacks Callbacks

	// MaxRestarts is the restart budget after the initial start.
	// Once exhausted the worker transitions to StateFailed.
	MaxRestarts int

	// PreSpawnDelay is slept before every spawn attempt. It keeps a
	// burst of workers from hammering a shared external resource at
	// the same instant.
	PreSpawnDelay time.Duration
}

// ErrRestartsExhausted is returned by Run when the restart budget is
// spent and the worker has transitioned to StateFailed.
var ErrRestartsExhausted = errors.New("restart budget exhausted")

// Worker supervises a single recording child process: spawn, wait,
// and restart with backoff on crash. All mutation happens on the
// Run goroutine; accessors are safe from any goroutine.
type Worker struct {
	spec      Spec
	builder   CommandBuilder
	backoff   *Backoff
	logger    *slog.Logger
	callbacks Callbacks

	maxRestarts   int
	preSpawnDelay time.Duration

	state        State
	restarts     int
	lastExitCode int
	lastStart    time.Time
	stateMu      sync.RWMutex

	cmd   *exec.Cmd
	cmdMu sync.Mutex
}

// New creates a Worker from the given configuration.
func New(cfg Config) *Worker {
	return &Worker{
		spec:          cfg.Spec,
		builder:       cfg.Builder,
		backoff:       cfg.Backoff,
		logger:        cfg.Logger,
		callbacks:     cfg.Callbacks,
		maxRestarts:   cfg.MaxRestarts,
		preSpawnDelay: cfg.PreSpawnDelay,
		state:         StateCreated,
		lastExitCode:  -1,
	}
}

// Run drives the worker state machine until a terminal state or
// context cancellation. A clean exit (code 0) is treated as an
// intentional stop and never restarted; crashes and spawn errors are
// retried up to MaxRestarts, then the worker fails permanently.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.markStopped()
			return ctx.Err()
		default:
		}

		if w.preSpawnDelay > 0 {
			select {
			case <-ctx.Done():
				w.markStopped()
				return ctx.Err()
			case <-time.After(w.preSpawnDelay):
			}
		}

		exitCode, uptime, err := w.runOnce(ctx)
		if ctx.Err() != nil {
			w.markStopped()
			return ctx.Err()
		}

		if err == nil && exitCode == 0 {
			// Intentional stop. Final state is StateExited.
			return nil
		}

		if ShouldResetBackoff(uptime) {
			w.backoff.Reset()
		}

		if w.Restarts() >= w.maxRestarts {
			w.setState(StateFailed)
			w.logger.Warn("restart_budget_exhausted",
				"camera", w.spec.Camera.Name,
				"restarts", w.Restarts(),
				"max_restarts", w.maxRestarts,
				"exit_code", exitCode,
			)
			return fmt.Errorf("%s: %w", w.spec.Camera.Name, ErrRestartsExhausted)
		}

		w.stateMu.Lock()
		w.restarts++
		attempt := w.restarts
		w.stateMu.Unlock()

		delay := w.backoff.Next()

		if w.callbacks.OnRestart != nil {
			w.callbacks.OnRestart(w.spec.Camera.Name, attempt, delay)
		}

		w.logger.Info("worker_restart_scheduled",
			"camera", w.spec.Camera.Name,
			"attempt", attempt,
			"delay", delay.String(),
		)

		w.setState(StateRestarting)
		select {
		case <-ctx.Done():
			w.markStopped()
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// runOnce spawns the recording process once and waits for it to exit.
// Returns the exit code, uptime, and any spawn or wait error.
func (w *Worker) runOnce(ctx context.Context) (exitCode int, uptime time.Duration, err error) {
	w.setState(StateStarting)

	startedAt := time.Now()
	logFile, err := w.openLog(w.spec.Paths.Log, startedAt)
	if err != nil {
		return -1, 0, err
	}
	errFile, err := w.openLog(w.spec.Paths.ErrLog, startedAt)
	if err != nil {
		logFile.Close()
		return -1, 0, err
	}

	cmd, err := w.builder.BuildCommand(ctx, w.spec)
	if err != nil {
		logFile.Close()
		errFile.Close()
		w.logger.Error("build_command_failed",
			"camera", w.spec.Camera.Name,
			"error", err,
		)
		return -1, 0, err
	}

	cmd.Dir = w.spec.WorkDir
	cmd.Stdout = logFile
	cmd.Stderr = errFile

	// Own process group, so a stop signal reaches any children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	w.cmdMu.Lock()
	w.cmd = cmd
	w.cmdMu.Unlock()

	w.stateMu.Lock()
	w.lastStart = startedAt
	w.stateMu.Unlock()

	if err := cmd.Start(); err != nil {
		logFile.Close()
		errFile.Close()
		w.cmdMu.Lock()
		w.cmd = nil
		w.cmdMu.Unlock()
		w.logger.Error("spawn_failed",
			"camera", w.spec.Camera.Name,
			"error", err,
		)
		return -1, 0, fmt.Errorf("spawn %s: %w", w.builder.Name(), err)
	}

	// The child holds its own descriptors now.
	logFile.Close()
	errFile.Close()

	pid := cmd.Process.Pid
	w.setState(StateRunning)

	w.logger.Info("worker_started",
		"camera", w.spec.Camera.Name,
		"pid", pid,
		"output", w.spec.Paths.Output,
	)

	if w.callbacks.OnStart != nil {
		w.callbacks.OnStart(w.spec.Camera.Name, pid)
	}

	waitErr := cmd.Wait()
	uptime = time.Since(startedAt)
	exitCode = extractExitCode(waitErr)

	w.stateMu.Lock()
	w.lastExitCode = exitCode
	w.stateMu.Unlock()
	w.setState(StateExited)

	w.cmdMu.Lock()
	w.cmd = nil
	w.cmdMu.Unlock()

	w.logger.Info("worker_exited",
		"camera", w.spec.Camera.Name,
		"pid", pid,
		"exit_code", exitCode,
		"uptime", uptime.String(),
	)

	if w.callbacks.OnExit != nil {
		w.callbacks.OnExit(w.spec.Camera.Name, exitCode, uptime)
	}

	return exitCode, uptime, waitErr
}

// openLog opens a worker log file for appending and writes the start
// marker line. The marker distinguishes "never spawned" from "spawned
// but silent" when reading logs after the fact.
func (w *Worker) openLog(path string, at time.Time) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log %s: %w", path, err)
	}
	fmt.Fprintf(f, "=== %s starting camera=%s attempt=%d ===\n",
		at.Format(time.RFC3339), w.spec.Camera.Name, w.Restarts()+1)
	return f, nil
}

// Stop signals the recording process group to terminate, escalating
// to SIGKILL if it is still alive after the timeout. Safe to call
// from any goroutine; a no-op when nothing is running.
func (w *Worker) Stop(timeout time.Duration) error {
	w.cmdMu.Lock()
	cmd := w.cmd
	w.cmdMu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid

	if pgid, err := syscall.Getpgid(pid); err == nil {
		syscall.Kill(-pgid, syscall.SIGTERM)
	} else {
		cmd.Process.Signal(syscall.SIGTERM)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if w.State() != StateRunning {
			return nil
		}
		time.Sleep(25 * time.Millisecond)
	}

	w.logger.Warn("force_killing_worker",
		"camera", w.spec.Camera.Name,
		"pid", pid,
	)
	if pgid, err := syscall.Getpgid(pid); err == nil {
		syscall.Kill(-pgid, syscall.SIGKILL)
	} else {
		cmd.Process.Kill()
	}
	return errors.New("worker did not exit before deadline")
}

// GracefulCancel makes context cancellation terminate the command the
// same way Stop does: SIGTERM to the process group first, SIGKILL via
// WaitDelay if the child has not exited. Without this, exec's default
// cancel behavior SIGKILLs the child the instant the run context is
// cancelled, leaving no voluntary-exit window. Builders apply it to
// every command they hand to a worker.
func GracefulCancel(cmd *exec.Cmd, waitDelay time.Duration) {
	cmd.Cancel = func() error {
		p := cmd.Process
		if p == nil {
			return os.ErrProcessDone
		}
		if pgid, err := syscall.Getpgid(p.Pid); err == nil {
			if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil && err != syscall.ESRCH {
				return err
			}
			return nil
		}
		return p.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = waitDelay
}

// markStopped finalizes the state after a shutdown-initiated stop.
func (w *Worker) markStopped() {
	if !w.State().IsTerminal() {
		w.setState(StateExited)
	}
}

// setState updates the state and notifies the callback on change.
func (w *Worker) setState(newState State) {
	w.stateMu.Lock()
	oldState := w.state
	w.state = newState
	w.stateMu.Unlock()

	if w.callbacks.OnStateChange != nil && oldState != newState {
		w.callbacks.OnStateChange(w.spec.Camera.Name, oldState, newState)
	}
}

// State returns the current worker state.
func (w *Worker) State() State {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.state
}

// CameraName returns the camera this worker records.
func (w *Worker) CameraName() string {
	return w.spec.Camera.Name
}

// Spec returns the worker's spec.
func (w *Worker) Spec() Spec {
	return w.spec
}

// Restarts returns how many restarts have occurred.
func (w *Worker) Restarts() int {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.restarts
}

// ExitCode returns the last observed exit code, or -1 before any exit.
func (w *Worker) ExitCode() int {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.lastExitCode
}

// Uptime returns the current uptime if running, or 0 if not.
func (w *Worker) Uptime() time.Duration {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	if w.state != StateRunning {
		return 0
	}
	return time.Since(w.lastStart)
}

// extractExitCode extracts the exit code from a Wait() error.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				// Signal exit: 128 + signal number
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
	}

	// Unknown error, assume exit code 1
	return 1
}
