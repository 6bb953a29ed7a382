// Package worker manages the lifecycle of one recording child process.
package worker

// State represents the current state of a supervised worker.
type State int

const (
	// StateCreated is the initial state before the first spawn attempt.
	StateCreated State = iota

	// StateStarting indicates the recording process is being spawned.
	StateStarting

	// StateRunning indicates the recording process is alive.
	StateRunning

	// StateExited indicates the process terminated and will not be
	// restarted: either a clean exit or a shutdown-initiated stop.
	StateExited

	// StateRestarting indicates the worker is waiting out a backoff
	// delay before the next spawn attempt.
	StateRestarting

	// StateFailed is the terminal state after the restart budget is
	// exhausted. The worker is reported, not retried.
	StateFailed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateRestarting:
		return "restarting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsActive returns true while the worker still has work in flight.
func (s State) IsActive() bool {
	return s == StateStarting || s == StateRunning || s == StateRestarting
}

// IsTerminal returns true once the worker will never spawn again.
func (s State) IsTerminal() bool {
	return s == StateExited || s == StateFailed
}
