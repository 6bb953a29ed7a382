package worker

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateCreated, "created"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateExited, "exited"},
		{StateRestarting, "restarting"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStateClassification(t *testing.T) {
	active := map[State]bool{
		StateStarting:   true,
		StateRunning:    true,
		StateRestarting: true,
	}
	terminal := map[State]bool{
		StateExited: true,
		StateFailed: true,
	}

	all := []State{StateCreated, StateStarting, StateRunning, StateExited, StateRestarting, StateFailed}
	for _, s := range all {
		if s.IsActive() != active[s] {
			t.Errorf("%v.IsActive() = %v", s, s.IsActive())
		}
		if s.IsTerminal() != terminal[s] {
			t.Errorf("%v.IsTerminal() = %v", s, s.IsTerminal())
		}
	}
}
