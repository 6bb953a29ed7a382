package report

import (
	"strings"
	"testing"
	"time"
)

func TestUptimeTrackerQuantiles(t *testing.T) {
	tr := NewUptimeTracker()

	// 1s through 100s; quantiles should land in the right region.
	for i := 1; i <= 100; i++ {
		tr.Add(time.Duration(i) * time.Second)
	}

	p50 := tr.Quantile(0.50)
	if p50 < 45*time.Second || p50 > 55*time.Second {
		t.Errorf("P50 = %v, want ~50s", p50)
	}

	p95 := tr.Quantile(0.95)
	if p95 < 90*time.Second || p95 > 100*time.Second {
		t.Errorf("P95 = %v, want ~95s", p95)
	}

	if tr.Samples() != 100 {
		t.Errorf("Samples = %d, want 100", tr.Samples())
	}
}

func TestUptimeTrackerEmpty(t *testing.T) {
	tr := NewUptimeTracker()
	if got := tr.Quantile(0.5); got != 0 {
		t.Errorf("empty tracker quantile = %v, want 0", got)
	}
}

func TestFailedCounts(t *testing.T) {
	r := &RunReport{
		Cameras: []CameraReport{
			{Name: "gate", FinalState: "exited"},
			{Name: "porch", FinalState: "skipped", Err: "unsupported camera model"},
			{Name: "garage", FinalState: "failed", Err: "restart budget exhausted"},
		},
	}
	if got := r.Failed(); got != 2 {
		t.Errorf("Failed() = %d, want 2", got)
	}
}

func TestFormatSummary(t *testing.T) {
	r := &RunReport{
		SessionID: "abc",
		RunDir:    "/var/recordings/20260824_150405",
		StartedAt: time.Now(),
		Duration:  90 * time.Minute,
		Cameras: []CameraReport{
			{Name: "front gate", FinalState: "exited", ExitCode: 0, Restarts: 0},
			{Name: "garage", FinalState: "failed", ExitCode: 1, Restarts: 3, Err: "restart budget exhausted"},
			{Name: "porch", FinalState: "skipped", ExitCode: -1, Err: `unsupported camera model "Wyze"`},
		},
		TotalStarts:   5,
		TotalRestarts: 3,
		ExitCodes:     map[int]int{0: 1, 1: 4},
		UptimeP50:     25 * time.Minute,
		UptimeP95:     80 * time.Minute,
		UptimeP99:     85 * time.Minute,
	}

	out := FormatSummary(r)

	for _, want := range []string{
		"/var/recordings/20260824_150405",
		"01:30:00", // run duration
		"3 (2 with errors)",
		"front gate",
		"failed",
		"restart budget exhausted",
		"Total Starts:         5",
		"Total Restarts:       3",
		"(clean)",
		"(error)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	// Skipped camera shows "-" instead of an exit code.
	if !strings.Contains(out, "porch") {
		t.Errorf("summary missing skipped camera:\n%s", out)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{90 * time.Minute, "01:30:00"},
		{25*time.Hour + 5*time.Second, "25:00:05"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestExitCodeLabel(t *testing.T) {
	if ExitCodeLabel(0) != "(clean)" {
		t.Error("code 0 should be clean")
	}
	if ExitCodeLabel(143) != "(SIGTERM)" {
		t.Error("code 143 should be SIGTERM")
	}
	if ExitCodeLabel(77) != "" {
		t.Error("unknown codes have no label")
	}
}
