// Package report builds and formats the end-of-run summary.
package report

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"
)

// CameraReport is the per-camera outcome the supervisor hands back to
// its caller. Every error in a run is attributable to a camera here.
type CameraReport struct {
	Name       string
	Model      string
	URL        string
	FinalState string
	ExitCode   int
	Restarts   int
	LogPath    string
	ErrLogPath string
	OutputPath string

	// Err is set for cameras that never launched (bad model) or
	// failed permanently.
	Err string
}

// RunReport summarizes one supervisor invocation.
type RunReport struct {
	SessionID string
	RunDir    string
	StartedAt time.Time
	Duration  time.Duration

	Cameras []CameraReport

	TotalStarts   int
	TotalRestarts int
	ExitCodes     map[int]int

	UptimeP50 time.Duration
	UptimeP95 time.Duration
	UptimeP99 time.Duration
}

// Failed returns the number of cameras that ended failed or skipped.
func (r *RunReport) Failed() int {
	n := 0
	for _, c := range r.Cameras {
		if c.Err != "" {
			n++
		}
	}
	return n
}

// UptimeTracker accumulates child-process uptimes across all workers
// and exposes distribution percentiles for the run report.
type UptimeTracker struct {
	mu      sync.Mutex
	digest  *tdigest.TDigest
	samples int
}

// NewUptimeTracker creates an empty tracker.
func NewUptimeTracker() *UptimeTracker {
	return &UptimeTracker{digest: tdigest.NewWithCompression(100)}
}

// Add records one process uptime.
func (t *UptimeTracker) Add(uptime time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.digest.Add(uptime.Seconds(), 1)
	t.samples++
}

// Quantile returns the uptime at quantile q, or 0 with no samples.
func (t *UptimeTracker) Quantile(q float64) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.samples == 0 {
		return 0
	}
	return time.Duration(t.digest.Quantile(q) * float64(time.Second))
}

// Samples returns the number of recorded uptimes.
func (t *UptimeTracker) Samples() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.samples
}
