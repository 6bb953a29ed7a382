// Package session manages the per-run directory and file naming.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jlpoolen/retina/internal/camera"
)

// timestampLayout is used for both the run directory and per-worker
// file names. Second resolution; uniqueness across workers comes from
// the camera name component, not the timestamp.
const timestampLayout = "20060102_150405"

// RunSession is the shared context for all workers launched together:
// one directory per invocation, all worker files inside it.
type RunSession struct {
	ID        string
	StartedAt time.Time
	Dir       string
}

// WorkerPaths holds the files owned by a single worker. Paths are
// disjoint between workers, so no cross-worker locking is needed.
type WorkerPaths struct {
	Log    string
	ErrLog string
	Output string
}

// New creates the run directory under baseDir, named by timestamp.
// Failure here is the one run-aborting error: without a writable run
// directory nothing can record.
func New(baseDir string, now time.Time) (*RunSession, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating base directory %s: %w", baseDir, err)
	}

	dir := filepath.Join(baseDir, now.Format(timestampLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory %s: %w", dir, err)
	}

	return &RunSession{
		ID:        uuid.NewString(),
		StartedAt: now,
		Dir:       dir,
	}, nil
}

// WorkerPaths derives the log, error-log, and output paths for a
// camera. The sanitized camera name keeps paths unique even when two
// workers start within the same second.
func (s *RunSession) WorkerPaths(cameraName string, at time.Time) WorkerPaths {
	stem := camera.SanitizeName(cameraName) + "_" + at.Format(timestampLayout)
	return WorkerPaths{
		Log:    filepath.Join(s.Dir, stem+".log"),
		ErrLog: filepath.Join(s.Dir, stem+".err.log"),
		Output: filepath.Join(s.Dir, stem+".mp4"),
	}
}

// RunLogPath is the supervisor's own log file inside the run directory.
func (s *RunSession) RunLogPath() string {
	return filepath.Join(s.Dir, "supervisor.log")
}
