package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewCreatesRunDirectory(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2026, 8, 24, 15, 4, 5, 0, time.UTC)

	sess, err := New(base, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join(base, "20260824_150405")
	if sess.Dir != want {
		t.Errorf("Dir = %q, want %q", sess.Dir, want)
	}
	if info, err := os.Stat(sess.Dir); err != nil || !info.IsDir() {
		t.Errorf("run directory not created: %v", err)
	}
	if sess.ID == "" {
		t.Error("session ID is empty")
	}
	if !sess.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", sess.StartedAt, now)
	}
}

func TestNewFailsOnUnwritableBase(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	base := filepath.Join(t.TempDir(), "readonly")
	if err := os.Mkdir(base, 0o555); err != nil {
		t.Fatal(err)
	}

	if _, err := New(filepath.Join(base, "sub"), time.Now()); err == nil {
		t.Error("expected error for unwritable base directory")
	}
}

func TestWorkerPaths(t *testing.T) {
	sess, err := New(t.TempDir(), time.Now())
	if err != nil {
		t.Fatal(err)
	}

	at := time.Date(2026, 8, 24, 16, 0, 0, 0, time.UTC)
	paths := sess.WorkerPaths("front gate", at)

	wantStem := "front_gate_20260824_160000"
	for _, p := range []struct{ got, suffix string }{
		{paths.Log, wantStem + ".log"},
		{paths.ErrLog, wantStem + ".err.log"},
		{paths.Output, wantStem + ".mp4"},
	} {
		if filepath.Base(p.got) != p.suffix {
			t.Errorf("path = %q, want basename %q", p.got, p.suffix)
		}
		if !strings.HasPrefix(p.got, sess.Dir) {
			t.Errorf("path %q not under run dir %q", p.got, sess.Dir)
		}
	}
}

func TestWorkerPathsDistinctSameSecond(t *testing.T) {
	sess, err := New(t.TempDir(), time.Now())
	if err != nil {
		t.Fatal(err)
	}

	at := time.Now()
	a := sess.WorkerPaths("gate", at)
	b := sess.WorkerPaths("garage", at)

	if a.Log == b.Log || a.ErrLog == b.ErrLog || a.Output == b.Output {
		t.Errorf("paths collide for different cameras: %+v vs %+v", a, b)
	}
}

func TestRunLogPath(t *testing.T) {
	sess, err := New(t.TempDir(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(sess.RunLogPath()) != "supervisor.log" {
		t.Errorf("RunLogPath = %q", sess.RunLogPath())
	}
	if filepath.Dir(sess.RunLogPath()) != sess.Dir {
		t.Errorf("RunLogPath %q not in run dir", sess.RunLogPath())
	}
}
