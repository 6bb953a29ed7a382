package worker

import (
	"testing"
	"time"
)

func TestBackoffGrowth(t *testing.T) {
	cfg := BackoffConfig{
		Initial:    2 * time.Second,
		Max:        60 * time.Second,
		Multiplier: 2.0,
		JitterPct:  0, // deterministic for the test
	}
	b := NewBackoff("gate", 1, cfg)

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		60 * time.Second, // capped
		60 * time.Second,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("attempt %d: delay = %v, want %v", i, got, w)
		}
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	cfg := BackoffConfig{
		Initial:    2 * time.Second,
		Max:        60 * time.Second,
		Multiplier: 2.0,
		JitterPct:  0.4,
	}
	b := NewBackoff("gate", 42, cfg)

	// ±20% of 2s
	for i := 0; i < 100; i++ {
		d := b.Calculate()
		if d < 1600*time.Millisecond || d > 2400*time.Millisecond {
			t.Fatalf("jittered delay %v outside [1.6s, 2.4s]", d)
		}
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff("gate", 1, DefaultBackoffConfig())

	b.Next()
	b.Next()
	if b.Attempts() != 2 {
		t.Fatalf("Attempts = %d, want 2", b.Attempts())
	}

	b.Reset()
	if b.Attempts() != 0 {
		t.Errorf("Attempts after Reset = %d, want 0", b.Attempts())
	}
}

func TestBackoffDeterministicPerSeed(t *testing.T) {
	cfg := DefaultBackoffConfig()

	a := NewBackoff("gate", 7, cfg)
	b := NewBackoff("gate", 7, cfg)
	if a.Next() != b.Next() {
		t.Error("same camera and seed produced different delays")
	}

	c := NewBackoff("garage", 7, cfg)
	d := NewBackoff("gate", 7, cfg)
	if c.Next() == d.Next() {
		t.Log("different cameras happened to collide; jitter streams should usually differ")
	}
}

func TestShouldResetBackoff(t *testing.T) {
	if ShouldResetBackoff(5 * time.Second) {
		t.Error("short run should not reset backoff")
	}
	if !ShouldResetBackoff(StableUptime) {
		t.Error("stable run should reset backoff")
	}
}

func TestJitterSourceRange(t *testing.T) {
	j := NewJitterSource(99)

	for _, name := range []string{"gate", "garage", "porch"} {
		d := j.CameraJitter(name, 250*time.Millisecond)
		if d < 0 || d >= 250*time.Millisecond {
			t.Errorf("jitter for %q = %v, want [0, 250ms)", name, d)
		}
	}

	if j.CameraJitter("gate", 0) != 0 {
		t.Error("zero max jitter should return 0")
	}
}

func TestJitterSourceStablePerCamera(t *testing.T) {
	j := NewJitterSource(99)
	a := j.CameraJitter("gate", time.Second)
	b := j.CameraJitter("gate", time.Second)
	if a != b {
		t.Errorf("jitter not stable within a run: %v vs %v", a, b)
	}
}
