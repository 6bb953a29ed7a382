package worker

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

// BackoffConfig holds the configuration for exponential restart backoff.
type BackoffConfig struct {
	Initial    time.Duration // First restart delay (default: 2s)
	Max        time.Duration // Delay cap (default: 60s)
	Multiplier float64       // Growth per attempt (default: 2.0)
	JitterPct  float64       // Jitter as a fraction of the delay (0.4 = ±20%)
}

// DefaultBackoffConfig returns the default restart backoff policy.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    2 * time.Second,
		Max:        60 * time.Second,
		Multiplier: 2.0,
		JitterPct:  0.4,
	}
}

// Backoff calculates exponential restart delays with jitter. Each
// instance is seeded per camera so workers keep distinct timing
// offsets across restarts instead of synchronizing.
type Backoff struct {
	config   BackoffConfig
	attempts int
	rng      *rand.Rand
}

// NewBackoff creates a Backoff for one camera. The camera name and
// run seed combine into a deterministic jitter stream.
func NewBackoff(cameraName string, runSeed int64, cfg BackoffConfig) *Backoff {
	h := fnv.New64a()
	h.Write([]byte(cameraName))
	seed := int64(h.Sum64()) ^ runSeed
	return &Backoff{
		config: cfg,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Next returns the next delay and increments the attempt counter.
func (b *Backoff) Next() time.Duration {
	delay := b.Calculate()
	b.attempts++
	return delay
}

// Calculate returns the current delay without incrementing attempts.
func (b *Backoff) Calculate() time.Duration {
	delay := float64(b.config.Initial) * math.Pow(b.config.Multiplier, float64(b.attempts))

	if delay > float64(b.config.Max) {
		delay = float64(b.config.Max)
	}

	if b.config.JitterPct > 0 {
		jitterRange := delay * b.config.JitterPct
		delay += jitterRange*b.rng.Float64() - jitterRange/2
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// Reset resets the attempt counter to zero.
func (b *Backoff) Reset() {
	b.attempts = 0
}

// Attempts returns the current attempt count.
func (b *Backoff) Attempts() int {
	return b.attempts
}

// StableUptime is the minimum uptime after which a worker is
// considered to have recovered: backoff delays restart from Initial on
// the next crash. The restart budget itself never resets.
const StableUptime = 30 * time.Second

// ShouldResetBackoff reports whether a run was long enough to treat
// the previous failures as resolved.
func ShouldResetBackoff(uptime time.Duration) bool {
	return uptime >= StableUptime
}
