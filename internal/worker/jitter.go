package worker

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// JitterSource provides deterministic, per-camera jitter values.
// Seeding per camera keeps relative launch offsets stable within a
// run, preventing synchronized spawn bursts.
type JitterSource struct {
	runSeed int64
}

// NewJitterSource creates a jitter source with the given run seed.
func NewJitterSource(runSeed int64) *JitterSource {
	return &JitterSource{runSeed: runSeed}
}

// NewJitterSourceFromTime creates a jitter source seeded from the
// current time.
func NewJitterSourceFromTime() *JitterSource {
	return NewJitterSource(time.Now().UnixNano())
}

// ForCamera returns an RNG deterministically seeded for one camera.
func (j *JitterSource) ForCamera(cameraName string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(cameraName))
	return rand.New(rand.NewSource(int64(h.Sum64()) ^ j.runSeed))
}

// CameraJitter returns a jitter duration for a camera in [0, maxJitter).
func (j *JitterSource) CameraJitter(cameraName string, maxJitter time.Duration) time.Duration {
	if maxJitter <= 0 {
		return 0
	}
	return time.Duration(j.ForCamera(cameraName).Int63n(int64(maxJitter)))
}
