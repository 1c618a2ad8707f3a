package simrand

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the single random source behind every probabilistic decision
// in the simulation: fault draws, profile rolls, overlay suppression and
// mutation picks. Seeding it makes a whole process run reproducible.
// Safe for concurrent use.
type Rand struct {
	mu  sync.Mutex
	src *rand.Rand
}

// New returns a source seeded with seed. A zero seed falls back to the
// wall clock, which is the normal server configuration.
func New(seed int64) *Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Rand{src: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform draw from [0, 1).
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

// Intn returns a uniform draw from [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// Between returns a uniform draw from [min, max).
func (r *Rand) Between(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.Float64()*(max-min)
}

// DurationBetween returns a uniform draw from [min, max).
func (r *Rand) DurationBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(r.Float64()*float64(max-min))
}
