package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategies understood by Compute.
const (
	Fixed          = "fixed"
	Linear         = "linear"
	Exponential    = "exponential"
	ExpEqualJitter = "exp_equal_jitter"
	ExpFullJitter  = "exp_full_jitter"
)

// Compute returns the delay before the retry that follows attempt number
// attempts (0-based), capped at max. A nil rng draws jitter from the
// process-wide source, which is randomly seeded and safe for concurrent use.
func Compute(strategy string, base time.Duration, max time.Duration, attempts int, rng *rand.Rand) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = base
	}
	switch strategy {
	case Fixed:
		return minDuration(base, max)
	case Linear:
		return minDuration(base*time.Duration(maxInt(1, attempts)), max)
	case ExpEqualJitter:
		ceiling := exponential(base, max, attempts)
		half := ceiling / 2
		return half + time.Duration(int63n(rng, int64(half)+1))
	case ExpFullJitter:
		ceiling := exponential(base, max, attempts)
		if ceiling <= 0 {
			return 0
		}
		return time.Duration(int63n(rng, int64(ceiling)+1))
	default: // exponential
		return exponential(base, max, attempts)
	}
}

func exponential(base, max time.Duration, attempts int) time.Duration {
	f := float64(base) * math.Pow(2, float64(attempts))
	if f >= float64(max) {
		return max
	}
	return time.Duration(f)
}

func int63n(rng *rand.Rand, n int64) int64 {
	if rng == nil {
		return rand.Int63n(n)
	}
	return rng.Int63n(n)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
