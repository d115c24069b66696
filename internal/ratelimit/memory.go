package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memState struct {
	tokens float64
	last   int64
	seen   time.Time
}

// MemoryLimiter is the single-process limiter used when no Redis is
// configured. Idle buckets are dropped once their state would have expired.
type MemoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	buckets map[string]*memState
}

func NewMemoryLimiter(now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{now: now, buckets: make(map[string]*memState)}
}

func (l *MemoryLimiter) Allow(_ context.Context, scope string, subject string, bucket Bucket) (Decision, error) {
	if !bucket.Enabled() {
		return Decision{Allowed: true}, nil
	}
	scope, subject = normalize(scope, subject)
	key := scope + "\x00" + subject
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now, stateTTL(bucket))

	st, ok := l.buckets[key]
	if !ok {
		st = &memState{tokens: float64(bucket.BurstSize), last: now.UnixMilli()}
		l.buckets[key] = st
	}
	left, wait := take(bucket, st.tokens, st.last, now.UnixMilli())
	st.tokens, st.last, st.seen = left, now.UnixMilli(), now
	if wait > 0 {
		return Decision{RetryAfter: wait}, nil
	}
	return Decision{Allowed: true}, nil
}

func (l *MemoryLimiter) sweep(now time.Time, ttl time.Duration) {
	for k, st := range l.buckets {
		if now.Sub(st.seen) > ttl {
			delete(l.buckets, k)
		}
	}
}
