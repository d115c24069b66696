// Package ratelimit throttles inbound API calls per client and outbound
// calls to upstreams with a published request budget (Nominatim).
package ratelimit

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Bucket is a token bucket refilled at RequestsPerMinute and holding at most
// BurstSize tokens. A zero bucket disables limiting.
type Bucket struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

func (b Bucket) Enabled() bool {
	return b.RequestsPerMinute > 0 && b.BurstSize > 0
}

func (b Bucket) perMilli() float64 {
	return float64(b.RequestsPerMinute) / float64(time.Minute.Milliseconds())
}

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, scope string, subject string, bucket Bucket) (Decision, error)
}

// New shares bucket state through Redis when rdb is set, so every process
// spends the same upstream budget; otherwise state is kept in memory.
func New(rdb *redis.Client) Limiter {
	if rdb == nil {
		return NewMemoryLimiter(time.Now)
	}
	return NewRedisLimiter(rdb, time.Now)
}

// Wait blocks until the limiter admits subject or ctx is done. Limiter errors
// fail open. onHit is called each time the caller has to wait.
func Wait(ctx context.Context, l Limiter, scope, subject string, bucket Bucket, onHit func(time.Duration)) error {
	if l == nil || !bucket.Enabled() {
		return nil
	}
	for {
		dec, err := l.Allow(ctx, scope, subject, bucket)
		if err != nil || dec.Allowed {
			return nil
		}
		if onHit != nil {
			onHit(dec.RetryAfter)
		}
		t := time.NewTimer(dec.RetryAfter)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func normalize(scope, subject string) (string, string) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		scope = "default"
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "unknown"
	}
	return scope, subject
}

// epsilon absorbs float drift in the refill arithmetic.
const epsilon = 1e-9

// take refills tokens for the time elapsed since last and spends one if it
// can. It is the same arithmetic the Redis script runs server side.
func take(b Bucket, tokens float64, last, now int64) (left float64, wait time.Duration) {
	if now < last {
		last = now
	}
	capacity := float64(b.BurstSize)
	tokens = math.Min(capacity, tokens+float64(now-last)*b.perMilli())
	if tokens >= 1-epsilon {
		return math.Max(tokens-1, 0), 0
	}
	ms := math.Ceil((1-tokens)/b.perMilli() - epsilon)
	return tokens, time.Duration(ms) * time.Millisecond
}

// stateTTL keeps idle bucket state for two refill cycles, within [30s, 1h].
func stateTTL(b Bucket) time.Duration {
	if !b.Enabled() {
		return 2 * time.Minute
	}
	fill := time.Duration(math.Round(float64(b.BurstSize)/b.perMilli())) * time.Millisecond
	ttl := 2*fill + 5*time.Second
	return min(max(ttl, 30*time.Second), time.Hour)
}
