package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/osvaldoandrade/hyperdemos/internal/metrics"
)

// RedisLimiter keeps buckets in Redis hashes {tokens, ts}.
type RedisLimiter struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, now func() time.Time) *RedisLimiter {
	if now == nil {
		now = time.Now
	}
	return &RedisLimiter{rdb: rdb, now: now}
}

// KEYS[1] bucket; ARGV rate (tokens/ms), capacity, now (ms), ttl (ms).
// Returns {allowed, wait_ms}.
var takeScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local tokens = tonumber(redis.call("HGET", KEYS[1], "tokens")) or capacity
local ts = tonumber(redis.call("HGET", KEYS[1], "ts")) or now
if now < ts then ts = now end

tokens = math.min(capacity, tokens + (now - ts) * rate)
local allowed, wait = 0, 0
if tokens >= 1 - 1e-9 then
  allowed = 1
  tokens = math.max(tokens - 1, 0)
else
  wait = math.ceil((1 - tokens) / rate - 1e-9)
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return {allowed, wait}
`)

func (l *RedisLimiter) Allow(ctx context.Context, scope string, subject string, bucket Bucket) (Decision, error) {
	if l == nil || l.rdb == nil || !bucket.Enabled() {
		return Decision{Allowed: true}, nil
	}
	scope, subject = normalize(scope, subject)
	sum := sha256.Sum256([]byte(subject))
	key := metrics.RateLimitKeyPrefix + scope + ":" + hex.EncodeToString(sum[:])

	res, err := takeScript.Run(ctx, l.rdb, []string{key},
		bucket.perMilli(), bucket.BurstSize, l.now().UnixMilli(), stateTTL(bucket).Milliseconds(),
	).Result()
	if err != nil {
		return Decision{}, err
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return Decision{}, fmt.Errorf("unexpected ratelimit script reply: %T", res)
	}
	allowed, _ := vals[0].(int64)
	waitMS, _ := vals[1].(int64)
	if allowed == 1 {
		return Decision{Allowed: true}, nil
	}
	return Decision{RetryAfter: max(time.Duration(waitMS)*time.Millisecond, time.Millisecond)}, nil
}
