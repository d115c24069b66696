// Package cache memoizes hosted-service results by their arguments so
// repeated requests within the TTL do not start new remote jobs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/osvaldoandrade/hyperdemos/internal/metrics"
)

const DefaultTTL = time.Hour

type Cache interface {
	Name() string
	// Get decodes the entry for key into dst and reports whether it existed.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

type redisCache struct {
	rdb  *redis.Client
	name string
	ttl  time.Duration
}

func NewRedis(rdb *redis.Client, name string, ttl time.Duration) Cache {
	if rdb == nil {
		return Noop(name)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisCache{rdb: rdb, name: name, ttl: ttl}
}

func (c *redisCache) Name() string { return c.name }

func (c *redisCache) key(k string) string {
	return metrics.CacheKeyPrefix + c.name + ":" + k
}

func (c *redisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return c.rdb.Set(ctx, c.key(key), b, c.ttl).Err()
}

type noop string

// Noop never stores anything. Used when Redis is not configured.
func Noop(name string) Cache { return noop(name) }

func (n noop) Name() string { return string(n) }
func (noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (noop) Set(context.Context, string, any) error { return nil }

// Key hashes the JSON encoding of parts.
func Key(parts ...any) string {
	b, err := json.Marshal(parts)
	if err != nil {
		b = []byte(fmt.Sprint(parts...))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Memoize returns the cached value for key or computes and stores it. Cache
// failures are logged and fall through to fn; errors from fn are not cached.
func Memoize[T any](ctx context.Context, c Cache, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return fn(ctx)
	}
	var cached T
	ok, err := c.Get(ctx, key, &cached)
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", "cache", c.Name(), "err", err)
	}
	if ok {
		metrics.CacheLookupsTotal.WithLabelValues(c.Name(), "hit").Inc()
		return cached, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues(c.Name(), "miss").Inc()

	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v); err != nil {
		slog.WarnContext(ctx, "cache write failed", "cache", c.Name(), "err", err)
	}
	return v, nil
}
