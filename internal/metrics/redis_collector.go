package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// Key prefixes owned by internal/cache and internal/ratelimit. They live here
// so scrapes can count keys without importing either package.
const (
	CacheKeyPrefix     = "hyperdemos:cache:"
	RateLimitKeyPrefix = "hyperdemos:ratelimit:"
)

const scrapeTimeout = 2 * time.Second

// cacheCollector reports, at scrape time, how many memoized results each
// named cache holds and how many rate limit buckets are live.
type cacheCollector struct {
	mu     sync.RWMutex
	rdb    *redis.Client
	logger *slog.Logger
	caches []string

	entries *prometheus.Desc
	buckets *prometheus.Desc
}

func newRedisCollector(rdb *redis.Client, logger *slog.Logger, caches []string) *cacheCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &cacheCollector{
		rdb:     rdb,
		logger:  logger,
		caches:  caches,
		entries: prometheus.NewDesc(namespace+"_cache_entries", "Current number of memoized entries by cache.", []string{"cache"}, nil),
		buckets: prometheus.NewDesc(namespace+"_ratelimit_buckets", "Current number of live rate limit buckets.", nil, nil),
	}
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.buckets
}

func (c *cacheCollector) swap(rdb *redis.Client, logger *slog.Logger, caches []string) {
	if logger == nil {
		logger = slog.Default()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rdb, c.logger, c.caches = rdb, logger, caches
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	for _, name := range c.caches {
		n, err := c.count(ctx, CacheKeyPrefix+name+":*")
		if err != nil {
			c.logger.Warn("cache entry scan failed", "cache", name, "err", err)
			return
		}
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(n), name)
	}
	n, err := c.count(ctx, RateLimitKeyPrefix+"*")
	if err != nil {
		c.logger.Warn("rate limit bucket scan failed", "err", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.buckets, prometheus.GaugeValue, float64(n))
}

func (c *cacheCollector) count(ctx context.Context, match string) (int, error) {
	n := 0
	it := c.rdb.Scan(ctx, 0, match, 500).Iterator()
	for it.Next(ctx) {
		n++
	}
	return n, it.Err()
}

var (
	registerCollector sync.Once
	collector         = newRedisCollector(nil, nil, nil)
)

// RegisterRedisCollector registers the scrape-time cache gauges with the
// default registry once per process. Later calls point the same collector at
// the newest client, so the gauges follow the most recent Application. A nil
// client makes it report nothing.
func RegisterRedisCollector(rdb *redis.Client, logger *slog.Logger, caches ...string) {
	collector.swap(rdb, logger, caches)
	registerCollector.Do(func() {
		prometheus.MustRegister(collector)
	})
}
