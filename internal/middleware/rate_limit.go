package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/osvaldoandrade/hyperdemos/internal/metrics"
	"github.com/osvaldoandrade/hyperdemos/internal/ratelimit"
	"github.com/osvaldoandrade/hyperdemos/pkg/config"
)

const httpScope = "http"

// RateLimitByIP throttles each client IP with the http bucket. Every demo
// call spends hosted browser and LLM credits, so callers share nothing.
func RateLimitByIP(lim ratelimit.Limiter, cfg *config.Config) gin.HandlerFunc {
	bucket := ratelimit.Bucket{
		RequestsPerMinute: cfg.RateLimit.HTTP.RequestsPerMinute,
		BurstSize:         cfg.RateLimit.HTTP.BurstSize,
	}
	if lim == nil || !bucket.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}
		dec, err := lim.Allow(c.Request.Context(), httpScope, ip, bucket)
		switch {
		case err != nil:
			// Limiter outages must not take the API down with them.
			Logger(c).Warn("rate limit check failed", "scope", httpScope, "err", err)
			c.Next()
		case dec.Allowed:
			c.Next()
		default:
			rejectRateLimited(c, dec)
		}
	}
}

func rejectRateLimited(c *gin.Context, dec ratelimit.Decision) {
	secs := int(math.Ceil(dec.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	metrics.RateLimitHitsTotal.WithLabelValues(httpScope).Inc()
	c.Header("Retry-After", strconv.Itoa(secs))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":             "rate limit exceeded",
		"scope":             httpScope,
		"retryAfterSeconds": secs,
	})
}
