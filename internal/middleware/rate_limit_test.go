package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/osvaldoandrade/hyperdemos/internal/ratelimit"
	"github.com/osvaldoandrade/hyperdemos/pkg/config"
)

type mockLimiter struct {
	decision ratelimit.Decision
	err      error
	subjects []string
}

func (m *mockLimiter) Allow(ctx context.Context, scope string, subject string, bucket ratelimit.Bucket) (ratelimit.Decision, error) {
	m.subjects = append(m.subjects, subject)
	return m.decision, m.err
}

func httpBucket(rpm, burst int) *config.Config {
	return &config.Config{RateLimit: config.RateLimitConfig{HTTP: config.RateLimitBucketConfig{RequestsPerMinute: rpm, BurstSize: burst}}}
}

func newCtx(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(method, path, nil)
	ctx.Request.RemoteAddr = "203.0.113.7:51234"
	return ctx, rec
}

func TestRateLimitByIP(t *testing.T) {
	tests := []struct {
		name       string
		lim        *mockLimiter
		cfg        *config.Config
		aborted    bool
		consulted  bool
		retryAfter string
	}{
		{name: "disabled bucket", lim: &mockLimiter{}, cfg: httpBucket(0, 0)},
		{name: "allowed", lim: &mockLimiter{decision: ratelimit.Decision{Allowed: true}}, cfg: httpBucket(100, 10), consulted: true},
		{name: "limiter error fails open", lim: &mockLimiter{err: context.DeadlineExceeded}, cfg: httpBucket(100, 10), consulted: true},
		{name: "denied", lim: &mockLimiter{decision: ratelimit.Decision{RetryAfter: 5 * time.Second}}, cfg: httpBucket(100, 10), consulted: true, aborted: true, retryAfter: "5"},
		{name: "sub-second wait rounds up", lim: &mockLimiter{decision: ratelimit.Decision{RetryAfter: 500 * time.Millisecond}}, cfg: httpBucket(30, 5), consulted: true, aborted: true, retryAfter: "1"},
		{name: "fractional wait rounds up", lim: &mockLimiter{decision: ratelimit.Decision{RetryAfter: 2100 * time.Millisecond}}, cfg: httpBucket(30, 5), consulted: true, aborted: true, retryAfter: "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, rec := newCtx(http.MethodPost, "/v1/travel/search")
			RateLimitByIP(tt.lim, tt.cfg)(ctx)

			if ctx.IsAborted() != tt.aborted {
				t.Fatalf("aborted = %v, want %v", ctx.IsAborted(), tt.aborted)
			}
			if consulted := len(tt.lim.subjects) > 0; consulted != tt.consulted {
				t.Fatalf("limiter consulted = %v, want %v", consulted, tt.consulted)
			}
			if tt.consulted && tt.lim.subjects[0] != "203.0.113.7" {
				t.Fatalf("subject = %q, want client IP", tt.lim.subjects[0])
			}
			if !tt.aborted {
				return
			}
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.retryAfter {
				t.Fatalf("Retry-After = %q, want %q", got, tt.retryAfter)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["error"] != "rate limit exceeded" || body["scope"] != "http" {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestRateLimitByIPNilLimiter(t *testing.T) {
	ctx, _ := newCtx(http.MethodGet, "/v1/speech/credits")
	RateLimitByIP(nil, httpBucket(100, 10))(ctx)
	if ctx.IsAborted() {
		t.Fatal("nil limiter must pass requests through")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var seen string
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { seen = RequestID(c.Request.Context()) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	r.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get("X-Request-Id") != "abc-123" {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rec.Header().Get("X-Request-Id"))
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rec.Header().Get("X-Request-Id")) != 36 {
		t.Fatalf("expected generated uuid, got %q", rec.Header().Get("X-Request-Id"))
	}
}
