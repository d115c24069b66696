package bench

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/osvaldoandrade/hyperdemos/internal/middleware"
	"github.com/osvaldoandrade/hyperdemos/internal/paginate"
	"github.com/osvaldoandrade/hyperdemos/internal/travel"
	"github.com/osvaldoandrade/hyperdemos/pkg/app"
	"github.com/osvaldoandrade/hyperdemos/pkg/config"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

func newBenchApp(b *testing.B) *app.Application {
	b.Helper()
	gin.SetMode(gin.ReleaseMode)

	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("miniredis start: %v", err)
	}
	b.Cleanup(mr.Close)

	browserSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{"jobId": "job-1"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jobId": "job-1", "status": "completed", "data": map[string]any{
			"title": "Bench", "fullContent": "Benchmark body.",
		}})
	}))
	b.Cleanup(browserSrv.Close)

	cfg, err := config.LoadConfigOptional("")
	if err != nil {
		b.Fatalf("config: %v", err)
	}
	cfg.LogLevel = "error"
	cfg.RedisAddr = mr.Addr()
	cfg.HyperbrowserAPIKey = "bench-key"
	cfg.HyperbrowserBaseURL = browserSrv.URL
	cfg.JournalPath = filepath.Join(b.TempDir(), "journal.db")
	cfg.OutputDir = b.TempDir()
	cfg.StateSecret = "bench-secret"
	// Benchmarks keep rate limiting disabled.
	cfg.RateLimit = config.RateLimitConfig{}

	application, err := app.NewApplication(cfg, app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		b.Fatalf("init app: %v", err)
	}
	b.Cleanup(func() { _ = application.Close(context.Background()) })
	app.SetupMappings(application)
	return application
}

func benchState(b *testing.B, signer *middleware.StateSigner, n int) string {
	b.Helper()
	dests := make([]travel.Destination, n)
	for i := range dests {
		dests[i] = travel.Destination{TravelDestination: domain.TravelDestination{
			Location: fmt.Sprintf("City %d", i), Price: 100 + i, StartDate: "2025-04-04", EndDate: "2025-04-06",
		}}
	}
	tok, err := signer.Issue(middleware.TravelState{
		Search:       travel.Search{From: "Madrid", Duration: domain.TripWeekend},
		Destinations: dests,
		Cursor:       paginate.Cursor{}.For(dests),
	})
	if err != nil {
		b.Fatalf("issue: %v", err)
	}
	return tok
}

func BenchmarkTravelDestinationsPage(b *testing.B) {
	application := newBenchApp(b)
	tok := benchState(b, application.Signer, 40)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/travel/destinations?page=%d", i%8+1), nil)
		req.Header.Set(middleware.StateHeader, tok)
		w := httptest.NewRecorder()
		application.Engine.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("status %d: %s", w.Code, w.Body.String())
		}
	}
}

func BenchmarkCachedArticleExtract(b *testing.B) {
	application := newBenchApp(b)
	body, _ := json.Marshal(map[string]string{"url": "https://blog.example.com/bench"})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/articles/extract", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		application.Engine.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("status %d: %s", w.Code, w.Body.String())
		}
	}
}

func BenchmarkHealthz(b *testing.B) {
	application := newBenchApp(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		application.Engine.ServeHTTP(w, req)
	}
}
