package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/middleware"
	"github.com/osvaldoandrade/hyperdemos/pkg/config"

	"github.com/stretchr/testify/require"
)

func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfigOptional("")
	require.NoError(t, err)
	cfg.RedisAddr = ""
	cfg.JournalPath = filepath.Join(t.TempDir(), "journal.db")
	cfg.OutputDir = t.TempDir()
	cfg.StateSecret = "test-secret"
	cfg.Tracing.Enabled = false
	return cfg
}

func TestApplicationWithoutRemotes(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	application, err := NewApplication(offlineConfig(t),
		WithRemotes(Remotes{}),
		WithClock(func() time.Time { return past }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close(context.Background()) })
	SetupMappings(application)
	require.Nil(t, application.Redis)

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		application.Engine.ServeHTTP(w, req)
		return w
	}

	w := post("/v1/changelog", `{"repoUrl":"https://github.com/acme/rocket","start":"v1","end":"v2"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "HYPERBROWSER_API_KEY")

	// Input errors win over missing credentials.
	w = post("/v1/changelog", `{"repoUrl":"https://gitlab.com/acme/rocket","start":"v1","end":"v2"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = post("/v1/transcripts", `{"url":"https://vimeo.com/1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Tokens are stamped with the injected clock, so one issued two hours
	// ago with a one hour TTL is already expired for a real-time signer.
	tok, err := application.Signer.Issue(middleware.TravelState{})
	require.NoError(t, err)
	_, err = middleware.NewStateSigner("test-secret", time.Hour, nil).Parse(tok)
	require.Error(t, err)

	w = httptest.NewRecorder()
	application.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.True(t, strings.Contains(w.Body.String(), `"cache":"disabled"`))
}

func TestWithClockRejectsNil(t *testing.T) {
	_, err := NewApplication(offlineConfig(t), WithClock(nil))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("warn", "text", &buf).Info("hidden")
	NewLogger("warn", "text", &buf).Warn("shown", "k", "v")
	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "k=v")

	buf.Reset()
	NewLogger("debug", "json", &buf).Debug("hello")
	require.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNewRemotesSkipsMissingKeys(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.HyperbrowserAPIKey = ""
	cfg.OpenAIAPIKey = "sk-test"
	cfg.ElevenLabsAPIKey = ""
	r, err := NewRemotes(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.Nil(t, r.Browser)
	require.NotNil(t, r.LLM)
	require.Nil(t, r.Speaker)
}
