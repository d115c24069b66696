package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/cache"
	"github.com/osvaldoandrade/hyperdemos/internal/geocode"
	"github.com/osvaldoandrade/hyperdemos/internal/journal"
	"github.com/osvaldoandrade/hyperdemos/internal/metrics"
	"github.com/osvaldoandrade/hyperdemos/internal/middleware"
	"github.com/osvaldoandrade/hyperdemos/internal/providers"
	"github.com/osvaldoandrade/hyperdemos/internal/ratelimit"
	"github.com/osvaldoandrade/hyperdemos/internal/services"
	"github.com/osvaldoandrade/hyperdemos/internal/tracing"
	"github.com/osvaldoandrade/hyperdemos/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Cache names, also used as metric labels.
var cacheNames = []string{"changelog", "articles", "transcripts", "travel", "cities"}

type Application struct {
	Config      *config.Config
	Engine      *gin.Engine
	Logger      *slog.Logger
	Redis       *redis.Client
	Journal     *journal.Journal
	Signer      *middleware.StateSigner
	RateLimiter ratelimit.Limiter

	Changelog   services.ChangelogService
	Articles    services.ArticleService
	Transcripts services.TranscriptService
	Travel      services.TravelService

	TracingShutdown func(context.Context) error

	remotes *Remotes
	now     func() time.Time
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithRemotes replaces the upstream clients built from the config.
func WithRemotes(r Remotes) ApplicationOption {
	return func(app *Application) error {
		app.remotes = &r
		return nil
	}
}

func WithClock(now func() time.Time) ApplicationOption {
	return func(app *Application) error {
		if now == nil {
			return errors.New("nil clock")
		}
		app.now = now
		return nil
	}
}

func WithLogger(logger *slog.Logger) ApplicationOption {
	return func(app *Application) error {
		app.Logger = logger
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	app := &Application{Config: cfg, now: time.Now}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	if app.Logger == nil {
		app.Logger = NewLogger(cfg.LogLevel, cfg.LogFormat, nil).With("service", "hyperdemos", "env", cfg.Env)
		slog.SetDefault(app.Logger)
	}
	logger := app.Logger

	ctx := context.Background()
	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		return nil, err
	}
	app.TracingShutdown = shutdown

	rdb, err := providers.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", "addr", cfg.RedisAddr, "err", err)
	}
	app.Redis = rdb
	metrics.RegisterRedisCollector(rdb, logger, cacheNames...)
	app.RateLimiter = ratelimit.New(rdb)

	newCache := func(name string) cache.Cache {
		return cache.NewRedis(rdb, name, cfg.CacheTTL())
	}

	if app.remotes == nil {
		r, err := NewRemotes(cfg, logger)
		if err != nil {
			return nil, err
		}
		app.remotes = &r
	}
	remotes := *app.remotes

	cities := geocode.New(geocode.Config{
		BaseURL:   cfg.NominatimURL,
		UserAgent: cfg.NominatimUserAgent,
		Retry:     cfg.RetryPolicy(),
		Limiter:   app.RateLimiter,
		Bucket:    ratelimit.Bucket(cfg.RateLimit.Geocode),
		Cache:     newCache("cities"),
		Logger:    logger,
	})

	jr, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return nil, err
	}
	app.Journal = jr
	uploader := providers.NewLocalUploader(cfg.OutputDir)

	secret := cfg.StateSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("stateSecret not set, travel state tokens will not survive a restart")
	}
	app.Signer = middleware.NewStateSigner(secret, cfg.StateTTL(), app.now)

	app.Changelog = services.NewChangelogService(remotes.Browser, remotes.LLM, newCache("changelog"), jr, uploader, logger, app.now)
	app.Articles = services.NewArticleService(remotes.Browser, remotes.Speaker, newCache("articles"), jr, uploader, logger, app.now)
	app.Transcripts = services.NewTranscriptService(remotes.Browser, remotes.LLM, newCache("transcripts"), jr, logger, app.now)
	app.Travel = services.NewTravelService(remotes.Browser, remotes.LLM, cities, newCache("travel"), jr, logger, app.now)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(logger),
		middleware.TracingMiddleware(cfg.Tracing.ServiceName),
		middleware.RateLimitByIP(app.RateLimiter, cfg),
	)
	app.Engine = engine
	return app, nil
}

// Close releases the journal, Redis and the trace exporter.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.Journal != nil {
		errs = append(errs, a.Journal.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.TracingShutdown != nil {
		errs = append(errs, a.TracingShutdown(ctx))
	}
	return errors.Join(errs...)
}
