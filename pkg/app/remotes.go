package app

import (
	"log/slog"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/elevenlabs"
	"github.com/osvaldoandrade/hyperdemos/internal/hyperbrowser"
	"github.com/osvaldoandrade/hyperdemos/internal/openai"
	"github.com/osvaldoandrade/hyperdemos/internal/services"
	"github.com/osvaldoandrade/hyperdemos/pkg/config"
)

// Remotes are the upstream API clients. A nil field means its key is not
// configured; services answer with a MissingCredentialError in that case.
type Remotes struct {
	Browser services.Browser
	LLM     services.Completer
	Speaker services.Speaker
}

func NewRemotes(cfg *config.Config, logger *slog.Logger) (Remotes, error) {
	var r Remotes
	retry := cfg.RetryPolicy()
	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.HyperbrowserAPIKey == "" {
		logger.Warn("hyperbrowser disabled", "missing", hyperbrowser.APIKeyEnv)
	} else {
		c, err := hyperbrowser.New(hyperbrowser.Config{
			APIKey:       cfg.HyperbrowserAPIKey,
			BaseURL:      cfg.HyperbrowserBaseURL,
			HTTPTimeout:  timeout,
			PollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
			PollTimeout:  time.Duration(cfg.PollTimeoutSeconds) * time.Second,
			Retry:        retry,
			Logger:       logger,
		})
		if err != nil {
			return r, err
		}
		r.Browser = c
	}

	if cfg.OpenAIAPIKey == "" {
		logger.Warn("openai disabled", "missing", openai.APIKeyEnv)
	} else {
		c, err := openai.New(openai.Config{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL, Timeout: timeout, Retry: retry, Logger: logger})
		if err != nil {
			return r, err
		}
		r.LLM = c
	}

	if cfg.ElevenLabsAPIKey == "" {
		logger.Warn("elevenlabs disabled", "missing", elevenlabs.APIKeyEnv)
	} else {
		c, err := elevenlabs.New(elevenlabs.Config{APIKey: cfg.ElevenLabsAPIKey, BaseURL: cfg.ElevenLabsBaseURL, Timeout: timeout, Retry: retry, Logger: logger})
		if err != nil {
			return r, err
		}
		r.Speaker = c
	}
	return r, nil
}
