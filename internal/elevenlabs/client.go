// Package elevenlabs wraps the text-to-speech endpoints used by the article
// reader: subscription credits, voice lookup and synthesis.
package elevenlabs

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/osvaldoandrade/hyperdemos/internal/backoff"
	"github.com/osvaldoandrade/hyperdemos/internal/remote"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

const (
	service        = "elevenlabs"
	APIKeyEnv      = "ELEVENLABS_API_KEY"
	DefaultBaseURL = "https://api.elevenlabs.io"
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Retry   backoff.Policy
	Logger  *slog.Logger
}

type Client struct {
	http   *resty.Client
	caller remote.Caller
	logger *slog.Logger
}

func New(cfg Config) (*Client, error) {
	if err := remote.RequireKey(APIKeyEnv, cfg.APIKey); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = backoff.Default(domain.IsTransient)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := remote.NewClient(service, cfg.BaseURL, cfg.Timeout)
	h.SetHeader("xi-api-key", cfg.APIKey)
	return &Client{http: h, caller: remote.NewCaller(service, cfg.Retry), logger: cfg.Logger.With("service", service)}, nil
}

// Credits is the character budget of the account.
type Credits struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

func (c Credits) Remaining() int {
	if r := c.Limit - c.Used; r > 0 {
		return r
	}
	return 0
}

type userResponse struct {
	Subscription struct {
		CharacterCount int `json:"character_count"`
		CharacterLimit int `json:"character_limit"`
	} `json:"subscription"`
}

// Credits also serves as the API key check.
func (c *Client) Credits(ctx context.Context) (Credits, error) {
	res, err := c.caller.Do(ctx, "user", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).Get("/v1/user")
	})
	if err != nil {
		return Credits{}, err
	}
	var u userResponse
	if err := remote.Decode(service, res, &u); err != nil {
		return Credits{}, err
	}
	return Credits{Used: u.Subscription.CharacterCount, Limit: u.Subscription.CharacterLimit}, nil
}

type Voice struct {
	ID   string `json:"voice_id"`
	Name string `json:"name"`
}

func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	res, err := c.caller.Do(ctx, "voices", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).Get("/v1/voices")
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Voices []Voice `json:"voices"`
	}
	if err := remote.Decode(service, res, &out); err != nil {
		return nil, err
	}
	return out.Voices, nil
}

// VoiceID resolves a voice name (case-insensitive) to its id.
func (c *Client) VoiceID(ctx context.Context, name string) (string, error) {
	voices, err := c.Voices(ctx)
	if err != nil {
		return "", err
	}
	for _, v := range voices {
		if strings.EqualFold(v.Name, name) {
			return v.ID, nil
		}
	}
	return "", &domain.InvalidInputError{Field: "voice", Value: name, Reason: "not available on this account"}
}

// Synthesize returns MPEG audio for text.
func (c *Client) Synthesize(ctx context.Context, voiceID, modelID, text string) ([]byte, error) {
	body := map[string]any{"text": text, "model_id": modelID}
	res, err := c.caller.Do(ctx, "text_to_speech", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetHeader("Accept", "audio/mpeg").
			SetBody(body).
			Post("/v1/text-to-speech/" + url.PathEscape(voiceID))
	})
	if err != nil {
		return nil, err
	}
	audio := res.Body()
	if len(audio) == 0 {
		return nil, &domain.InvalidRequestError{Service: service, Status: res.StatusCode(), Message: "empty audio"}
	}
	c.logger.Debug("speech synthesized", "voice_id", voiceID, "model", modelID, "bytes", len(audio))
	return audio, nil
}
