// Package openai is a small chat-completions client covering plain text
// replies and JSON-schema constrained replies, with optional image input.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/osvaldoandrade/hyperdemos/internal/backoff"
	"github.com/osvaldoandrade/hyperdemos/internal/remote"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

const (
	service        = "openai"
	APIKeyEnv      = "OPENAI_API_KEY"
	DefaultBaseURL = "https://api.openai.com"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message content is either a string or a list of Parts.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type Part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

func Text(role, content string) Message { return Message{Role: role, Content: content} }

func TextPart(s string) Part { return Part{Type: "text", Text: s} }

// ImagePart inlines a PNG as a data URL.
func ImagePart(png []byte) Part {
	return Part{Type: "image_url", ImageURL: &ImageURL{URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)}}
}

type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

type JSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

// Temperature returns a pointer for ChatRequest.Temperature.
func Temperature(t float64) *float64 { return &t }

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

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
	h.SetAuthToken(cfg.APIKey)
	return &Client{http: h, caller: remote.NewCaller(service, cfg.Retry), logger: cfg.Logger.With("service", service)}, nil
}

// Complete returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	res, err := c.caller.Do(ctx, "chat", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetBody(req).Post("/v1/chat/completions")
	})
	if err != nil {
		return "", err
	}
	var out chatResponse
	if err := remote.Decode(service, res, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", &domain.InvalidRequestError{Service: service, Status: res.StatusCode(), Message: "no choices in response"}
	}
	msg := out.Choices[0].Message
	if msg.Refusal != "" {
		return "", &domain.InvalidRequestError{Service: service, Status: res.StatusCode(), Message: "model refused: " + msg.Refusal}
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", &domain.InvalidRequestError{Service: service, Status: res.StatusCode(), Message: "empty completion"}
	}
	return content, nil
}

// CompleteJSON constrains the reply to schema and returns it as a raw mapping
// for the caller to validate.
func (c *Client) CompleteJSON(ctx context.Context, req ChatRequest, name string, schema map[string]any) (map[string]any, error) {
	req.ResponseFormat = &ResponseFormat{Type: "json_schema", JSONSchema: &JSONSchema{Name: name, Schema: schema}}
	content, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(stripFence(content)), &raw); err != nil {
		return nil, &domain.SchemaViolationError{Field: "$", Reason: "reply is not a JSON object: " + err.Error()}
	}
	return raw, nil
}

// stripFence removes a markdown code fence around a JSON reply.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
