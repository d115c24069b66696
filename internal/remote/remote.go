// Package remote holds the outbound call plumbing shared by every hosted
// service client: resty setup, error classification and the retry loop.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/osvaldoandrade/hyperdemos/internal/backoff"
	"github.com/osvaldoandrade/hyperdemos/internal/metrics"
	"github.com/osvaldoandrade/hyperdemos/internal/tracing"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

const userAgent = "hyperdemos/1.0 (+https://github.com/osvaldoandrade/hyperdemos)"

// NewClient returns a resty client with the shared defaults and tracing hooks.
func NewClient(service, baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := resty.New()
	c.SetBaseURL(strings.TrimRight(baseURL, "/"))
	c.SetTimeout(timeout)
	c.SetHeader("User-Agent", userAgent)
	c.SetHeader("Accept", "application/json")
	tracing.InstrumentResty(c, "hyperdemos/"+service)
	return c
}

// Caller runs single outbound requests for one service under a retry policy.
type Caller struct {
	Service string
	Policy  backoff.Policy
}

func NewCaller(service string, policy backoff.Policy) Caller {
	if policy.Retryable == nil {
		policy.Retryable = domain.IsTransient
	}
	return Caller{Service: service, Policy: policy}
}

// Do sends the request built by send, retrying transient failures, and
// returns the successful response.
func (c Caller) Do(ctx context.Context, operation string, send func(ctx context.Context) (*resty.Response, error)) (*resty.Response, error) {
	policy := c.Policy
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		metrics.RemoteCallRetriesTotal.WithLabelValues(c.Service, operation).Inc()
		if c.Policy.OnRetry != nil {
			c.Policy.OnRetry(attempt, err, delay)
		}
	}

	start := time.Now()
	var res *resty.Response
	err := policy.Do(ctx, func(ctx context.Context) error {
		r, err := send(ctx)
		if cerr := Classify(c.Service, r, err); cerr != nil {
			return cerr
		}
		res = r
		return nil
	})
	metrics.RemoteCallLatencySeconds.WithLabelValues(c.Service, operation).Observe(time.Since(start).Seconds())
	metrics.RemoteCallsTotal.WithLabelValues(c.Service, operation, outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Classify maps a resty outcome onto the error taxonomy. Network failures and
// 408/425/429/5xx are transient; any other 4xx is an invalid request.
func Classify(service string, res *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &domain.TransientServiceError{Service: service, Err: err}
	}
	if res == nil {
		return &domain.TransientServiceError{Service: service, Err: errors.New("empty response")}
	}
	status := res.StatusCode()
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusRequestTimeout, status == http.StatusTooEarly, status == http.StatusTooManyRequests, status >= 500:
		return &domain.TransientServiceError{Service: service, Status: status, Err: errors.New(errorMessage(res))}
	default:
		return &domain.InvalidRequestError{Service: service, Status: status, Message: errorMessage(res)}
	}
}

// errorMessage pulls the most specific message out of an error body.
func errorMessage(res *resty.Response) string {
	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
		Detail  any    `json:"detail"`
	}
	raw := res.Body()
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Message != "":
			return body.Message
		case body.Error != nil:
			return describe(body.Error)
		case body.Detail != nil:
			return describe(body.Detail)
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return res.Status()
	}
	if len(text) > 300 {
		text = text[:300]
	}
	return text
}

func describe(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if m, ok := t["message"].(string); ok {
			return m
		}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var te *domain.TransientServiceError
	var ie *domain.InvalidRequestError
	switch {
	case errors.As(err, &te):
		return "transient"
	case errors.As(err, &ie):
		return "invalid"
	default:
		return "error"
	}
}

// RequireKey returns a MissingCredentialError naming env when key is blank.
func RequireKey(env, key string) error {
	if strings.TrimSpace(key) == "" {
		return &domain.MissingCredentialError{Name: env}
	}
	return nil
}

// Decode unmarshals a successful response body into out.
func Decode(service string, res *resty.Response, out any) error {
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return &domain.InvalidRequestError{Service: service, Status: res.StatusCode(), Message: fmt.Sprintf("unreadable response: %v", err)}
	}
	return nil
}
