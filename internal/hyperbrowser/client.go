// Package hyperbrowser is the client for the hosted browser service: sessions,
// profiles and the asynchronous extract and scrape jobs.
package hyperbrowser

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/osvaldoandrade/hyperdemos/internal/backoff"
	"github.com/osvaldoandrade/hyperdemos/internal/metrics"
	"github.com/osvaldoandrade/hyperdemos/internal/remote"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

const (
	service        = "hyperbrowser"
	APIKeyEnv      = "HYPERBROWSER_API_KEY"
	DefaultBaseURL = "https://app.hyperbrowser.ai"
)

type Config struct {
	APIKey       string
	BaseURL      string
	HTTPTimeout  time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
	Retry        backoff.Policy
	Logger       *slog.Logger
}

// Client holds no state besides credentials and endpoints.
type Client struct {
	http         *resty.Client
	files        *resty.Client
	caller       remote.Caller
	logger       *slog.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// New fails with a MissingCredentialError before any network activity when
// the API key is blank.
func New(cfg Config) (*Client, error) {
	if err := remote.RequireKey(APIKeyEnv, cfg.APIKey); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Minute
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = backoff.Default(domain.IsTransient)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := remote.NewClient(service, cfg.BaseURL, cfg.HTTPTimeout)
	h.SetHeader("x-api-key", cfg.APIKey)
	return &Client{
		http:         h,
		files:        remote.NewClient(service, "", cfg.HTTPTimeout),
		caller:       remote.NewCaller(service, cfg.Retry),
		logger:       cfg.Logger.With("service", service),
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
	}, nil
}

func (c *Client) CreateProfile(ctx context.Context) (domain.Profile, error) {
	var p domain.Profile
	res, err := c.caller.Do(ctx, "create_profile", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetBody(map[string]any{}).Post("/api/profile")
	})
	if err != nil {
		return p, err
	}
	if err := remote.Decode(service, res, &p); err != nil {
		return p, err
	}
	if p.ID == "" {
		return p, &domain.InvalidRequestError{Service: service, Status: res.StatusCode(), Message: "profile id missing from response"}
	}
	return p, nil
}

func (c *Client) CreateSession(ctx context.Context, opts *domain.SessionOptions) (domain.Session, error) {
	var s domain.Session
	if opts == nil {
		opts = &domain.SessionOptions{}
	}
	res, err := c.caller.Do(ctx, "create_session", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetBody(opts).Post("/api/session")
	})
	if err != nil {
		return s, err
	}
	if err := remote.Decode(service, res, &s); err != nil {
		return s, err
	}
	c.logger.Info("session created", "session_id", s.ID)
	return s, nil
}

func (c *Client) StopSession(ctx context.Context, id string) error {
	if id == "" {
		return &domain.InvalidInputError{Field: "session id", Reason: "is empty"}
	}
	_, err := c.caller.Do(ctx, "stop_session", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).Put("/api/session/" + url.PathEscape(id) + "/stop")
	})
	if err == nil {
		c.logger.Info("session stopped", "session_id", id)
	}
	return err
}

type jobResponse struct {
	JobID string `json:"jobId"`
}

// StartExtract submits req and returns the job id.
func (c *Client) StartExtract(ctx context.Context, req domain.ExtractionRequest) (string, error) {
	if len(req.URLs) == 0 {
		return "", &domain.InvalidInputError{Field: "urls", Reason: "at least one url is required"}
	}
	return c.startJob(ctx, "start_extract", "/api/extract", req)
}

func (c *Client) GetExtract(ctx context.Context, jobID string) (domain.ExtractionResult, error) {
	var r domain.ExtractionResult
	res, err := c.caller.Do(ctx, "get_extract", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).Get("/api/extract/" + url.PathEscape(jobID))
	})
	if err != nil {
		return r, err
	}
	if err := remote.Decode(service, res, &r); err != nil {
		return r, err
	}
	if r.JobID == "" {
		r.JobID = jobID
	}
	return r, nil
}

// Extract starts an extraction job and waits for it to finish. The result
// always has status completed; a failed job is an InvalidRequestError and an
// unfinished one a TimeoutError, neither with partial data.
func (c *Client) Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResult, error) {
	jobID, err := c.StartExtract(ctx, req)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	c.logger.Debug("extract job started", "job_id", jobID, "urls", req.URLs)

	var out domain.ExtractionResult
	err = c.wait(ctx, "extract", func(ctx context.Context) (domain.JobStatus, string, error) {
		r, err := c.GetExtract(ctx, jobID)
		if err != nil {
			return "", "", err
		}
		out = r
		return r.Status, r.Error, nil
	})
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	return out, nil
}

type scrapeBody struct {
	URL            string                 `json:"url"`
	SessionOptions *domain.SessionOptions `json:"sessionOptions,omitempty"`
	ScrapeOptions  scrapeOptions          `json:"scrapeOptions"`
}

type scrapeOptions struct {
	Formats []domain.ScrapeFormat `json:"formats,omitempty"`
	WaitFor int                   `json:"waitFor,omitempty"`
}

type scrapeStatus struct {
	JobID  string           `json:"jobId"`
	Status domain.JobStatus `json:"status"`
	Error  string           `json:"error"`
	Data   struct {
		HTML       string         `json:"html"`
		Markdown   string         `json:"markdown"`
		Screenshot string         `json:"screenshot"`
		Metadata   map[string]any `json:"metadata"`
	} `json:"data"`
}

func (c *Client) StartScrape(ctx context.Context, req domain.ScrapeRequest) (string, error) {
	if req.URL == "" {
		return "", &domain.InvalidInputError{Field: "url", Reason: "is empty"}
	}
	formats := req.Formats
	if len(formats) == 0 {
		formats = []domain.ScrapeFormat{domain.FormatMarkdown}
	}
	body := scrapeBody{
		URL:            req.URL,
		SessionOptions: req.Session,
		ScrapeOptions:  scrapeOptions{Formats: formats, WaitFor: req.WaitFor},
	}
	return c.startJob(ctx, "start_scrape", "/api/scrape", body)
}

func (c *Client) GetScrape(ctx context.Context, jobID string) (domain.ScrapeResult, error) {
	res, err := c.caller.Do(ctx, "get_scrape", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).Get("/api/scrape/" + url.PathEscape(jobID))
	})
	if err != nil {
		return domain.ScrapeResult{}, err
	}
	var st scrapeStatus
	if err := remote.Decode(service, res, &st); err != nil {
		return domain.ScrapeResult{}, err
	}
	if st.JobID == "" {
		st.JobID = jobID
	}
	return domain.ScrapeResult{
		JobID:      st.JobID,
		Status:     st.Status,
		HTML:       st.Data.HTML,
		Markdown:   st.Data.Markdown,
		Screenshot: st.Data.Screenshot,
		Metadata:   st.Data.Metadata,
		Error:      st.Error,
	}, nil
}

// Scrape starts a scrape job and waits for it with the same contract as Extract.
func (c *Client) Scrape(ctx context.Context, req domain.ScrapeRequest) (domain.ScrapeResult, error) {
	jobID, err := c.StartScrape(ctx, req)
	if err != nil {
		return domain.ScrapeResult{}, err
	}
	c.logger.Debug("scrape job started", "job_id", jobID, "url", req.URL)

	var out domain.ScrapeResult
	err = c.wait(ctx, "scrape", func(ctx context.Context) (domain.JobStatus, string, error) {
		r, err := c.GetScrape(ctx, jobID)
		if err != nil {
			return "", "", err
		}
		out = r
		return r.Status, r.Error, nil
	})
	if err != nil {
		return domain.ScrapeResult{}, err
	}
	return out, nil
}

func (c *Client) startJob(ctx context.Context, op, path string, body any) (string, error) {
	res, err := c.caller.Do(ctx, op, func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetBody(body).Post(path)
	})
	if err != nil {
		return "", err
	}
	var jr jobResponse
	if err := remote.Decode(service, res, &jr); err != nil {
		return "", err
	}
	if jr.JobID == "" {
		return "", &domain.InvalidRequestError{Service: service, Status: res.StatusCode(), Message: "job id missing from response"}
	}
	return jr.JobID, nil
}

// wait polls until the job reaches a terminal status or the poll timeout
// elapses. Cancellation of ctx by the caller is returned as is.
func (c *Client) wait(ctx context.Context, kind string, poll func(ctx context.Context) (domain.JobStatus, string, error)) error {
	pctx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	for {
		status, msg, err := poll(pctx)
		if err != nil {
			// The poll deadline can lapse while a status call sleeps between
			// retries; that is still a timeout, not the last transient error.
			if ctx.Err() == nil && (pctx.Err() != nil || errors.Is(err, context.DeadlineExceeded)) {
				return c.timedOut(kind)
			}
			metrics.RemoteJobsTotal.WithLabelValues(kind, "error").Inc()
			return err
		}
		switch status {
		case domain.JobCompleted:
			metrics.RemoteJobsTotal.WithLabelValues(kind, string(status)).Inc()
			return nil
		case domain.JobFailed:
			metrics.RemoteJobsTotal.WithLabelValues(kind, string(status)).Inc()
			if msg == "" {
				msg = kind + " job failed"
			}
			return &domain.InvalidRequestError{Service: service, Message: msg}
		}
		if serr := backoff.SleepOrDone(pctx, c.pollInterval); serr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return c.timedOut(kind)
		}
	}
}

func (c *Client) timedOut(kind string) error {
	metrics.RemoteJobsTotal.WithLabelValues(kind, "timeout").Inc()
	return &domain.TimeoutError{Service: service, Operation: kind, After: c.pollTimeout}
}

// Download resolves a screenshot reference from a scrape result. The service
// returns either a signed URL, a data URL or bare base64.
func (c *Client) Download(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, &domain.InvalidRequestError{Service: service, Message: "screenshot missing from scrape result"}
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		res, err := c.caller.Do(ctx, "download", func(ctx context.Context) (*resty.Response, error) {
			return c.files.R().SetContext(ctx).SetHeader("Accept", "*/*").Get(ref)
		})
		if err != nil {
			return nil, err
		}
		return res.Body(), nil
	case strings.HasPrefix(ref, "data:"):
		if i := strings.Index(ref, ","); i >= 0 {
			ref = ref[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(ref)
	if err != nil {
		return nil, &domain.InvalidRequestError{Service: service, Message: "screenshot is neither a URL nor base64"}
	}
	return data, nil
}
