package domain

import (
	"encoding"
	"time"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

var _ encoding.TextMarshaler = JobStatus("")

func (s JobStatus) MarshalText() ([]byte, error) { return []byte(string(s)), nil }

// Terminal reports whether the remote job will not change status anymore.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ProfileOptions attaches a persisted browser identity to a session.
type ProfileOptions struct {
	ID             string `json:"id"`
	PersistChanges bool   `json:"persistChanges,omitempty"`
}

type ScreenConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SessionOptions mirrors the hosted browser's session creation parameters.
type SessionOptions struct {
	UseStealth          bool            `json:"useStealth,omitempty"`
	UseProxy            bool            `json:"useProxy,omitempty"`
	ProxyServer         string          `json:"proxyServer,omitempty"`
	ProxyServerUsername string          `json:"proxyServerUsername,omitempty"`
	ProxyServerPassword string          `json:"proxyServerPassword,omitempty"`
	Adblock             bool            `json:"adblock,omitempty"`
	Annoyances          bool            `json:"annoyances,omitempty"`
	AcceptCookies       bool            `json:"acceptCookies,omitempty"`
	Profile             *ProfileOptions `json:"profile,omitempty"`
	Screen              *ScreenConfig   `json:"screen,omitempty"`
}

// ExtractionRequest is what the request builders hand to the job client.
// Schema is a JSON-schema document; treat the request as immutable once submitted.
type ExtractionRequest struct {
	URLs    []string        `json:"urls"`
	Prompt  string          `json:"prompt,omitempty"`
	Schema  map[string]any  `json:"schema,omitempty"`
	Session *SessionOptions `json:"sessionOptions,omitempty"`
	WaitFor int             `json:"waitFor,omitempty"`
}

// ExtractionResult is owned by the caller and discarded after mapping.
type ExtractionResult struct {
	JobID  string         `json:"jobId"`
	Status JobStatus      `json:"status"`
	Data   map[string]any `json:"data,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type ScrapeFormat string

const (
	FormatHTML       ScrapeFormat = "html"
	FormatMarkdown   ScrapeFormat = "markdown"
	FormatScreenshot ScrapeFormat = "screenshot"
)

type ScrapeRequest struct {
	URL     string          `json:"url"`
	Formats []ScrapeFormat  `json:"-"`
	Session *SessionOptions `json:"sessionOptions,omitempty"`
	WaitFor int             `json:"-"`
}

type ScrapeResult struct {
	JobID      string         `json:"jobId"`
	Status     JobStatus      `json:"status"`
	HTML       string         `json:"html,omitempty"`
	Markdown   string         `json:"markdown,omitempty"`
	Screenshot string         `json:"screenshot,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Session is a live hosted browser.
type Session struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	WSEndpoint string    `json:"wsEndpoint,omitempty"`
	LiveURL    string    `json:"liveUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

type Profile struct {
	ID string `json:"id"`
}

// Exclusion reports a record dropped by a mapper together with the reason.
type Exclusion struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}
