package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/elevenlabs"
	"github.com/osvaldoandrade/hyperdemos/internal/geocode"
	"github.com/osvaldoandrade/hyperdemos/internal/openai"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

var testNow = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeBrowser struct {
	mu       sync.Mutex
	extracts []domain.ExtractionRequest
	scrapes  []domain.ScrapeRequest
	sessions []*domain.SessionOptions
	stopped  []string
	profiles int

	extract  func(req domain.ExtractionRequest) (domain.ExtractionResult, error)
	scrape   func(req domain.ScrapeRequest) (domain.ScrapeResult, error)
	download func(ref string) ([]byte, error)
}

func (f *fakeBrowser) CreateProfile(ctx context.Context) (domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles++
	return domain.Profile{ID: "prof-1"}, nil
}

func (f *fakeBrowser) CreateSession(ctx context.Context, opts *domain.SessionOptions) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, opts)
	return domain.Session{ID: "sess-1", Status: "active", LiveURL: "https://live.example/sess-1"}, nil
}

func (f *fakeBrowser) StopSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeBrowser) Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResult, error) {
	f.mu.Lock()
	f.extracts = append(f.extracts, req)
	f.mu.Unlock()
	if f.extract == nil {
		return domain.ExtractionResult{Status: domain.JobCompleted}, nil
	}
	return f.extract(req)
}

func (f *fakeBrowser) Scrape(ctx context.Context, req domain.ScrapeRequest) (domain.ScrapeResult, error) {
	f.mu.Lock()
	f.scrapes = append(f.scrapes, req)
	f.mu.Unlock()
	if f.scrape == nil {
		return domain.ScrapeResult{Status: domain.JobCompleted}, nil
	}
	return f.scrape(req)
}

func (f *fakeBrowser) Download(ctx context.Context, ref string) ([]byte, error) {
	if f.download == nil {
		return nil, &domain.InvalidRequestError{Service: "hyperbrowser", Message: "no screenshot"}
	}
	return f.download(ref)
}

func (f *fakeBrowser) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.extracts) + len(f.scrapes) + len(f.sessions) + f.profiles
}

type fakeCompleter struct {
	mu       sync.Mutex
	requests []openai.ChatRequest
	schemas  []string
	text     string
	json     map[string]any
	err      error
}

func (f *fakeCompleter) Complete(ctx context.Context, req openai.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.text, f.err
}

func (f *fakeCompleter) CompleteJSON(ctx context.Context, req openai.ChatRequest, name string, schema map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.schemas = append(f.schemas, name)
	return f.json, f.err
}

type fakeSpeaker struct {
	credits    elevenlabs.Credits
	voices     map[string]string
	synthCalls int
	lastModel  string
	lastText   string
}

func (f *fakeSpeaker) Credits(ctx context.Context) (elevenlabs.Credits, error) { return f.credits, nil }

func (f *fakeSpeaker) VoiceID(ctx context.Context, name string) (string, error) {
	id, ok := f.voices[name]
	if !ok {
		return "", &domain.InvalidRequestError{Service: "elevenlabs", Message: "voice not found"}
	}
	return id, nil
}

func (f *fakeSpeaker) Synthesize(ctx context.Context, voiceID, modelID, text string) ([]byte, error) {
	f.synthCalls++
	f.lastModel = modelID
	f.lastText = text
	return []byte("ID3 audio"), nil
}

type fakeCities struct {
	known map[string]geocode.Place
	calls int
}

func (f *fakeCities) ValidateCity(ctx context.Context, name string) (geocode.Place, error) {
	f.calls++
	if p, ok := f.known[name]; ok {
		return p, nil
	}
	return geocode.Place{}, &domain.InvalidInputError{Field: "city", Value: name, Reason: "not a recognised city"}
}

type memUploader struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memUploader) UploadBytes(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[objectPath] = append([]byte(nil), data...)
	return "mem://" + objectPath, nil
}
