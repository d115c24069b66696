package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/cache"
	"github.com/osvaldoandrade/hyperdemos/internal/hyperbrowser"
	"github.com/osvaldoandrade/hyperdemos/internal/journal"
	"github.com/osvaldoandrade/hyperdemos/internal/openai"
	"github.com/osvaldoandrade/hyperdemos/internal/schema"
	"github.com/osvaldoandrade/hyperdemos/internal/transcript"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type TranscriptResult struct {
	Transcript domain.Transcript  `json:"transcript"`
	Excluded   []domain.Exclusion `json:"excluded,omitempty"`
	Text       string             `json:"text"`
}

// ChatRequest carries the whole conversation; the service keeps no state
// between questions.
type ChatRequest struct {
	Transcript domain.Transcript `json:"transcript"`
	History    []domain.ChatTurn `json:"history"`
	Question   string            `json:"question"`
}

type ChatReply struct {
	Answer  string            `json:"answer"`
	History []domain.ChatTurn `json:"history"`
}

type TranscriptService interface {
	Fetch(ctx context.Context, videoURL string, withTimestamps bool) (*TranscriptResult, error)
	Chat(ctx context.Context, req ChatRequest) (*ChatReply, error)
}

type transcriptService struct {
	browser Browser
	llm     Completer
	cache   cache.Cache
	journal journal.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

func NewTranscriptService(browser Browser, llm Completer, c cache.Cache, rec journal.Recorder, logger *slog.Logger, now func() time.Time) TranscriptService {
	return &transcriptService{browser: browser, llm: llm, cache: c, journal: rec, logger: logger, now: now}
}

type transcriptRecord struct {
	Transcript domain.Transcript  `json:"transcript"`
	Excluded   []domain.Exclusion `json:"excluded,omitempty"`
}

func (s *transcriptService) Fetch(ctx context.Context, videoURL string, withTimestamps bool) (*TranscriptResult, error) {
	id, err := transcript.VideoID(videoURL)
	if err != nil {
		return nil, err
	}
	if s.browser == nil {
		return nil, missing(hyperbrowser.APIKeyEnv)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "transcript.fetch",
		trace.WithAttributes(attribute.String("transcript.video_id", id)),
	)
	defer span.End()

	done := track(ctx, s.journal, s.logger, "transcript", transcript.WatchURL(id))
	rec, err := cache.Memoize(ctx, s.cache, cache.Key("transcript", id), func(ctx context.Context) (transcriptRecord, error) {
		res, err := s.browser.Extract(ctx, transcript.ExtractionRequest(id, schema.TranscriptSchema.JSONSchema()))
		if err != nil {
			return transcriptRecord{}, err
		}
		if res.Data != nil && strings.TrimSpace(stringField(res.Data, "title")) == "" {
			res.Data["title"] = s.fallbackTitle(ctx, id)
		}
		t, excluded, err := schema.MapTranscript(res.Data)
		if err != nil {
			return transcriptRecord{}, err
		}
		t.VideoID = id
		t.Title = transcript.CleanTitle(t.Title)
		return transcriptRecord{Transcript: t, Excluded: excluded}, nil
	})
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	reportExcluded(ctx, s.logger, "transcript", rec.Excluded)
	span.SetAttributes(attribute.Int("transcript.segments", len(rec.Transcript.Segments)))
	done(len(rec.Excluded), nil)
	return &TranscriptResult{
		Transcript: rec.Transcript,
		Excluded:   rec.Excluded,
		Text:       transcript.Format(rec.Transcript.Segments, withTimestamps),
	}, nil
}

// fallbackTitle scrapes the watch page for its <title>. A failed scrape
// leaves the title empty, which the mapper then reports.
func (s *transcriptService) fallbackTitle(ctx context.Context, id string) any {
	page, err := s.browser.Scrape(ctx, domain.ScrapeRequest{
		URL:     transcript.WatchURL(id),
		Formats: []domain.ScrapeFormat{domain.FormatHTML},
		Session: &domain.SessionOptions{UseStealth: true, AcceptCookies: true},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "title fallback scrape failed", "video_id", id, "err", err)
		return nil
	}
	if title := transcript.TitleFromHTML(page.HTML); title != "" {
		return title
	}
	return nil
}

func (s *transcriptService) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, &domain.InvalidInputError{Field: "question", Reason: "is empty"}
	}
	if len(req.Transcript.Segments) == 0 {
		return nil, &domain.InvalidInputError{Field: "transcript", Reason: "has no segments"}
	}
	if s.llm == nil {
		return nil, missing(openai.APIKeyEnv)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "transcript.chat",
		trace.WithAttributes(
			attribute.String("transcript.video_id", req.Transcript.VideoID),
			attribute.Int("chat.history", len(req.History)),
		),
	)
	defer span.End()

	answer, err := s.llm.Complete(ctx, transcript.ChatRequest(req.Transcript, req.History, question))
	if err != nil {
		return nil, failSpan(span, err)
	}
	answer = strings.TrimSpace(answer)
	history := append(append([]domain.ChatTurn(nil), req.History...), domain.ChatTurn{Question: question, Answer: answer})
	return &ChatReply{Answer: answer, History: history}, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
