package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/osvaldoandrade/hyperdemos/internal/article"
	"github.com/osvaldoandrade/hyperdemos/internal/cache"
	"github.com/osvaldoandrade/hyperdemos/internal/elevenlabs"
	"github.com/osvaldoandrade/hyperdemos/internal/hyperbrowser"
	"github.com/osvaldoandrade/hyperdemos/internal/journal"
	"github.com/osvaldoandrade/hyperdemos/internal/providers"
	"github.com/osvaldoandrade/hyperdemos/internal/schema"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SpeechRequest struct {
	Article domain.Article `json:"article"`
	Voice   string         `json:"voice"`
	Model   string         `json:"model"`
}

// Speech is synthesized audio (MP3). URL is set when the audio was stored.
type Speech struct {
	Audio      []byte `json:"-"`
	Voice      string `json:"voice"`
	Model      string `json:"model"`
	Characters int    `json:"characters"`
	URL        string `json:"url,omitempty"`
}

type ArticleService interface {
	Extract(ctx context.Context, rawURL string) (*domain.Article, error)
	Speak(ctx context.Context, req SpeechRequest) (*Speech, error)
	Credits(ctx context.Context) (elevenlabs.Credits, error)
}

type articleService struct {
	browser  Browser
	speaker  Speaker
	cache    cache.Cache
	journal  journal.Recorder
	uploader providers.Uploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewArticleService(browser Browser, speaker Speaker, c cache.Cache, rec journal.Recorder, uploader providers.Uploader, logger *slog.Logger, now func() time.Time) ArticleService {
	return &articleService{browser: browser, speaker: speaker, cache: c, journal: rec, uploader: uploader, logger: logger, now: now}
}

// Extract reads the article with an extraction job and falls back to a raw
// scrape through readability when the job's payload does not fit the schema.
func (s *articleService) Extract(ctx context.Context, rawURL string) (*domain.Article, error) {
	u, err := article.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if s.browser == nil {
		return nil, missing(hyperbrowser.APIKeyEnv)
	}
	pageURL := u.String()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "article.extract",
		trace.WithAttributes(attribute.String("article.url", pageURL)),
	)
	defer span.End()

	done := track(ctx, s.journal, s.logger, "article", pageURL)
	a, err := cache.Memoize(ctx, s.cache, cache.Key("article", pageURL), func(ctx context.Context) (domain.Article, error) {
		res, err := s.browser.Extract(ctx, article.ExtractionRequest(pageURL, schema.ArticleSchema.JSONSchema()))
		if err != nil {
			return domain.Article{}, err
		}
		a, err := schema.MapArticle(res.Data)
		var sv *domain.SchemaViolationError
		if !errors.As(err, &sv) {
			return a, err
		}
		s.logger.WarnContext(ctx, "extraction did not match article schema, falling back to readability", "url", pageURL, "err", err)
		span.AddEvent("article.readability_fallback")
		page, serr := s.browser.Scrape(ctx, article.ScrapeRequest(pageURL))
		if serr != nil {
			return domain.Article{}, fmt.Errorf("%w (fallback scrape: %v)", err, serr)
		}
		return article.FromHTML(pageURL, page.HTML)
	})
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	done(0, nil)
	return &a, nil
}

func (s *articleService) Speak(ctx context.Context, req SpeechRequest) (*Speech, error) {
	voice, err := article.Voice(req.Voice)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Article.Title) == "" {
		return nil, &domain.InvalidInputError{Field: "title", Reason: "is empty"}
	}
	if strings.TrimSpace(req.Article.FullContent) == "" {
		return nil, &domain.InvalidInputError{Field: "fullContent", Reason: "is empty"}
	}
	text := article.SpeechText(req.Article)
	model, err := article.Model(req.Model, text)
	if err != nil {
		return nil, err
	}
	if s.speaker == nil {
		return nil, missing(elevenlabs.APIKeyEnv)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "article.speak",
		trace.WithAttributes(
			attribute.String("speech.voice", voice),
			attribute.String("speech.model", model),
			attribute.Int("speech.characters", utf8.RuneCountInString(text)),
		),
	)
	defer span.End()

	done := track(ctx, s.journal, s.logger, "speech", req.Article.Title)
	chars := utf8.RuneCountInString(text)
	credits, err := s.speaker.Credits(ctx)
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	if credits.Remaining() < chars {
		err := &domain.InvalidInputError{Field: "text", Reason: fmt.Sprintf("needs %d characters but only %d credits remain", chars, credits.Remaining())}
		done(0, err)
		return nil, failSpan(span, err)
	}
	voiceID, err := s.speaker.VoiceID(ctx, voice)
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	audio, err := s.speaker.Synthesize(ctx, voiceID, model, text)
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}

	out := &Speech{Audio: audio, Voice: voice, Model: model, Characters: chars}
	if s.uploader != nil {
		name := fmt.Sprintf("speech/%s_%s.mp3", slug(req.Article.Title), s.now().UTC().Format("20060102T150405"))
		if loc, err := s.uploader.UploadBytes(ctx, name, "audio/mpeg", audio); err != nil {
			s.logger.WarnContext(ctx, "speech upload failed", "err", err)
		} else {
			out.URL = loc
		}
	}
	done(0, nil)
	return out, nil
}

func (s *articleService) Credits(ctx context.Context) (elevenlabs.Credits, error) {
	if s.speaker == nil {
		return elevenlabs.Credits{}, missing(elevenlabs.APIKeyEnv)
	}
	return s.speaker.Credits(ctx)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	out := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(out) > 60 {
		out = strings.TrimRight(out[:60], "-")
	}
	if out == "" {
		return "article"
	}
	return out
}
