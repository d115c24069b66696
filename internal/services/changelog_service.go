package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/cache"
	"github.com/osvaldoandrade/hyperdemos/internal/changelog"
	"github.com/osvaldoandrade/hyperdemos/internal/hyperbrowser"
	"github.com/osvaldoandrade/hyperdemos/internal/journal"
	"github.com/osvaldoandrade/hyperdemos/internal/openai"
	"github.com/osvaldoandrade/hyperdemos/internal/providers"
	"github.com/osvaldoandrade/hyperdemos/internal/schema"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	changelogModel       = "gpt-4o-mini"
	changelogTemperature = 0.2
	changelogMaxTokens   = 6000
)

// ChangelogResult carries the comparison and every rendering of it. Files maps
// the rendering kind to where the markdown was stored, when an uploader is set.
type ChangelogResult struct {
	Range       changelog.Range      `json:"range"`
	Comparison  domain.GitComparison `json:"comparison"`
	Excluded    []domain.Exclusion   `json:"excluded,omitempty"`
	Standard    string               `json:"standard"`
	Categorized string               `json:"categorized"`
	AI          string               `json:"ai,omitempty"`
	Files       map[string]string    `json:"files,omitempty"`
}

type ChangelogService interface {
	Generate(ctx context.Context, r changelog.Range, withAI bool) (*ChangelogResult, error)
}

type changelogService struct {
	browser  Browser
	llm      Completer
	cache    cache.Cache
	journal  journal.Recorder
	uploader providers.Uploader
	logger   *slog.Logger
	now      func() time.Time
}

// NewChangelogService accepts a nil llm; AI changelogs then fail with a
// missing credential error.
func NewChangelogService(browser Browser, llm Completer, c cache.Cache, rec journal.Recorder, uploader providers.Uploader, logger *slog.Logger, now func() time.Time) ChangelogService {
	return &changelogService{browser: browser, llm: llm, cache: c, journal: rec, uploader: uploader, logger: logger, now: now}
}

type comparisonRecord struct {
	Comparison domain.GitComparison `json:"comparison"`
	Excluded   []domain.Exclusion   `json:"excluded,omitempty"`
}

func (s *changelogService) Generate(ctx context.Context, r changelog.Range, withAI bool) (*ChangelogResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if s.browser == nil {
		return nil, missing(hyperbrowser.APIKeyEnv)
	}
	if withAI && s.llm == nil {
		return nil, missing(openai.APIKeyEnv)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "changelog.generate",
		trace.WithAttributes(
			attribute.String("changelog.compare_url", r.CompareURL()),
			attribute.Bool("changelog.ai", withAI),
		),
	)
	defer span.End()

	done := track(ctx, s.journal, s.logger, "changelog", r.CompareURL())
	rec, err := cache.Memoize(ctx, s.cache, cache.Key("changelog", r.CompareURL()), func(ctx context.Context) (comparisonRecord, error) {
		res, err := s.browser.Extract(ctx, r.ExtractionRequest(schema.GitComparisonSchema.JSONSchema()))
		if err != nil {
			return comparisonRecord{}, err
		}
		cmp, excluded, err := schema.MapComparison(res.Data)
		return comparisonRecord{Comparison: cmp, Excluded: excluded}, err
	})
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	reportExcluded(ctx, s.logger, "changelog", rec.Excluded)

	now := s.now()
	out := &ChangelogResult{
		Range:       r,
		Comparison:  rec.Comparison,
		Excluded:    rec.Excluded,
		Standard:    changelog.Standard(rec.Comparison, r, now),
		Categorized: changelog.Categorized(rec.Comparison, r, now),
	}
	if withAI {
		body, err := s.llm.Complete(ctx, openai.ChatRequest{
			Model: changelogModel,
			Messages: []openai.Message{
				openai.Text(openai.RoleSystem, changelog.AISystemPrompt),
				openai.Text(openai.RoleUser, changelog.AIPrompt(rec.Comparison, r)),
			},
			Temperature: openai.Temperature(changelogTemperature),
			MaxTokens:   changelogMaxTokens,
		})
		if err != nil {
			done(len(rec.Excluded), err)
			return nil, failSpan(span, err)
		}
		out.AI = changelog.AIHeader(r, now) + body
	}

	if s.uploader != nil {
		out.Files = map[string]string{}
		for kind, text := range map[string]string{"categorized": out.Categorized, "ai": out.AI} {
			if text == "" {
				continue
			}
			loc, err := s.uploader.UploadBytes(ctx, r.FileName(kind), "text/markdown", []byte(text))
			if err != nil {
				s.logger.WarnContext(ctx, "changelog upload failed", "kind", kind, "err", err)
				continue
			}
			out.Files[kind] = loc
		}
	}

	span.SetAttributes(
		attribute.Int("changelog.commits", len(rec.Comparison.Commits)),
		attribute.Int("changelog.excluded", len(rec.Excluded)),
	)
	done(len(rec.Excluded), nil)
	return out, nil
}
