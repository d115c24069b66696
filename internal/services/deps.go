package services

import (
	"context"
	"log/slog"

	"github.com/osvaldoandrade/hyperdemos/internal/elevenlabs"
	"github.com/osvaldoandrade/hyperdemos/internal/geocode"
	"github.com/osvaldoandrade/hyperdemos/internal/hyperbrowser"
	"github.com/osvaldoandrade/hyperdemos/internal/journal"
	"github.com/osvaldoandrade/hyperdemos/internal/metrics"
	"github.com/osvaldoandrade/hyperdemos/internal/openai"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Browser is the part of the hosted browser client the demos use.
type Browser interface {
	CreateProfile(ctx context.Context) (domain.Profile, error)
	CreateSession(ctx context.Context, opts *domain.SessionOptions) (domain.Session, error)
	StopSession(ctx context.Context, id string) error
	Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResult, error)
	Scrape(ctx context.Context, req domain.ScrapeRequest) (domain.ScrapeResult, error)
	Download(ctx context.Context, ref string) ([]byte, error)
}

type Completer interface {
	Complete(ctx context.Context, req openai.ChatRequest) (string, error)
	CompleteJSON(ctx context.Context, req openai.ChatRequest, name string, schema map[string]any) (map[string]any, error)
}

type Speaker interface {
	Credits(ctx context.Context) (elevenlabs.Credits, error)
	VoiceID(ctx context.Context, name string) (string, error)
	Synthesize(ctx context.Context, voiceID, modelID, text string) ([]byte, error)
}

type CityValidator interface {
	ValidateCity(ctx context.Context, name string) (geocode.Place, error)
}

var (
	_ Browser       = (*hyperbrowser.Client)(nil)
	_ Completer     = (*openai.Client)(nil)
	_ Speaker       = (*elevenlabs.Client)(nil)
	_ CityValidator = (*geocode.Validator)(nil)
)

const tracerName = "hyperdemos/services"

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// reportExcluded logs every dropped record and counts them per kind.
func reportExcluded(ctx context.Context, logger *slog.Logger, kind string, excluded []domain.Exclusion) {
	if len(excluded) == 0 {
		return
	}
	metrics.RecordsExcludedTotal.WithLabelValues(kind).Add(float64(len(excluded)))
	for _, ex := range excluded {
		logger.WarnContext(ctx, "record excluded", "kind", kind, "index", ex.Index, "err", ex.Error)
	}
}

func missing(env string) error {
	return &domain.MissingCredentialError{Name: env}
}

// track opens a journal run and returns the function that closes it. Journal
// failures are logged and never fail the action itself.
func track(ctx context.Context, rec journal.Recorder, logger *slog.Logger, kind, target string) func(excluded int, err error) {
	if rec == nil {
		rec = journal.Nop()
	}
	run, jerr := rec.Start(ctx, kind, target)
	if jerr != nil {
		logger.WarnContext(ctx, "journal start failed", "kind", kind, "err", jerr)
	}
	return func(excluded int, err error) {
		if jerr != nil {
			return
		}
		if ferr := rec.Finish(context.WithoutCancel(ctx), run, excluded, err); ferr != nil {
			logger.WarnContext(ctx, "journal finish failed", "kind", kind, "run_id", run.ID, "err", ferr)
		}
	}
}
