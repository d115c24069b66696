package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/cache"
	"github.com/osvaldoandrade/hyperdemos/internal/geocode"
	"github.com/osvaldoandrade/hyperdemos/internal/hyperbrowser"
	"github.com/osvaldoandrade/hyperdemos/internal/journal"
	"github.com/osvaldoandrade/hyperdemos/internal/openai"
	"github.com/osvaldoandrade/hyperdemos/internal/schema"
	"github.com/osvaldoandrade/hyperdemos/internal/travel"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type TravelResult struct {
	Search       travel.Search        `json:"search"`
	Origin       geocode.Place        `json:"origin"`
	Destination  *geocode.Place       `json:"destination,omitempty"`
	ExploreURL   string               `json:"exploreUrl"`
	Destinations []travel.Destination `json:"destinations"`
	Excluded     []domain.Exclusion   `json:"excluded,omitempty"`
}

type TravelService interface {
	ValidateCity(ctx context.Context, name string) (geocode.Place, error)
	Search(ctx context.Context, q travel.Search) (*TravelResult, error)
	Plans(ctx context.Context, location string) (*PlansResult, error)
}

// PlansResult is the things-to-do suggestion for one destination.
type PlansResult struct {
	Location  string               `json:"location"`
	PlacesURL string               `json:"placesUrl"`
	Days      []travel.DayPlanView `json:"days"`
	Excluded  []domain.Exclusion   `json:"excluded,omitempty"`
}

type travelService struct {
	browser Browser
	llm     Completer
	cities  CityValidator
	cache   cache.Cache
	journal journal.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

func NewTravelService(browser Browser, llm Completer, cities CityValidator, c cache.Cache, rec journal.Recorder, logger *slog.Logger, now func() time.Time) TravelService {
	return &travelService{browser: browser, llm: llm, cities: cities, cache: c, journal: rec, logger: logger, now: now}
}

func (s *travelService) ValidateCity(ctx context.Context, name string) (geocode.Place, error) {
	if strings.TrimSpace(name) == "" {
		return geocode.Place{}, &domain.InvalidInputError{Field: "city", Reason: "is empty"}
	}
	return s.cities.ValidateCity(ctx, name)
}

type destinationsRecord struct {
	Destinations []domain.TravelDestination `json:"destinations"`
	Excluded     []domain.Exclusion         `json:"excluded,omitempty"`
}

// Search validates both cities, screenshots the explore page for them and
// reads the destinations off the screenshot with the vision model.
func (s *travelService) Search(ctx context.Context, q travel.Search) (*TravelResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if s.browser == nil {
		return nil, missing(hyperbrowser.APIKeyEnv)
	}
	if s.llm == nil {
		return nil, missing(openai.APIKeyEnv)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "travel.search",
		trace.WithAttributes(
			attribute.String("travel.from", q.From),
			attribute.String("travel.to", q.To),
			attribute.String("travel.duration", string(q.Duration)),
		),
	)
	defer span.End()

	out := &TravelResult{Search: q}
	origin, err := s.ValidateCity(ctx, q.From)
	if err != nil {
		return nil, failSpan(span, err)
	}
	out.Origin = origin
	to := ""
	if strings.TrimSpace(q.To) != "" {
		dest, err := s.ValidateCity(ctx, q.To)
		if err != nil {
			return nil, failSpan(span, err)
		}
		out.Destination = &dest
		to = dest.Name
	}
	out.ExploreURL = travel.ExploreURL(origin.Name, to, q.Duration)

	done := track(ctx, s.journal, s.logger, "travel", out.ExploreURL)
	now := s.now()
	key := cache.Key("travel", out.ExploreURL, now.Format(schema.DateLayout))
	rec, err := cache.Memoize(ctx, s.cache, key, func(ctx context.Context) (destinationsRecord, error) {
		return s.analyze(ctx, out.ExploreURL, now)
	})
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	reportExcluded(ctx, s.logger, "travel", rec.Excluded)

	out.Destinations = travel.Present(rec.Destinations, origin.Name)
	out.Excluded = rec.Excluded
	span.SetAttributes(attribute.Int("travel.destinations", len(out.Destinations)))
	done(len(rec.Excluded), nil)
	return out, nil
}

func (s *travelService) analyze(ctx context.Context, exploreURL string, now time.Time) (destinationsRecord, error) {
	page, err := s.browser.Scrape(ctx, travel.ScrapeRequest(exploreURL))
	if err != nil {
		return destinationsRecord{}, err
	}
	shot, err := s.browser.Download(ctx, page.Screenshot)
	if err != nil {
		return destinationsRecord{}, err
	}
	png, err := travel.Crop(shot, travel.MaxDimension)
	if err != nil {
		return destinationsRecord{}, &domain.InvalidRequestError{Service: "hyperbrowser", Message: err.Error()}
	}
	raw, err := s.llm.CompleteJSON(ctx, travel.VisionRequest(png), "travel_destinations", travel.DestinationSchema(now))
	if err != nil {
		return destinationsRecord{}, err
	}
	list, excluded, err := schema.MapDestinations(raw)
	if err != nil {
		return destinationsRecord{}, err
	}
	return destinationsRecord{Destinations: list, Excluded: excluded}, nil
}

type plansRecord struct {
	Days     []domain.DayPlan   `json:"days"`
	Excluded []domain.Exclusion `json:"excluded,omitempty"`
}

// Plans suggests up to travel.MaxDays days of curious places at location,
// read from its Atlas Obscura listing.
func (s *travelService) Plans(ctx context.Context, location string) (*PlansResult, error) {
	location = strings.TrimSpace(location)
	if travel.PlaceSlug(location) == "" {
		return nil, &domain.InvalidInputError{Field: "location", Value: location, Reason: "is empty"}
	}
	if s.browser == nil {
		return nil, missing(hyperbrowser.APIKeyEnv)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "travel.plans",
		trace.WithAttributes(attribute.String("travel.location", location)),
	)
	defer span.End()

	out := &PlansResult{Location: location, PlacesURL: travel.PlacesURL(location)}
	done := track(ctx, s.journal, s.logger, "plans", out.PlacesURL)
	key := cache.Key("plans", out.PlacesURL)
	rec, err := cache.Memoize(ctx, s.cache, key, func(ctx context.Context) (plansRecord, error) {
		res, err := s.browser.Extract(ctx, travel.PlansRequest(location, schema.DayPlanListSchema.JSONSchema()))
		if err != nil {
			return plansRecord{}, err
		}
		days, excluded, err := schema.MapDayPlans(res.Data)
		if err != nil {
			return plansRecord{}, err
		}
		return plansRecord{Days: days, Excluded: excluded}, nil
	})
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	reportExcluded(ctx, s.logger, "plans", rec.Excluded)

	out.Days = travel.PresentPlans(rec.Days)
	out.Excluded = rec.Excluded
	span.SetAttributes(attribute.Int("travel.days", len(out.Days)))
	done(len(rec.Excluded), nil)
	return out, nil
}
