// Package geocode checks that a name refers to a real city using the
// OpenStreetMap Nominatim search API.
package geocode

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
	"github.com/osvaldoandrade/hyperdemos/internal/backoff"
	"github.com/osvaldoandrade/hyperdemos/internal/cache"
	"github.com/osvaldoandrade/hyperdemos/internal/metrics"
	"github.com/osvaldoandrade/hyperdemos/internal/ratelimit"
	"github.com/osvaldoandrade/hyperdemos/internal/remote"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

const (
	service        = "nominatim"
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// MinSimilarity is the Jaro-Winkler score a town or village name must
	// reach against the input to be accepted.
	MinSimilarity = 0.9
)

// Place is the canonical form of a validated city.
type Place struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	AddressType string  `json:"addressType"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

type Config struct {
	BaseURL   string
	UserAgent string
	Retry     backoff.Policy
	Limiter   ratelimit.Limiter
	Bucket    ratelimit.Bucket
	Cache     cache.Cache
	Logger    *slog.Logger
}

type Validator struct {
	http    *resty.Client
	caller  remote.Caller
	limiter ratelimit.Limiter
	bucket  ratelimit.Bucket
	cache   cache.Cache
	logger  *slog.Logger
}

func New(cfg Config) *Validator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = backoff.Default(domain.IsTransient)
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.Noop("cities")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := remote.NewClient(service, cfg.BaseURL, 15*time.Second)
	if cfg.UserAgent != "" {
		h.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &Validator{
		http:    h,
		caller:  remote.NewCaller(service, cfg.Retry),
		limiter: cfg.Limiter,
		bucket:  cfg.Bucket,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}
}

type searchResult struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	AddressType string `json:"addresstype"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// ValidateCity returns the canonical place for name, or an InvalidInputError
// when the best match is not a city (or a town/village of that exact name).
func (v *Validator) ValidateCity(ctx context.Context, name string) (Place, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Place{}, &domain.InvalidInputError{Field: "city", Reason: "is empty"}
	}
	key := cache.Key(strings.ToLower(name))
	results, err := cache.Memoize(ctx, v.cache, key, func(ctx context.Context) ([]searchResult, error) {
		return v.search(ctx, name)
	})
	if err != nil {
		return Place{}, err
	}
	if len(results) == 0 {
		return Place{}, &domain.InvalidInputError{Field: "city", Value: name, Reason: "no matching place found"}
	}
	place, ok := accept(name, results[0])
	if !ok {
		v.logger.Debug("city rejected", "input", name, "addresstype", results[0].AddressType, "display_name", results[0].DisplayName)
		return Place{}, &domain.InvalidInputError{Field: "city", Value: name, Reason: "not recognised as a city"}
	}
	return place, nil
}

func (v *Validator) search(ctx context.Context, name string) ([]searchResult, error) {
	err := ratelimit.Wait(ctx, v.limiter, service, "search", v.bucket, func(time.Duration) {
		metrics.RateLimitHitsTotal.WithLabelValues(service).Inc()
	})
	if err != nil {
		return nil, err
	}
	res, err := v.caller.Do(ctx, "search", func(ctx context.Context) (*resty.Response, error) {
		return v.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{"q": name, "format": "json", "limit": "1"}).
			Get("/search")
	})
	if err != nil {
		return nil, err
	}
	var out []searchResult
	if err := remote.Decode(service, res, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func accept(input string, r searchResult) (Place, bool) {
	kind := strings.ToLower(r.AddressType)
	first := strings.TrimSpace(strings.Split(r.DisplayName, ",")[0])
	switch kind {
	case "city":
	case "town", "village":
		if matchr.JaroWinkler(fold(first), fold(input), false) < MinSimilarity {
			return Place{}, false
		}
	default:
		return Place{}, false
	}
	canonical := r.Name
	if canonical == "" {
		canonical = first
	}
	p := Place{Name: canonical, DisplayName: r.DisplayName, AddressType: kind}
	p.Lat, p.Lon = parseCoord(r.Lat), parseCoord(r.Lon)
	return p, true
}

func fold(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return ' '
		}
		return unicode.ToLower(r)
	}, strings.TrimSpace(s))
}

func parseCoord(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
