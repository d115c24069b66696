package travel

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

const (
	// MaxDays is how many day plans are suggested per destination.
	MaxDays = 2

	atlasObscuraURL = "https://www.atlasobscura.com/things-to-do/"
	mapsURL         = "https://www.google.com/maps"
	maxDescription  = 300
)

const plansPrompt = "From this list of curious places, pick up to %d places at random, one per day. " +
	"For each day, open the place page and return it first, followed by the nearby places listed on that page. " +
	"For every place give its title, description, image URLs, page URL, street address and coordinates."

// PlaceSlug turns "Lisbon, Portugal" into "lisbon-portugal".
func PlaceSlug(location string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(location)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// PlacesURL is the most recent places listing for a destination.
func PlacesURL(location string) string {
	return atlasObscuraURL + PlaceSlug(location) + "/places?sort=recent"
}

// PlansRequest asks the extraction service for day plans at location.
func PlansRequest(location string, schema map[string]any) domain.ExtractionRequest {
	return domain.ExtractionRequest{
		URLs:    []string{PlacesURL(location)},
		Prompt:  fmt.Sprintf(plansPrompt, MaxDays),
		Schema:  schema,
		Session: &domain.SessionOptions{UseStealth: true, UseProxy: true, AcceptCookies: true},
	}
}

// PlaceView is the presentation form of a Place.
type PlaceView struct {
	domain.Place
	MapsURL string `json:"maps_url,omitempty"`
}

type DayPlanView struct {
	Day    int         `json:"day"`
	Places []PlaceView `json:"places"`
}

// PresentPlans orders days, keeps at most MaxDays, fills the placeholders
// the listing page uses for missing values and clips long descriptions.
func PresentPlans(plans []domain.DayPlan) []DayPlanView {
	sorted := make([]domain.DayPlan, len(plans))
	copy(sorted, plans)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Day < sorted[j].Day })
	if len(sorted) > MaxDays {
		sorted = sorted[:MaxDays]
	}
	out := make([]DayPlanView, len(sorted))
	for i, d := range sorted {
		v := DayPlanView{Day: d.Day, Places: make([]PlaceView, len(d.Places))}
		for j, p := range d.Places {
			v.Places[j] = presentPlace(p)
		}
		out[i] = v
	}
	return out
}

func presentPlace(p domain.Place) PlaceView {
	if strings.TrimSpace(p.Title) == "" {
		p.Title = "Unknown Place"
	}
	if strings.TrimSpace(p.Description) == "" {
		p.Description = "No description available"
	}
	if r := []rune(p.Description); len(r) > maxDescription {
		p.Description = string(r[:maxDescription]) + "..."
	}
	if strings.TrimSpace(p.Address) == "" {
		p.Address = "Address Unknown"
	}
	v := PlaceView{Place: p}
	if p.Coordinates.Known() {
		v.MapsURL = fmt.Sprintf("%s?q=%g,%g", mapsURL, p.Coordinates.Lat, p.Coordinates.Lng)
	}
	return v
}
