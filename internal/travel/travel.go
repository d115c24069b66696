// Package travel builds the getaway search: the explore page screenshot, its
// vision extraction and the presentation of the destinations found.
package travel

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/openai"
	"github.com/osvaldoandrade/hyperdemos/internal/schema"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

const (
	VisionModel   = "gpt-4o"
	DisplayLayout = "January 02, 2006"
	exploreURL    = "https://www.google.com/travel/explore"
	flightsURL    = "https://www.google.com/travel/flights"
)

// Search is one getaway query. To is optional.
type Search struct {
	From     string              `json:"from"`
	To       string              `json:"to,omitempty"`
	Duration domain.TripDuration `json:"duration"`
}

func (s Search) Validate() error {
	if strings.TrimSpace(s.From) == "" {
		return &domain.InvalidInputError{Field: "from", Reason: "is empty"}
	}
	if !s.Duration.Valid() {
		return &domain.InvalidInputError{Field: "duration", Value: string(s.Duration), Reason: "must be Weekend, 1 Week or 2 Weeks"}
	}
	return nil
}

// ExploreURL is the explore page for a validated origin (and destination).
func ExploreURL(from, to string, d domain.TripDuration) string {
	q := fmt.Sprintf("%s trips from %s", strings.ToLower(string(d)), from)
	if to != "" {
		q += " to " + to
	}
	return exploreURL + "?q=" + url.QueryEscape(q)
}

// ScrapeRequest screenshots the explore page.
func ScrapeRequest(pageURL string) domain.ScrapeRequest {
	return domain.ScrapeRequest{
		URL:     pageURL,
		Formats: []domain.ScrapeFormat{domain.FormatScreenshot},
		Session: &domain.SessionOptions{
			UseStealth:    true,
			AcceptCookies: true,
			Screen:        &domain.ScreenConfig{Width: 1920, Height: 1920},
		},
		WaitFor: 5000,
	}
}

// DestinationSchema is the reply format requested from the vision model.
func DestinationSchema(now time.Time) map[string]any {
	year := now.Year()
	s := schema.Object(schema.Array("destinations", schema.Nested("", schema.Object(
		schema.String("location").Describe("The name of the destination city/location"),
		schema.Integer("price").NonNeg().Describe("The listed price of just the tickets to the destination (without $ sign)"),
		schema.String("start_date").Date().Describe(fmt.Sprintf("The start date of the trip in YYYY-MM-DD format. If the year is not specified, use the current year, i.e., %d", year)),
		schema.String("end_date").Date().Describe(fmt.Sprintf("The end date of the trip in YYYY-MM-DD format. If the year is not specified, use the current year, i.e., %d", year)),
		schema.String("travel_time").Describe("The time it takes to travel to the destination (e.g., '2h 30m')"),
		schema.Integer("stay_cost").NonNeg().Describe("The listed price of just the accommodations (without $ sign)"),
	))))
	return s.JSONSchema()
}

// VisionRequest asks the model to read destinations off a screenshot.
func VisionRequest(png []byte) openai.ChatRequest {
	return openai.ChatRequest{
		Model: VisionModel,
		Messages: []openai.Message{
			openai.Text(openai.RoleSystem, "Extract travel information from screenshots in a structured format following the provided JSON schema."),
			{Role: openai.RoleUser, Content: []openai.Part{
				openai.TextPart("This is a screenshot from Google Travel Explore showing getaway options. Extract the following information for each destination: location name, ticket price, trip dates, travel time, and approximate stay cost."),
				openai.ImagePart(png),
			}},
		},
	}
}

// FlightsLink searches flights from origin to d over its dates.
func FlightsLink(d domain.TravelDestination, from string) string {
	esc := func(s string) string { return strings.ReplaceAll(s, " ", "%20") }
	return fmt.Sprintf("%s?q=Flights%%20to%%20%s%%20from%%20%s%%20on%%20%s%%20through%%20%s",
		flightsURL, esc(d.Location), esc(from), esc(d.StartDate), esc(d.EndDate))
}

// DisplayDate renders a 2006-01-02 date as "January 02, 2006"; anything else
// is returned unchanged.
func DisplayDate(s string) string {
	t, err := time.Parse(schema.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format(DisplayLayout)
}

// Destination is the presentation form of a TravelDestination.
type Destination struct {
	domain.TravelDestination
	StartDisplay string `json:"start_display"`
	EndDisplay   string `json:"end_display"`
	FlightsURL   string `json:"flights_url"`
}

func Present(list []domain.TravelDestination, from string) []Destination {
	out := make([]Destination, len(list))
	for i, d := range list {
		out[i] = Destination{
			TravelDestination: d,
			StartDisplay:      DisplayDate(d.StartDate),
			EndDisplay:        DisplayDate(d.EndDate),
			FlightsURL:        FlightsLink(d, from),
		}
	}
	return out
}
