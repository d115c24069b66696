package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

func TestValidateNamesMissingTitle(t *testing.T) {
	err := ArticleSchema.Validate(map[string]any{"fullContent": "body"})
	var sv *domain.SchemaViolationError
	if !errors.As(err, &sv) {
		t.Fatalf("err = %v, want SchemaViolationError", err)
	}
	if sv.Field != "title" {
		t.Fatalf("Field = %q, want title", sv.Field)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		schema    Schema
		raw       map[string]any
		wantField string
	}{
		{"nil payload", ArticleSchema, nil, "$"},
		{"valid article", ArticleSchema, map[string]any{"title": "t", "fullContent": "c"}, ""},
		{"optional null is fine", ArticleSchema, map[string]any{"title": "t", "fullContent": "c", "author": nil}, ""},
		{"required null", ArticleSchema, map[string]any{"title": nil, "fullContent": "c"}, "title"},
		{"mistyped string", ArticleSchema, map[string]any{"title": 3.0, "fullContent": "c"}, "title"},
		{"fractional integer", TweetSchema, tweet(map[string]any{"num_likes": 1.5}), "num_likes"},
		{"negative integer", TweetSchema, tweet(map[string]any{"num_replies": -1.0}), "num_replies"},
		{"nested element", TweetListSchema, map[string]any{"tweets": []any{tweet(nil), tweet(nil), tweet(map[string]any{"num_likes": "many"})}}, "tweets[2].num_likes"},
		{"bad date", TravelDestinationSchema, destination(map[string]any{"start_date": "03/04/2025"}), "start_date"},
		{"not an array", TweetListSchema, map[string]any{"tweets": "none"}, "tweets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate(tt.raw)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var sv *domain.SchemaViolationError
			if !errors.As(err, &sv) {
				t.Fatalf("Validate() = %v, want SchemaViolationError", err)
			}
			if sv.Field != tt.wantField {
				t.Fatalf("Field = %q, want %q", sv.Field, tt.wantField)
			}
		})
	}
}

func TestJSONSchema(t *testing.T) {
	got := Object(String("title"), Integer("count").NonNeg().Optional(), Array("tags", String(""))).JSONSchema()
	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"count": map[string]any{"type": "integer", "minimum": 0},
			"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"title", "tags"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("JSONSchema() mismatch (-want +got):\n%s", diff)
	}
}

func TestMapTweetsExcludesInvalidAndKeepsValid(t *testing.T) {
	raw := map[string]any{"tweets": []any{
		tweet(map[string]any{"content": "first"}),
		tweet(map[string]any{"num_likes": nil}),
		"not a tweet",
		tweet(map[string]any{"content": "last", "num_likes": 42.0}),
	}}
	tweets, excluded, err := MapTweets(raw)
	if err != nil {
		t.Fatalf("MapTweets: %v", err)
	}
	want := []domain.Tweet{
		{Content: "first", NumLikes: 10, NumRetweetsAndQuotes: 2, NumReplies: 1, PublishedAt: "2h"},
		{Content: "last", NumLikes: 42, NumRetweetsAndQuotes: 2, NumReplies: 1, PublishedAt: "2h"},
	}
	if diff := cmp.Diff(want, tweets); diff != "" {
		t.Fatalf("tweets mismatch (-want +got):\n%s", diff)
	}
	if len(excluded) != 2 || excluded[0].Index != 1 || excluded[1].Index != 2 {
		t.Fatalf("excluded = %+v, want indices 1 and 2", excluded)
	}
	if !strings.Contains(excluded[0].Error, "tweets[1].num_likes") {
		t.Fatalf("excluded[0].Error = %q, want field path", excluded[0].Error)
	}
}

func TestMapTweetsMissingList(t *testing.T) {
	_, _, err := MapTweets(map[string]any{})
	var sv *domain.SchemaViolationError
	if !errors.As(err, &sv) || sv.Field != "tweets" {
		t.Fatalf("err = %v, want violation on tweets", err)
	}
}

func TestMapFollowers(t *testing.T) {
	got, excluded, err := MapFollowers(map[string]any{"followers": []any{"alice", " ", 7.0, "bob "}})
	if err != nil {
		t.Fatalf("MapFollowers: %v", err)
	}
	if diff := cmp.Diff([]string{"alice", "bob"}, got); diff != "" {
		t.Fatalf("followers mismatch (-want +got):\n%s", diff)
	}
	if len(excluded) != 2 {
		t.Fatalf("excluded = %+v, want 2", excluded)
	}
}

func TestMapComparison(t *testing.T) {
	raw := map[string]any{
		"num_commits":       2.0,
		"num_files_changed": 1.0,
		"commits": []any{
			map[string]any{"message": "feat: add x", "description": nil, "committer_name": "a", "is_verified": true},
			map[string]any{"message": "fix", "committer_name": "b"},
		},
		"file_changes": []any{
			map[string]any{"file_path": "main.go", "additions": 3.0, "deletions": 1.0, "code_change": "+x", "raw_code_original": "", "raw_code_changed": "x", "is_visible": true},
		},
	}
	got, excluded, err := MapComparison(raw)
	if err != nil {
		t.Fatalf("MapComparison: %v", err)
	}
	want := domain.GitComparison{
		NumCommits:      2,
		NumFilesChanged: 1,
		Commits:         []domain.Commit{{Message: "feat: add x", CommitterName: "a", IsVerified: true}},
		FileChanges:     []domain.FileChange{{FilePath: "main.go", Additions: 3, Deletions: 1, CodeChange: "+x", RawCodeChanged: "x", IsVisible: true}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("comparison mismatch (-want +got):\n%s", diff)
	}
	if len(excluded) != 1 || !strings.Contains(excluded[0].Error, "commits[1].is_verified") {
		t.Fatalf("excluded = %+v", excluded)
	}

	if _, _, err := MapComparison(map[string]any{"num_files_changed": 1.0}); err == nil {
		t.Fatal("expected violation for missing num_commits")
	}
}

func TestMapArticle(t *testing.T) {
	a, err := MapArticle(map[string]any{"title": "Go", "fullContent": "text", "author": "Rob"})
	if err != nil {
		t.Fatalf("MapArticle: %v", err)
	}
	if diff := cmp.Diff(domain.Article{Title: "Go", FullContent: "text", Author: "Rob"}, a); diff != "" {
		t.Fatalf("article mismatch (-want +got):\n%s", diff)
	}
	if _, err := MapArticle(map[string]any{"title": "Go", "fullContent": "  "}); err == nil {
		t.Fatal("expected violation for empty content")
	}
}

func TestMapTranscript(t *testing.T) {
	got, excluded, err := MapTranscript(map[string]any{
		"title": "Talk",
		"segments": []any{
			map[string]any{"timestamp": "0:01", "text": "hello"},
			map[string]any{"timestamp": "0:05"},
		},
	})
	if err != nil {
		t.Fatalf("MapTranscript: %v", err)
	}
	if got.Title != "Talk" || len(got.Segments) != 1 || got.Segments[0].Text != "hello" {
		t.Fatalf("transcript = %+v", got)
	}
	if len(excluded) != 1 || excluded[0].Index != 1 {
		t.Fatalf("excluded = %+v", excluded)
	}
}

func TestMapDestinations(t *testing.T) {
	got, excluded, err := MapDestinations(map[string]any{"destinations": []any{
		destination(nil),
		destination(map[string]any{"price": -20.0}),
		destination(map[string]any{"end_date": "soon"}),
	}})
	if err != nil {
		t.Fatalf("MapDestinations: %v", err)
	}
	want := []domain.TravelDestination{{Location: "Lisbon", Price: 120, StartDate: "2025-03-07", EndDate: "2025-03-09", TravelTime: "2h 30m nonstop", StayCost: 80}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("destinations mismatch (-want +got):\n%s", diff)
	}
	if len(excluded) != 2 {
		t.Fatalf("excluded = %+v, want 2", excluded)
	}
}

func TestMapDayPlans(t *testing.T) {
	place := func(title string) map[string]any {
		return map[string]any{
			"title":       title,
			"description": "A hidden courtyard.",
			"images":      []any{"https://img.example.com/1.jpg"},
			"page_url":    "https://www.atlasobscura.com/places/" + title,
			"address":     "Rua 1",
			"coordinates": map[string]any{"lat": 38.7, "lng": -9.1},
		}
	}
	got, excluded, err := MapDayPlans(map[string]any{"day_plans": []any{
		map[string]any{"day": 1.0, "places": []any{place("a"), map[string]any{"title": "no url"}}},
		map[string]any{"day": 0.0, "places": []any{place("b")}},
		map[string]any{"day": 2.0, "places": []any{map[string]any{"page_url": "x"}}},
		map[string]any{"day": 3.0, "places": []any{map[string]any{"title": "bare", "page_url": "https://www.atlasobscura.com/places/bare"}}},
		"nope",
	}})
	if err != nil {
		t.Fatalf("MapDayPlans: %v", err)
	}
	want := []domain.DayPlan{
		{Day: 1, Places: []domain.Place{{
			Title:       "a",
			Description: "A hidden courtyard.",
			Images:      []string{"https://img.example.com/1.jpg"},
			PageURL:     "https://www.atlasobscura.com/places/a",
			Address:     "Rua 1",
			Coordinates: domain.Coordinates{Lat: 38.7, Lng: -9.1},
		}}},
		{Day: 3, Places: []domain.Place{{Title: "bare", PageURL: "https://www.atlasobscura.com/places/bare"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("day plans mismatch (-want +got):\n%s", diff)
	}
	// day 1 loses one place; day 0 is rejected; day 2 loses its only place
	// and then the day itself; the string element is rejected.
	if len(excluded) != 5 {
		t.Fatalf("excluded = %+v, want 5", excluded)
	}
	if !strings.Contains(excluded[0].Error, "day_plans[0].places[1].page_url") {
		t.Fatalf("excluded[0] = %q, want nested field path", excluded[0].Error)
	}
	if excluded[1].Index != 1 || !strings.Contains(excluded[1].Error, "day_plans[1].day") {
		t.Fatalf("excluded[1] = %+v", excluded[1])
	}
}

func TestMapDayPlansMissingList(t *testing.T) {
	_, _, err := MapDayPlans(map[string]any{"places": []any{}})
	var sv *domain.SchemaViolationError
	if !errors.As(err, &sv) || sv.Field != "day_plans" {
		t.Fatalf("err = %v, want violation on day_plans", err)
	}
}

func tweet(over map[string]any) map[string]any {
	m := map[string]any{
		"content":                 "hello",
		"num_likes":               10.0,
		"num_retweets_and_quotes": 2.0,
		"num_replies":             1.0,
		"published_at":            "2h",
	}
	for k, v := range over {
		m[k] = v
	}
	return m
}

func destination(over map[string]any) map[string]any {
	m := map[string]any{
		"location":    "Lisbon",
		"price":       120.0,
		"start_date":  "2025-03-07",
		"end_date":    "2025-03-09",
		"travel_time": "2h 30m nonstop",
		"stay_cost":   80.0,
	}
	for k, v := range over {
		m[k] = v
	}
	return m
}

func TestElement(t *testing.T) {
	if diff := cmp.Diff(TweetSchema, TweetListSchema.Element("tweets")); diff != "" {
		t.Fatalf("tweets element (-want +got):\n%s", diff)
	}
	if got := FollowerListSchema.Element("followers"); len(got.Fields) != 0 {
		t.Fatalf("string items gave %+v", got)
	}
	if got := TweetListSchema.Element("missing"); len(got.Fields) != 0 {
		t.Fatalf("unknown field gave %+v", got)
	}
}
