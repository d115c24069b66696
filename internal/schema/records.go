package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

var TweetSchema = Object(
	String("content"),
	Integer("num_likes").NonNeg(),
	Integer("num_retweets_and_quotes").NonNeg(),
	Integer("num_replies").NonNeg(),
	String("published_at"),
)

var TweetListSchema = Object(Array("tweets", Nested("", TweetSchema)))

var FollowerListSchema = Object(Array("followers", String("")))

var CommitSchema = Object(
	String("message"),
	String("description").Optional(),
	String("committer_name"),
	Boolean("is_verified"),
)

var FileChangeSchema = Object(
	String("file_path"),
	Integer("additions").NonNeg(),
	Integer("deletions").NonNeg(),
	String("code_change"),
	String("raw_code_original"),
	String("raw_code_changed"),
	Boolean("is_visible"),
)

var GitComparisonSchema = Object(
	Integer("num_commits").NonNeg(),
	Integer("num_files_changed").NonNeg(),
	Array("commits", Nested("", CommitSchema)),
	Array("file_changes", Nested("", FileChangeSchema)),
)

var ArticleSchema = Object(
	String("title"),
	String("fullContent"),
	String("author").Optional(),
	String("abstract").Optional(),
)

var TranscriptSegmentSchema = Object(
	String("timestamp"),
	String("text"),
)

var TranscriptSchema = Object(
	String("title"),
	Array("segments", Nested("", TranscriptSegmentSchema)),
)

var TravelDestinationSchema = Object(
	String("location"),
	Integer("price").NonNeg().Describe("price of the cheapest round trip flight"),
	String("start_date").Date(),
	String("end_date").Date(),
	String("travel_time").Describe("flight duration and number of stops"),
	Integer("stay_cost").NonNeg().Describe("cost of the stay per night"),
)

var TravelDestinationListSchema = Object(Array("destinations", Nested("", TravelDestinationSchema)))

var PlaceSchema = Object(
	String("title"),
	String("description").Optional(),
	Array("images", String("")).Optional(),
	String("page_url"),
	String("address").Optional(),
	Nested("coordinates", Object(Number("lat"), Number("lng"))).Optional(),
)

var DayPlanSchema = Object(
	Integer("day").Describe("1-based day number"),
	Array("places", Nested("", PlaceSchema)),
)

var DayPlanListSchema = Object(Array("day_plans", Nested("", DayPlanSchema)))

func MapTweets(raw map[string]any) ([]domain.Tweet, []domain.Exclusion, error) {
	items, err := List(raw, "tweets")
	if err != nil {
		return nil, nil, err
	}
	tweets, excluded := DecodeList[domain.Tweet](TweetListSchema.Element("tweets"), "tweets", items)
	return tweets, excluded, nil
}

// MapFollowers keeps non-empty handle strings; anything else is excluded.
func MapFollowers(raw map[string]any) ([]string, []domain.Exclusion, error) {
	items, err := List(raw, "followers")
	if err != nil {
		return nil, nil, err
	}
	out := make([]string, 0, len(items))
	var excluded []domain.Exclusion
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			excluded = append(excluded, domain.Exclusion{Index: i, Error: mistyped(fmt.Sprintf("followers[%d]", i), TypeString, item).Error()})
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			excluded = append(excluded, domain.Exclusion{Index: i, Error: (&domain.SchemaViolationError{Field: fmt.Sprintf("followers[%d]", i), Reason: "is empty"}).Error()})
			continue
		}
		out = append(out, s)
	}
	return out, excluded, nil
}

// MapComparison requires both counters; commits and file changes are mapped
// element by element.
func MapComparison(raw map[string]any) (domain.GitComparison, []domain.Exclusion, error) {
	var out domain.GitComparison
	header := Object(GitComparisonSchema.Fields[0], GitComparisonSchema.Fields[1])
	if err := header.Validate(raw); err != nil {
		return out, nil, err
	}
	commits, err := List(raw, "commits")
	if err != nil {
		return out, nil, err
	}
	changes, err := List(raw, "file_changes")
	if err != nil {
		return out, nil, err
	}
	n, _ := asInteger(raw["num_commits"])
	f, _ := asInteger(raw["num_files_changed"])
	out.NumCommits = int(n)
	out.NumFilesChanged = int(f)

	var excluded []domain.Exclusion
	var ex []domain.Exclusion
	out.Commits, ex = DecodeList[domain.Commit](GitComparisonSchema.Element("commits"), "commits", commits)
	excluded = append(excluded, ex...)
	out.FileChanges, ex = DecodeList[domain.FileChange](GitComparisonSchema.Element("file_changes"), "file_changes", changes)
	excluded = append(excluded, ex...)
	return out, excluded, nil
}

func MapArticle(raw map[string]any) (domain.Article, error) {
	a, err := Decode[domain.Article](ArticleSchema, raw)
	if err != nil {
		return domain.Article{}, err
	}
	if strings.TrimSpace(a.FullContent) == "" {
		return domain.Article{}, &domain.SchemaViolationError{Field: "fullContent", Reason: "is empty"}
	}
	return a, nil
}

func MapTranscript(raw map[string]any) (domain.Transcript, []domain.Exclusion, error) {
	var out domain.Transcript
	if err := Object(TranscriptSchema.Fields[0]).Validate(raw); err != nil {
		return out, nil, err
	}
	items, err := List(raw, "segments")
	if err != nil {
		return out, nil, err
	}
	out.Title, _ = raw["title"].(string)
	var excluded []domain.Exclusion
	out.Segments, excluded = DecodeList[domain.TranscriptSegment](TranscriptSchema.Element("segments"), "segments", items)
	return out, excluded, nil
}

func MapDestinations(raw map[string]any) ([]domain.TravelDestination, []domain.Exclusion, error) {
	items, err := List(raw, "destinations")
	if err != nil {
		return nil, nil, err
	}
	out, excluded := DecodeList[domain.TravelDestination](TravelDestinationListSchema.Element("destinations"), "destinations", items)
	return out, excluded, nil
}

// MapDayPlans keeps each day whose header is valid, excluding its invalid
// places individually. A day with a missing or non-positive number, or with
// no valid place left, is excluded as a whole. Place exclusions are indexed
// by day position and reported as day_plans[i].places[j].
func MapDayPlans(raw map[string]any) ([]domain.DayPlan, []domain.Exclusion, error) {
	items, err := List(raw, "day_plans")
	if err != nil {
		return nil, nil, err
	}
	header := Object(DayPlanSchema.Fields[0])
	var (
		out      []domain.DayPlan
		excluded []domain.Exclusion
	)
	for i, item := range items {
		prefix := fmt.Sprintf("day_plans[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			excluded = append(excluded, domain.Exclusion{Index: i, Error: mistyped(prefix, TypeObject, item).Error()})
			continue
		}
		if err := validateObject(prefix, header.Fields, obj); err != nil {
			excluded = append(excluded, domain.Exclusion{Index: i, Error: err.Error()})
			continue
		}
		day, _ := asInteger(obj["day"])
		if day < 1 {
			excluded = append(excluded, domain.Exclusion{Index: i, Error: (&domain.SchemaViolationError{Field: prefix + ".day", Reason: fmt.Sprintf("%d is not a day number", day)}).Error()})
			continue
		}
		places, err := List(obj, "places")
		if err != nil {
			excluded = append(excluded, domain.Exclusion{Index: i, Error: prefixed(prefix, err).Error()})
			continue
		}
		kept, ex := DecodeList[domain.Place](DayPlanSchema.Element("places"), prefix+".places", places)
		for _, e := range ex {
			excluded = append(excluded, domain.Exclusion{Index: i, Error: e.Error})
		}
		if len(kept) == 0 {
			excluded = append(excluded, domain.Exclusion{Index: i, Error: (&domain.SchemaViolationError{Field: prefix + ".places", Reason: "has no valid place"}).Error()})
			continue
		}
		out = append(out, domain.DayPlan{Day: int(day), Places: kept})
	}
	return out, excluded, nil
}

func prefixed(prefix string, err error) error {
	var sv *domain.SchemaViolationError
	if errors.As(err, &sv) {
		return &domain.SchemaViolationError{Field: join(prefix, sv.Field), Reason: sv.Reason}
	}
	return err
}
