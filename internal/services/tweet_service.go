package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/hyperbrowser"
	"github.com/osvaldoandrade/hyperdemos/internal/journal"
	"github.com/osvaldoandrade/hyperdemos/internal/profile"
	"github.com/osvaldoandrade/hyperdemos/internal/providers"
	"github.com/osvaldoandrade/hyperdemos/internal/schema"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FollowersWaitMS gives the followers page time to render its list.
const FollowersWaitMS = 25000

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

// NormalizeHandle strips a leading @ and checks the Twitter handle rules.
func NormalizeHandle(raw string) (string, error) {
	h := strings.TrimPrefix(strings.TrimSpace(raw), "@")
	if !handlePattern.MatchString(h) {
		return "", &domain.InvalidInputError{Field: "handle", Value: raw, Reason: "must be 1-15 letters, digits or underscores"}
	}
	return h, nil
}

// TweetSettings are the proxy credentials and the file holding the profile id.
type TweetSettings struct {
	ProfilePath   string
	ProxyServer   string
	ProxyUsername string
	ProxyPassword string
}

type SessionInfo struct {
	Session        domain.Session
	ProfileID      string
	ProfileCreated bool
}

type TweetsResult struct {
	Handle   string
	Tweets   []domain.Tweet
	Excluded []domain.Exclusion
	File     string
}

type FollowersResult struct {
	Handle    string
	Followers []string
	Excluded  []domain.Exclusion
	File      string
}

type TweetService interface {
	StartSession(ctx context.Context) (*SessionInfo, error)
	Tweets(ctx context.Context, handle string) (*TweetsResult, error)
	Followers(ctx context.Context, handle string) (*FollowersResult, error)
	StopSession(ctx context.Context, id string) error
}

type tweetService struct {
	browser  Browser
	settings TweetSettings
	journal  journal.Recorder
	uploader providers.Uploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewTweetService(browser Browser, settings TweetSettings, rec journal.Recorder, uploader providers.Uploader, logger *slog.Logger, now func() time.Time) TweetService {
	if settings.ProfilePath == "" {
		settings.ProfilePath = profile.ProfileFile
	}
	return &tweetService{browser: browser, settings: settings, journal: rec, uploader: uploader, logger: logger, now: now}
}

// sessionOptions resolves the profile id, creating and persisting a new
// profile when none is configured. persist is only set for the session that
// logs in, so later extractions reuse its cookies without changing them.
func (s *tweetService) sessionOptions(ctx context.Context, persist bool) (*domain.SessionOptions, bool, error) {
	id, err := profile.LoadProfileID(s.settings.ProfilePath)
	if err != nil {
		return nil, false, err
	}
	created := false
	if id == "" {
		p, err := s.browser.CreateProfile(ctx)
		if err != nil {
			return nil, false, err
		}
		id = p.ID
		created = true
		if err := profile.SaveProfileID(s.settings.ProfilePath, id); err != nil {
			return nil, false, err
		}
		s.logger.InfoContext(ctx, "created browser profile", "profile_id", id)
	}
	return &domain.SessionOptions{
		UseStealth:          true,
		UseProxy:            true,
		Adblock:             true,
		Annoyances:          true,
		AcceptCookies:       true,
		ProxyServer:         s.settings.ProxyServer,
		ProxyServerUsername: s.settings.ProxyUsername,
		ProxyServerPassword: s.settings.ProxyPassword,
		Profile:             &domain.ProfileOptions{ID: id, PersistChanges: persist},
	}, created, nil
}

func (s *tweetService) StartSession(ctx context.Context) (*SessionInfo, error) {
	if s.browser == nil {
		return nil, missing(hyperbrowser.APIKeyEnv)
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "tweets.session")
	defer span.End()

	opts, created, err := s.sessionOptions(ctx, true)
	if err != nil {
		return nil, failSpan(span, err)
	}
	sess, err := s.browser.CreateSession(ctx, opts)
	if err != nil {
		return nil, failSpan(span, err)
	}
	span.SetAttributes(attribute.String("session.id", sess.ID), attribute.String("profile.id", opts.Profile.ID))
	return &SessionInfo{Session: sess, ProfileID: opts.Profile.ID, ProfileCreated: created}, nil
}

func (s *tweetService) Tweets(ctx context.Context, handle string) (*TweetsResult, error) {
	h, err := NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}
	if s.browser == nil {
		return nil, missing(hyperbrowser.APIKeyEnv)
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "tweets.fetch",
		trace.WithAttributes(attribute.String("twitter.handle", h)),
	)
	defer span.End()

	target := "https://twitter.com/" + h
	done := track(ctx, s.journal, s.logger, "tweets", target)
	opts, _, err := s.sessionOptions(ctx, false)
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	res, err := s.browser.Extract(ctx, domain.ExtractionRequest{
		URLs:    []string{target},
		Prompt:  fmt.Sprintf("Extract the 10 most recent tweets from this @%[1]s. The following is @%[1]s's twitter profile in Markdown format:", h),
		Schema:  schema.TweetListSchema.JSONSchema(),
		Session: opts,
	})
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	tweets, excluded, err := schema.MapTweets(res.Data)
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	reportExcluded(ctx, s.logger, "tweets", excluded)

	out := &TweetsResult{Handle: h, Tweets: tweets, Excluded: excluded}
	out.File, err = s.save(ctx, h+"_tweets.json", domain.TweetList{Tweets: tweets})
	done(len(excluded), err)
	if err != nil {
		return nil, failSpan(span, err)
	}
	return out, nil
}

func (s *tweetService) Followers(ctx context.Context, handle string) (*FollowersResult, error) {
	h, err := NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}
	if s.browser == nil {
		return nil, missing(hyperbrowser.APIKeyEnv)
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "followers.fetch",
		trace.WithAttributes(attribute.String("twitter.handle", h)),
	)
	defer span.End()

	target := "https://twitter.com/" + h + "/verified_followers"
	done := track(ctx, s.journal, s.logger, "followers", target)
	opts, _, err := s.sessionOptions(ctx, false)
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	res, err := s.browser.Extract(ctx, domain.ExtractionRequest{
		URLs:    []string{target},
		Prompt:  fmt.Sprintf("Extract all the followers of @%[1]s from this page. The following is @%[1]s's twitter verified followers page in Markdown format:", h),
		Schema:  schema.FollowerListSchema.JSONSchema(),
		Session: opts,
		WaitFor: FollowersWaitMS,
	})
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	followers, excluded, err := schema.MapFollowers(res.Data)
	if err != nil {
		done(0, err)
		return nil, failSpan(span, err)
	}
	reportExcluded(ctx, s.logger, "followers", excluded)

	out := &FollowersResult{Handle: h, Followers: followers, Excluded: excluded}
	out.File, err = s.save(ctx, h+"_followers.json", domain.FollowerList{Followers: followers})
	done(len(excluded), err)
	if err != nil {
		return nil, failSpan(span, err)
	}
	return out, nil
}

func (s *tweetService) StopSession(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &domain.InvalidInputError{Field: "session id", Reason: "is empty"}
	}
	if s.browser == nil {
		return missing(hyperbrowser.APIKeyEnv)
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "tweets.stop_session",
		trace.WithAttributes(attribute.String("session.id", id)),
	)
	defer span.End()
	if err := s.browser.StopSession(ctx, id); err != nil {
		return failSpan(span, err)
	}
	return nil
}

func (s *tweetService) save(ctx context.Context, name string, v any) (string, error) {
	if s.uploader == nil {
		return "", nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return s.uploader.UploadBytes(ctx, name, "application/json", b)
}
