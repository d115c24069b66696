package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/osvaldoandrade/hyperdemos/internal/journal"
	"github.com/osvaldoandrade/hyperdemos/internal/profile"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "@elonmusk", want: "elonmusk"},
		{in: " golang ", want: "golang"},
		{in: "a_b_1", want: "a_b_1"},
		{in: "", wantErr: true},
		{in: "@", wantErr: true},
		{in: "has space", wantErr: true},
		{in: "waytoolonghandle16", wantErr: true},
		{in: "dots.not.ok", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeHandle(tt.in)
			if tt.wantErr {
				var ie *domain.InvalidInputError
				if !errors.As(err, &ie) {
					t.Fatalf("NormalizeHandle(%q) err = %v", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("NormalizeHandle(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func newTweetService(t *testing.T, browser Browser) (TweetService, string, *memUploader) {
	t.Helper()
	t.Setenv(profile.ProfileIDEnv, "")
	path := filepath.Join(t.TempDir(), profile.ProfileFile)
	up := &memUploader{}
	svc := NewTweetService(browser, TweetSettings{
		ProfilePath:   path,
		ProxyServer:   "http://proxy.example:8080",
		ProxyUsername: "user",
		ProxyPassword: "pass",
	}, nil, up, quietLogger(), testNow)
	return svc, path, up
}

func TestStartSessionCreatesAndPersistsProfile(t *testing.T) {
	browser := &fakeBrowser{}
	svc, path, _ := newTweetService(t, browser)

	info, err := svc.StartSession(context.Background())
	require.NoError(t, err)
	require.True(t, info.ProfileCreated)
	require.Equal(t, "prof-1", info.ProfileID)
	require.Equal(t, "sess-1", info.Session.ID)

	opts := browser.sessions[0]
	require.True(t, opts.UseStealth)
	require.True(t, opts.UseProxy)
	require.True(t, opts.Adblock)
	require.True(t, opts.Annoyances)
	require.True(t, opts.AcceptCookies)
	require.Equal(t, "user", opts.ProxyServerUsername)
	require.Equal(t, &domain.ProfileOptions{ID: "prof-1", PersistChanges: true}, opts.Profile)

	id, err := profile.LoadProfileID(path)
	require.NoError(t, err)
	require.Equal(t, "prof-1", id)

	// A second session reuses the saved profile.
	info, err = svc.StartSession(context.Background())
	require.NoError(t, err)
	require.False(t, info.ProfileCreated)
	require.Equal(t, 1, browser.profiles)
}

func TestTweets(t *testing.T) {
	browser := &fakeBrowser{extract: func(req domain.ExtractionRequest) (domain.ExtractionResult, error) {
		return domain.ExtractionResult{Status: domain.JobCompleted, Data: map[string]any{"tweets": []any{
			map[string]any{"content": "hello", "num_likes": 3, "num_retweets_and_quotes": 1, "num_replies": 0, "published_at": "2h"},
			map[string]any{"content": "missing counters"},
		}}}, nil
	}}
	svc, _, up := newTweetService(t, browser)
	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	defer j.Close()
	svc.(*tweetService).journal = j

	res, err := svc.Tweets(context.Background(), "@golang")
	require.NoError(t, err)
	require.Equal(t, "golang", res.Handle)
	require.Len(t, res.Tweets, 1)
	require.Len(t, res.Excluded, 1)
	require.Equal(t, "mem://golang_tweets.json", res.File)

	req := browser.extracts[0]
	require.Equal(t, []string{"https://twitter.com/golang"}, req.URLs)
	require.Contains(t, req.Prompt, "10 most recent tweets")
	require.False(t, req.Session.Profile.PersistChanges)

	var saved domain.TweetList
	require.NoError(t, json.Unmarshal(up.files["golang_tweets.json"], &saved))
	require.Equal(t, res.Tweets, saved.Tweets)

	runs, err := j.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "tweets", runs[0].Kind)
	require.Equal(t, 1, runs[0].Excluded)
}

func TestFollowers(t *testing.T) {
	browser := &fakeBrowser{extract: func(req domain.ExtractionRequest) (domain.ExtractionResult, error) {
		return domain.ExtractionResult{Status: domain.JobCompleted, Data: map[string]any{"followers": []any{"@a", " ", 7, "b"}}}, nil
	}}
	svc, _, up := newTweetService(t, browser)

	res, err := svc.Followers(context.Background(), "golang")
	require.NoError(t, err)
	require.Equal(t, []string{"@a", "b"}, res.Followers)
	require.Len(t, res.Excluded, 2)
	require.Contains(t, up.files, "golang_followers.json")

	req := browser.extracts[0]
	require.Equal(t, []string{"https://twitter.com/golang/verified_followers"}, req.URLs)
	require.Equal(t, FollowersWaitMS, req.WaitFor)
}

func TestTweetsInvalidHandleMakesNoCalls(t *testing.T) {
	browser := &fakeBrowser{}
	svc, _, _ := newTweetService(t, browser)
	_, err := svc.Tweets(context.Background(), "not a handle!")
	require.True(t, domain.IsUserError(err))
	_, err = svc.Followers(context.Background(), "")
	require.True(t, domain.IsUserError(err))
	require.Zero(t, browser.calls())
}

func TestStopSession(t *testing.T) {
	browser := &fakeBrowser{}
	svc, _, _ := newTweetService(t, browser)
	require.NoError(t, svc.StopSession(context.Background(), "sess-9"))
	require.Equal(t, []string{"sess-9"}, browser.stopped)
	require.True(t, domain.IsUserError(svc.StopSession(context.Background(), "")))

	noKey := NewTweetService(nil, TweetSettings{}, nil, nil, quietLogger(), testNow)
	var mc *domain.MissingCredentialError
	require.ErrorAs(t, noKey.StopSession(context.Background(), "sess-9"), &mc)
}
