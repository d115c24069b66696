package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/profile"
	"github.com/osvaldoandrade/hyperdemos/internal/services"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// stepPause separates the tweets and followers extractions of `all`.
const stepPause = 2 * time.Second

func sessionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Start a browser session and log in through the live view",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.open(); err != nil {
				return err
			}
			var info *services.SessionInfo
			err := e.ui.wait("Creating session...", func() error {
				var err error
				info, err = e.tweets.StartSession(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			if info.ProfileCreated {
				e.ui.okf("Created profile %s (saved to %s)", info.ProfileID, profile.ProfileFile)
			}
			if err := profile.SaveSession(profile.SessionFile, info.Session.ID); err != nil {
				return err
			}
			e.ui.okf("Session %s started", info.Session.ID)
			if info.Session.LiveURL != "" {
				e.ui.infof("Log in to Twitter here: %s", info.Session.LiveURL)
			}
			fmt.Fprintln(e.ui.out, e.ui.dim("When you are done, run: tweetfetch stop"))
			return nil
		},
	}
}

func tweetsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "tweets <handle>",
		Short:   "Fetch the 10 most recent tweets",
		Args:    cobra.ExactArgs(1),
		Example: "tweetfetch tweets @jack",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := services.NormalizeHandle(args[0]); err != nil {
				return err
			}
			if err := e.open(); err != nil {
				return err
			}
			return fetchTweets(cmd, e, args[0])
		},
	}
}

func followersCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "followers <handle>",
		Short:   "Fetch verified followers",
		Args:    cobra.ExactArgs(1),
		Example: "tweetfetch followers jack",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := services.NormalizeHandle(args[0]); err != nil {
				return err
			}
			if err := e.open(); err != nil {
				return err
			}
			return fetchFollowers(cmd, e, args[0])
		},
	}
}

func allCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "all <handle>",
		Short: "Fetch tweets, then verified followers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := services.NormalizeHandle(args[0]); err != nil {
				return err
			}
			if err := e.open(); err != nil {
				return err
			}
			bar := progressbar.NewOptions(2,
				progressbar.OptionSetDescription("Fetching"),
				progressbar.OptionSetWidth(18),
				progressbar.OptionShowCount(),
				progressbar.OptionSetVisibility(e.ui.tty),
			)
			if err := fetchTweets(cmd, e, args[0]); err != nil {
				return err
			}
			_ = bar.Add(1)
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(stepPause):
			}
			if err := fetchFollowers(cmd, e, args[0]); err != nil {
				return err
			}
			_ = bar.Add(1)
			_ = bar.Finish()
			fmt.Fprintln(e.ui.out)
			return nil
		},
	}
}

func fetchTweets(cmd *cobra.Command, e *env, handle string) error {
	var res *services.TweetsResult
	err := e.ui.wait("Fetching tweets of @"+handle+"...", func() error {
		var err error
		res, err = e.tweets.Tweets(cmd.Context(), handle)
		return err
	})
	if err != nil {
		return err
	}
	for _, ex := range res.Excluded {
		e.ui.warnf("tweet %d skipped: %s", ex.Index, ex.Error)
	}
	e.ui.okf("%d tweets saved to %s", len(res.Tweets), res.File)
	return nil
}

func fetchFollowers(cmd *cobra.Command, e *env, handle string) error {
	var res *services.FollowersResult
	err := e.ui.wait("Fetching verified followers of @"+handle+"...", func() error {
		var err error
		res, err = e.tweets.Followers(cmd.Context(), handle)
		return err
	})
	if err != nil {
		return err
	}
	for _, ex := range res.Excluded {
		e.ui.warnf("follower %d skipped: %s", ex.Index, ex.Error)
	}
	e.ui.okf("%d followers saved to %s", len(res.Followers), res.File)
	return nil
}

func stopCmd(e *env) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running browser session",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := sessionID
			if id == "" {
				saved, err := profile.LoadSession(profile.SessionFile)
				if err != nil {
					return err
				}
				id = saved
			}
			if id == "" {
				e.ui.warnf("No session to stop (pass --session-id or run `tweetfetch session` first)")
				return nil
			}
			if err := e.open(); err != nil {
				return err
			}
			err := e.ui.wait("Stopping session "+id+"...", func() error {
				return e.tweets.StopSession(cmd.Context(), id)
			})
			if err != nil {
				return err
			}
			if err := profile.RemoveSession(profile.SessionFile); err != nil {
				return err
			}
			e.ui.okf("Session %s stopped", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Session to stop (default: the one in .session)")
	return cmd
}

func historyCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("limit must be positive")
			}
			if err := e.open(); err != nil {
				return err
			}
			runs, err := e.journal.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				e.ui.infof("No runs recorded in %s", e.journalPath)
				return nil
			}
			renderHistory(e.ui.out, runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	return cmd
}
