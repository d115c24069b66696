// Command tweetfetch drives a hosted browser session to collect a Twitter
// account's recent tweets and verified followers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/hyperbrowser"
	"github.com/osvaldoandrade/hyperdemos/internal/journal"
	"github.com/osvaldoandrade/hyperdemos/internal/profile"
	"github.com/osvaldoandrade/hyperdemos/internal/providers"
	"github.com/osvaldoandrade/hyperdemos/internal/services"
	"github.com/osvaldoandrade/hyperdemos/pkg/app"
	"github.com/osvaldoandrade/hyperdemos/pkg/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// env holds what every subcommand needs; it is built lazily so that --help
// works without credentials or a writable journal.
type env struct {
	ui          *ui
	logger      *slog.Logger
	outDir      string
	journalPath string
	verbose     bool

	journal *journal.Journal
	tweets  services.TweetService
}

func (e *env) open() error {
	if e.tweets != nil {
		return nil
	}
	cfg, err := config.LoadConfigOptional(getenv("HYPERDEMOS_CONFIG_PATH", ""))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := "warn"
	if e.verbose {
		level = "debug"
	}
	e.logger = app.NewLogger(level, "text", os.Stderr).With("service", "tweetfetch")

	jr, err := journal.Open(e.journalPath)
	if err != nil {
		return err
	}
	e.journal = jr

	var browser services.Browser
	if cfg.HyperbrowserAPIKey != "" {
		c, err := hyperbrowser.New(hyperbrowser.Config{
			APIKey:       cfg.HyperbrowserAPIKey,
			BaseURL:      cfg.HyperbrowserBaseURL,
			HTTPTimeout:  time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
			PollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
			PollTimeout:  time.Duration(cfg.PollTimeoutSeconds) * time.Second,
			Retry:        cfg.RetryPolicy(),
			Logger:       e.logger,
		})
		if err != nil {
			return err
		}
		browser = c
	}
	e.tweets = services.NewTweetService(browser, services.TweetSettings{
		ProfilePath:   profile.ProfileFile,
		ProxyServer:   os.Getenv("PROXY_SERVER_URL"),
		ProxyUsername: os.Getenv("PROXY_SERVER_USERNAME"),
		ProxyPassword: os.Getenv("PROXY_SERVER_PASSWORD"),
	}, jr, providers.NewLocalUploader(e.outDir), e.logger, time.Now)
	return nil
}

func (e *env) close() {
	if e.journal != nil {
		_ = e.journal.Close()
	}
}

func main() {
	// Missing files are fine; existing variables are never overwritten.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(profile.ProfileFile)

	e := &env{ui: newUI()}
	defer e.close()

	root := &cobra.Command{
		Use:   "tweetfetch",
		Short: "Tweet and follower fetcher",
		Long:  "Fetch recent tweets and verified followers of a Twitter account through a Hyperbrowser session.",
	}
	root.SetHelpTemplate(helpTemplate(e.ui))
	root.SilenceUsage = true
	root.PersistentFlags().StringVar(&e.outDir, "out", ".", "Directory for the JSON result files")
	root.PersistentFlags().StringVar(&e.journalPath, "journal", getenv("JOURNAL_PATH", journal.DefaultPath), "Run journal (sqlite file)")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Log remote calls")

	root.AddCommand(sessionCmd(e), tweetsCmd(e), followersCmd(e), allCmd(e), stopCmd(e), historyCmd(e))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, e.ui.err("[ERROR]"), err.Error())
		e.close()
		os.Exit(1)
	}
}
