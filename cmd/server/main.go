// Command server exposes the demo flows over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/osvaldoandrade/hyperdemos/pkg/app"
	"github.com/osvaldoandrade/hyperdemos/pkg/config"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		os.Exit(1)
	}
}

func run() error {
	// Variables already set in the environment take precedence over .env.
	_ = godotenv.Load()

	cfg, err := config.LoadConfigOptional(os.Getenv("HYPERDEMOS_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	app.SetupMappings(application)
	log := application.Logger

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           application.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	served := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "env", cfg.Env)
		served <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case serveErr = <-served:
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "err", err)
	}
	if err := application.Close(shutdownCtx); err != nil {
		log.Warn("release resources", "err", err)
	}
	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}
