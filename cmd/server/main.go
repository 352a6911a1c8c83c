package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/setplanner/backend/internal/config"
	"github.com/setplanner/backend/internal/logging"
	"github.com/setplanner/backend/internal/router"
	sentryscrub "github.com/setplanner/backend/internal/sentry"
)

func main() {
	// Load .env before logging init so LOGGING_LEVEL set there takes effect
	_ = godotenv.Load()

	// Initialize structured logging (reads LOGGING_LEVEL env var)
	logging.Initialize()

	// Load configuration
	cfg := config.Load()

	if cfg.DJPasswordHash == "" {
		slog.Warn("DJ_PASSWORD_HASH not set; DJ login is disabled (run cmd/djpass to generate one)")
	}

	// Initialize Sentry error reporting when configured
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.SentryEnvironment,
			BeforeSend:  sentryscrub.ScrubEvent,
		})
		if err != nil {
			slog.Error("failed to initialize sentry", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Create router (also starts the broker event loop)
	r := router.New(cfg)

	// Start server
	addr := ":" + cfg.Port
	slog.Info("starting server", slog.String("addr", addr))

	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
