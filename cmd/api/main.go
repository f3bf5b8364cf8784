package main

// @title NorthPeak IT Site API
// @version 1.0
// @description Plans, checkout payment intents, contact and onboarding for the NorthPeak IT marketing site.

// @contact.name NorthPeak IT
// @contact.email hello@northpeakit.com

// @host localhost:8080
// @BasePath /api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/northpeakit/site/config"
	_ "github.com/northpeakit/site/docs" // Swagger docs
	"github.com/northpeakit/site/pkg/api"
	"github.com/northpeakit/site/pkg/container"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/metrics"
	"github.com/northpeakit/site/pkg/secrets"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info("configuration loaded", "environment", cfg.APIEnvironment)

	sm, err := secrets.NewManager(secrets.Config{
		Backend:   cfg.SecretsBackend,
		AWSRegion: cfg.AWSRegion,
		Prefix:    cfg.SecretsPrefix,
	})
	if err != nil {
		log.Error("failed to initialize secrets manager", "error", err)
		os.Exit(1)
	}
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	err = secrets.Overlay(loadCtx, sm, cfg, log)
	cancelLoad()
	if err != nil {
		log.Error("failed to load secrets", "error", err)
		os.Exit(1)
	}
	_ = sm.Close()

	// Initialize Sentry for error tracking
	sentryEnabled := false
	if cfg.SentryDSN != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 0.2,
			AttachStacktrace: true,
			BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
				// Card data never reaches the server; strip request bodies anyway.
				if event.Request != nil {
					event.Request.Data = ""
				}
				return event
			},
		})
		if err != nil {
			log.Warn("failed to initialize sentry", "error", err)
		} else {
			sentryEnabled = true
			log.Info("sentry initialized", "environment", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Info("sentry disabled (no DSN configured)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := container.New(cfg, log, metrics.New())
	defer c.Close()

	e := api.NewServer(ctx, c, api.ServerOptions{
		MetricsHandler: promhttp.Handler(),
		Sentry:         sentryEnabled,
		Swagger:        !cfg.IsProduction(),
	})

	// Start server
	address := cfg.Address()
	log.Info("site API starting",
		"address", address,
		"rate_limit_per_minute", cfg.RateLimitRequestsPerMinute,
		"rate_limit_burst", cfg.RateLimitBurst,
		"intent_budget_per_minute", cfg.IntentBudgetPerMinute,
	)

	go func() {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}
	log.Info("server gracefully stopped")
}
