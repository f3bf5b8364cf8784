package api

import (
	"context"
	"net/http"
	"time"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apierrors "github.com/northpeakit/site/pkg/api/errors"
	"github.com/northpeakit/site/pkg/container"
	custommiddleware "github.com/northpeakit/site/pkg/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// ServerOptions controls the optional parts of the HTTP server.
type ServerOptions struct {
	// MetricsHandler is served at /metrics when set.
	MetricsHandler http.Handler
	// Sentry enables the Sentry request hub. sentry.Init must already have run.
	Sentry bool
	// Swagger serves the API docs at /swagger/*.
	Swagger bool
}

// NewServer builds the Echo server with the full middleware chain and routes.
// Background work (rate limiter cleanup) stops when ctx is done.
func NewServer(ctx context.Context, c *container.Container, opts ServerOptions) *echo.Echo {
	cfg := c.Config
	log := c.Logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apierrors.HTTPErrorHandler

	globalRateLimiter := custommiddleware.NewRateLimiter(ctx, cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst, c.Metrics)

	// Global middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				log.Error("request failed", append(args, "error", v.Error)...)
				return nil
			}
			log.Info("request", args...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if opts.Sentry {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
			Timeout: 2 * time.Second,
		}))
	}

	if c.Metrics != nil {
		e.Use(c.Metrics.Middleware())
	}

	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))
	e.Use(globalRateLimiter.Middleware())

	// Operational endpoints
	e.GET("/health", c.HealthHandler.Health)
	if opts.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(opts.MetricsHandler))
	}
	if opts.Swagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	api := e.Group("/api")

	// Checkout
	var budgetCounter custommiddleware.WindowCounter
	if c.Cache != nil {
		budgetCounter = c.Cache
	}
	intentBudget := custommiddleware.IntentBudget(custommiddleware.IntentBudgetConfig{
		Counter: budgetCounter,
		Limit:   cfg.IntentBudgetPerMinute,
		Window:  time.Minute,
		Logger:  log,
		Metrics: c.Metrics,
	})
	api.POST("/stripe/create-payment-intent", c.PaymentHandler.CreatePaymentIntent, intentBudget)
	api.GET("/stripe/config", c.PaymentHandler.StripeConfig)
	api.GET("/plans", c.PlanHandler.ListPlans)
	api.GET("/checkout/quote", c.PlanHandler.Quote)

	// Collaborators
	api.POST("/contact", c.ContactHandler.Submit)
	api.POST("/phone/validate", c.PhoneHandler.ValidatePhone)
	api.POST("/onboarding", c.OnboardingHandler.Submit)
	api.POST("/analytics/web-vitals", c.WebVitalsHandler.Collect)

	return e
}
