package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/models"
)

// MsgIntentBudgetExceeded is returned when a client creates too many payment intents.
const MsgIntentBudgetExceeded = "Too many payment attempts. Please wait a minute and try again."

// WindowCounter counts hits in a fixed window.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// BudgetRecorder receives intent budget metrics.
type BudgetRecorder interface {
	LimitRecorder
	RecordIntentBudgetError()
}

// IntentBudgetConfig configures IntentBudget.
type IntentBudgetConfig struct {
	Counter   WindowCounter
	Limit     int
	Window    time.Duration
	KeyPrefix string
	Logger    logger.Logger
	Metrics   BudgetRecorder
}

// IntentBudget caps payment intents per client IP in a shared fixed window.
// Counter errors let the request through.
func IntentBudget(cfg IntentBudgetConfig) echo.MiddlewareFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "intent_budget:"
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if cfg.Counter == nil || cfg.Limit <= 0 {
			return next
		}

		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 250*time.Millisecond)
			count, ttl, err := cfg.Counter.IncrWindow(ctx, cfg.KeyPrefix+clientIP(c), cfg.Window)
			cancel()

			if err != nil {
				cfg.Logger.Warn("intent budget unavailable, allowing request", "error", err)
				if cfg.Metrics != nil {
					cfg.Metrics.RecordIntentBudgetError()
				}
				return next(c)
			}

			if count > int64(cfg.Limit) {
				if cfg.Metrics != nil {
					cfg.Metrics.RecordRateLimited("intent_budget")
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Error: MsgIntentBudgetExceeded})
			}
			return next(c)
		}
	}
}
