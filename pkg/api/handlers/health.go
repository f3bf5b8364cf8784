package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	redis Pinger
}

// NewHealthHandler creates a health handler. redis may be nil when Redis is not configured.
func NewHealthHandler(redis Pinger) *HealthHandler {
	return &HealthHandler{redis: redis}
}

// Health godoc
// @Summary Health check
// @Description Reports service health. Redis is optional, so a Redis outage degrades but does not fail the check.
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	status := "healthy"
	redisStatus := "disabled"

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		redisStatus = "healthy"
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
			status = "degraded"
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": status,
		"redis":  redisStatus,
	})
}
