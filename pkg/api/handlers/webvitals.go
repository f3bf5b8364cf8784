package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/models"
)

// MsgWebVitalsFailed is returned for unreadable beacons.
const MsgWebVitalsFailed = "Failed to process web vitals"

// VitalsRecorder observes web-vitals values.
type VitalsRecorder interface {
	ObserveWebVital(name, rating string, value float64)
}

// WebVitalsHandler collects browser performance beacons
type WebVitalsHandler struct {
	metrics VitalsRecorder
	log     logger.Logger
}

// NewWebVitalsHandler creates a new web vitals handler
func NewWebVitalsHandler(metrics VitalsRecorder, log logger.Logger) *WebVitalsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &WebVitalsHandler{metrics: metrics, log: log.With("component", "web_vitals")}
}

// Collect godoc
// @Summary Report a web vital
// @Description Logs a browser performance metric and records it in the web_vital_value histogram.
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body models.WebVitalRequest true "Metric"
// @Success 200 {object} models.SuccessResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /analytics/web-vitals [post]
func (h *WebVitalsHandler) Collect(c echo.Context) error {
	var req models.WebVitalRequest
	if err := c.Bind(&req); err != nil {
		h.log.Warn("malformed web vitals beacon", "error", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: MsgWebVitalsFailed})
	}

	h.log.Info("web vital",
		"name", req.Name,
		"value", req.Value,
		"rating", req.Rating,
		"id", req.ID,
		"delta", req.Delta,
		"navigation_type", req.NavigationType,
		"page", req.Page,
	)
	if h.metrics != nil && req.Name != "" {
		h.metrics.ObserveWebVital(req.Name, req.Rating, req.Value)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
