package errors

import (
	"fmt"
	"net/http"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/northpeakit/site/pkg/domain"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/models"
)

const (
	// MsgInvalidBody is returned when a request body is not valid JSON.
	MsgInvalidBody = "Invalid request body"
	// MsgInternal is returned for unexpected failures.
	MsgInternal = "An internal error occurred. Please try again later."
	// MsgUnavailable is returned for configuration failures.
	MsgUnavailable = "This service is temporarily unavailable. Please try again later."
)

var log = logger.Default()

// SetLogger replaces the logger used for error details.
func SetLogger(l logger.Logger) {
	if l != nil {
		log = l
	}
}

// ValidationError returns a 400 with msg shown verbatim.
func ValidationError(c echo.Context, msg string) error {
	log.Info("validation error", "path", c.Request().URL.Path, "message", msg)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
}

// ConfigurationError returns a generic 500 and logs the detail server-side only.
func ConfigurationError(c echo.Context, err error) error {
	log.Error("configuration error", "path", c.Request().URL.Path, "error", err)
	capture(c, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: MsgUnavailable})
}

// UpstreamError returns status with a message safe to show the user.
func UpstreamError(c echo.Context, status int, msg string, err error) error {
	log.Error("upstream error", "path", c.Request().URL.Path, "status", status, "error", err)
	if status >= http.StatusInternalServerError {
		capture(c, err)
	}

	return c.JSON(status, models.ErrorResponse{Error: msg})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	log.Error("internal error", "path", c.Request().URL.Path, "error", err)
	capture(c, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: MsgInternal})
}

// Respond writes err as a JSON error body, using the domain taxonomy when err carries one.
func Respond(c echo.Context, err error) error {
	de, ok := domain.AsDomainError(err)
	if !ok {
		return InternalError(c, err)
	}

	switch de.Code {
	case domain.ErrCodeValidation:
		return ValidationError(c, de.Message)
	case domain.ErrCodeConfiguration:
		return ConfigurationError(c, err)
	case domain.ErrCodeUpstream:
		return UpstreamError(c, de.Status, de.Message, err)
	case domain.ErrCodeConflict:
		return c.JSON(http.StatusConflict, models.ErrorResponse{Error: de.Message})
	default:
		return InternalError(c, err)
	}
}

// HTTPErrorHandler is the Echo error handler. Every error leaves as {"error": "..."}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var writeErr error
	if he, ok := err.(*echo.HTTPError); ok {
		if he.Code >= http.StatusInternalServerError {
			writeErr = InternalError(c, err)
		} else {
			writeErr = c.JSON(he.Code, models.ErrorResponse{Error: fmt.Sprint(he.Message)})
		}
	} else {
		writeErr = Respond(c, err)
	}

	if writeErr != nil {
		log.Error("failed to write error response", "path", c.Request().URL.Path, "error", writeErr)
	}
}

func capture(c echo.Context, err error) {
	if err == nil {
		return
	}
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}
