package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/northpeakit/site/pkg/domain"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newContext creates an echo.Context backed by an httptest.NewRecorder.
func newContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// captureLog routes package logging to a buffer for the duration of fn.
func captureLog(fn func()) string {
	var buf bytes.Buffer
	orig := log
	SetLogger(logger.NewWithWriter(&buf, "debug", "text"))
	defer SetLogger(orig)
	fn()
	return buf.String()
}

func TestValidationError_MessageVerbatim(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/api/stripe/create-payment-intent")
	require.NoError(t, ValidationError(c, "A valid amount is required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A valid amount is required", parseBody(t, rec).Error)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestConfigurationError_HidesDetail(t *testing.T) {
	detail := "STRIPE_SECRET_KEY is not configured"
	var rec *httptest.ResponseRecorder
	logged := captureLog(func() {
		var c echo.Context
		c, rec = newContext(http.MethodPost, "/api/stripe/create-payment-intent")
		_ = ConfigurationError(c, errors.New(detail))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MsgUnavailable, parseBody(t, rec).Error)
	assert.NotContains(t, rec.Body.String(), "STRIPE")
	assert.Contains(t, logged, detail)
}

func TestInternalError_NoInternalDetails(t *testing.T) {
	internalMsg := "dial tcp 10.0.0.1:443: connection refused"
	c, rec := newContext(http.MethodGet, "/api/plans")
	_ = InternalError(c, errors.New(internalMsg))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), internalMsg)
	assert.Equal(t, MsgInternal, parseBody(t, rec).Error)
}

func TestRespond_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", domain.NewValidationError("Email is required"), http.StatusBadRequest, "Email is required"},
		{"configuration", domain.NewConfigurationError("HUBSPOT_ACCESS_TOKEN missing"), http.StatusInternalServerError, MsgUnavailable},
		{"upstream 503", domain.NewUpstreamError(http.StatusServiceUnavailable, "CRM unavailable", errors.New("401")), http.StatusServiceUnavailable, "CRM unavailable"},
		{"upstream 400", domain.NewUpstreamError(http.StatusBadRequest, "Your card was declined", nil), http.StatusBadRequest, "Your card was declined"},
		{"conflict", domain.NewConflictError("Contact already exists"), http.StatusConflict, "Contact already exists"},
		{"internal", domain.NewInternalError(errors.New("nil pointer")), http.StatusInternalServerError, MsgInternal},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/api/test")
			require.NoError(t, Respond(c, tt.err))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, parseBody(t, rec).Error)
		})
	}
}

func TestHTTPErrorHandler_EchoErrors(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/missing")
	HTTPErrorHandler(echo.ErrNotFound, c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", parseBody(t, rec).Error)
}

func TestHTTPErrorHandler_PanicsBecomeJSON(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/boom")
	HTTPErrorHandler(errors.New("runtime error: index out of range"), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "index out of range")
}

func TestHTTPErrorHandler_SkipsCommittedResponse(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/done")
	require.NoError(t, c.String(http.StatusOK, "ok"))

	HTTPErrorHandler(errors.New("late"), c)
	assert.Equal(t, "ok", rec.Body.String())
}
