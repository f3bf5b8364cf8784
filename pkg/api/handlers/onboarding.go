package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	apierrors "github.com/northpeakit/site/pkg/api/errors"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/models"
)

// MsgOnboardingFailed is returned when an onboarding body cannot be read.
const MsgOnboardingFailed = "Failed to process onboarding submission"

const (
	maxOnboardingBody = 64 << 10
	notifyTimeout     = 15 * time.Second
)

// OnboardingChat posts onboarding summaries to chat.
type OnboardingChat interface {
	NotifyOnboarding(ctx context.Context, plan, paymentMethod, company string) error
}

// OnboardingMailer emails onboarding summaries to sales.
type OnboardingMailer interface {
	SendOnboardingNotification(ctx context.Context, summary string) error
}

// OnboardingRecorder records onboarding metrics.
type OnboardingRecorder interface {
	RecordOnboarding()
	RecordNotification(channel string, err error)
}

// OnboardingHandler acknowledges onboarding and invoice checkout submissions
type OnboardingHandler struct {
	chat    OnboardingChat
	mailer  OnboardingMailer
	metrics OnboardingRecorder
	log     logger.Logger
	pending sync.WaitGroup
}

// NewOnboardingHandler creates a new onboarding handler. Any collaborator may be nil.
func NewOnboardingHandler(chat OnboardingChat, mailer OnboardingMailer, metrics OnboardingRecorder, log logger.Logger) *OnboardingHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnboardingHandler{
		chat:    chat,
		mailer:  mailer,
		metrics: metrics,
		log:     log.With("component", "onboarding"),
	}
}

// Submit godoc
// @Summary Submit onboarding details
// @Description Accepts any JSON value and acknowledges it. Objects are summarized field by field. Sales is notified in the background on a best-effort basis.
// @Tags Onboarding
// @Accept json
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /onboarding [post]
func (h *OnboardingHandler) Submit(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxOnboardingBody))
	if err != nil {
		return apierrors.UpstreamError(c, http.StatusInternalServerError, MsgOnboardingFailed, err)
	}
	if !json.Valid(raw) {
		return apierrors.UpstreamError(c, http.StatusInternalServerError, MsgOnboardingFailed, errors.New("onboarding body is not valid json"))
	}

	// Arrays and scalars are acknowledged too; only objects carry named fields.
	var payload models.OnboardingRequest
	var summary string
	if json.Unmarshal(raw, &payload) == nil {
		summary = summarize(payload)
	} else {
		payload = nil
		summary = summarizeValue(raw)
	}

	if h.metrics != nil {
		h.metrics.RecordOnboarding()
	}

	plan := stringField(payload, "plan")
	method := stringField(payload, "paymentMethod")
	company := stringField(payload, "companyName")
	if company == "" {
		company = stringField(payload, "company")
	}
	h.log.Info("onboarding received", "plan", plan, "payment_method", method, "fields", len(payload))

	if h.chat != nil || h.mailer != nil {
		reqCtx := context.WithoutCancel(c.Request().Context())
		h.pending.Add(1)
		go func() {
			defer h.pending.Done()
			ctx, cancel := context.WithTimeout(reqCtx, notifyTimeout)
			defer cancel()
			h.notify(ctx, plan, method, company, summary)
		}()
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// Wait blocks until notifications for earlier submissions have finished.
func (h *OnboardingHandler) Wait() {
	h.pending.Wait()
}

func (h *OnboardingHandler) notify(ctx context.Context, plan, method, company, summary string) {
	if h.chat != nil {
		err := h.chat.NotifyOnboarding(ctx, plan, method, company)
		h.recordNotification("slack", err)
		if err != nil {
			h.log.Warn("slack onboarding notification failed", "error", err)
		}
	}
	if h.mailer != nil {
		err := h.mailer.SendOnboardingNotification(ctx, summary)
		h.recordNotification("email", err)
		if err != nil {
			h.log.Warn("onboarding email failed", "error", err)
		}
	}
}

func (h *OnboardingHandler) recordNotification(channel string, err error) {
	if h.metrics != nil {
		h.metrics.RecordNotification(channel, err)
	}
}

func stringField(p models.OnboardingRequest, key string) string {
	raw, ok := p[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// summarize renders the payload one field per line, sorted by key.
func summarize(p models.OnboardingRequest) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := string(p[k])
		var s string
		if json.Unmarshal(p[k], &s) == nil {
			v = s
		}
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	return b.String()
}

func summarizeValue(raw []byte) string {
	var b bytes.Buffer
	if json.Compact(&b, raw) != nil {
		return string(raw) + "\n"
	}
	return "value: " + b.String() + "\n"
}
