package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	apierrors "github.com/northpeakit/site/pkg/api/errors"
	"github.com/northpeakit/site/pkg/billing"
	"github.com/northpeakit/site/pkg/domain"
	"github.com/northpeakit/site/pkg/models"
)

// PaymentHandler handles Stripe payment endpoints
type PaymentHandler struct {
	billingService *billing.Service
	publishableKey string
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(billingService *billing.Service, publishableKey string) *PaymentHandler {
	return &PaymentHandler{
		billingService: billingService,
		publishableKey: publishableKey,
	}
}

// CreatePaymentIntent godoc
// @Summary Create a payment intent
// @Description Creates a Stripe payment intent for the given amount in minor units. When an address is supplied, tax is calculated and automatic tax is enabled on the intent.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.CreatePaymentIntentRequest true "Amount in cents, optional currency, metadata and address"
// @Success 200 {object} models.PaymentIntentResponse
// @Failure 400 {object} models.ErrorResponse "A valid amount is required"
// @Failure 429 {object} models.ErrorResponse "Too many payment attempts"
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /stripe/create-payment-intent [post]
func (h *PaymentHandler) CreatePaymentIntent(c echo.Context) error {
	var body models.CreatePaymentIntentRequest
	if err := c.Bind(&body); err != nil {
		return apierrors.ValidationError(c, apierrors.MsgInvalidBody)
	}

	req, err := h.billingService.ParseRequest(body)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	resp, err := h.billingService.CreatePaymentIntent(c.Request().Context(), req)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// StripeConfig godoc
// @Summary Get Stripe publishable key
// @Description Returns the publishable key the browser uses to confirm payments.
// @Tags Payments
// @Produce json
// @Success 200 {object} models.StripeConfigResponse
// @Failure 500 {object} models.ErrorResponse "Payments are not configured"
// @Router /stripe/config [get]
func (h *PaymentHandler) StripeConfig(c echo.Context) error {
	if h.publishableKey == "" {
		return apierrors.Respond(c, domain.NewConfigurationError("STRIPE_PUBLISHABLE_KEY is not configured"))
	}
	return c.JSON(http.StatusOK, models.StripeConfigResponse{PublishableKey: h.publishableKey})
}
