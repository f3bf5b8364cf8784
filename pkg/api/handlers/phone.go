package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	apierrors "github.com/northpeakit/site/pkg/api/errors"
	"github.com/northpeakit/site/pkg/contact"
	"github.com/northpeakit/site/pkg/phone"
)

// PhoneHandler backs inline phone validation on the contact and checkout forms.
type PhoneHandler struct{}

// NewPhoneHandler creates a new phone handler.
func NewPhoneHandler() *PhoneHandler {
	return &PhoneHandler{}
}

// ValidatePhoneRequest represents a phone validation request.
type ValidatePhoneRequest struct {
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code,omitempty"` // defaults to US
}

// ValidatePhone godoc
// @Summary Validate a phone number
// @Description Validates and normalizes a phone number. Numbers without a country code are read in the given region.
// @Tags Contact
// @Accept json
// @Produce json
// @Param request body ValidatePhoneRequest true "Phone validation request"
// @Success 200 {object} phone.ValidationResult
// @Failure 400 {object} models.ErrorResponse
// @Router /phone/validate [post]
func (h *PhoneHandler) ValidatePhone(c echo.Context) error {
	var req ValidatePhoneRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, apierrors.MsgInvalidBody)
	}

	if strings.TrimSpace(req.Phone) == "" {
		return apierrors.ValidationError(c, contact.MsgPhoneRequired)
	}

	region := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if region == "" {
		region = phone.DefaultRegion
	}

	result, err := phone.ValidatePhone(req.Phone, region)
	if err != nil {
		return apierrors.ValidationError(c, contact.MsgInvalidPhone)
	}

	return c.JSON(http.StatusOK, result)
}
