package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	apierrors "github.com/northpeakit/site/pkg/api/errors"
	"github.com/northpeakit/site/pkg/contact"
	"github.com/northpeakit/site/pkg/models"
)

// ContactHandler handles the contact form
type ContactHandler struct {
	contactService *contact.Service
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService *contact.Service) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Submit godoc
// @Summary Submit the contact form
// @Description Validates name, email and phone, stores the contact in the CRM and notifies sales. A contact that already exists is not an error.
// @Tags Contact
// @Accept json
// @Produce json
// @Param request body models.ContactRequest true "Contact details"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse "Missing or invalid name, email or phone"
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse "CRM credential rejected"
// @Router /contact [post]
func (h *ContactHandler) Submit(c echo.Context) error {
	var req models.ContactRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, apierrors.MsgInvalidBody)
	}

	res, err := h.contactService.Submit(c.Request().Context(), req)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Existing: res.Existing})
}
