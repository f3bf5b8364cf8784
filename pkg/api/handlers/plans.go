package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	apierrors "github.com/northpeakit/site/pkg/api/errors"
	"github.com/northpeakit/site/pkg/models"
	"github.com/northpeakit/site/pkg/plans"
	"github.com/northpeakit/site/pkg/pricing"
)

// Quote validation messages.
const (
	MsgUnknownPlan        = "Unknown plan"
	MsgInvalidCycle       = "Billing cycle must be monthly or annual"
	MsgInvalidEmployeeNum = "Employee count must be a whole number between 1 and 100000"
)

// PlanHandler serves the plan catalog and price quotes
type PlanHandler struct {
	catalog  *plans.Catalog
	currency string
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(catalog *plans.Catalog, currency string) *PlanHandler {
	return &PlanHandler{catalog: catalog, currency: currency}
}

// ListPlans godoc
// @Summary List plans
// @Description Returns every plan with its monthly price per seat.
// @Tags Plans
// @Produce json
// @Success 200 {object} models.PlansResponse
// @Router /plans [get]
func (h *PlanHandler) ListPlans(c echo.Context) error {
	all := h.catalog.All()
	resp := models.PlansResponse{Plans: make([]models.PlanResponse, 0, len(all))}
	for _, p := range all {
		resp.Plans = append(resp.Plans, models.PlanResponse{
			Name:                p.Name,
			MonthlyPricePerSeat: p.MonthlyPricePerSeat.StringFixed(2),
			Description:         p.Description,
			Features:            p.Features,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Quote godoc
// @Summary Price a plan selection
// @Description Computes the amount in minor units with the same calculator the checkout uses.
// @Tags Plans
// @Produce json
// @Param plan query string true "Plan name (case-insensitive)"
// @Param employees query int false "Seat count (default 5)"
// @Param cycle query string false "monthly or annual (default monthly)"
// @Success 200 {object} pricing.Quote
// @Failure 400 {object} models.ErrorResponse
// @Router /checkout/quote [get]
func (h *PlanHandler) Quote(c echo.Context) error {
	plan, ok := h.catalog.Find(c.QueryParam("plan"))
	if !ok {
		return apierrors.ValidationError(c, MsgUnknownPlan)
	}

	employees := 5
	if raw := strings.TrimSpace(c.QueryParam("employees")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return apierrors.ValidationError(c, MsgInvalidEmployeeNum)
		}
		employees = n
	}

	cycle := pricing.Monthly
	if raw := c.QueryParam("cycle"); raw != "" {
		parsed, err := pricing.ParseBillingCycle(raw)
		if err != nil {
			return apierrors.ValidationError(c, MsgInvalidCycle)
		}
		cycle = parsed
	}

	quote, err := pricing.NewQuote(plan, employees, cycle, h.currency)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidEmployeeCount) || errors.Is(err, pricing.ErrAmountTooLarge) {
			return apierrors.ValidationError(c, MsgInvalidEmployeeNum)
		}
		return apierrors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, quote)
}
