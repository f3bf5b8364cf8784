package pricing

import (
	"strings"

	"github.com/northpeakit/site/pkg/plans"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Quote is a priced plan selection.
type Quote struct {
	Plan             string       `json:"plan"`
	EmployeeCount    int          `json:"employeeCount"`
	BillingCycle     BillingCycle `json:"billingCycle"`
	AmountCents      int64        `json:"amountCents"`
	Currency         string       `json:"currency"`
	Display          string       `json:"display"`
	ChargeableOnline bool         `json:"chargeableOnline"`
}

// NewQuote prices a selection and renders a display string for it.
func NewQuote(plan plans.Plan, employeeCount int, cycle BillingCycle, currency string) (*Quote, error) {
	cents, err := ComputeAmountCents(plan, employeeCount, cycle)
	if err != nil {
		return nil, err
	}

	return &Quote{
		Plan:          plan.Name,
		EmployeeCount: employeeCount,
		BillingCycle:  cycle,
		AmountCents:   cents,
		Currency:      strings.ToLower(currency),
		Display:       FormatCents(cents, currency),

		ChargeableOnline: cents <= MaxChargeCents,
	}, nil
}

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCents renders minor units as a grouped major-unit amount, e.g. "$5,346.00".
// Currencies other than USD are suffixed with their upper-cased code.
func FormatCents(cents int64, currency string) string {
	major, _ := decimal.NewFromInt(cents).Shift(-2).Float64()
	amount := printer.Sprintf("%.2f", major)

	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" || code == "USD" {
		return "$" + amount
	}
	return amount + " " + code
}
