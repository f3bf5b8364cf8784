package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/northpeakit/site/pkg/plans"
	"github.com/shopspring/decimal"
)

// BillingCycle is the subscription term.
type BillingCycle string

const (
	// Monthly bills one month of seats.
	Monthly BillingCycle = "monthly"
	// Annual bills twelve months of seats at a discount.
	Annual BillingCycle = "annual"
)

const (
	// MaxEmployeeCount is the largest seat count that can be priced.
	MaxEmployeeCount = 100000
	// MaxChargeCents is the largest amount a single online payment may carry.
	// Larger orders go through invoicing.
	MaxChargeCents int64 = 99999999
)

var (
	// ErrInvalidEmployeeCount is returned for seat counts outside 1..MaxEmployeeCount.
	ErrInvalidEmployeeCount = fmt.Errorf("employee count must be between 1 and %d", MaxEmployeeCount)
	// ErrAmountTooLarge is returned when a computed amount does not fit in minor units.
	ErrAmountTooLarge = errors.New("computed amount is too large")
	// ErrInvalidBillingCycle is returned for unknown billing cycles.
	ErrInvalidBillingCycle = errors.New("billing cycle must be monthly or annual")
)

var (
	annualDiscount = decimal.RequireFromString("0.9")
	monthsPerYear  = decimal.NewFromInt(12)
	centsPerUnit   = decimal.NewFromInt(100)
	maxCents       = decimal.NewFromInt(math.MaxInt64)
)

// ParseBillingCycle parses a cycle name. "yearly" is accepted as an alias of annual.
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Monthly):
		return Monthly, nil
	case string(Annual), "yearly":
		return Annual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBillingCycle, s)
	}
}

// Valid reports whether c is a known cycle.
func (c BillingCycle) Valid() bool {
	return c == Monthly || c == Annual
}

func (c BillingCycle) String() string {
	return string(c)
}

// ComputeAmountCents returns the charge for a plan in minor currency units.
//
//	monthly: price * seats * 100
//	annual:  price * seats * 12 * 0.9 * 100
//
// The product is rounded half-up to the nearest cent. The result is never
// negative and never exceeds math.MaxInt64; it may exceed MaxChargeCents.
func ComputeAmountCents(plan plans.Plan, employeeCount int, cycle BillingCycle) (int64, error) {
	if employeeCount < 1 || employeeCount > MaxEmployeeCount {
		return 0, ErrInvalidEmployeeCount
	}
	if !cycle.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBillingCycle, cycle)
	}

	total := plan.MonthlyPricePerSeat.Mul(decimal.NewFromInt(int64(employeeCount)))
	if cycle == Annual {
		total = total.Mul(monthsPerYear).Mul(annualDiscount)
	}

	// Amounts are never negative, so half-away-from-zero is half-up.
	cents := total.Mul(centsPerUnit).Round(0)
	if cents.IsNegative() {
		return 0, fmt.Errorf("computed amount is negative for plan %s", plan.Name)
	}
	if cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w for plan %s", ErrAmountTooLarge, plan.Name)
	}
	return cents.IntPart(), nil
}
