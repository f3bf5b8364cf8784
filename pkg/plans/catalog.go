package plans

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrPlanNotFound is returned when no plan matches the requested name.
var ErrPlanNotFound = errors.New("plan not found")

// Plan is a subscription plan offered on the pricing page.
type Plan struct {
	Name                string          `json:"name"`
	MonthlyPricePerSeat decimal.Decimal `json:"monthlyPricePerSeat"`
	Description         string          `json:"description"`
	Features            []string        `json:"features"`
}

// Catalog is a read-only set of plans keyed by case-insensitive name.
// It is safe for concurrent use once constructed.
type Catalog struct {
	plans  []Plan
	byName map[string]int
}

// NewCatalog builds a catalog, rejecting duplicate names and non-positive prices.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	c := &Catalog{
		plans:  make([]Plan, 0, len(plans)),
		byName: make(map[string]int, len(plans)),
	}

	for _, p := range plans {
		key := normalizeName(p.Name)
		if key == "" {
			return nil, fmt.Errorf("plan name cannot be empty")
		}
		if _, exists := c.byName[key]; exists {
			return nil, fmt.Errorf("duplicate plan name: %s", p.Name)
		}
		if !p.MonthlyPricePerSeat.IsPositive() {
			return nil, fmt.Errorf("plan %s: monthly price per seat must be positive", p.Name)
		}

		p.Features = append([]string(nil), p.Features...)
		c.byName[key] = len(c.plans)
		c.plans = append(c.plans, p)
	}

	return c, nil
}

// MustCatalog is like NewCatalog but panics on error. Intended for static tables.
func MustCatalog(plans ...Plan) *Catalog {
	c, err := NewCatalog(plans...)
	if err != nil {
		panic(err)
	}
	return c
}

// Find looks up a plan by name, ignoring case and surrounding whitespace.
func (c *Catalog) Find(name string) (Plan, bool) {
	idx, ok := c.byName[normalizeName(name)]
	if !ok {
		return Plan{}, false
	}
	return c.plans[idx].clone(), true
}

// Get is like Find but returns ErrPlanNotFound for unknown names.
func (c *Catalog) Get(name string) (Plan, error) {
	p, ok := c.Find(name)
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrPlanNotFound, name)
	}
	return p, nil
}

// All returns the plans in catalog order.
func (c *Catalog) All() []Plan {
	out := make([]Plan, len(c.plans))
	for i, p := range c.plans {
		out[i] = p.clone()
	}
	return out
}

// Len returns the number of plans.
func (c *Catalog) Len() int {
	return len(c.plans)
}

func (p Plan) clone() Plan {
	p.Features = append([]string(nil), p.Features...)
	return p
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
