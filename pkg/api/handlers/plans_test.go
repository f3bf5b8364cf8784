package handlers

import (
	"net/http"
	"testing"

	"github.com/northpeakit/site/pkg/plans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPlans(t *testing.T) {
	h := NewPlanHandler(plans.Default(), "usd")

	c, rec := newContext(http.MethodGet, "/api/plans", "")
	require.NoError(t, h.ListPlans(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody(t, rec)["plans"].([]interface{})
	require.Len(t, list, 3)
	first := list[0].(map[string]interface{})
	assert.Equal(t, "Basic", first["name"])
	assert.Equal(t, "99.00", first["monthlyPricePerSeat"])
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
		cents  float64
		errMsg string
	}{
		{name: "basic monthly", query: "plan=basic&employees=5&cycle=monthly", status: http.StatusOK, cents: 49500},
		{name: "basic annual", query: "plan=BASIC&employees=5&cycle=annual", status: http.StatusOK, cents: 534600},
		{name: "defaults", query: "plan=Premium", status: http.StatusOK, cents: 74500},
		{name: "unknown plan", query: "plan=Gold", status: http.StatusBadRequest, errMsg: MsgUnknownPlan},
		{name: "missing plan", query: "", status: http.StatusBadRequest, errMsg: MsgUnknownPlan},
		{name: "bad cycle", query: "plan=basic&cycle=weekly", status: http.StatusBadRequest, errMsg: MsgInvalidCycle},
		{name: "zero seats", query: "plan=basic&employees=0", status: http.StatusBadRequest, errMsg: MsgInvalidEmployeeNum},
		{name: "non-numeric seats", query: "plan=basic&employees=lots", status: http.StatusBadRequest, errMsg: MsgInvalidEmployeeNum},
	}

	h := NewPlanHandler(plans.Default(), "usd")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/api/checkout/quote?"+tt.query, "")
			require.NoError(t, h.Quote(c))

			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.cents, body["amountCents"])
				assert.Equal(t, "usd", body["currency"])
				return
			}
			assert.Equal(t, tt.errMsg, body["error"])
		})
	}
}
