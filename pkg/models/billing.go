package models

import "encoding/json"

// CreatePaymentIntentRequest is the wire body of POST /api/stripe/create-payment-intent.
// Amount stays raw so that missing, string and non-numeric values can be told apart.
type CreatePaymentIntentRequest struct {
	Amount   json.RawMessage        `json:"amount"`
	Currency string                 `json:"currency,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Address  *Address               `json:"address,omitempty"`
}

// Address is a postal address used for tax jurisdiction and shipping.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
}

// TaxDetails is the tax computed for an intent's amount.
type TaxDetails struct {
	CalculationID string `json:"calculationId"`
	AmountCents   int64  `json:"taxAmount"`
	TotalCents    int64  `json:"totalAmount"`
	Currency      string `json:"currency"`
}

// PaymentIntentResponse is the success body of POST /api/stripe/create-payment-intent.
type PaymentIntentResponse struct {
	ClientSecret string      `json:"clientSecret"`
	Tax          *TaxDetails `json:"tax,omitempty"`
}

// StripeConfigResponse exposes the publishable key to the browser.
type StripeConfigResponse struct {
	PublishableKey string `json:"publishableKey"`
}
