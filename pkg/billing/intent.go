package billing

import (
	"context"

	"github.com/northpeakit/site/pkg/models"
)

// PaymentIntentRequest is a validated request to create a payment intent.
// Tax is non-nil exactly when the caller supplied an address.
type PaymentIntentRequest struct {
	AmountCents int64
	Currency    string
	Metadata    map[string]string
	Tax         *TaxContext
}

// TaxContext carries the jurisdiction used for tax calculation.
type TaxContext struct {
	Address models.Address
}

// ShippingDetails is forwarded to the processor with every intent.
type ShippingDetails struct {
	Name    string
	Address models.Address
}

// IntentParams is what the processor is asked to create.
type IntentParams struct {
	AmountCents  int64
	Currency     string
	Metadata     map[string]string
	AutomaticTax bool
	Shipping     ShippingDetails
}

// TaxQuery asks the processor to price tax on an amount.
type TaxQuery struct {
	AmountCents int64
	Currency    string
	Address     models.Address
	Reference   string
}

// Intent is the processor-side object referenced by its client secret.
type Intent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string
	Status       string
}

// Processor creates payment intents and calculates tax.
// Implementations return domain errors for configuration and upstream failures.
type Processor interface {
	CreatePaymentIntent(ctx context.Context, params IntentParams) (*Intent, error)
	CalculateTax(ctx context.Context, query TaxQuery) (*models.TaxDetails, error)
}

// IntentRecorder receives business metrics for intent creation.
type IntentRecorder interface {
	RecordPaymentIntent(withTax bool)
	RecordPaymentIntentFailure(reason string)
}
