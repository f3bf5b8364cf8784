package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/northpeakit/site/pkg/domain"
	"github.com/northpeakit/site/pkg/models"
	"github.com/northpeakit/site/pkg/stripeclient"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeConfig holds Stripe configuration
type StripeConfig struct {
	SecretKey         string
	APIURL            string
	MaxNetworkRetries int64
}

// StripeProcessor implements Processor with the Stripe API.
// A processor built without a secret key fails every call with a configuration error.
type StripeProcessor struct {
	api *client.API
}

// NewStripeProcessor creates a processor with its own injected Stripe client.
func NewStripeProcessor(cfg StripeConfig) *StripeProcessor {
	return &StripeProcessor{
		api: stripeclient.New(cfg.SecretKey, stripeclient.Options{
			APIURL:            cfg.APIURL,
			MaxNetworkRetries: cfg.MaxNetworkRetries,
		}),
	}
}

// Configured reports whether a secret key was supplied.
func (p *StripeProcessor) Configured() bool {
	return p != nil && p.api != nil
}

// CreatePaymentIntent creates a payment intent with automatic payment methods.
func (p *StripeProcessor) CreatePaymentIntent(ctx context.Context, params IntentParams) (*Intent, error) {
	if !p.Configured() {
		return nil, domain.NewConfigurationError("STRIPE_SECRET_KEY is not configured")
	}

	pi, err := p.api.PaymentIntents.New(buildIntentParams(ctx, params))
	if err != nil {
		return nil, translateStripeError("create payment intent", err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}, nil
}

// CalculateTax prices tax for a single exclusive line item at the given address.
func (p *StripeProcessor) CalculateTax(ctx context.Context, query TaxQuery) (*models.TaxDetails, error) {
	if !p.Configured() {
		return nil, domain.NewConfigurationError("STRIPE_SECRET_KEY is not configured")
	}

	calc, err := p.api.TaxCalculations.New(buildTaxParams(ctx, query))
	if err != nil {
		return nil, translateStripeError("calculate tax", err)
	}

	return &models.TaxDetails{
		CalculationID: calc.ID,
		AmountCents:   calc.TaxAmountExclusive,
		TotalCents:    calc.AmountTotal,
		Currency:      string(calc.Currency),
	}, nil
}

func buildIntentParams(ctx context.Context, in IntentParams) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.AmountCents),
		Currency: stripe.String(in.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Shipping: &stripe.ShippingDetailsParams{
			Name:    stripe.String(in.Shipping.Name),
			Address: addressParams(in.Shipping.Address),
		},
	}
	params.Context = ctx

	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.AutomaticTax {
		params.AddExtra("automatic_tax[enabled]", "true")
	}
	return params
}

func buildTaxParams(ctx context.Context, q TaxQuery) *stripe.TaxCalculationParams {
	params := &stripe.TaxCalculationParams{
		Currency: stripe.String(q.Currency),
		CustomerDetails: &stripe.TaxCalculationCustomerDetailsParams{
			Address:       addressParams(q.Address),
			AddressSource: stripe.String("shipping"),
		},
		LineItems: []*stripe.TaxCalculationLineItemParams{
			{
				Amount:      stripe.Int64(q.AmountCents),
				Reference:   stripe.String(q.Reference),
				TaxBehavior: stripe.String("exclusive"),
			},
		},
	}
	params.Context = ctx
	return params
}

// addressParams forwards every field, blank ones included, so the address
// element on the page can fill them in later.
func addressParams(a models.Address) *stripe.AddressParams {
	return &stripe.AddressParams{
		Line1:      stripe.String(a.Line1),
		Line2:      stripe.String(a.Line2),
		City:       stripe.String(a.City),
		State:      stripe.String(a.State),
		PostalCode: stripe.String(a.PostalCode),
		Country:    stripe.String(a.Country),
	}
}

// translateStripeError maps Stripe failures onto the domain taxonomy.
func translateStripeError(op string, err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return domain.NewUpstreamError(http.StatusInternalServerError, "Payment processor request failed", fmt.Errorf("%s: %w", op, err))
	}

	switch {
	case se.HTTPStatusCode == http.StatusUnauthorized || se.HTTPStatusCode == http.StatusForbidden:
		return domain.NewConfigurationError(fmt.Sprintf("stripe rejected credentials during %s: %s", op, se.Msg))
	case se.HTTPStatusCode == http.StatusTooManyRequests:
		return domain.NewUpstreamError(http.StatusServiceUnavailable, "The payment processor is busy. Please try again shortly.", se)
	case se.Type == stripe.ErrorTypeInvalidRequest, se.Type == stripe.ErrorTypeCard:
		return domain.NewUpstreamError(http.StatusBadRequest, messageOr(se.Msg, "The payment request was rejected"), se)
	default:
		return domain.NewUpstreamError(http.StatusInternalServerError, messageOr(se.Msg, "Payment processor request failed"), se)
	}
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
