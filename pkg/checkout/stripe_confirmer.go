package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/northpeakit/site/pkg/stripeclient"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrMissingPublishableKey is returned when no publishable key was configured.
var ErrMissingPublishableKey = errors.New("stripe publishable key is not configured")

// StripeConfirmer confirms intents with a publishable key and the intent's client secret.
type StripeConfirmer struct {
	api *client.API
}

// NewStripeConfirmer builds a confirmer on its own Stripe client. apiURL may be empty.
func NewStripeConfirmer(publishableKey, apiURL string) *StripeConfirmer {
	return &StripeConfirmer{
		api: stripeclient.New(publishableKey, stripeclient.Options{APIURL: apiURL}),
	}
}

// ConfirmPayment implements Confirmer.
func (c *StripeConfirmer) ConfirmPayment(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	if c.api == nil {
		return nil, ErrMissingPublishableKey
	}

	id, err := IntentIDFromSecret(req.ClientSecret)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	params.AddExtra("client_secret", req.ClientSecret)
	if req.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethodID)
	}
	if req.ReturnURL != "" {
		params.ReturnURL = stripe.String(req.ReturnURL)
	}

	pi, err := c.api.PaymentIntents.Confirm(id, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) {
			return nil, &ProcessorError{
				Message:     se.Msg,
				Code:        string(se.Code),
				DeclineCode: string(se.DeclineCode),
			}
		}
		return nil, fmt.Errorf("confirm payment intent: %w", err)
	}

	resp := &ConfirmResponse{IntentID: pi.ID, Status: string(pi.Status)}
	if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil {
		resp.RedirectURL = pi.NextAction.RedirectToURL.URL
	}
	return resp, nil
}

// IntentIDFromSecret extracts "pi_123" from "pi_123_secret_abc".
func IntentIDFromSecret(secret string) (string, error) {
	i := strings.Index(secret, "_secret_")
	if i <= 0 {
		return "", fmt.Errorf("malformed client secret")
	}
	return secret[:i], nil
}
