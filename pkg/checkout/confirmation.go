package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

const (
	// GenericConfirmError is shown when confirmation fails without a processor message.
	GenericConfirmError = "An unexpected error occurred. Please try again."
	// IncompletePaymentError is shown when the processor leaves the payment unfinished.
	IncompletePaymentError = "Your payment was not successful. Please try again."
)

// PaymentElement is what the hosted payment form collected from the buyer.
type PaymentElement struct {
	PaymentMethodID string
}

// ConfirmRequest is sent to the processor to confirm an intent.
type ConfirmRequest struct {
	ClientSecret    string
	PaymentMethodID string
	ReturnURL       string
}

// ConfirmResponse is the processor's view of the intent after confirmation.
type ConfirmResponse struct {
	IntentID    string
	Status      string
	RedirectURL string
}

// ProcessorError is a decline or validation failure with a buyer-facing message.
type ProcessorError struct {
	Message     string
	Code        string
	DeclineCode string
}

func (e *ProcessorError) Error() string {
	return e.Message
}

// Confirmer confirms payment intents with the processor.
type Confirmer interface {
	ConfirmPayment(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error)
}

// Outcome is what the form shows after a confirmation attempt.
type Outcome struct {
	Succeeded    bool
	IntentID     string
	Status       string
	RedirectURL  string
	ErrorMessage string
}

// Confirmation confirms one intent at a time and reports success once.
type Confirmation struct {
	confirmer Confirmer
	returnURL string
	inFlight  atomic.Bool
	succeeded atomic.Bool
}

// NewConfirmation creates an adapter that sends buyers needing a redirect back to returnURL.
func NewConfirmation(confirmer Confirmer, returnURL string) *Confirmation {
	return &Confirmation{confirmer: confirmer, returnURL: returnURL}
}

// InFlight reports whether the submit control should be disabled.
func (c *Confirmation) InFlight() bool {
	return c.inFlight.Load()
}

// Confirm confirms the intent behind clientSecret. onSuccess runs at most once
// over the adapter's lifetime. Processor declines come back as an Outcome with
// ErrorMessage set, not as an error.
func (c *Confirmation) Confirm(ctx context.Context, clientSecret string, element PaymentElement, onSuccess func(Outcome)) (Outcome, error) {
	if c.succeeded.Load() {
		return Outcome{}, ErrCheckoutComplete
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return Outcome{}, ErrConfirmationInFlight
	}
	defer c.inFlight.Store(false)

	resp, err := c.confirmer.ConfirmPayment(ctx, ConfirmRequest{
		ClientSecret:    clientSecret,
		PaymentMethodID: element.PaymentMethodID,
		ReturnURL:       c.returnURL,
	})
	if err != nil {
		var pe *ProcessorError
		if errors.As(err, &pe) && strings.TrimSpace(pe.Message) != "" {
			return Outcome{ErrorMessage: pe.Message}, nil
		}
		return Outcome{ErrorMessage: GenericConfirmError}, nil
	}

	out := Outcome{IntentID: resp.IntentID, Status: resp.Status}
	switch {
	case isSuccessStatus(resp.Status):
		if !c.succeeded.CompareAndSwap(false, true) {
			return Outcome{}, ErrCheckoutComplete
		}
		out.Succeeded = true
		if onSuccess != nil {
			onSuccess(out)
		}
	case resp.RedirectURL != "":
		out.RedirectURL = resp.RedirectURL
	default:
		out.ErrorMessage = IncompletePaymentError
	}
	return out, nil
}

// CompleteRedirect reports the status a redirect came back with. It shares
// the once-only success guarantee with Confirm.
func (c *Confirmation) CompleteRedirect(intentID, status string, onSuccess func(Outcome)) (Outcome, error) {
	out := Outcome{IntentID: intentID, Status: status}
	switch {
	case isSuccessStatus(status):
		if !c.succeeded.CompareAndSwap(false, true) {
			return Outcome{}, ErrCheckoutComplete
		}
		out.Succeeded = true
		if onSuccess != nil {
			onSuccess(out)
		}
	case status == "failed" || status == "requires_payment_method" || status == "canceled":
		out.ErrorMessage = IncompletePaymentError
	default:
		return out, fmt.Errorf("%w: redirect status %q", ErrRedirectPending, status)
	}
	return out, nil
}

func isSuccessStatus(status string) bool {
	switch status {
	case "succeeded", "processing", "requires_capture":
		return true
	}
	return false
}
