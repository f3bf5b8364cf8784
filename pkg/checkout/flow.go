package checkout

import (
	"context"
	"errors"
	"net/url"

	"github.com/northpeakit/site/pkg/logger"
)

const (
	// MsgIntentUnavailable is shown when the intent request fails without a server message.
	MsgIntentUnavailable = "We couldn't start your payment. Please try again."
	// MsgRedirectPending is shown while the buyer completes the payment on another page.
	MsgRedirectPending = "Complete the payment in the page that opened, then return here."
)

// Flow runs the network side effects of a Session in order: intent request,
// then confirmation, or onboarding submission for invoice checkouts.
type Flow struct {
	session      *Session
	backend      Backend
	confirmation *Confirmation
	log          logger.Logger
}

// NewFlow wires a session to its backend and confirmation adapter.
func NewFlow(session *Session, backend Backend, confirmation *Confirmation, log logger.Logger) *Flow {
	if log == nil {
		log = logger.Default()
	}
	return &Flow{
		session:      session,
		backend:      backend,
		confirmation: confirmation,
		log:          log.With("component", "checkout", "session_id", session.ID()),
	}
}

// Session returns the underlying state machine.
func (f *Flow) Session() *Session {
	return f.session
}

// PrepareIntent requests a payment intent for the current amount.
func (f *Flow) PrepareIntent(ctx context.Context) error {
	req, err := f.session.BeginPaymentIntent()
	if err != nil {
		return err
	}

	resp, err := f.backend.CreatePaymentIntent(ctx, req)
	if err != nil {
		f.log.Warn("payment intent request failed", "error", err)
		f.session.FailPaymentIntent(userMessage(err, MsgIntentUnavailable))
		return err
	}

	if err := f.session.AttachIntent(resp); err != nil {
		f.log.Info("payment intent discarded", "error", err)
		return err
	}
	return nil
}

// Pay confirms the held intent with what the payment element collected.
// onSuccess runs exactly once when the payment goes through.
func (f *Flow) Pay(ctx context.Context, element PaymentElement, onSuccess func(Outcome)) (Outcome, error) {
	if f.confirmation.InFlight() {
		return Outcome{}, ErrConfirmationInFlight
	}

	intent, err := f.session.BeginConfirmation()
	if err != nil {
		return Outcome{}, err
	}

	out, err := f.confirmation.Confirm(ctx, intent.ClientSecret, element, onSuccess)
	if err != nil {
		f.session.Resolve(err, GenericConfirmError)
		return out, err
	}

	switch {
	case out.Succeeded:
		f.log.Info("payment confirmed", "intent_id", out.IntentID, "status", out.Status, "amount_cents", intent.AmountCents)
		f.session.Resolve(nil, "")
	case out.RedirectURL != "":
		f.log.Info("payment requires redirect", "intent_id", out.IntentID)
		f.session.AwaitRedirect(MsgRedirectPending)
	default:
		f.log.Info("payment not confirmed", "intent_id", out.IntentID, "message", out.ErrorMessage)
		f.session.Resolve(errors.New(out.ErrorMessage), out.ErrorMessage)
	}
	return out, nil
}

// SubmitInvoice posts an invoice checkout to onboarding. No processor call is made.
func (f *Flow) SubmitInvoice(ctx context.Context) error {
	payload, err := f.session.BeginInvoice()
	if err != nil {
		return err
	}

	if err := f.backend.SubmitOnboarding(ctx, payload); err != nil {
		f.log.Warn("invoice submission failed", "error", err)
		f.session.Resolve(err, userMessage(err, "We couldn't submit your order. Please try again."))
		return err
	}

	f.session.Resolve(nil, "")
	return nil
}

// CompleteRedirect resolves a payment the buyer finished on an external page.
// query is the return URL's query: payment_intent, payment_intent_client_secret
// and redirect_status as appended by the processor.
func (f *Flow) CompleteRedirect(query url.Values, onSuccess func(Outcome)) (Outcome, error) {
	secret := query.Get("payment_intent_client_secret")
	if secret == "" || secret != f.session.HeldClientSecret() {
		return Outcome{}, ErrStaleIntent
	}

	out, err := f.confirmation.CompleteRedirect(query.Get("payment_intent"), query.Get("redirect_status"), onSuccess)
	if err != nil {
		f.log.Info("redirect outcome not final", "intent_id", out.IntentID, "status", out.Status)
		return out, err
	}

	if err := f.session.ResolveRedirect(secret, out.Succeeded, out.ErrorMessage); err != nil {
		return out, err
	}
	f.log.Info("redirect resolved", "intent_id", out.IntentID, "status", out.Status, "succeeded", out.Succeeded)
	return out, nil
}

func userMessage(err error, fallback string) string {
	var re *RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return fallback
}
