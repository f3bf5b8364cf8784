package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/models"
	"github.com/northpeakit/site/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	intentReqs  []models.CreatePaymentIntentRequest
	onboardings []map[string]any
	intentErr   error
	onboardErr  error
}

func (b *fakeBackend) CreatePaymentIntent(ctx context.Context, req models.CreatePaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	b.intentReqs = append(b.intentReqs, req)
	if b.intentErr != nil {
		return nil, b.intentErr
	}
	return &models.PaymentIntentResponse{ClientSecret: "pi_1_secret_a"}, nil
}

func (b *fakeBackend) SubmitOnboarding(ctx context.Context, payload map[string]any) error {
	b.onboardings = append(b.onboardings, payload)
	return b.onboardErr
}

func TestFlow_CardPayment(t *testing.T) {
	backend := &fakeBackend{}
	fc := &fakeConfirmer{}
	f := NewFlow(newReadySession(t), backend, NewConfirmation(fc, ""), logger.Discard())

	require.NoError(t, f.PrepareIntent(context.Background()))
	require.Len(t, backend.intentReqs, 1)

	successes := 0
	out, err := f.Pay(context.Background(), PaymentElement{PaymentMethodID: "pm_card_visa"}, func(Outcome) { successes++ })
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.Equal(t, 1, successes)
	assert.Equal(t, StateSucceeded, f.Session().View().State)
}

func TestFlow_PayBeforeIntent(t *testing.T) {
	fc := &fakeConfirmer{}
	f := NewFlow(newReadySession(t), &fakeBackend{}, NewConfirmation(fc, ""), logger.Discard())

	_, err := f.Pay(context.Background(), PaymentElement{}, nil)
	assert.ErrorIs(t, err, ErrNoIntent)
	assert.Empty(t, fc.calls)
}

func TestFlow_StaleIntentIsNeverConfirmed(t *testing.T) {
	backend := &fakeBackend{}
	fc := &fakeConfirmer{}
	f := NewFlow(newReadySession(t), backend, NewConfirmation(fc, ""), logger.Discard())

	require.NoError(t, f.PrepareIntent(context.Background()))
	require.NoError(t, f.Session().SetEmployeeCount(20))

	_, err := f.Pay(context.Background(), PaymentElement{}, nil)
	assert.ErrorIs(t, err, ErrNoIntent)
	assert.Empty(t, fc.calls)

	require.NoError(t, f.PrepareIntent(context.Background()))
	require.Len(t, backend.intentReqs, 2)
	assert.Equal(t, "198000", string(backend.intentReqs[1].Amount))
}

func TestFlow_DeclineThenRetry(t *testing.T) {
	backend := &fakeBackend{}
	fc := &fakeConfirmer{err: &ProcessorError{Message: "Your card was declined"}}
	f := NewFlow(newReadySession(t), backend, NewConfirmation(fc, ""), logger.Discard())

	require.NoError(t, f.PrepareIntent(context.Background()))
	out, err := f.Pay(context.Background(), PaymentElement{}, func(Outcome) { t.Fatal("unexpected success") })
	require.NoError(t, err)
	assert.Equal(t, "Your card was declined", out.ErrorMessage)

	v := f.Session().View()
	assert.Equal(t, StateFailed, v.State)
	assert.Equal(t, "Your card was declined", v.Error)

	fc.err = nil
	require.NoError(t, f.PrepareIntent(context.Background()))
	out, err = f.Pay(context.Background(), PaymentElement{}, nil)
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.Len(t, backend.intentReqs, 2)
}

func TestFlow_IntentRequestErrorShowsServerMessage(t *testing.T) {
	backend := &fakeBackend{intentErr: &RequestError{StatusCode: http.StatusBadRequest, Message: "A valid amount is required"}}
	f := NewFlow(newReadySession(t), backend, NewConfirmation(&fakeConfirmer{}, ""), logger.Discard())

	err := f.PrepareIntent(context.Background())
	require.Error(t, err)

	v := f.Session().View()
	assert.Equal(t, StateFailed, v.State)
	assert.Equal(t, "A valid amount is required", v.Error)
}

func TestFlow_Invoice(t *testing.T) {
	backend := &fakeBackend{}
	fc := &fakeConfirmer{}
	s := newReadySession(t)
	require.NoError(t, s.SetPaymentMethod(PaymentMethodInvoice))
	f := NewFlow(s, backend, NewConfirmation(fc, ""), logger.Discard())

	require.NoError(t, f.SubmitInvoice(context.Background()))
	assert.Empty(t, fc.calls)
	assert.Empty(t, backend.intentReqs)
	require.Len(t, backend.onboardings, 1)
	assert.Equal(t, "invoice", backend.onboardings[0]["paymentMethod"])
	assert.Equal(t, StateSucceeded, s.View().State)
}

func TestClient_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stripe/create-payment-intent", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "A valid amount is required"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreatePaymentIntent(context.Background(), models.CreatePaymentIntentRequest{})
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.StatusCode)
	assert.Equal(t, "A valid amount is required", re.Message)
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream timeout", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).SubmitOnboarding(context.Background(), map[string]any{"a": 1})
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), re.Message)
}

func TestFlow_RedirectHoldsIntentUntilOutcome(t *testing.T) {
	backend := &fakeBackend{}
	fc := &fakeConfirmer{resp: &ConfirmResponse{IntentID: "pi_1", Status: "requires_action", RedirectURL: "https://bank.example/3ds"}}
	f := NewFlow(newReadySession(t), backend, NewConfirmation(fc, "https://example.com/return"), logger.Discard())

	require.NoError(t, f.PrepareIntent(context.Background()))
	out, err := f.Pay(context.Background(), PaymentElement{PaymentMethodID: "pm_card_threeDSecure2Required"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://bank.example/3ds", out.RedirectURL)

	v := f.Session().View()
	assert.Equal(t, StateAwaitingRedirect, v.State)
	assert.Equal(t, MsgRedirectPending, v.Error)

	// Resubmitting while the redirect is open must not create a second intent.
	assert.ErrorIs(t, f.PrepareIntent(context.Background()), ErrRedirectPending)
	_, err = f.Pay(context.Background(), PaymentElement{}, nil)
	assert.ErrorIs(t, err, ErrRedirectPending)
	assert.Len(t, backend.intentReqs, 1)
	assert.Len(t, fc.calls, 1)

	successes := 0
	out, err = f.CompleteRedirect(url.Values{
		"payment_intent":               {"pi_1"},
		"payment_intent_client_secret": {"pi_1_secret_a"},
		"redirect_status":              {"succeeded"},
	}, func(Outcome) { successes++ })
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.Equal(t, 1, successes)
	assert.Equal(t, StateSucceeded, f.Session().View().State)
}

func TestFlow_CompleteRedirectChecksSecretAndStatus(t *testing.T) {
	fc := &fakeConfirmer{resp: &ConfirmResponse{IntentID: "pi_1", Status: "requires_action", RedirectURL: "https://bank.example/3ds"}}
	f := NewFlow(newReadySession(t), &fakeBackend{}, NewConfirmation(fc, ""), logger.Discard())

	require.NoError(t, f.PrepareIntent(context.Background()))
	_, err := f.Pay(context.Background(), PaymentElement{}, nil)
	require.NoError(t, err)

	_, err = f.CompleteRedirect(url.Values{"payment_intent_client_secret": {"pi_9_secret_z"}, "redirect_status": {"succeeded"}}, nil)
	assert.ErrorIs(t, err, ErrStaleIntent)

	_, err = f.CompleteRedirect(url.Values{"payment_intent_client_secret": {"pi_1_secret_a"}, "redirect_status": {"requires_action"}}, nil)
	assert.ErrorIs(t, err, ErrRedirectPending)
	assert.Equal(t, StateAwaitingRedirect, f.Session().View().State)

	out, err := f.CompleteRedirect(url.Values{"payment_intent_client_secret": {"pi_1_secret_a"}, "redirect_status": {"failed"}}, func(Outcome) { t.Fatal("unexpected success") })
	require.NoError(t, err)
	assert.Equal(t, IncompletePaymentError, out.ErrorMessage)
	assert.Equal(t, StateFailed, f.Session().View().State)
}

func TestFlow_AmountAboveChargeLimitNeverRequestsIntent(t *testing.T) {
	backend := &fakeBackend{}
	s := newReadySession(t)
	require.NoError(t, s.SelectPlan("Enterprise"))
	require.NoError(t, s.SetBillingCycle(pricing.Annual))
	require.NoError(t, s.SetEmployeeCount(500))

	f := NewFlow(s, backend, NewConfirmation(&fakeConfirmer{}, ""), logger.Discard())
	assert.ErrorIs(t, f.PrepareIntent(context.Background()), ErrAmountTooLarge)
	assert.Empty(t, backend.intentReqs)
	assert.Equal(t, MsgAmountTooLarge, s.View().Error)
}
