package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/northpeakit/site/config"
	"github.com/northpeakit/site/pkg/billing"
	"github.com/northpeakit/site/pkg/cache"
	"github.com/northpeakit/site/pkg/checkout"
	"github.com/northpeakit/site/pkg/container"
	"github.com/northpeakit/site/pkg/crm"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/metrics"
	"github.com/northpeakit/site/pkg/models"
	"github.com/northpeakit/site/pkg/plans"
	"github.com/northpeakit/site/pkg/pricing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProcessor is an in-memory payment processor.
type recordingProcessor struct {
	mu      sync.Mutex
	intents []billing.IntentParams
}

func (p *recordingProcessor) CreatePaymentIntent(ctx context.Context, params billing.IntentParams) (*billing.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents = append(p.intents, params)
	return &billing.Intent{ID: "pi_e2e", ClientSecret: "pi_e2e_secret_1", AmountCents: params.AmountCents, Currency: params.Currency}, nil
}

func (p *recordingProcessor) CalculateTax(ctx context.Context, q billing.TaxQuery) (*models.TaxDetails, error) {
	return &models.TaxDetails{CalculationID: "taxcalc_e2e", AmountCents: 4389, TotalCents: q.AmountCents + 4389, Currency: q.Currency}, nil
}

func (p *recordingProcessor) amounts() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int64, 0, len(p.intents))
	for _, in := range p.intents {
		out = append(out, in.AmountCents)
	}
	return out
}

type okConfirmer struct{ secrets []string }

func (c *okConfirmer) ConfirmPayment(ctx context.Context, req checkout.ConfirmRequest) (*checkout.ConfirmResponse, error) {
	c.secrets = append(c.secrets, req.ClientSecret)
	return &checkout.ConfirmResponse{IntentID: "pi_e2e", Status: "succeeded"}, nil
}

type memoryStore struct{ contacts []crm.Contact }

func (s *memoryStore) CreateContact(ctx context.Context, c crm.Contact) (*crm.Record, error) {
	s.contacts = append(s.contacts, c)
	return &crm.Record{ID: "1"}, nil
}

type testServer struct {
	url       string
	processor *recordingProcessor
	store     *memoryStore
	registry  *prometheus.Registry
}

func newTestServer(t *testing.T, mutate func(*config.Config), opts ...container.Option) *testServer {
	t.Helper()

	cfg := config.Load()
	cfg.StripePublishableKey = "pk_test_e2e"
	cfg.DefaultCurrency = "usd"
	cfg.RateLimitRequestsPerMinute = 6000
	cfg.RateLimitBurst = 1000
	cfg.RedisURL = ""
	if mutate != nil {
		mutate(cfg)
	}

	ts := &testServer{
		processor: &recordingProcessor{},
		store:     &memoryStore{},
		registry:  prometheus.NewRegistry(),
	}

	opts = append([]container.Option{
		container.WithProcessor(ts.processor),
		container.WithContactStore(ts.store),
	}, opts...)
	c := container.New(cfg, logger.Discard(), metrics.NewWithRegistry(ts.registry), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	e := NewServer(ctx, c, ServerOptions{
		MetricsHandler: promhttp.HandlerFor(ts.registry, promhttp.HandlerOpts{}),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	ts.url = srv.URL
	return ts
}

func readyCustomer() checkout.Customer {
	return checkout.Customer{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
		CompanyName: "Analytical Engines",
		Phone:       "+12025550143",
		Address:     "1 Main St",
		City:        "New York",
		State:       "NY",
		Zip:         "10001",
		Country:     "US",
	}
}

func TestCheckout_CardPaymentEndToEnd(t *testing.T) {
	ts := newTestServer(t, nil)
	client := checkout.NewClient(ts.url)

	session := checkout.NewSession(plans.Default(), "usd")
	require.True(t, session.SelectPlanFromQuery(url.Values{"plan": {"BASIC"}}))
	require.NoError(t, session.SetEmployeeCount(5))
	require.NoError(t, session.SetBillingCycle(pricing.Annual))
	require.NoError(t, session.SetCustomer(readyCustomer()))

	confirmer := &okConfirmer{}
	flow := checkout.NewFlow(session, client, checkout.NewConfirmation(confirmer, ""), logger.Discard())

	require.NoError(t, flow.PrepareIntent(context.Background()))
	assert.Equal(t, []int64{534600}, ts.processor.amounts())
	assert.True(t, ts.processor.intents[0].AutomaticTax)
	assert.Equal(t, "taxcalc_e2e", ts.processor.intents[0].Metadata["tax_calculation_id"])

	succeeded := 0
	out, err := flow.Pay(context.Background(), checkout.PaymentElement{PaymentMethodID: "pm_card_visa"}, func(checkout.Outcome) { succeeded++ })
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, []string{"pi_e2e_secret_1"}, confirmer.secrets)
	assert.Equal(t, checkout.StateSucceeded, session.View().State)
}

func TestCheckout_SeatChangeRequiresNewIntent(t *testing.T) {
	ts := newTestServer(t, nil)
	session := checkout.NewSession(plans.Default(), "usd")
	require.NoError(t, session.SelectPlan("premium"))
	require.NoError(t, session.SetCustomer(readyCustomer()))

	confirmer := &okConfirmer{}
	flow := checkout.NewFlow(session, checkout.NewClient(ts.url), checkout.NewConfirmation(confirmer, ""), logger.Discard())

	require.NoError(t, flow.PrepareIntent(context.Background()))
	require.NoError(t, session.SetEmployeeCount(8))

	_, err := flow.Pay(context.Background(), checkout.PaymentElement{}, nil)
	assert.ErrorIs(t, err, checkout.ErrNoIntent)
	assert.Empty(t, confirmer.secrets)

	require.NoError(t, flow.PrepareIntent(context.Background()))
	assert.Equal(t, []int64{74500, 119200}, ts.processor.amounts())
}

func TestCheckout_InvoiceGoesToOnboarding(t *testing.T) {
	ts := newTestServer(t, nil)
	session := checkout.NewSession(plans.Default(), "usd")
	require.NoError(t, session.SelectPlan("Enterprise"))
	require.NoError(t, session.SetPaymentMethod(checkout.PaymentMethodInvoice))
	require.NoError(t, session.SetCustomer(readyCustomer()))

	flow := checkout.NewFlow(session, checkout.NewClient(ts.url), checkout.NewConfirmation(&okConfirmer{}, ""), logger.Discard())
	require.NoError(t, flow.SubmitInvoice(context.Background()))

	assert.Equal(t, checkout.StateSucceeded, session.View().State)
	assert.Empty(t, ts.processor.amounts(), "invoice checkout never creates an intent")
}

func TestServer_InvalidAmountNeverReachesProcessor(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Post(ts.url+"/api/stripe/create-payment-intent", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, ts.processor.amounts())
}

func TestServer_ChargeLimitBoundary(t *testing.T) {
	ts := newTestServer(t, nil)
	client := checkout.NewClient(ts.url)

	_, err := client.CreatePaymentIntent(context.Background(), models.CreatePaymentIntentRequest{Amount: []byte("99999999")})
	require.NoError(t, err)

	_, err = client.CreatePaymentIntent(context.Background(), models.CreatePaymentIntentRequest{Amount: []byte("107460000")})
	var re *checkout.RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.StatusCode)
	assert.Equal(t, billing.MsgAmountTooLarge, re.Message)
	assert.Equal(t, []int64{99999999}, ts.processor.amounts())

	// The checkout refuses the same order before calling the server.
	session := checkout.NewSession(plans.Default(), "usd")
	require.NoError(t, session.SelectPlan("Enterprise"))
	require.NoError(t, session.SetBillingCycle(pricing.Annual))
	require.NoError(t, session.SetEmployeeCount(500))
	require.NoError(t, session.SetCustomer(readyCustomer()))
	flow := checkout.NewFlow(session, client, checkout.NewConfirmation(&okConfirmer{}, ""), logger.Discard())
	assert.ErrorIs(t, flow.PrepareIntent(context.Background()), checkout.ErrAmountTooLarge)
	assert.Len(t, ts.processor.amounts(), 1)
}

func TestServer_IntentBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ts := newTestServer(t, func(cfg *config.Config) { cfg.IntentBudgetPerMinute = 2 }, container.WithCache(cache.NewFromRedis(rdb)))
	client := checkout.NewClient(ts.url)
	req := models.CreatePaymentIntentRequest{Amount: []byte("1000")}

	for i := 0; i < 2; i++ {
		_, err := client.CreatePaymentIntent(context.Background(), req)
		require.NoError(t, err)
	}

	_, err := client.CreatePaymentIntent(context.Background(), req)
	var re *checkout.RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusTooManyRequests, re.StatusCode)
	assert.Len(t, ts.processor.amounts(), 2)
}

func TestServer_ContactAndOperationalEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Post(ts.url+"/api/contact", "application/json",
		strings.NewReader(`{"name":"Ada Lovelace","email":"ada@example.com","phone":"202-555-0143"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, ts.store.contacts, 1)

	cfgResp, err := checkout.NewClient(ts.url).StripeConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pk_test_e2e", cfgResp.PublishableKey)

	resp, err = http.Get(ts.url + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "js.stripe.com")

	resp, err = http.Get(ts.url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(ts.url + "/api/nope")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
	assert.Equal(t, "application/json", strings.Split(resp2.Header.Get("Content-Type"), ";")[0])
}
