package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/northpeakit/site/pkg/domain"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/models"
	"github.com/northpeakit/site/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	intentCalls []IntentParams
	taxCalls    []TaxQuery

	intent    *Intent
	intentErr error
	tax       *models.TaxDetails
	taxErr    error
}

func (f *fakeProcessor) CreatePaymentIntent(ctx context.Context, params IntentParams) (*Intent, error) {
	f.intentCalls = append(f.intentCalls, params)
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	if f.intent != nil {
		return f.intent, nil
	}
	return &Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x", AmountCents: params.AmountCents, Currency: params.Currency}, nil
}

func (f *fakeProcessor) CalculateTax(ctx context.Context, query TaxQuery) (*models.TaxDetails, error) {
	f.taxCalls = append(f.taxCalls, query)
	if f.taxErr != nil {
		return nil, f.taxErr
	}
	if f.tax != nil {
		return f.tax, nil
	}
	return &models.TaxDetails{CalculationID: "taxcalc_1", AmountCents: 89, TotalCents: query.AmountCents + 89, Currency: query.Currency}, nil
}

type fakeRecorder struct {
	created  []bool
	failures []string
}

func (r *fakeRecorder) RecordPaymentIntent(withTax bool)         { r.created = append(r.created, withTax) }
func (r *fakeRecorder) RecordPaymentIntentFailure(reason string) { r.failures = append(r.failures, reason) }

func newTestService(p Processor) *Service {
	return NewService(p, ServiceConfig{}, logger.Discard())
}

func parse(t *testing.T, svc *Service, body string) (*PaymentIntentRequest, error) {
	t.Helper()
	var req models.CreatePaymentIntentRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return svc.ParseRequest(req)
}

func TestParseRequest_MissingAmount(t *testing.T) {
	svc := newTestService(&fakeProcessor{})

	for _, body := range []string{`{}`, `{"amount":null}`, `{"amount":"abc"}`, `{"amount":0}`, `{"amount":-5}`, `{"amount":10.5}`, `{"amount":true}`} {
		_, err := parse(t, svc, body)
		require.Error(t, err, body)
		assert.True(t, domain.IsValidation(err), body)

		de, _ := domain.AsDomainError(err)
		assert.Equal(t, MsgInvalidAmount, de.Message, body)
		assert.Equal(t, http.StatusBadRequest, de.Status, body)
	}
}

func TestParseRequest_AmountAboveChargeLimit(t *testing.T) {
	svc := newTestService(&fakeProcessor{})

	req, err := parse(t, svc, `{"amount":99999999}`)
	require.NoError(t, err)
	assert.Equal(t, pricing.MaxChargeCents, req.AmountCents)

	for _, body := range []string{`{"amount":100000000}`, `{"amount":"107460000"}`, `{"amount":"99999999999999999999999"}`} {
		_, err := parse(t, svc, body)
		de, ok := domain.AsDomainError(err)
		require.True(t, ok, body)
		assert.Equal(t, MsgAmountTooLarge, de.Message, body)
		assert.Equal(t, http.StatusBadRequest, de.Status, body)
	}
}

func TestParseRequest_Defaults(t *testing.T) {
	svc := newTestService(&fakeProcessor{})

	req, err := parse(t, svc, `{"amount":49500,"metadata":{"plan":"Basic","employeeCount":5}}`)
	require.NoError(t, err)
	assert.Equal(t, int64(49500), req.AmountCents)
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, "Basic", req.Metadata["plan"])
	assert.Equal(t, "5", req.Metadata["employeeCount"])
	assert.Nil(t, req.Tax)
}

func TestParseRequest_NumericString(t *testing.T) {
	svc := newTestService(&fakeProcessor{})

	req, err := parse(t, svc, `{"amount":"1000","currency":"EUR"}`)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), req.AmountCents)
	assert.Equal(t, "eur", req.Currency)
}

func TestParseRequest_InvalidCurrency(t *testing.T) {
	svc := newTestService(&fakeProcessor{})

	_, err := parse(t, svc, `{"amount":1000,"currency":"dollars"}`)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestParseRequest_AddressBecomesTaxContext(t *testing.T) {
	svc := newTestService(&fakeProcessor{})

	req, err := parse(t, svc, `{"amount":1000,"address":{"country":" us ","postal_code":"10001"}}`)
	require.NoError(t, err)
	require.NotNil(t, req.Tax)
	assert.Equal(t, "US", req.Tax.Address.Country)
	assert.Equal(t, "10001", req.Tax.Address.PostalCode)
}

func TestParseRequest_AddressWithoutCountry(t *testing.T) {
	svc := newTestService(&fakeProcessor{})

	_, err := parse(t, svc, `{"amount":1000,"address":{"postal_code":"10001"}}`)
	require.Error(t, err)
	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, MsgInvalidAddress, de.Message)
}

func TestParseRequest_MetadataLimits(t *testing.T) {
	svc := newTestService(&fakeProcessor{})

	_, err := parse(t, svc, `{"amount":1000,"metadata":{"this_key_is_far_too_long_for_the_processor_limit":"x"}}`)
	assert.True(t, domain.IsValidation(err))
}

func TestCreatePaymentIntent_WithoutAddress(t *testing.T) {
	proc := &fakeProcessor{}
	svc := newTestService(proc)
	rec := &fakeRecorder{}
	svc.SetMetrics(rec)

	resp, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		AmountCents: 1000,
		Currency:    "usd",
		Metadata:    map[string]string{"plan": "Basic"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret_x", resp.ClientSecret)
	assert.Nil(t, resp.Tax)

	assert.Empty(t, proc.taxCalls)
	require.Len(t, proc.intentCalls, 1)
	call := proc.intentCalls[0]
	assert.False(t, call.AutomaticTax)
	assert.Equal(t, DefaultShippingName, call.Shipping.Name)
	assert.Equal(t, models.Address{}, call.Shipping.Address)
	assert.Equal(t, []bool{false}, rec.created)
}

func TestCreatePaymentIntent_WithAddress(t *testing.T) {
	proc := &fakeProcessor{}
	svc := newTestService(proc)

	addr := models.Address{Country: "US", PostalCode: "10001", City: "New York", State: "NY", Line1: "1 Main St"}
	resp, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		AmountCents: 1000,
		Currency:    "usd",
		Metadata:    map[string]string{"customer_name": "Ada Lovelace", "plan": "Premium", "billing_cycle": "annual"},
		Tax:         &TaxContext{Address: addr},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Tax)
	assert.Equal(t, int64(89), resp.Tax.AmountCents)

	require.Len(t, proc.taxCalls, 1)
	assert.Equal(t, "subscription-premium-annual", proc.taxCalls[0].Reference)

	require.Len(t, proc.intentCalls, 1)
	call := proc.intentCalls[0]
	assert.True(t, call.AutomaticTax)
	assert.Equal(t, int64(1000), call.AmountCents)
	assert.Equal(t, "Ada Lovelace", call.Shipping.Name)
	assert.Equal(t, addr, call.Shipping.Address)
	assert.Equal(t, "taxcalc_1", call.Metadata["tax_calculation_id"])
}

func TestCreatePaymentIntent_DoesNotMutateCallerMetadata(t *testing.T) {
	svc := newTestService(&fakeProcessor{})
	meta := map[string]string{"plan": "Basic"}

	_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		AmountCents: 1000,
		Currency:    "usd",
		Metadata:    meta,
		Tax:         &TaxContext{Address: models.Address{Country: "US"}},
	})
	require.NoError(t, err)
	assert.NotContains(t, meta, "tax_calculation_id")
}

func TestCreatePaymentIntent_NotIdempotent(t *testing.T) {
	proc := &fakeProcessor{}
	svc := newTestService(proc)
	req := &PaymentIntentRequest{AmountCents: 1000, Currency: "usd"}

	_, err := svc.CreatePaymentIntent(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.CreatePaymentIntent(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, proc.intentCalls, 2)
}

func TestCreatePaymentIntent_NilProcessor(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{AmountCents: 1000, Currency: "usd"})
	require.Error(t, err)
	assert.True(t, domain.IsConfiguration(err))
	assert.Equal(t, http.StatusInternalServerError, domain.StatusCode(err))
}

func TestCreatePaymentIntent_RejectsNonPositiveAmount(t *testing.T) {
	proc := &fakeProcessor{}
	svc := newTestService(proc)

	_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{AmountCents: 0, Currency: "usd"})
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, proc.intentCalls)
}

func TestCreatePaymentIntent_TaxFailureSkipsIntent(t *testing.T) {
	proc := &fakeProcessor{taxErr: errors.New("connection reset")}
	svc := newTestService(proc)
	rec := &fakeRecorder{}
	svc.SetMetrics(rec)

	_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{
		AmountCents: 1000,
		Currency:    "usd",
		Tax:         &TaxContext{Address: models.Address{Country: "US"}},
	})
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
	assert.Equal(t, http.StatusInternalServerError, domain.StatusCode(err))
	assert.Empty(t, proc.intentCalls)
	assert.Equal(t, []string{"upstream_error"}, rec.failures)
}

func TestCreatePaymentIntent_ProcessorDomainErrorPassesThrough(t *testing.T) {
	proc := &fakeProcessor{intentErr: domain.NewUpstreamError(http.StatusBadRequest, "Amount must be at least $0.50 usd", nil)}
	svc := newTestService(proc)

	_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{AmountCents: 10, Currency: "usd"})
	require.Error(t, err)
	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, de.Status)
	assert.Equal(t, "Amount must be at least $0.50 usd", de.Message)
}

func TestCreatePaymentIntent_MissingClientSecret(t *testing.T) {
	proc := &fakeProcessor{intent: &Intent{ID: "pi_broken"}}
	svc := newTestService(proc)

	_, err := svc.CreatePaymentIntent(context.Background(), &PaymentIntentRequest{AmountCents: 1000, Currency: "usd"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeInternal, domain.GetErrorCode(err))
}

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{`1000`, 1000, false},
		{`"49500"`, 49500, false},
		{`1e3`, 1000, false},
		{`""`, 0, true},
		{`"12.5"`, 0, true},
		{`100000000`, 0, true},
		{`{}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmountCents(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
