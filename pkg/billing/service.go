package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/northpeakit/site/pkg/domain"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/models"
	"github.com/northpeakit/site/pkg/pricing"
	"github.com/shopspring/decimal"
)

const (
	// MsgInvalidAmount is returned verbatim when the amount is missing or malformed.
	MsgInvalidAmount = "A valid amount is required"
	// MsgAmountTooLarge is returned for amounts above pricing.MaxChargeCents.
	MsgAmountTooLarge = "Amount exceeds the maximum that can be charged online"
	// MsgInvalidCurrency is returned for currencies that are not 3-letter codes.
	MsgInvalidCurrency = "A valid currency is required"
	// MsgInvalidAddress is returned when an address lacks a usable country.
	MsgInvalidAddress = "A valid address country is required for tax calculation"

	// DefaultShippingName is used when metadata carries no customer_name.
	DefaultShippingName = "Customer"

	maxMetadataKeys    = 50
	maxMetadataKeyLen  = 40
	maxMetadataValLen  = 500
	metadataTaxCalcKey = "tax_calculation_id"
)

var currencyPattern = regexp.MustCompile(`^[a-z]{3}$`)

// ServiceConfig holds payment intent defaults.
type ServiceConfig struct {
	DefaultCurrency string
}

// Service orchestrates tax calculation and payment intent creation.
// It holds no per-request state; every call creates a new processor-side intent.
type Service struct {
	processor       Processor
	defaultCurrency string
	validator       *validator.Validate
	log             logger.Logger
	metrics         IntentRecorder
}

// NewService creates a new payment intent service
func NewService(processor Processor, cfg ServiceConfig, log logger.Logger) *Service {
	currency := strings.ToLower(strings.TrimSpace(cfg.DefaultCurrency))
	if currency == "" {
		currency = "usd"
	}
	if log == nil {
		log = logger.Default()
	}

	return &Service{
		processor:       processor,
		defaultCurrency: currency,
		validator:       validator.New(),
		log:             log.With("component", "billing"),
	}
}

// SetMetrics sets the recorder for intent metrics.
func (s *Service) SetMetrics(m IntentRecorder) {
	s.metrics = m
}

// ParseRequest validates a wire request into a PaymentIntentRequest.
// All failures are validation errors carrying a user-facing message.
func (s *Service) ParseRequest(body models.CreatePaymentIntentRequest) (*PaymentIntentRequest, error) {
	amount, err := ParseAmountCents(body.Amount)
	if err != nil {
		return nil, err
	}

	currency := strings.ToLower(strings.TrimSpace(body.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if !currencyPattern.MatchString(currency) {
		return nil, domain.NewValidationError(MsgInvalidCurrency)
	}

	metadata, err := stringifyMetadata(body.Metadata)
	if err != nil {
		return nil, err
	}

	req := &PaymentIntentRequest{
		AmountCents: amount,
		Currency:    currency,
		Metadata:    metadata,
	}

	if body.Address != nil {
		addr := normalizeAddress(*body.Address)
		if err := s.validator.Struct(addr); err != nil {
			return nil, domain.NewValidationError(MsgInvalidAddress)
		}
		req.Tax = &TaxContext{Address: addr}
	}

	return req, nil
}

// CreatePaymentIntent computes tax when an address is present and creates a payment intent.
// Repeated calls with the same input create distinct intents.
func (s *Service) CreatePaymentIntent(ctx context.Context, req *PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	if req == nil || req.AmountCents <= 0 {
		return nil, domain.NewValidationError(MsgInvalidAmount)
	}
	if req.AmountCents > pricing.MaxChargeCents {
		return nil, domain.NewValidationError(MsgAmountTooLarge)
	}
	if s.processor == nil {
		return nil, s.fail("configuration", domain.NewConfigurationError("payment processor is not configured"))
	}

	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	shippingName := strings.TrimSpace(metadata["customer_name"])
	if shippingName == "" {
		shippingName = DefaultShippingName
	}

	params := IntentParams{
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Metadata:    metadata,
		Shipping:    ShippingDetails{Name: shippingName},
	}

	var tax *models.TaxDetails
	if req.Tax != nil {
		params.AutomaticTax = true
		params.Shipping.Address = req.Tax.Address

		var err error
		tax, err = s.processor.CalculateTax(ctx, TaxQuery{
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
			Address:     req.Tax.Address,
			Reference:   taxReference(metadata),
		})
		if err != nil {
			return nil, s.fail("tax", upstream("calculate tax", err))
		}
		if tax != nil && tax.CalculationID != "" {
			params.Metadata[metadataTaxCalcKey] = tax.CalculationID
		}
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, s.fail("intent", upstream("create payment intent", err))
	}
	if intent.ClientSecret == "" {
		return nil, s.fail("intent", domain.NewInternalError(fmt.Errorf("processor returned intent %s without a client secret", intent.ID)))
	}

	s.log.Info("payment intent created",
		"intent_id", intent.ID,
		"amount_cents", req.AmountCents,
		"currency", req.Currency,
		"tax", tax != nil,
		"plan", metadata["plan"],
	)
	if s.metrics != nil {
		s.metrics.RecordPaymentIntent(tax != nil)
	}

	return &models.PaymentIntentResponse{
		ClientSecret: intent.ClientSecret,
		Tax:          tax,
	}, nil
}

func (s *Service) fail(stage string, err error) error {
	code := domain.GetErrorCode(err)
	s.log.Error("payment intent failed", "stage", stage, "code", code, "error", err)
	if s.metrics != nil {
		s.metrics.RecordPaymentIntentFailure(strings.ToLower(code))
	}
	return err
}

// upstream keeps domain errors from the processor and wraps anything else.
func upstream(op string, err error) error {
	if _, ok := domain.AsDomainError(err); ok {
		return err
	}
	return domain.NewUpstreamError(http.StatusInternalServerError, "Failed to create payment intent", fmt.Errorf("%s: %w", op, err))
}

// ParseAmountCents accepts a JSON number or numeric string holding a positive
// whole number of minor units.
func ParseAmountCents(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, domain.NewValidationError(MsgInvalidAmount)
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, domain.NewValidationError(MsgInvalidAmount)
		}
		s = strings.TrimSpace(str)
	}

	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || !d.IsPositive() {
		return 0, domain.NewValidationError(MsgInvalidAmount)
	}
	if d.GreaterThan(decimal.NewFromInt(pricing.MaxChargeCents)) {
		return 0, domain.NewValidationError(MsgAmountTooLarge)
	}
	return d.IntPart(), nil
}

func stringifyMetadata(in map[string]interface{}) (map[string]string, error) {
	out := make(map[string]string, len(in))
	if len(in) > maxMetadataKeys {
		return nil, domain.NewValidationError(fmt.Sprintf("Metadata may contain at most %d entries", maxMetadataKeys))
	}

	for k, v := range in {
		if k == "" || len(k) > maxMetadataKeyLen {
			return nil, domain.NewValidationError(fmt.Sprintf("Metadata keys must be 1-%d characters", maxMetadataKeyLen))
		}

		var str string
		switch val := v.(type) {
		case nil:
			continue
		case string:
			str = val
		case float64:
			str = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			str = strconv.FormatBool(val)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, domain.NewValidationError("Metadata values must be strings or numbers")
			}
			str = string(b)
		}

		if len(str) > maxMetadataValLen {
			return nil, domain.NewValidationError(fmt.Sprintf("Metadata values must be at most %d characters", maxMetadataValLen))
		}
		out[k] = str
	}
	return out, nil
}

func normalizeAddress(a models.Address) models.Address {
	return models.Address{
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
	}
}

func taxReference(metadata map[string]string) string {
	plan := metadata["plan"]
	if plan == "" {
		return "subscription"
	}
	ref := "subscription-" + strings.ToLower(strings.ReplaceAll(plan, " ", "-"))
	if cycle := metadata["billing_cycle"]; cycle != "" {
		ref += "-" + strings.ToLower(cycle)
	}
	return ref
}
