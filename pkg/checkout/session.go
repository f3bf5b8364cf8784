// Package checkout drives a subscription checkout from plan selection to payment.
//
// A Session is the client-side state machine. It owns the selected plan, seat
// count, billing cycle, customer details and payment method, and keeps the
// charge amount derived from them. A held payment intent is only confirmable
// while its amount equals the current amount.
package checkout

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/northpeakit/site/pkg/models"
	"github.com/northpeakit/site/pkg/phone"
	"github.com/northpeakit/site/pkg/plans"
	"github.com/northpeakit/site/pkg/pricing"
)

// State is a checkout step.
type State string

const (
	StateSelectingPlan         State = "selecting_plan"
	StateFillingDetails        State = "filling_details"
	StateAwaitingPaymentIntent State = "awaiting_payment_intent"
	StateConfirmingPayment     State = "confirming_payment"
	StateAwaitingRedirect      State = "awaiting_redirect"
	StateSucceeded             State = "succeeded"
	StateFailed                State = "failed"
)

// PaymentMethod selects the downstream payment path.
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodInvoice    PaymentMethod = "invoice"
)

// PaymentStatus mirrors the submit control.
type PaymentStatus string

const (
	PaymentStatusIdle       PaymentStatus = "idle"
	PaymentStatusSubmitting PaymentStatus = "submitting"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
)

const (
	// DefaultEmployeeCount is the seat count a new session starts with.
	DefaultEmployeeCount = 5
	// MinEmployeeCount is the lowest seat count user input is clamped to.
	MinEmployeeCount = 1
	// MaxEmployeeCount is the highest seat count user input is clamped to.
	MaxEmployeeCount = pricing.MaxEmployeeCount
	// DefaultCountry is used for the tax address when the customer gives none.
	DefaultCountry = "US"

	// MsgAmountTooLarge is shown when the order is too large to pay by card.
	MsgAmountTooLarge = "Amount exceeds the maximum that can be charged online. Choose invoice payment instead."
)

var (
	ErrNoPlanSelected       = errors.New("no plan selected")
	ErrUnknownPlan          = errors.New("unknown plan")
	ErrWrongPaymentMethod   = errors.New("action not available for the selected payment method")
	ErrInvalidTransition    = errors.New("invalid checkout transition")
	ErrNoIntent             = errors.New("no payment intent held")
	ErrStaleIntent          = errors.New("payment intent amount no longer matches the checkout amount")
	ErrConfirmationInFlight = errors.New("a payment confirmation is already in progress")
	ErrCheckoutComplete     = errors.New("checkout already completed")
	ErrRedirectPending      = errors.New("payment is waiting on the buyer's redirect")
	ErrAmountTooLarge       = errors.New("amount exceeds the maximum that can be charged online")
)

// Customer holds the details collected on the form.
type Customer struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	CompanyName string `json:"companyName" validate:"required"`
	Phone       string `json:"phone" validate:"required,phone"`
	Address     string `json:"address" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	Zip         string `json:"zip" validate:"required"`
	Country     string `json:"country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
}

// FullName joins first and last name.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

var requiredFields = map[PaymentMethod][]string{
	PaymentMethodCreditCard: {"FirstName", "LastName", "Email", "CompanyName", "Country"},
	PaymentMethodInvoice:    {"FirstName", "LastName", "Email", "CompanyName", "Phone", "Address", "City", "State", "Zip", "Country"},
}

// FieldError names a customer field that failed validation.
type FieldError struct {
	Field string
	Rule  string
}

// ValidationError lists every failing customer field.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "missing or invalid fields: " + strings.Join(names, ", ")
}

// HeldIntent is a payment intent fetched for a specific amount.
type HeldIntent struct {
	ClientSecret string
	AmountCents  int64
	Currency     string
	Tax          *models.TaxDetails
}

// View is a read-only snapshot of a session.
type View struct {
	ID            string
	State         State
	Plan          *plans.Plan
	EmployeeCount int
	BillingCycle  pricing.BillingCycle
	Customer      Customer
	PaymentMethod PaymentMethod
	AmountCents   int64
	Display       string
	// ChargeableOnline is false when the amount is above pricing.MaxChargeCents.
	ChargeableOnline bool
	PaymentStatus    PaymentStatus
	IntentReady      bool
	Tax              *models.TaxDetails
	Error            string
}

// Session is one visitor's checkout.
type Session struct {
	mu       sync.Mutex
	id       string
	catalog  *plans.Catalog
	validate *validator.Validate
	currency string

	state         State
	plan          *plans.Plan
	employeeCount int
	cycle         pricing.BillingCycle
	customer      Customer
	method        PaymentMethod
	amountCents   int64
	paymentStatus PaymentStatus
	lastError     string

	pendingAmount int64
	intent        *HeldIntent
}

// NewSession starts a checkout with no plan selected. A nil catalog means plans.Default().
func NewSession(catalog *plans.Catalog, currency string) *Session {
	if catalog == nil {
		catalog = plans.Default()
	}
	v := validator.New()
	_ = phone.RegisterValidation(v)

	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "usd"
	}

	return &Session{
		id:            uuid.NewString(),
		catalog:       catalog,
		validate:      v,
		currency:      currency,
		state:         StateSelectingPlan,
		employeeCount: DefaultEmployeeCount,
		cycle:         pricing.Monthly,
		method:        PaymentMethodCreditCard,
		paymentStatus: PaymentStatusIdle,
	}
}

// ID returns the session identifier sent as checkout metadata.
func (s *Session) ID() string {
	return s.id
}

// SelectPlan selects a plan by case-insensitive name.
// An unknown name clears the selection.
func (s *Session) SelectPlan(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return err
	}

	p, ok := s.catalog.Find(name)
	if !ok {
		s.plan = nil
		s.changed()
		return fmt.Errorf("%w: %q", ErrUnknownPlan, name)
	}
	s.plan = &p
	s.changed()
	return nil
}

// SelectPlanFromQuery applies ?plan= and reports whether a plan is now selected.
func (s *Session) SelectPlanFromQuery(query url.Values) bool {
	name := query.Get("plan")
	if name == "" {
		return false
	}
	return s.SelectPlan(name) == nil
}

// SetEmployeeCount sets the seat count, clamped to MinEmployeeCount.
func (s *Session) SetEmployeeCount(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return err
	}
	if n < MinEmployeeCount {
		n = MinEmployeeCount
	}
	if n > MaxEmployeeCount {
		n = MaxEmployeeCount
	}
	s.employeeCount = n
	s.changed()
	return nil
}

// SetEmployeeCountInput parses a raw form value. Non-numeric input counts as
// the minimum and out-of-range input is clamped.
func (s *Session) SetEmployeeCountInput(raw string) error {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		n = MinEmployeeCount
	}
	return s.SetEmployeeCount(n)
}

// SetBillingCycle switches between monthly and annual billing.
func (s *Session) SetBillingCycle(cycle pricing.BillingCycle) error {
	if !cycle.Valid() {
		return pricing.ErrInvalidBillingCycle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return err
	}
	s.cycle = cycle
	s.changed()
	return nil
}

// SetCustomer replaces the customer details.
func (s *Session) SetCustomer(c Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return err
	}
	c.Country = strings.ToUpper(strings.TrimSpace(c.Country))
	s.customer = c
	s.changed()
	return nil
}

// SetPaymentMethod toggles between card and invoice payment.
// Switching away from card drops any held intent.
func (s *Session) SetPaymentMethod(m PaymentMethod) error {
	if _, ok := requiredFields[m]; !ok {
		return fmt.Errorf("unknown payment method %q", m)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return err
	}
	s.method = m
	if m != PaymentMethodCreditCard {
		s.intent = nil
	}
	s.changed()
	return nil
}

// Validate checks the fields required by the current payment method.
func (s *Session) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateCustomer()
}

// BeginPaymentIntent moves to AwaitingPaymentIntent and returns the request to send.
func (s *Session) BeginPaymentIntent() (models.CreatePaymentIntentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var req models.CreatePaymentIntentRequest
	if err := s.mutable(); err != nil {
		return req, err
	}
	if s.plan == nil {
		return req, ErrNoPlanSelected
	}
	if s.method != PaymentMethodCreditCard {
		return req, ErrWrongPaymentMethod
	}
	if err := s.validateCustomer(); err != nil {
		return req, err
	}
	if _, err := s.price(); err != nil {
		return req, err
	}
	if s.amountCents > pricing.MaxChargeCents {
		s.lastError = MsgAmountTooLarge
		return req, ErrAmountTooLarge
	}

	s.intent = nil
	s.pendingAmount = s.amountCents
	s.state = StateAwaitingPaymentIntent
	s.paymentStatus = PaymentStatusIdle
	s.lastError = ""

	req.Amount = []byte(strconv.FormatInt(s.amountCents, 10))
	req.Currency = s.currency
	req.Metadata = s.metadata()
	if addr := s.taxAddress(); addr != nil {
		req.Address = addr
	}
	return req, nil
}

// AttachIntent stores the intent returned for the pending request.
// If the amount changed while the request was in flight the intent is discarded.
func (s *Session) AttachIntent(resp *models.PaymentIntentResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingPaymentIntent || s.pendingAmount == 0 {
		return ErrInvalidTransition
	}
	defer func() { s.pendingAmount = 0 }()

	if resp == nil || resp.ClientSecret == "" {
		s.failLocked("The payment form could not be loaded. Please try again.")
		return ErrNoIntent
	}
	if s.pendingAmount != s.amountCents {
		s.state = StateFillingDetails
		return ErrStaleIntent
	}

	s.intent = &HeldIntent{
		ClientSecret: resp.ClientSecret,
		AmountCents:  s.pendingAmount,
		Currency:     s.currency,
		Tax:          resp.Tax,
	}
	return nil
}

// FailPaymentIntent records a failed intent request.
func (s *Session) FailPaymentIntent(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingPaymentIntent {
		return
	}
	s.pendingAmount = 0
	s.failLocked(message)
}

// BeginConfirmation hands out the held intent and moves to ConfirmingPayment.
// The intent is re-priced first; a mismatch drops it and returns ErrStaleIntent.
func (s *Session) BeginConfirmation() (HeldIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateConfirmingPayment:
		return HeldIntent{}, ErrConfirmationInFlight
	case StateSucceeded:
		return HeldIntent{}, ErrCheckoutComplete
	case StateAwaitingRedirect:
		return HeldIntent{}, ErrRedirectPending
	}
	if s.method != PaymentMethodCreditCard {
		return HeldIntent{}, ErrWrongPaymentMethod
	}
	if s.intent == nil || s.state != StateAwaitingPaymentIntent {
		return HeldIntent{}, ErrNoIntent
	}

	current, err := s.price()
	if err != nil || current != s.intent.AmountCents {
		s.intent = nil
		s.state = StateFillingDetails
		return HeldIntent{}, ErrStaleIntent
	}

	s.state = StateConfirmingPayment
	s.paymentStatus = PaymentStatusSubmitting
	s.lastError = ""
	return *s.intent, nil
}

// BeginInvoice moves an invoice checkout to ConfirmingPayment and returns the
// onboarding payload to submit.
func (s *Session) BeginInvoice() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutable(); err != nil {
		return nil, err
	}
	if s.plan == nil {
		return nil, ErrNoPlanSelected
	}
	if s.method != PaymentMethodInvoice {
		return nil, ErrWrongPaymentMethod
	}
	if err := s.validateCustomer(); err != nil {
		return nil, err
	}

	s.state = StateConfirmingPayment
	s.paymentStatus = PaymentStatusSubmitting
	s.lastError = ""

	return map[string]any{
		"sessionId":     s.id,
		"paymentMethod": string(s.method),
		"plan":          s.plan.Name,
		"employeeCount": s.employeeCount,
		"billingCycle":  s.cycle.String(),
		"amountCents":   s.amountCents,
		"currency":      s.currency,
		"customer":      s.customer,
	}, nil
}

// Resolve ends a confirmation or invoice submission. A nil err succeeds;
// otherwise message is shown and the session may be resubmitted.
func (s *Session) Resolve(err error, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConfirmingPayment {
		return
	}
	if err == nil {
		s.state = StateSucceeded
		s.paymentStatus = PaymentStatusSucceeded
		s.intent = nil
		s.lastError = ""
		return
	}
	s.failLocked(message)
}

// AwaitRedirect parks a confirmation that handed the buyer to an external
// page. The intent is kept and no new intent or edit is allowed until
// ResolveRedirect reports the outcome.
func (s *Session) AwaitRedirect(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConfirmingPayment || s.intent == nil {
		return
	}
	s.state = StateAwaitingRedirect
	s.lastError = message
}

// ResolveRedirect records the outcome of a redirect for the held intent.
// clientSecret must be the one the redirect was started with.
func (s *Session) ResolveRedirect(clientSecret string, succeeded bool, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingRedirect || s.intent == nil {
		return ErrInvalidTransition
	}
	if clientSecret != s.intent.ClientSecret {
		return ErrStaleIntent
	}

	if succeeded {
		s.state = StateSucceeded
		s.paymentStatus = PaymentStatusSucceeded
		s.intent = nil
		s.lastError = ""
		return nil
	}
	s.failLocked(message)
	return nil
}

// HeldClientSecret returns the client secret of the held intent, if any.
func (s *Session) HeldClientSecret() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.intent == nil {
		return ""
	}
	return s.intent.ClientSecret
}

// View returns a snapshot for rendering.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:            s.id,
		State:         s.state,
		EmployeeCount: s.employeeCount,
		BillingCycle:  s.cycle,
		Customer:      s.customer,
		PaymentMethod: s.method,
		AmountCents:   s.amountCents,
		Display:       pricing.FormatCents(s.amountCents, s.currency),

		ChargeableOnline: s.amountCents > 0 && s.amountCents <= pricing.MaxChargeCents,
		PaymentStatus:    s.paymentStatus,
		IntentReady:      s.intent != nil,
		Error:            s.lastError,
	}
	if s.plan != nil {
		p := *s.plan
		v.Plan = &p
	}
	if s.intent != nil {
		v.Tax = s.intent.Tax
	}
	return v
}

// AmountCents returns the current charge amount, zero with no plan.
func (s *Session) AmountCents() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.amountCents
}

func (s *Session) mutable() error {
	switch s.state {
	case StateConfirmingPayment:
		return ErrConfirmationInFlight
	case StateSucceeded:
		return ErrCheckoutComplete
	case StateAwaitingRedirect:
		return ErrRedirectPending
	}
	return nil
}

// changed recomputes the amount and settles the state after any input change.
func (s *Session) changed() {
	amount, err := s.price()
	if err != nil {
		amount = 0
	}
	s.amountCents = amount

	if s.intent != nil && s.intent.AmountCents != amount {
		s.intent = nil
	}

	switch {
	case s.plan == nil:
		s.intent = nil
		s.state = StateSelectingPlan
	case s.state == StateAwaitingPaymentIntent && (s.intent != nil || s.pendingAmount != 0):
		// still waiting on, or holding, an intent for this amount
	default:
		s.state = StateFillingDetails
	}

	if s.paymentStatus == PaymentStatusFailed {
		s.paymentStatus = PaymentStatusIdle
	}
}

func (s *Session) price() (int64, error) {
	if s.plan == nil {
		return 0, ErrNoPlanSelected
	}
	return pricing.ComputeAmountCents(*s.plan, s.employeeCount, s.cycle)
}

func (s *Session) failLocked(message string) {
	s.intent = nil
	s.state = StateFailed
	s.paymentStatus = PaymentStatusFailed
	s.lastError = message
}

func (s *Session) validateCustomer() error {
	err := s.validate.StructPartial(s.customer, requiredFields[s.method]...)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

func (s *Session) metadata() map[string]interface{} {
	return map[string]interface{}{
		"session_id":     s.id,
		"plan":           s.plan.Name,
		"employee_count": strconv.Itoa(s.employeeCount),
		"billing_cycle":  s.cycle.String(),
		"customer_name":  s.customer.FullName(),
		"customer_email": s.customer.Email,
		"company":        s.customer.CompanyName,
	}
}

// taxAddress returns an address when the customer gave a postal code.
func (s *Session) taxAddress() *models.Address {
	c := s.customer
	if strings.TrimSpace(c.Zip) == "" {
		return nil
	}
	country := c.Country
	if country == "" {
		country = DefaultCountry
	}
	return &models.Address{
		Line1:      c.Address,
		City:       c.City,
		State:      c.State,
		PostalCode: c.Zip,
		Country:    country,
	}
}
