package contact

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/northpeakit/site/pkg/crm"
	"github.com/northpeakit/site/pkg/domain"
	"github.com/northpeakit/site/pkg/email"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/models"
	"github.com/northpeakit/site/pkg/phone"
)

// User-facing messages.
const (
	MsgNameRequired  = "Name is required"
	MsgEmailRequired = "Email is required"
	MsgInvalidEmail  = "Please enter a valid email address"
	MsgPhoneRequired = "Phone number is required"
	MsgInvalidPhone  = "Please enter a valid phone number"
	MsgRejected      = "We couldn't save your details. Please check the form and try again."
	MsgUnavailable   = "Our contact service is temporarily unavailable. Please try again later."
	MsgSubmitFailed  = "Failed to submit contact form"
)

// Contact results recorded in metrics.
const (
	ResultCreated  = "created"
	ResultExisting = "existing"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

// Store persists contacts. *crm.Client satisfies it.
type Store interface {
	CreateContact(ctx context.Context, c crm.Contact) (*crm.Record, error)
}

// SlackNotifier announces contacts in chat.
type SlackNotifier interface {
	NotifyNewContact(ctx context.Context, name, email, company, plan string, existing bool) error
}

// Mailer sends contact emails.
type Mailer interface {
	SendContactNotification(ctx context.Context, c email.Contact) error
	SendContactAcknowledgement(ctx context.Context, c email.Contact) error
}

// Recorder records contact metrics.
type Recorder interface {
	RecordContact(result string)
	RecordNotification(channel string, err error)
}

// Result is the outcome of a successful submission.
type Result struct {
	ID       string
	Existing bool
}

// NotifyTimeout bounds the notifications sent after a submission.
const NotifyTimeout = 15 * time.Second

// Service validates contact submissions and forwards them to the CRM.
type Service struct {
	store    Store
	slack    SlackNotifier
	mailer   Mailer
	validate *validator.Validate
	log      logger.Logger
	metrics  Recorder
	pending  sync.WaitGroup
}

// NewService creates a contact service. slack and mailer may be nil.
func NewService(store Store, slack SlackNotifier, mailer Mailer, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:    store,
		slack:    slack,
		mailer:   mailer,
		validate: validator.New(),
		log:      log.With("component", "contact"),
	}
}

// SetMetrics sets the recorder for contact metrics.
func (s *Service) SetMetrics(m Recorder) {
	s.metrics = m
}

// Submit validates req, stores it in the CRM and sends notifications in the
// background. Notification failures are logged and never fail the submission.
func (s *Service) Submit(ctx context.Context, req models.ContactRequest) (*Result, error) {
	c, err := s.normalize(req)
	if err != nil {
		s.record(ResultInvalid)
		return nil, err
	}

	rec, err := s.store.CreateContact(ctx, c)
	if err != nil {
		err = s.translate(err)
		if domain.IsValidation(err) {
			s.record(ResultInvalid)
		} else {
			s.record(ResultError)
		}
		return nil, err
	}

	if rec.Existing {
		s.record(ResultExisting)
		s.log.Info("contact already exists in crm", "crm_id", rec.ID)
	} else {
		s.record(ResultCreated)
		s.log.Info("contact created in crm", "crm_id", rec.ID)
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), NotifyTimeout)
		defer cancel()
		s.notify(nctx, c, rec.Existing)
	}()

	return &Result{ID: rec.ID, Existing: rec.Existing}, nil
}

func (s *Service) normalize(req models.ContactRequest) (crm.Contact, error) {
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if name := strings.TrimSpace(req.Name); name != "" && first == "" && last == "" {
		parts := strings.Fields(name)
		first = parts[0]
		last = strings.Join(parts[1:], " ")
	}
	if first == "" && last == "" {
		return crm.Contact{}, domain.NewValidationError(MsgNameRequired)
	}

	addr := strings.TrimSpace(req.Email)
	if addr == "" {
		return crm.Contact{}, domain.NewValidationError(MsgEmailRequired)
	}
	if err := s.validate.Var(addr, "email"); err != nil {
		return crm.Contact{}, domain.NewValidationError(MsgInvalidEmail)
	}

	raw := strings.TrimSpace(req.Phone)
	if raw == "" {
		return crm.Contact{}, domain.NewValidationError(MsgPhoneRequired)
	}
	e164, err := phone.NormalizePhone(raw, phone.DefaultRegion)
	if err != nil {
		return crm.Contact{}, domain.NewValidationError(MsgInvalidPhone)
	}

	return crm.Contact{
		Email:         strings.ToLower(addr),
		FirstName:     first,
		LastName:      last,
		Phone:         e164,
		Company:       strings.TrimSpace(req.Company),
		Message:       strings.TrimSpace(req.Message),
		Plan:          req.Plan,
		BillingCycle:  req.BillingCycle,
		EmployeeCount: req.EmployeeCount,
		Source:        req.Source,
	}, nil
}

func (s *Service) translate(err error) error {
	if errors.Is(err, crm.ErrNotConfigured) {
		return domain.NewConfigurationError(err.Error())
	}

	var apiErr *crm.APIError
	if !errors.As(err, &apiErr) {
		return domain.NewUpstreamError(http.StatusInternalServerError, MsgSubmitFailed, err)
	}

	switch {
	case apiErr.InvalidPhone():
		return domain.NewValidationError(MsgInvalidPhone)
	case apiErr.Unauthorized():
		return domain.NewUpstreamError(http.StatusServiceUnavailable, MsgUnavailable, err)
	case apiErr.StatusCode == http.StatusBadRequest:
		return domain.NewUpstreamError(http.StatusBadRequest, MsgRejected, err)
	default:
		return domain.NewUpstreamError(http.StatusInternalServerError, MsgSubmitFailed, err)
	}
}

func (s *Service) notify(ctx context.Context, c crm.Contact, existing bool) {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)

	if s.slack != nil {
		err := s.slack.NotifyNewContact(ctx, name, c.Email, c.Company, c.Plan, existing)
		s.recordNotification("slack", err)
		if err != nil {
			s.log.Warn("slack contact notification failed", "error", err)
		}
	}

	if s.mailer == nil {
		return
	}
	msg := email.Contact{
		Name:          name,
		Email:         c.Email,
		Phone:         c.Phone,
		Company:       c.Company,
		Message:       c.Message,
		Plan:          c.Plan,
		BillingCycle:  c.BillingCycle,
		EmployeeCount: c.EmployeeCount,
		Existing:      existing,
	}
	err := s.mailer.SendContactNotification(ctx, msg)
	s.recordNotification("email", err)
	if err != nil {
		s.log.Warn("contact notification email failed", "error", err)
	}
	if existing {
		return
	}
	err = s.mailer.SendContactAcknowledgement(ctx, msg)
	s.recordNotification("email", err)
	if err != nil {
		s.log.Warn("contact acknowledgement email failed", "error", err)
	}
}

// Wait blocks until notifications for earlier submissions have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordContact(result)
	}
}

func (s *Service) recordNotification(channel string, err error) {
	if s.metrics != nil {
		s.metrics.RecordNotification(channel, err)
	}
}
