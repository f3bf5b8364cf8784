package email

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/northpeakit/site/pkg/logger"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers a composed message. *sendgrid.Client satisfies it.
type Sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Config holds email settings.
type Config struct {
	FromEmail   string
	FromName    string
	SiteURL     string
	SalesInbox  string
	SendGridKey string
}

// Contact is the subset of a contact submission that goes into emails.
type Contact struct {
	Name          string
	Email         string
	Phone         string
	Company       string
	Message       string
	Plan          string
	BillingCycle  string
	EmployeeCount int
	Existing      bool
}

// Service handles email sending
type Service struct {
	cfg    Config
	sender Sender
	log    logger.Logger
}

// NewService creates a new email service.
// Without a SendGrid key emails are logged instead of sent.
func NewService(cfg Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "email")

	var sender Sender
	if cfg.SendGridKey != "" {
		sender = sendgrid.NewSendClient(cfg.SendGridKey)
		log.Info("email service initialized with SendGrid")
	} else {
		log.Warn("email service in console-only mode (set SENDGRID_API_KEY for production)")
	}

	return &Service{cfg: cfg, sender: sender, log: log}
}

// NewServiceWithSender creates a service that sends through s.
func NewServiceWithSender(cfg Config, s Sender, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{cfg: cfg, sender: s, log: log.With("component", "email")}
}

// SendContactNotification tells the sales inbox about a new contact.
func (s *Service) SendContactNotification(ctx context.Context, c Contact) error {
	if s.cfg.SalesInbox == "" {
		return nil
	}

	subject := fmt.Sprintf("New contact: %s", c.Name)
	if c.Company != "" {
		subject += fmt.Sprintf(" (%s)", c.Company)
	}
	if c.Existing {
		subject += " [existing]"
	}

	rows := [][2]string{
		{"Name", c.Name},
		{"Email", c.Email},
		{"Phone", c.Phone},
		{"Company", c.Company},
		{"Plan", c.Plan},
		{"Billing cycle", c.BillingCycle},
	}
	if c.EmployeeCount > 0 {
		rows = append(rows, [2]string{"Employees", fmt.Sprint(c.EmployeeCount)})
	}

	var htmlRows, textRows strings.Builder
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(&htmlRows, "<tr><td><strong>%s</strong></td><td>%s</td></tr>", r[0], html.EscapeString(r[1]))
		fmt.Fprintf(&textRows, "%s: %s\n", r[0], r[1])
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>New contact request</h2>
			<table>%s</table>
			<p>%s</p>
		</body>
		</html>
	`, htmlRows.String(), html.EscapeString(c.Message))

	plainText := fmt.Sprintf("New contact request\n\n%s\n%s\n", textRows.String(), c.Message)

	return s.send(ctx, s.cfg.SalesInbox, "Sales", subject, body, plainText)
}

// SendContactAcknowledgement confirms receipt to the person who got in touch.
func (s *Service) SendContactAcknowledgement(ctx context.Context, c Contact) error {
	subject := "Thanks for contacting NorthPeak IT"
	body := fmt.Sprintf(`
		<html>
		<body>
			<p>Hi %s,</p>
			<p>Thanks for reaching out. A member of our team will get back to you within one business day.</p>
			<p>In the meantime you can review our plans at <a href="%s/pricing">%s/pricing</a>.</p>
			<p>Thanks,<br>The NorthPeak IT Team</p>
		</body>
		</html>
	`, html.EscapeString(firstName(c.Name)), s.cfg.SiteURL, s.cfg.SiteURL)

	plainText := fmt.Sprintf(`
Hi %s,

Thanks for reaching out. A member of our team will get back to you within one business day.

In the meantime you can review our plans at %s/pricing.

Thanks,
The NorthPeak IT Team
	`, firstName(c.Name), s.cfg.SiteURL)

	return s.send(ctx, c.Email, c.Name, subject, body, plainText)
}

// SendOnboardingNotification forwards an onboarding or invoice checkout to sales.
func (s *Service) SendOnboardingNotification(ctx context.Context, summary string) error {
	if s.cfg.SalesInbox == "" {
		return nil
	}
	body := fmt.Sprintf("<html><body><h2>New onboarding submission</h2><pre>%s</pre></body></html>", html.EscapeString(summary))
	return s.send(ctx, s.cfg.SalesInbox, "Sales", "New onboarding submission", body, summary)
}

func (s *Service) send(ctx context.Context, toEmail, toName, subject, htmlBody, plainTextBody string) error {
	if s.sender == nil {
		s.log.Info("email not sent (console mode)", "to", toEmail, "subject", subject)
		return nil
	}

	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainTextBody, htmlBody)

	response, err := s.sender.SendWithContext(ctx, message)
	if err != nil {
		s.log.Error("sendgrid request failed", "to", toEmail, "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		s.log.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("sendgrid returned error status: %d", response.StatusCode)
	}

	s.log.Info("email sent", "to", toEmail, "subject", subject, "status", response.StatusCode)
	return nil
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return "there"
}
