// Command checkout drives a single checkout against a running site API.
// It is used to smoke test a deployment with Stripe test cards.
//
//	checkout -plan Basic -employees 5 -cycle annual -email ada@example.com ...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/northpeakit/site/pkg/checkout"
	"github.com/northpeakit/site/pkg/logger"
	"github.com/northpeakit/site/pkg/plans"
	"github.com/northpeakit/site/pkg/pricing"
)

type options struct {
	api           string
	plan          string
	employees     string
	cycle         string
	method        string
	paymentMethod string
	returnURL     string
	stripeAPIURL  string
	customer      checkout.Customer
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	o := &options{}

	fs.StringVar(&o.api, "api", "http://localhost:8080", "site API base URL")
	fs.StringVar(&o.plan, "plan", "Basic", "plan name")
	fs.StringVar(&o.employees, "employees", "5", "number of employees")
	fs.StringVar(&o.cycle, "cycle", "monthly", "billing cycle: monthly or annual")
	fs.StringVar(&o.method, "method", "card", "payment method: card or invoice")
	fs.StringVar(&o.paymentMethod, "payment-method", "pm_card_visa", "Stripe payment method used to confirm")
	fs.StringVar(&o.returnURL, "return-url", "", "return URL for redirect-based payment methods")
	fs.StringVar(&o.stripeAPIURL, "stripe-api-url", "", "override the Stripe API URL (stripe-mock)")

	fs.StringVar(&o.customer.FirstName, "first", "", "first name")
	fs.StringVar(&o.customer.LastName, "last", "", "last name")
	fs.StringVar(&o.customer.Email, "email", "", "email")
	fs.StringVar(&o.customer.CompanyName, "company", "", "company name")
	fs.StringVar(&o.customer.Phone, "phone", "", "phone number in E.164")
	fs.StringVar(&o.customer.Address, "address", "", "street address")
	fs.StringVar(&o.customer.City, "city", "", "city")
	fs.StringVar(&o.customer.State, "state", "", "state")
	fs.StringVar(&o.customer.Zip, "zip", "", "postal code")
	fs.StringVar(&o.customer.Country, "country", "US", "ISO country code")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

func paymentMethod(s string) (checkout.PaymentMethod, error) {
	switch s {
	case "card", string(checkout.PaymentMethodCreditCard):
		return checkout.PaymentMethodCreditCard, nil
	case string(checkout.PaymentMethodInvoice):
		return checkout.PaymentMethodInvoice, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// buildSession applies the flags to a fresh session in the order the page does.
func buildSession(o *options) (*checkout.Session, error) {
	session := checkout.NewSession(plans.Default(), "usd")
	if err := session.SelectPlan(o.plan); err != nil {
		return nil, err
	}
	if err := session.SetEmployeeCountInput(o.employees); err != nil {
		return nil, err
	}
	cycle, err := pricing.ParseBillingCycle(o.cycle)
	if err != nil {
		return nil, err
	}
	if err := session.SetBillingCycle(cycle); err != nil {
		return nil, err
	}
	method, err := paymentMethod(o.method)
	if err != nil {
		return nil, err
	}
	if err := session.SetPaymentMethod(method); err != nil {
		return nil, err
	}
	if err := session.SetCustomer(o.customer); err != nil {
		return nil, err
	}
	return session, nil
}

func run(ctx context.Context, o *options, log logger.Logger) error {
	session, err := buildSession(o)
	if err != nil {
		return err
	}

	client := checkout.NewClient(o.api)
	view := session.View()
	log.Info("checkout started",
		"session_id", view.ID,
		"plan", view.Plan.Name,
		"employees", view.EmployeeCount,
		"cycle", view.BillingCycle,
		"amount", view.Display,
	)

	if view.PaymentMethod == checkout.PaymentMethodInvoice {
		flow := checkout.NewFlow(session, client, nil, log)
		if err := flow.SubmitInvoice(ctx); err != nil {
			return err
		}
		log.Info("invoice request submitted", "session_id", view.ID)
		return nil
	}

	cfg, err := client.StripeConfig(ctx)
	if err != nil {
		return fmt.Errorf("load stripe config: %w", err)
	}
	confirmation := checkout.NewConfirmation(checkout.NewStripeConfirmer(cfg.PublishableKey, o.stripeAPIURL), o.returnURL)
	flow := checkout.NewFlow(session, client, confirmation, log)

	if err := flow.PrepareIntent(ctx); err != nil {
		return err
	}
	if tax := session.View().Tax; tax != nil {
		log.Info("tax calculated",
			"tax", pricing.FormatCents(tax.AmountCents, tax.Currency),
			"total", pricing.FormatCents(tax.TotalCents, tax.Currency),
		)
	}

	out, err := flow.Pay(ctx, checkout.PaymentElement{PaymentMethodID: o.paymentMethod}, nil)
	if err != nil {
		return err
	}
	if !out.Succeeded {
		if out.RedirectURL != "" {
			return fmt.Errorf("payment requires a redirect to %s", out.RedirectURL)
		}
		return errors.New(out.ErrorMessage)
	}

	log.Info("payment succeeded", "intent_id", out.IntentID, "status", out.Status)
	return nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	log := logger.New("info", "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := run(ctx, o, log); err != nil {
		log.Error("checkout failed", "error", err)
		stop()
		cancel()
		os.Exit(1)
	}
}
