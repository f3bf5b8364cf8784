package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrSlackSendFailed is returned when Slack API fails
	ErrSlackSendFailed = errors.New("failed to send Slack notification")
)

// Message represents a Slack message
type Message struct {
	Text string `json:"text"`
}

// SlackClient is an interface for sending Slack notifications
type SlackClient interface {
	SendMessage(ctx context.Context, msg Message) error
}

// WebhookClient implements SlackClient using Slack webhooks
type WebhookClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookClient creates a new Slack webhook client
func NewWebhookClient(webhookURL string) *WebhookClient {
	return &WebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendMessage sends a message to Slack via webhook
func (c *WebhookClient) SendMessage(ctx context.Context, msg Message) error {
	if c.webhookURL == "" {
		return fmt.Errorf("slack webhook URL not configured")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSlackSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrSlackSendFailed, resp.StatusCode)
	}
	return nil
}

// Service handles Slack notifications
type Service struct {
	client SlackClient
}

// NewService creates a new Slack service. A nil client disables notifications.
func NewService(client SlackClient) *Service {
	return &Service{client: client}
}

// IsEnabled returns true if Slack notifications are enabled
func (s *Service) IsEnabled() bool {
	return s != nil && s.client != nil
}

// NotifyNewContact announces a contact form submission.
func (s *Service) NotifyNewContact(ctx context.Context, name, email, company, plan string, existing bool) error {
	if !s.IsEnabled() {
		return nil
	}

	title := "*New Contact*"
	if existing {
		title = "*Returning Contact*"
	}
	text := fmt.Sprintf("%s\n"+
		"• Name: %s\n"+
		"• Email: %s",
		title, name, email)
	if company != "" {
		text += fmt.Sprintf("\n• Company: %s", company)
	}
	if plan != "" {
		text += fmt.Sprintf("\n• Plan: %s", plan)
	}

	return s.client.SendMessage(ctx, Message{Text: text})
}

// NotifyOnboarding announces an onboarding or invoice checkout submission.
func (s *Service) NotifyOnboarding(ctx context.Context, plan, paymentMethod, company string) error {
	if !s.IsEnabled() {
		return nil
	}

	text := "*New Onboarding*"
	if plan != "" {
		text += fmt.Sprintf("\n• Plan: %s", plan)
	}
	if paymentMethod != "" {
		text += fmt.Sprintf("\n• Payment: %s", paymentMethod)
	}
	if company != "" {
		text += fmt.Sprintf("\n• Company: %s", company)
	}

	return s.client.SendMessage(ctx, Message{Text: text})
}
