package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/northpeakit/site/pkg/models"
)

// RequestError is a non-2xx reply from the site API.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("site api returned %d: %s", e.StatusCode, e.Message)
}

// Backend is the part of the site API the checkout flow needs.
type Backend interface {
	CreatePaymentIntent(ctx context.Context, req models.CreatePaymentIntentRequest) (*models.PaymentIntentResponse, error)
	SubmitOnboarding(ctx context.Context, payload map[string]any) error
}

// Client talks JSON to the site API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new site API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreatePaymentIntent calls POST /api/stripe/create-payment-intent.
func (c *Client) CreatePaymentIntent(ctx context.Context, req models.CreatePaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	var out models.PaymentIntentResponse
	if err := c.do(ctx, http.MethodPost, "/api/stripe/create-payment-intent", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitOnboarding calls POST /api/onboarding.
func (c *Client) SubmitOnboarding(ctx context.Context, payload map[string]any) error {
	return c.do(ctx, http.MethodPost, "/api/onboarding", payload, &models.SuccessResponse{})
}

// StripeConfig calls GET /api/stripe/config.
func (c *Client) StripeConfig(ctx context.Context) (*models.StripeConfigResponse, error) {
	var out models.StripeConfigResponse
	if err := c.do(ctx, http.MethodGet, "/api/stripe/config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Plans calls GET /api/plans.
func (c *Client) Plans(ctx context.Context) (*models.PlansResponse, error) {
	var out models.PlansResponse
	if err := c.do(ctx, http.MethodGet, "/api/plans", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &RequestError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
