package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public HubSpot API.
const DefaultBaseURL = "https://api.hubapi.com"

// ErrNotConfigured is returned when no access token is set.
var ErrNotConfigured = errors.New("crm: HUBSPOT_ACCESS_TOKEN is not configured")

var existingIDPattern = regexp.MustCompile(`Existing ID:\s*(\d+)`)

// Contact is a contact as stored in the CRM.
type Contact struct {
	Email         string
	FirstName     string
	LastName      string
	Phone         string
	Company       string
	Message       string
	Plan          string
	BillingCycle  string
	EmployeeCount int
	Source        string
}

// Record identifies a stored contact. Existing is set when the CRM already had it.
type Record struct {
	ID       string
	Existing bool
}

// APIError is a non-success response from the CRM.
type APIError struct {
	StatusCode int
	Category   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm: status %d %s: %s", e.StatusCode, e.Category, e.Message)
}

// InvalidPhone reports whether the CRM rejected the phone property.
func (e *APIError) InvalidPhone() bool {
	msg := strings.ToUpper(e.Message)
	return strings.Contains(msg, "INVALID_PHONE") ||
		(e.Category == "VALIDATION_ERROR" && strings.Contains(msg, "PHONE"))
}

// Unauthorized reports whether the credential was rejected.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Config holds HubSpot settings.
type Config struct {
	AccessToken string
	BaseURL     string
}

// Client talks to the HubSpot contacts API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a HubSpot client. An empty token yields a client that
// fails every call with ErrNotConfigured.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token:   cfg.AccessToken,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether an access token is set.
func (c *Client) Configured() bool {
	return c.token != ""
}

type createContactRequest struct {
	Properties map[string]string `json:"properties"`
}

type createContactResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

// CreateContact stores c. A duplicate email is not an error: the existing
// record is returned with Existing set.
func (c *Client) CreateContact(ctx context.Context, contact Contact) (*Record, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(createContactRequest{Properties: properties(contact)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal contact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crm/v3/objects/contacts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read crm response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var out createContactResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("failed to decode crm response: %w", err)
		}
		return &Record{ID: out.ID}, nil

	case resp.StatusCode == http.StatusConflict:
		rec := &Record{Existing: true}
		var e errorResponse
		if json.Unmarshal(body, &e) == nil {
			if m := existingIDPattern.FindStringSubmatch(e.Message); m != nil {
				rec.ID = m[1]
			}
		}
		return rec, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var e errorResponse
	if json.Unmarshal(body, &e) == nil {
		apiErr.Category = e.Category
		apiErr.Message = e.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return nil, apiErr
}

func properties(c Contact) map[string]string {
	props := map[string]string{}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			props[k] = v
		}
	}
	set("email", c.Email)
	set("firstname", c.FirstName)
	set("lastname", c.LastName)
	set("phone", c.Phone)
	set("company", c.Company)
	set("message", c.Message)
	set("selected_plan", c.Plan)
	set("billing_cycle", c.BillingCycle)
	set("lead_source", c.Source)
	if c.EmployeeCount > 0 {
		props["numemployees"] = strconv.Itoa(c.EmployeeCount)
	}
	return props
}
