package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// API Configuration
	APIPort        string
	APIHost        string
	APIEnvironment string
	SiteURL        string

	// CORS
	CORSAllowedOrigins []string

	// Rate Limiting
	RateLimitRequestsPerMinute int
	RateLimitBurst             int
	IntentBudgetPerMinute      int

	// Redis (optional, enables the intent budget)
	RedisURL string

	// Stripe
	StripeSecretKey      string
	StripePublishableKey string
	StripeAPIURL         string
	StripeMaxRetries     int
	DefaultCurrency      string

	// HubSpot
	HubSpotAccessToken string
	HubSpotAPIURL      string

	// Email
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string
	SalesInbox     string

	// Slack
	SlackWebhookURL string

	// Logging
	LogLevel  string
	LogFormat string

	// Sentry
	SentryDSN         string
	SentryEnvironment string

	// Secrets ("env" or "aws")
	SecretsBackend string
	SecretsPrefix  string
	AWSRegion      string
}

// Load loads configuration from environment variables.
// Missing credentials are not an error here; they surface when the feature is used.
func Load() *Config {
	environment := getEnv("API_ENVIRONMENT", "development")

	return &Config{
		// API
		APIPort:        getEnv("API_PORT", "8080"),
		APIHost:        getEnv("API_HOST", "0.0.0.0"),
		APIEnvironment: environment,
		SiteURL:        strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),

		// CORS
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		// Rate Limiting
		RateLimitRequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
		RateLimitBurst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		IntentBudgetPerMinute:      getEnvAsInt("INTENT_BUDGET_PER_MINUTE", 10),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Stripe
		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
		StripeAPIURL:         getEnv("STRIPE_API_URL", ""),
		StripeMaxRetries:     getEnvAsInt("STRIPE_MAX_NETWORK_RETRIES", 2),
		DefaultCurrency:      strings.ToLower(getEnv("DEFAULT_CURRENCY", "usd")),

		// HubSpot
		HubSpotAccessToken: getEnv("HUBSPOT_ACCESS_TOKEN", ""),
		HubSpotAPIURL:      getEnv("HUBSPOT_API_URL", ""),

		// Email
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "hello@northpeakit.com"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "NorthPeak IT"),
		SalesInbox:     getEnv("SALES_INBOX", ""),

		// Slack
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Sentry
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", environment),

		// Secrets
		SecretsBackend: getEnv("SECRETS_BACKEND", "env"),
		SecretsPrefix:  getEnv("SECRETS_PREFIX", "northpeak/site/"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
	}
}

// Address returns host:port for the HTTP server.
func (c *Config) Address() string {
	return c.APIHost + ":" + c.APIPort
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.APIEnvironment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
