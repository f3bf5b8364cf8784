package secrets

import (
	"context"
	"errors"

	"github.com/northpeakit/site/config"
	"github.com/northpeakit/site/pkg/logger"
)

// credentials lists the config fields that may come from the secrets backend.
func credentials(cfg *config.Config) map[string]*string {
	return map[string]*string{
		"STRIPE_SECRET_KEY":      &cfg.StripeSecretKey,
		"STRIPE_PUBLISHABLE_KEY": &cfg.StripePublishableKey,
		"HUBSPOT_ACCESS_TOKEN":   &cfg.HubSpotAccessToken,
		"SENDGRID_API_KEY":       &cfg.SendGridAPIKey,
		"SLACK_WEBHOOK_URL":      &cfg.SlackWebhookURL,
		"SENTRY_DSN":             &cfg.SentryDSN,
		"REDIS_URL":              &cfg.RedisURL,
	}
}

// Overlay replaces credential fields in cfg with values held by m.
// A secret missing from the backend keeps the value loaded from the environment.
func Overlay(ctx context.Context, m Manager, cfg *config.Config, log logger.Logger) error {
	loaded := 0
	for key, field := range credentials(cfg) {
		value, err := m.GetSecret(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		*field = value
		loaded++
	}
	log.Info("secrets loaded", "backend", cfg.SecretsBackend, "count", loaded)
	return nil
}
