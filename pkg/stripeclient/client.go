// Package stripeclient builds injected stripe-go API clients.
//
// The package-level stripe.Key is never set: every consumer receives its own
// *client.API constructed once at startup.
package stripeclient

import (
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Options tunes the backend used by a client.
type Options struct {
	// APIURL overrides https://api.stripe.com, e.g. for stripe-mock or tests.
	APIURL string
	// MaxNetworkRetries caps automatic retries. Zero disables them.
	MaxNetworkRetries int64
}

// New returns an API client bound to key, or nil when key is empty.
func New(key string, opts Options) *client.API {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return client.New(key, backends(opts))
}

func backends(opts Options) *stripe.Backends {
	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(opts.MaxNetworkRetries),
	}
	if u := strings.TrimRight(strings.TrimSpace(opts.APIURL), "/"); u != "" {
		cfg.URL = stripe.String(u)
	}

	b := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	return &stripe.Backends{
		API:     b,
		Connect: b,
		Uploads: b,
	}
}

// KeyMode reports "test" or "live" from a secret or publishable key prefix, "" if unknown.
func KeyMode(key string) string {
	switch {
	case strings.HasPrefix(key, "sk_test"), strings.HasPrefix(key, "rk_test"), strings.HasPrefix(key, "pk_test"):
		return "test"
	case strings.HasPrefix(key, "sk_live"), strings.HasPrefix(key, "rk_live"), strings.HasPrefix(key, "pk_live"):
		return "live"
	default:
		return ""
	}
}
