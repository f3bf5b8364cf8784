package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityHeadersConfig holds configuration for the security headers middleware.
// Empty strings fall back to the defaults.
type SecurityHeadersConfig struct {
	ContentSecurityPolicy string
	ReferrerPolicy        string
	PermissionsPolicy     string
	// SkipPrefixes lists path prefixes served without a CSP, e.g. the Swagger UI.
	SkipPrefixes []string
}

// DefaultSecurityHeadersConfig allows the Stripe payment element to load and frame itself.
func DefaultSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' https://js.stripe.com; " +
			"style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self'; " +
			"connect-src 'self' https://api.stripe.com; " +
			"frame-src https://js.stripe.com https://hooks.stripe.com; " +
			"frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: "camera=(), microphone=(), geolocation=(), payment=(self \"https://js.stripe.com\")",
		SkipPrefixes:      []string{"/swagger/"},
	}
}

// SecurityHeaders returns an Echo middleware that sets Content-Security-Policy,
// Referrer-Policy, and Permissions-Policy headers.
func SecurityHeaders(config SecurityHeadersConfig) echo.MiddlewareFunc {
	defaults := DefaultSecurityHeadersConfig()

	if config.ContentSecurityPolicy == "" {
		config.ContentSecurityPolicy = defaults.ContentSecurityPolicy
	}
	if config.ReferrerPolicy == "" {
		config.ReferrerPolicy = defaults.ReferrerPolicy
	}
	if config.PermissionsPolicy == "" {
		config.PermissionsPolicy = defaults.PermissionsPolicy
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Referrer-Policy", config.ReferrerPolicy)
			h.Set("Permissions-Policy", config.PermissionsPolicy)
			if !skipped(c.Request().URL.Path, config.SkipPrefixes) {
				h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
			}
			return next(c)
		}
	}
}

func skipped(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
