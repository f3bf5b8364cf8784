package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4/middleware"
)

// DefaultAllowedOrigins is used when CORS_ALLOWED_ORIGINS is empty.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",      // Development
	"https://northpeakit.com",     // Production
	"https://www.northpeakit.com", // Production WWW
}

// CORSConfig returns the CORS configuration for the site API.
// The checkout and contact forms only POST JSON, so credentials are not allowed.
func CORSConfig(origins []string) middleware.CORSConfig {
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}
	return middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Request-ID",
		},
		MaxAge: 600,
	}
}
