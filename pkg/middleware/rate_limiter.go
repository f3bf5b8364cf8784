package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/northpeakit/site/pkg/models"
	"golang.org/x/time/rate"
)

// MsgTooManyRequests is the body of every 429.
const MsgTooManyRequests = "Too many requests. Please try again later."

// LimitRecorder counts rejected requests.
type LimitRecorder interface {
	RecordRateLimited(limiter string)
}

// RateLimiter holds the rate limiters for different IPs
type RateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit // requests per second
	b        int        // burst
	metrics  LimitRecorder
}

// NewRateLimiter creates a per-IP token bucket limiter.
// Idle visitors are dropped every 3 minutes until ctx is done.
func NewRateLimiter(ctx context.Context, requestsPerMinute, burst int, metrics LimitRecorder) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*rate.Limiter),
		r:        rate.Limit(float64(requestsPerMinute) / 60.0),
		b:        burst,
		metrics:  metrics,
	}

	go rl.cleanupVisitors(ctx, 3*time.Minute)

	return rl
}

// GetLimiter returns the rate limiter for the given IP
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.visitors[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.r, rl.b)
		rl.visitors[ip] = limiter
	}
	return limiter
}

func (rl *RateLimiter) cleanupVisitors(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

// prune removes limiters that have refilled, i.e. visitors that went quiet.
func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, limiter := range rl.visitors {
		if limiter.Tokens() >= float64(rl.b) {
			delete(rl.visitors, ip)
		}
	}
}

// Middleware rejects requests over the per-IP limit with 429.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.GetLimiter(clientIP(c)).Allow() {
				if rl.metrics != nil {
					rl.metrics.RecordRateLimited("ip")
				}
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{Error: MsgTooManyRequests})
			}
			return next(c)
		}
	}
}

func clientIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return c.Request().RemoteAddr
}
