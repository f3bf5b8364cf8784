package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Business metrics
	PaymentIntentsCreated  *prometheus.CounterVec
	PaymentIntentFailures  *prometheus.CounterVec
	ContactSubmissions     *prometheus.CounterVec
	OnboardingSubmissions  prometheus.Counter
	WebVitals              *prometheus.HistogramVec
	RateLimitedRequests    *prometheus.CounterVec
	IntentBudgetErrors     prometheus.Counter
	NotificationsDelivered *prometheus.CounterVec
}

// New registers all metrics on the default Prometheus registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers all metrics on reg. Tests pass prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000},
			},
			[]string{"method", "path"},
		),

		PaymentIntentsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_intents_created_total",
				Help: "Total number of payment intents created",
			},
			[]string{"tax"}, // calculated, skipped
		),
		PaymentIntentFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_intent_failures_total",
				Help: "Total number of failed payment intent requests",
			},
			[]string{"reason"},
		),
		ContactSubmissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_submissions_total",
				Help: "Total number of contact form submissions",
			},
			[]string{"result"}, // created, existing, invalid, failed
		),
		OnboardingSubmissions: f.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_submissions_total",
			Help: "Total number of onboarding submissions",
		}),
		WebVitals: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "web_vital_value",
				Help:    "Reported web-vitals values (milliseconds, CLS unitless)",
				Buckets: []float64{0.05, 0.1, 0.25, 50, 100, 200, 500, 1000, 2500, 4000, 10000},
			},
			[]string{"name", "rating"},
		),
		RateLimitedRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Total number of requests rejected by a limiter",
			},
			[]string{"limiter"}, // ip, intent_budget
		),
		IntentBudgetErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "intent_budget_errors_total",
			Help: "Redis errors while checking the payment intent budget",
		}),
		NotificationsDelivered: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_total",
				Help: "Contact and onboarding notifications by channel and result",
			},
			[]string{"channel", "result"},
		),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, not the raw URL

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, status).Observe(time.Since(start).Seconds())
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordPaymentIntent counts a created intent.
func (m *Metrics) RecordPaymentIntent(withTax bool) {
	if m == nil {
		return
	}
	label := "skipped"
	if withTax {
		label = "calculated"
	}
	m.PaymentIntentsCreated.WithLabelValues(label).Inc()
}

// RecordPaymentIntentFailure counts a failed intent request by error code.
func (m *Metrics) RecordPaymentIntentFailure(reason string) {
	if m == nil {
		return
	}
	m.PaymentIntentFailures.WithLabelValues(reason).Inc()
}

// RecordContact counts a contact submission outcome.
func (m *Metrics) RecordContact(result string) {
	if m == nil {
		return
	}
	m.ContactSubmissions.WithLabelValues(result).Inc()
}

// RecordOnboarding increments onboarding submissions counter
func (m *Metrics) RecordOnboarding() {
	if m == nil {
		return
	}
	m.OnboardingSubmissions.Inc()
}

// ObserveWebVital records a web-vitals beacon.
func (m *Metrics) ObserveWebVital(name, rating string, value float64) {
	if m == nil {
		return
	}
	if rating == "" {
		rating = "unknown"
	}
	m.WebVitals.WithLabelValues(name, rating).Observe(value)
}

// RecordRateLimited counts a request rejected by the named limiter.
func (m *Metrics) RecordRateLimited(limiter string) {
	if m == nil {
		return
	}
	m.RateLimitedRequests.WithLabelValues(limiter).Inc()
}

// RecordIntentBudgetError counts a Redis failure in the intent budget.
func (m *Metrics) RecordIntentBudgetError() {
	if m == nil {
		return
	}
	m.IntentBudgetErrors.Inc()
}

// RecordNotification counts a notification attempt.
func (m *Metrics) RecordNotification(channel string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.NotificationsDelivered.WithLabelValues(channel, result).Inc()
}
