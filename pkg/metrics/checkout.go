package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records session lifecycle and webhook activity.
type CheckoutMetrics struct {
	requestDuration *prometheus.HistogramVec
	sessionsCreated *prometheus.CounterVec
	sessionsDone    *prometheus.CounterVec
	webhookResults  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the gateway metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of handled HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Checkout sessions created, by backend.",
	}, []string{"backend"})
	completed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_completed_total",
		Help: "Checkout sessions completed, by backend.",
	}, []string{"backend"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Webhook delivery attempts, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, created, completed, webhooks)
	return &CheckoutMetrics{
		requestDuration: duration,
		sessionsCreated: created,
		sessionsDone:    completed,
		webhookResults:  webhooks,
	}
}

// ObserveRequest records the duration of one handled request.
func (c *CheckoutMetrics) ObserveRequest(route, method, status string, duration time.Duration) {
	if c == nil || c.requestDuration == nil {
		return
	}
	c.requestDuration.WithLabelValues(normalizeLabel(route), normalizeLabel(method), normalizeLabel(status)).Observe(duration.Seconds())
}

// IncSessionCreated increments the created counter for the named backend.
func (c *CheckoutMetrics) IncSessionCreated(backend string) {
	if c == nil || c.sessionsCreated == nil {
		return
	}
	c.sessionsCreated.WithLabelValues(normalizeLabel(backend)).Inc()
}

// IncSessionCompleted increments the completed counter for the named backend.
func (c *CheckoutMetrics) IncSessionCompleted(backend string) {
	if c == nil || c.sessionsDone == nil {
		return
	}
	c.sessionsDone.WithLabelValues(normalizeLabel(backend)).Inc()
}

// IncWebhookDelivery increments the webhook counter for the outcome
// ("ok" or "error").
func (c *CheckoutMetrics) IncWebhookDelivery(outcome string) {
	if c == nil || c.webhookResults == nil {
		return
	}
	c.webhookResults.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
