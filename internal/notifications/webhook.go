// Package notifications delivers order lifecycle events to a
// configured webhook endpoint. Delivery is fire-and-forget: the
// session transition has already committed by the time an event is
// emitted, so delivery failures are logged and counted, never
// propagated.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/commercebridge/ucp-gateway/pkg/logger"
	"github.com/commercebridge/ucp-gateway/pkg/metrics"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

const eventHeader = "X-UCP-Event"

// Event names emitted on session completion.
const (
	EventOrderCompleted     = "order.completed"
	EventOrderStatusChanged = "order.status_changed"
)

// Event is the webhook payload.
type Event struct {
	Event     string    `json:"event"`
	SessionID string    `json:"session_id"`
	OrderID   string    `json:"order_id"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WebhookSink POSTs events to one configured URL.
type WebhookSink struct {
	url        string
	httpClient *http.Client
	logger     *logger.Logger
	metrics    *metrics.CheckoutMetrics
	now        func() time.Time
}

// NewWebhookSink builds the sink. An empty URL yields a disabled sink
// that drops every event.
func NewWebhookSink(url string, timeout time.Duration, logg *logger.Logger, m *metrics.CheckoutMetrics) (*WebhookSink, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebhookSink{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logg,
		metrics:    m,
		now:        time.Now,
	}, nil
}

// Enabled reports whether a webhook URL is configured.
func (s *WebhookSink) Enabled() bool { return s.url != "" }

// NotifyOrderCompleted emits the completion event for a session.
func (s *WebhookSink) NotifyOrderCompleted(ctx context.Context, session *ucp.CheckoutSession) {
	if !s.Enabled() {
		return
	}

	event := Event{
		Event:     EventOrderCompleted,
		SessionID: session.ID,
		OldStatus: string(ucp.StatusReadyForComplete),
		NewStatus: string(session.Status),
		Timestamp: s.now().UTC(),
	}
	if session.OrderID != nil {
		event.OrderID = *session.OrderID
	}
	s.Send(ctx, event)
}

// Send delivers one event, logging and counting the outcome.
func (s *WebhookSink) Send(ctx context.Context, event Event) {
	if !s.Enabled() {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error(ctx, "encoding webhook event", err)
		s.metrics.IncWebhookDelivery("error")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		s.logger.Error(ctx, "building webhook request", err)
		s.metrics.IncWebhookDelivery("error")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(eventHeader, event.Event)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error(ctx, "delivering webhook event", err)
		s.metrics.IncWebhookDelivery("error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Warn(ctx, fmt.Sprintf("webhook endpoint returned %d", resp.StatusCode))
		s.metrics.IncWebhookDelivery("rejected")
		return
	}

	s.metrics.IncWebhookDelivery("ok")
}

// NopNotifier satisfies the engine's notifier contract when webhooks
// are not configured.
type NopNotifier struct{}

func (NopNotifier) NotifyOrderCompleted(context.Context, *ucp.CheckoutSession) {}
