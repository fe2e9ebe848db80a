package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/commercebridge/ucp-gateway/pkg/logger"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

func TestNotifyOrderCompletedPostsEvent(t *testing.T) {
	var received Event
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-UCP-Event")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding event: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	logg := logger.New(logger.Options{ServiceName: "webhook-test"})
	sink, err := NewWebhookSink(srv.URL, time.Second, logg, nil)
	if err != nil {
		t.Fatalf("NewWebhookSink: %v", err)
	}

	orderID := "order_42"
	session := &ucp.CheckoutSession{
		ID:      "cart_1",
		Status:  ucp.StatusCompleted,
		OrderID: &orderID,
	}
	sink.NotifyOrderCompleted(context.Background(), session)

	if header != EventOrderCompleted {
		t.Errorf("event header = %q", header)
	}
	if received.SessionID != "cart_1" || received.OrderID != "order_42" {
		t.Errorf("event = %+v", received)
	}
	if received.NewStatus != "completed" {
		t.Errorf("new status = %q", received.NewStatus)
	}
	if received.Timestamp.IsZero() {
		t.Errorf("timestamp missing")
	}
}

func TestDisabledSinkDropsEvents(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "webhook-test"})
	sink, err := NewWebhookSink("", time.Second, logg, nil)
	if err != nil {
		t.Fatalf("NewWebhookSink: %v", err)
	}
	if sink.Enabled() {
		t.Fatalf("sink with empty URL must be disabled")
	}
	// must not panic or touch the network
	sink.NotifyOrderCompleted(context.Background(), &ucp.CheckoutSession{ID: "s1"})
}

func TestDeliveryFailureDoesNotPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logg := logger.New(logger.Options{ServiceName: "webhook-test"})
	sink, err := NewWebhookSink(srv.URL, time.Second, logg, nil)
	if err != nil {
		t.Fatalf("NewWebhookSink: %v", err)
	}

	// Send has no error return by contract
	sink.Send(context.Background(), Event{Event: EventOrderStatusChanged, SessionID: "s1"})
}
