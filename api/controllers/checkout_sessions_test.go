package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	checkoutsvc "github.com/commercebridge/ucp-gateway/internal/checkout"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

type checkoutStub struct {
	lastKey    string
	lastID     string
	lastCreate checkoutsvc.CreateRequest
	lastUpdate checkoutsvc.UpdateRequest
	session    *ucp.CheckoutSession
	err        error
}

func (s *checkoutStub) Create(_ context.Context, req checkoutsvc.CreateRequest, key string) (*ucp.CheckoutSession, error) {
	s.lastCreate = req
	s.lastKey = key
	return s.session, s.err
}

func (s *checkoutStub) Get(_ context.Context, id string) (*ucp.CheckoutSession, error) {
	s.lastID = id
	return s.session, s.err
}

func (s *checkoutStub) Update(_ context.Context, id string, req checkoutsvc.UpdateRequest) (*ucp.CheckoutSession, error) {
	s.lastID = id
	s.lastUpdate = req
	return s.session, s.err
}

func (s *checkoutStub) Complete(_ context.Context, id string) (*ucp.CheckoutSession, error) {
	s.lastID = id
	return s.session, s.err
}

func sessionRouter(stub *checkoutStub) http.Handler {
	r := chi.NewRouter()
	r.Post("/checkout-sessions", CreateCheckoutSession(stub, nil))
	r.Get("/checkout-sessions/{id}", GetCheckoutSession(stub, nil))
	r.Put("/checkout-sessions/{id}", UpdateCheckoutSession(stub, nil))
	r.Post("/checkout-sessions/{id}/complete", CompleteCheckoutSession(stub, nil))
	return r
}

func TestCreateCheckoutSessionPassesKeyAndBody(t *testing.T) {
	stub := &checkoutStub{session: &ucp.CheckoutSession{ID: "cart_1", Status: ucp.StatusReadyForComplete}}
	router := sessionRouter(stub)

	body := `{"line_items":[{"item":{"id":"prod_001"},"quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/checkout-sessions", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "key_abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d: %s", w.Code, w.Body.String())
	}
	if stub.lastKey != "key_abc" {
		t.Fatalf("expected idempotency key to reach the engine, got %q", stub.lastKey)
	}
	if len(stub.lastCreate.LineItems) != 1 || stub.lastCreate.LineItems[0].Quantity != 2 {
		t.Fatalf("unexpected decoded payload %+v", stub.lastCreate)
	}

	var session ucp.CheckoutSession
	if err := json.NewDecoder(w.Body).Decode(&session); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if session.ID != "cart_1" {
		t.Fatalf("unexpected session id %q", session.ID)
	}
}

func TestCreateCheckoutSessionRejectsEmptyLines(t *testing.T) {
	stub := &checkoutStub{}
	router := sessionRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/checkout-sessions", strings.NewReader(`{"line_items":[]}`))
	req.Header.Set("Idempotency-Key", "key_abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", w.Code)
	}
}

func TestGetCheckoutSessionNotFound(t *testing.T) {
	stub := &checkoutStub{err: pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")}
	router := sessionRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/checkout-sessions/cart_missing", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 but got %d", w.Code)
	}
	if stub.lastID != "cart_missing" {
		t.Fatalf("expected url param to reach the engine, got %q", stub.lastID)
	}
}

func TestUpdateCheckoutSessionDecodesAddress(t *testing.T) {
	stub := &checkoutStub{session: &ucp.CheckoutSession{ID: "cart_1"}}
	router := sessionRouter(stub)

	body := `{"fulfillment_address":{"street_address":"1 Main St","address_locality":"Oslo","address_country":"NO","postal_code":"0150"}}`
	req := httptest.NewRequest(http.MethodPut, "/checkout-sessions/cart_1", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d: %s", w.Code, w.Body.String())
	}
	if stub.lastUpdate.FulfillmentAddress == nil || stub.lastUpdate.FulfillmentAddress.AddressLocality != "Oslo" {
		t.Fatalf("unexpected decoded address %+v", stub.lastUpdate.FulfillmentAddress)
	}
}

func TestCompleteCheckoutSessionReturnsOrder(t *testing.T) {
	orderID := "order_42"
	stub := &checkoutStub{session: &ucp.CheckoutSession{
		ID:      "cart_1",
		Status:  ucp.StatusCompleted,
		OrderID: &orderID,
	}}
	router := sessionRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout-sessions/cart_1/complete", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", w.Code)
	}

	var session ucp.CheckoutSession
	if err := json.NewDecoder(w.Body).Decode(&session); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if session.OrderID == nil || *session.OrderID != "order_42" {
		t.Fatalf("expected order id in payload, got %+v", session.OrderID)
	}
}
