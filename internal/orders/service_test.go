package orders

import (
	"context"
	"testing"
	"time"

	"github.com/commercebridge/ucp-gateway/internal/backend"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

// readerAdapter stubs a backend that holds order records.
type readerAdapter struct {
	backend.Adapter
	orders map[string]*backend.OrderRecord
}

func (a *readerAdapter) GetOrder(_ context.Context, id string) (*backend.OrderRecord, error) {
	return a.orders[id], nil
}

// plainAdapter has no order capability.
type plainAdapter struct {
	backend.Adapter
}

func sampleRecord() *backend.OrderRecord {
	email := "buyer@example.com"
	first := "Ada"
	last := "Lovelace"
	return &backend.OrderRecord{
		ID:            "order_42",
		CartRef:       "cart_1",
		Status:        "processing",
		Currency:      "USD",
		SubtotalMinor: 5998,
		TaxMinor:      1499,
		TotalMinor:    7497,
		PermalinkURL:  "https://store.example/orders/order_42",
		CreatedAt:     time.Date(2026, 1, 11, 12, 0, 0, 0, time.UTC),
		Lines: []backend.OrderLine{
			{ProductID: "prod_001", Title: "Sample Product 1", Quantity: 2, UnitPriceMinor: 2999},
		},
		BuyerEmail:     &email,
		BuyerFirstName: &first,
		BuyerLastName:  &last,
		ShippingAddress: &ucp.PostalAddress{
			StreetAddress:   "1 Main St",
			AddressLocality: "Portland",
			AddressRegion:   "OR",
			PostalCode:      "97201",
			AddressCountry:  "US",
		},
	}
}

func TestGetFormatsOrder(t *testing.T) {
	adapter := &readerAdapter{orders: map[string]*backend.OrderRecord{"order_42": sampleRecord()}}
	svc, err := NewService(adapter)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	order, err := svc.Get(context.Background(), "order_42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if order.ID != "order_42" || order.CheckoutID != "cart_1" {
		t.Errorf("ids = %q %q", order.ID, order.CheckoutID)
	}
	if order.Status != "confirmed" {
		t.Errorf("status = %q, want confirmed for processing", order.Status)
	}
	if len(order.LineItems) != 1 || order.LineItems[0].Item.Price != 2999 {
		t.Fatalf("line items = %+v", order.LineItems)
	}
	if order.LineItems[0].Totals[0].Amount != 5998 {
		t.Errorf("line total = %d", order.LineItems[0].Totals[0].Amount)
	}

	var total int64
	for _, entry := range order.Totals {
		if entry.Type == ucp.TotalTotal {
			total = entry.Amount
		}
	}
	if total != 7497 {
		t.Errorf("total = %d", total)
	}

	if order.Buyer == nil || *order.Buyer.Email != "buyer@example.com" {
		t.Errorf("buyer = %+v", order.Buyer)
	}
	if order.Fulfillment == nil || order.Fulfillment.Status != "pending" {
		t.Errorf("fulfillment = %+v", order.Fulfillment)
	}
	if order.Fulfillment.Destination == nil || order.Fulfillment.Destination.FullName == nil ||
		*order.Fulfillment.Destination.FullName != "Ada Lovelace" {
		t.Errorf("destination = %+v", order.Fulfillment.Destination)
	}
}

func TestGetStatusMapping(t *testing.T) {
	cases := map[string]string{
		"pending":   "pending",
		"shipped":   "confirmed",
		"delivered": "completed",
		"canceled":  "cancelled",
		"weird":     "pending",
	}
	for platformStatus, want := range cases {
		record := sampleRecord()
		record.Status = platformStatus
		adapter := &readerAdapter{orders: map[string]*backend.OrderRecord{"order_42": record}}
		svc, _ := NewService(adapter)

		order, err := svc.Get(context.Background(), "order_42")
		if err != nil {
			t.Fatalf("Get(%s): %v", platformStatus, err)
		}
		if order.Status != want {
			t.Errorf("status %q mapped to %q, want %q", platformStatus, order.Status, want)
		}
	}
}

func TestGetMissingOrder(t *testing.T) {
	adapter := &readerAdapter{orders: map[string]*backend.OrderRecord{}}
	svc, _ := NewService(adapter)

	_, err := svc.Get(context.Background(), "order_404")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetWithoutOrderCapability(t *testing.T) {
	svc, _ := NewService(plainAdapter{})

	_, err := svc.Get(context.Background(), "order_42")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for capability-less backend, got %v", err)
	}
}
