// Package orders exposes finalized orders in protocol shape. Only
// backends that keep order records locally can serve reads; hosted
// checkout backends report every order as not found.
package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/commercebridge/ucp-gateway/internal/backend"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

// Service reads finalized orders.
type Service interface {
	Get(ctx context.Context, orderID string) (*ucp.Order, error)
}

type service struct {
	adapter backend.Adapter
}

// NewService wires the order read side against the active backend.
func NewService(adapter backend.Adapter) (Service, error) {
	if adapter == nil {
		return nil, fmt.Errorf("backend adapter required")
	}
	return &service{adapter: adapter}, nil
}

func (s *service) Get(ctx context.Context, orderID string) (*ucp.Order, error) {
	reader, ok := s.adapter.(backend.OrderReader)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	record, err := reader.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return formatOrder(record), nil
}

// orderStatus maps platform order states onto protocol order states.
var orderStatus = map[string]string{
	"pending":    "pending",
	"processing": "confirmed",
	"shipped":    "confirmed",
	"delivered":  "completed",
	"canceled":   "cancelled",
}

// fulfillmentStatus maps platform order states onto shipment states.
var fulfillmentStatus = map[string]string{
	"pending":    "pending",
	"processing": "pending",
	"shipped":    "in_transit",
	"delivered":  "delivered",
	"canceled":   "cancelled",
}

func mapStatus(table map[string]string, status string) string {
	if mapped, ok := table[status]; ok {
		return mapped
	}
	return "pending"
}

func formatOrder(record *backend.OrderRecord) *ucp.Order {
	order := &ucp.Order{
		UCP:          ucp.SessionEnvelope(),
		ID:           record.ID,
		CheckoutID:   record.CartRef,
		Status:       mapStatus(orderStatus, record.Status),
		CreatedAt:    record.CreatedAt,
		Currency:     record.Currency,
		PermalinkURL: record.PermalinkURL,
	}

	for i, line := range record.Lines {
		lineTotal := line.UnitPriceMinor * int64(line.Quantity)
		order.LineItems = append(order.LineItems, ucp.LineItem{
			ID: fmt.Sprintf("li_%d", i+1),
			Item: ucp.Item{
				ID:    line.ProductID,
				Title: line.Title,
				Price: line.UnitPriceMinor,
			},
			Quantity: line.Quantity,
			Totals: []ucp.Total{
				{Type: ucp.TotalTotal, DisplayText: "Total", Amount: lineTotal},
			},
		})
	}

	order.Totals = []ucp.Total{
		{Type: ucp.TotalSubtotal, DisplayText: "Subtotal", Amount: record.SubtotalMinor},
		{Type: ucp.TotalTax, DisplayText: "Tax", Amount: record.TaxMinor},
		{Type: ucp.TotalTotal, DisplayText: "Total", Amount: record.TotalMinor},
	}

	if record.BuyerEmail != nil || record.BuyerFirstName != nil || record.BuyerPhone != nil {
		order.Buyer = &ucp.Buyer{
			Email:       record.BuyerEmail,
			FirstName:   record.BuyerFirstName,
			LastName:    record.BuyerLastName,
			PhoneNumber: record.BuyerPhone,
		}
	}

	if record.ShippingAddress != nil {
		destination := *record.ShippingAddress
		if destination.FullName == nil {
			name := strings.TrimSpace(
				stringOrEmpty(record.BuyerFirstName) + " " + stringOrEmpty(record.BuyerLastName))
			if name != "" {
				destination.FullName = &name
			}
		}
		order.Fulfillment = &ucp.Fulfillment{
			MethodType:  "shipping",
			Destination: &destination,
			Status:      mapStatus(fulfillmentStatus, record.Status),
		}
	}

	return order
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
