package local

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/commercebridge/ucp-gateway/internal/backend"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

// GetOrder loads a finalized order with its lines and the buyer
// snapshot kept on the originating cart. Returns nil when absent.
func (p *Platform) GetOrder(ctx context.Context, id string) (*backend.OrderRecord, error) {
	var order Order
	err := p.client.DB().WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "loading order")
	}

	record := &backend.OrderRecord{
		ID:            order.ID,
		CartRef:       order.CartID,
		Status:        order.Status,
		Currency:      order.Currency,
		SubtotalMinor: order.SubtotalMinor,
		TaxMinor:      order.TaxMinor,
		TotalMinor:    order.TotalMinor,
		PermalinkURL:  order.PermalinkURL,
		CreatedAt:     order.CreatedAt,
	}
	for _, item := range order.Items {
		record.Lines = append(record.Lines, backend.OrderLine{
			ProductID:      item.ProductID,
			Title:          item.Title,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
		})
	}

	var cart Cart
	err = p.client.DB().WithContext(ctx).First(&cart, "id = ?", order.CartID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "loading order cart")
	}
	if err == nil {
		record.BuyerEmail = cart.BuyerEmail
		record.BuyerFirstName = cart.BuyerFirstName
		record.BuyerLastName = cart.BuyerLastName
		record.BuyerPhone = cart.BuyerPhone
		if cart.AddressLineOne != nil {
			record.ShippingAddress = &ucp.PostalAddress{
				FullName:        cart.AddressName,
				StreetAddress:   stringOrEmpty(cart.AddressLineOne),
				AddressLocality: stringOrEmpty(cart.AddressCity),
				AddressRegion:   stringOrEmpty(cart.AddressState),
				PostalCode:      stringOrEmpty(cart.AddressPostal),
				AddressCountry:  stringOrEmpty(cart.AddressCountry),
			}
		}
	}

	return record, nil
}

func stringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
