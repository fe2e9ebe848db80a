package local

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
)

// Seed installs the demo catalog and the default payment gateway.
// Existing rows keep their current values.
func (p *Platform) Seed(ctx context.Context) error {
	products := []Product{
		{
			ID:          "prod_001",
			Title:       "Sample Product 1",
			Description: "A great product",
			PriceMinor:  2999,
			Currency:    "USD",
			ImageURL:    "https://example.com/product1.jpg",
			Active:      true,
		},
		{
			ID:          "prod_002",
			Title:       "Sample Product 2",
			Description: "Another great product",
			PriceMinor:  4999,
			Currency:    "USD",
			ImageURL:    "https://example.com/product2.jpg",
			Active:      true,
		},
	}

	gateways := []PaymentGateway{
		{ID: "bank_transfer", Title: "Direct bank transfer", Enabled: true, Position: 0},
		{ID: "cod", Title: "Cash on delivery", Enabled: true, Position: 1},
	}

	err := p.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&gateways).Error
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeBackend, err, "seeding local platform")
	}
	return nil
}
