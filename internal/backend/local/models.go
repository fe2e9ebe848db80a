// Package local implements the backend contract on top of an
// in-process store platform persisted through GORM. Orders are created
// synchronously at finalize time, so completion never defers to a
// hosted page.
package local

import "time"

// Product is a catalog row. Prices are stored in minor units.
type Product struct {
	ID          string `gorm:"primaryKey"`
	Title       string
	Description string
	PriceMinor  int64
	Currency    string
	ImageURL    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Cart groups the pending purchase state for one checkout session.
type Cart struct {
	ID             string `gorm:"primaryKey"`
	Status         string
	Currency       string
	BuyerFirstName *string
	BuyerLastName  *string
	BuyerEmail     *string
	BuyerPhone     *string
	AddressName    *string
	AddressLineOne *string
	AddressLineTwo *string
	AddressCity    *string
	AddressState   *string
	AddressCountry *string
	AddressPostal  *string
	Items          []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const (
	cartStatusOpen      = "open"
	cartStatusCompleted = "completed"
)

// CartItem is one product line inside a cart. The unit price is
// snapshotted at add time.
type CartItem struct {
	ID             string `gorm:"primaryKey"`
	CartID         string `gorm:"index:idx_cart_items_cart_product,unique"`
	ProductID      string `gorm:"index:idx_cart_items_cart_product,unique"`
	Quantity       int
	UnitPriceMinor int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Order is a finalized purchase.
type Order struct {
	ID            string `gorm:"primaryKey"`
	CartID        string `gorm:"index"`
	Status        string
	Currency      string
	SubtotalMinor int64
	TaxMinor      int64
	TotalMinor    int64
	PermalinkURL  string
	Items         []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const orderStatusPending = "pending"

// OrderItem snapshots one purchased line.
type OrderItem struct {
	ID             string `gorm:"primaryKey"`
	OrderID        string
	ProductID      string
	Title          string
	Quantity       int
	UnitPriceMinor int64
	CreatedAt      time.Time
}

// PaymentGateway is one configured payment option, surfaced as a UCP
// payment handler when enabled.
type PaymentGateway struct {
	ID        string `gorm:"primaryKey"`
	Title     string
	Enabled   bool
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
