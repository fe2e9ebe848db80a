// Package backend defines the commerce backend contract the checkout
// engine drives. Each backend exposes its catalog and cart operations
// in native terms; the engine translates those into checkout sessions.
package backend

import (
	"context"
	"time"

	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

// Product is a purchasable catalog entry in backend-native terms.
type Product struct {
	ID          string
	Title       string
	Description string
	PriceMinor  int64
	Currency    string
	ImageURL    string
	Available   bool
	VariantRef  string
	SKU         string
	Permalink   string
	Stock       *int
}

// CartLine is one requested line when creating or replacing cart contents.
type CartLine struct {
	VariantRef string
	Quantity   int
}

// CartItem is a priced line inside a backend cart. Money fields are
// backend-native decimal strings; pkg/money normalizes them.
type CartItem struct {
	VariantRef string
	Title      string
	Quantity   int
	UnitPrice  string
	LinePrice  string
}

// Cart is a backend cart snapshot.
type Cart struct {
	Ref         string
	ContinueURL string
	Email       string
	Currency    string
	Items       []CartItem
	Subtotal    string
	Tax         string
	Shipping    string
	Total       string
	Completed   bool
}

// CartUpdate carries the mutable buyer-facing fields of a cart. Nil
// fields are left untouched.
type CartUpdate struct {
	Email           *string
	ShippingAddress *ucp.PostalAddress
}

// Outcome distinguishes the two ways a backend can react to completion.
type Outcome string

const (
	// OutcomeOrderCreated means the backend produced a real order.
	OutcomeOrderCreated Outcome = "order_created"

	// OutcomeHostedCheckout means the backend defers order creation to
	// its own hosted checkout page.
	OutcomeHostedCheckout Outcome = "hosted_checkout"
)

// FinalizeResult reports what happened when a cart was finalized.
// OrderID and PermalinkURL are set only for OutcomeOrderCreated.
type FinalizeResult struct {
	Outcome      Outcome
	OrderID      string
	PermalinkURL string
}

// Adapter is the minimal surface a commerce backend must provide.
// Lookup methods return (nil, nil) when the entity does not exist;
// transport and platform failures come back as typed errors.
type Adapter interface {
	// Name identifies the backend in logs, metrics and stored records.
	Name() string

	ListProducts(ctx context.Context, limit int) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)

	CreateCart(ctx context.Context, lines []CartLine) (*Cart, error)
	GetCart(ctx context.Context, ref string) (*Cart, error)
	UpdateCart(ctx context.Context, ref string, update CartUpdate) (*Cart, error)
	FinalizeCart(ctx context.Context, ref string) (*FinalizeResult, error)

	PaymentHandlers(ctx context.Context) ([]ucp.PaymentHandler, error)
}

// LineReplacer is an optional capability: backends that can swap the
// full contents of an existing cart implement it. Backends without it
// force the engine to reject line item updates.
type LineReplacer interface {
	ReplaceLines(ctx context.Context, ref string, lines []CartLine) (*Cart, error)
}

// OrderLine is one purchased line on a finalized order.
type OrderLine struct {
	ProductID      string
	Title          string
	Quantity       int
	UnitPriceMinor int64
}

// OrderRecord is a finalized order in backend-native terms.
type OrderRecord struct {
	ID              string
	CartRef         string
	Status          string
	Currency        string
	SubtotalMinor   int64
	TaxMinor        int64
	TotalMinor      int64
	PermalinkURL    string
	CreatedAt       time.Time
	Lines           []OrderLine
	BuyerEmail      *string
	BuyerFirstName  *string
	BuyerLastName   *string
	BuyerPhone      *string
	ShippingAddress *ucp.PostalAddress
}

// OrderReader is an optional capability: backends that hold order
// records locally implement it. Hosted-checkout backends keep orders
// on their own platform and do not.
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*OrderRecord, error)
}
