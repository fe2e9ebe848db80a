package ucp

import "time"

// Version is the UCP protocol revision this gateway speaks.
const Version = "2026-01-11"

// Capability names advertised by the gateway.
const (
	CapabilityCheckout    = "dev.ucp.shopping.checkout"
	CapabilityFulfillment = "dev.ucp.shopping.fulfillment"
	ServiceShopping       = "dev.ucp.shopping"
)

// TotalType classifies an entry in a totals sequence.
type TotalType string

const (
	TotalSubtotal TotalType = "subtotal"
	TotalTax      TotalType = "tax"
	TotalShipping TotalType = "shipping"
	TotalTotal    TotalType = "total"
)

// Total is a single monetary line in a session or order. Amount is
// always minor units (cents) in the session currency.
type Total struct {
	Type        TotalType `json:"type"`
	DisplayText string    `json:"display_text,omitempty"`
	Amount      int64     `json:"amount"`
}

// Item describes the purchasable a line item references.
type Item struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    int64   `json:"price"`
	ImageURL *string `json:"image_url"`
}

// LineItem is one entry in a checkout session.
type LineItem struct {
	ID       string  `json:"id"`
	Item     Item    `json:"item"`
	Quantity int     `json:"quantity"`
	Totals   []Total `json:"totals"`
	ParentID *string `json:"parent_id"`
}

// Buyer carries the customer identity attached to a session. All
// fields are optional; updates merge field by field.
type Buyer struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	FullName    *string `json:"full_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

// PostalAddress is the UCP fulfillment address shape.
type PostalAddress struct {
	FullName       *string `json:"full_name,omitempty"`
	StreetAddress  string  `json:"street_address"`
	AddressLocality string `json:"address_locality"`
	AddressRegion  string  `json:"address_region"`
	PostalCode     string  `json:"postal_code"`
	AddressCountry string  `json:"address_country"`
}

// PaymentHandler advertises one payment integration in the discovery
// profile and in session payment blocks.
type PaymentHandler struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Version           string         `json:"version"`
	Spec              string         `json:"spec"`
	ConfigSchema      string         `json:"config_schema"`
	InstrumentSchemas []string       `json:"instrument_schemas"`
	Config            map[string]any `json:"config"`
}

// PaymentInstrument is a tokenized instrument supplied by the caller.
type PaymentInstrument struct {
	ID        string         `json:"id"`
	HandlerID string         `json:"handler_id"`
	Data      map[string]any `json:"data"`
}

// Payment groups handler and instrument state on a session.
type Payment struct {
	Handlers             []PaymentHandler    `json:"handlers"`
	SelectedInstrumentID *string             `json:"selected_instrument_id"`
	Instruments          []PaymentInstrument `json:"instruments"`
}

// Capability is one protocol capability entry.
type Capability struct {
	Name    string         `json:"name"`
	Version string         `json:"version"`
	Spec    *string        `json:"spec"`
	Schema  *string        `json:"schema"`
	Extends *string        `json:"extends"`
	Config  map[string]any `json:"config"`
}

// Envelope is the "ucp" block embedded in every session payload.
type Envelope struct {
	Version      string       `json:"version"`
	Capabilities []Capability `json:"capabilities"`
}

// SessionEnvelope returns the envelope attached to session responses.
func SessionEnvelope() Envelope {
	return Envelope{
		Version: Version,
		Capabilities: []Capability{
			{Name: CapabilityCheckout, Version: Version},
		},
	}
}

// CheckoutSession is the protocol representation of a cart in
// progress. Field names follow the UCP checkout-session JSON schema.
type CheckoutSession struct {
	UCP                Envelope       `json:"ucp"`
	ID                 string         `json:"id"`
	LineItems          []LineItem     `json:"line_items"`
	Buyer              *Buyer         `json:"buyer"`
	Status             Status         `json:"status"`
	Currency           string         `json:"currency"`
	Totals             []Total        `json:"totals"`
	Messages           []any          `json:"messages"`
	Links              []any          `json:"links"`
	FulfillmentAddress *PostalAddress `json:"fulfillment_address,omitempty"`
	ExpiresAt          *time.Time     `json:"expires_at"`
	ContinueURL        string         `json:"continue_url"`
	Payment            Payment        `json:"payment"`
	OrderID            *string        `json:"order_id"`
	OrderPermalinkURL  *string        `json:"order_permalink_url"`
}

// TotalAmount returns the amount for the given total type, or zero
// when the type is absent.
func (s *CheckoutSession) TotalAmount(t TotalType) int64 {
	for _, total := range s.Totals {
		if total.Type == t {
			return total.Amount
		}
	}
	return 0
}

// Fulfillment describes shipment state on a finalized order.
type Fulfillment struct {
	MethodType     string         `json:"method_type"`
	Destination    *PostalAddress `json:"destination"`
	Status         string         `json:"status"`
	TrackingNumber *string        `json:"tracking_number"`
	TrackingURL    *string        `json:"tracking_url"`
}

// Order is the protocol representation of a finalized backend order.
type Order struct {
	UCP          Envelope     `json:"ucp"`
	ID           string       `json:"id"`
	CheckoutID   string       `json:"checkout_id"`
	Status       string       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	LineItems    []LineItem   `json:"line_items"`
	Buyer        *Buyer       `json:"buyer"`
	Totals       []Total      `json:"totals"`
	Currency     string       `json:"currency"`
	PermalinkURL string       `json:"permalink_url"`
	Fulfillment  *Fulfillment `json:"fulfillment"`
}

// Product is the catalog shape exposed on the products endpoints.
type Product struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Price         int64   `json:"price"`
	Currency      string  `json:"currency"`
	ImageURL      *string `json:"image_url"`
	Available     bool    `json:"available"`
	StockQuantity *int    `json:"stock_quantity,omitempty"`
	SKU           string  `json:"sku,omitempty"`
	Permalink     string  `json:"permalink,omitempty"`
}
