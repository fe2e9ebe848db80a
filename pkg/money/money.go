package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a backend-native decimal amount string into an
// integer amount of minor units (cents). Rounding is half-up and this
// function is the single rounding authority: every backend amount
// crossing into the protocol goes through here so the two backends
// cannot drift apart on rounding.
func ToMinorUnits(amount string) (int64, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return 0, fmt.Errorf("money: empty amount")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("money: parse %q: %w", amount, err)
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// FromMinorUnits converts minor units back to a decimal major-unit amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred)
}

// LineItemsSubtotal sums unit price times quantity across line items.
// The result must equal the session's subtotal total.
func LineItemsSubtotal(items []ucp.LineItem) int64 {
	var sum int64
	for _, li := range items {
		sum += li.Item.Price * int64(li.Quantity)
	}
	return sum
}

// TaxPolicy computes tax in minor units from a subtotal in minor
// units. The local backend carries a flat placeholder rate; remote
// backends delegate tax to the platform and use NoTax here.
type TaxPolicy interface {
	Tax(subtotalMinor int64) int64
}

// FlatRate is the placeholder flat-percentage policy. It truncates
// toward zero, matching the reference backends.
type FlatRate struct {
	rate decimal.Decimal
}

// NewFlatRate parses a fractional rate such as "0.25".
func NewFlatRate(rate string) (FlatRate, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(rate))
	if err != nil {
		return FlatRate{}, fmt.Errorf("money: parse tax rate %q: %w", rate, err)
	}
	if d.IsNegative() {
		return FlatRate{}, fmt.Errorf("money: tax rate must not be negative")
	}
	return FlatRate{rate: d}, nil
}

func (f FlatRate) Tax(subtotalMinor int64) int64 {
	return decimal.NewFromInt(subtotalMinor).Mul(f.rate).IntPart()
}

// Rate exposes the configured fraction, mainly for logging.
func (f FlatRate) Rate() decimal.Decimal {
	return f.rate
}

// NoTax is the policy for backends that price tax themselves.
type NoTax struct{}

func (NoTax) Tax(int64) int64 { return 0 }
