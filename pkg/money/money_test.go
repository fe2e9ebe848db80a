package money

import (
	"testing"

	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"19.99", 1999},
		{"0", 0},
		{"0.005", 1},    // half rounds up
		{"10.004", 1000},
		{"10.005", 1001},
		{"1234.5", 123450},
		{" 7.25 ", 725},
	}

	for _, tt := range tests {
		got, err := ToMinorUnits(tt.in)
		if err != nil {
			t.Fatalf("ToMinorUnits(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ToMinorUnits(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestToMinorUnitsRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "12.3.4"} {
		if _, err := ToMinorUnits(in); err == nil {
			t.Fatalf("ToMinorUnits(%q) expected error", in)
		}
	}
}

func TestFromMinorUnitsRoundTrips(t *testing.T) {
	got := FromMinorUnits(1999)
	if got.String() != "19.99" {
		t.Fatalf("FromMinorUnits(1999) = %s, want 19.99", got)
	}
}

func TestLineItemsSubtotal(t *testing.T) {
	items := []ucp.LineItem{
		{Item: ucp.Item{Price: 1999}, Quantity: 2},
		{Item: ucp.Item{Price: 500}, Quantity: 3},
	}
	if got := LineItemsSubtotal(items); got != 5498 {
		t.Fatalf("subtotal = %d, want 5498", got)
	}
	if got := LineItemsSubtotal(nil); got != 0 {
		t.Fatalf("empty subtotal = %d, want 0", got)
	}
}

func TestFlatRateTaxTruncates(t *testing.T) {
	policy, err := NewFlatRate("0.25")
	if err != nil {
		t.Fatalf("NewFlatRate returned error: %v", err)
	}
	if got := policy.Tax(3998); got != 999 {
		t.Fatalf("Tax(3998) = %d, want 999", got)
	}
	if got := policy.Tax(0); got != 0 {
		t.Fatalf("Tax(0) = %d, want 0", got)
	}
}

func TestNewFlatRateRejectsInvalid(t *testing.T) {
	if _, err := NewFlatRate("not-a-rate"); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := NewFlatRate("-0.1"); err == nil {
		t.Fatal("expected negative rate to be rejected")
	}
}

func TestNoTax(t *testing.T) {
	if got := (NoTax{}).Tax(123456); got != 0 {
		t.Fatalf("NoTax should always be zero, got %d", got)
	}
}
