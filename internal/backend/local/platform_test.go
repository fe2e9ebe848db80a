package local

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/commercebridge/ucp-gateway/internal/backend"
	"github.com/commercebridge/ucp-gateway/pkg/config"
	"github.com/commercebridge/ucp-gateway/pkg/db"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
	"github.com/commercebridge/ucp-gateway/pkg/money"
)

func newTestPlatform(t *testing.T) *Platform {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	logg := logger.New(logger.Options{ServiceName: "local-test"})
	client, err := db.New(context.Background(), config.DBConfig{DSN: dsn, Driver: "sqlite"}, logg)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	err = client.DB().AutoMigrate(&Product{}, &Cart{}, &CartItem{}, &Order{}, &OrderItem{}, &PaymentGateway{})
	if err != nil {
		t.Fatalf("migrating schema: %v", err)
	}

	taxes, err := money.NewFlatRate("0.25")
	if err != nil {
		t.Fatalf("building tax policy: %v", err)
	}

	platform, err := New(client, taxes, "https://store.example", logg)
	if err != nil {
		t.Fatalf("building platform: %v", err)
	}
	if err := platform.Seed(context.Background()); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	return platform
}

func TestListAndGetProducts(t *testing.T) {
	platform := newTestPlatform(t)
	ctx := context.Background()

	products, err := platform.ListProducts(ctx, 10)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 seeded products, got %d", len(products))
	}

	product, err := platform.GetProduct(ctx, "prod_001")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if product == nil || product.PriceMinor != 2999 || !product.Available {
		t.Fatalf("product = %+v", product)
	}

	missing, err := platform.GetProduct(ctx, "prod_999")
	if err != nil {
		t.Fatalf("GetProduct missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown product, got %+v", missing)
	}
}

func TestCreateCartQuotesTotals(t *testing.T) {
	platform := newTestPlatform(t)
	ctx := context.Background()

	cart, err := platform.CreateCart(ctx, []backend.CartLine{
		{VariantRef: "prod_001", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("CreateCart: %v", err)
	}

	if !strings.HasPrefix(cart.Ref, "cart_") {
		t.Errorf("cart ref = %q", cart.Ref)
	}
	if cart.ContinueURL != "https://store.example/checkout" {
		t.Errorf("continue url = %q", cart.ContinueURL)
	}
	if len(cart.Items) != 1 || cart.Items[0].Title != "Sample Product 1" {
		t.Fatalf("items = %+v", cart.Items)
	}
	// 2 x 29.99 = 59.98, flat 25% truncates to 14.99
	if cart.Subtotal != "59.98" || cart.Tax != "14.99" || cart.Total != "74.97" {
		t.Errorf("totals = subtotal %s tax %s total %s", cart.Subtotal, cart.Tax, cart.Total)
	}
}

func TestCreateCartUnknownProduct(t *testing.T) {
	platform := newTestPlatform(t)

	_, err := platform.CreateCart(context.Background(), []backend.CartLine{
		{VariantRef: "prod_404", Quantity: 1},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}
}

func TestCreateCartRejectsBadQuantity(t *testing.T) {
	platform := newTestPlatform(t)

	_, err := platform.CreateCart(context.Background(), []backend.CartLine{
		{VariantRef: "prod_001", Quantity: 0},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = platform.CreateCart(context.Background(), nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty lines, got %v", err)
	}
}

func TestUpdateCartBuyerAndAddress(t *testing.T) {
	platform := newTestPlatform(t)
	ctx := context.Background()

	cart, err := platform.CreateCart(ctx, []backend.CartLine{{VariantRef: "prod_001", Quantity: 1}})
	if err != nil {
		t.Fatalf("CreateCart: %v", err)
	}

	email := "buyer@example.com"
	updated, err := platform.UpdateCart(ctx, cart.Ref, backend.CartUpdate{Email: &email})
	if err != nil {
		t.Fatalf("UpdateCart: %v", err)
	}
	if updated.Email != email {
		t.Errorf("email = %q", updated.Email)
	}

	_, err = platform.UpdateCart(ctx, "cart_missing", backend.CartUpdate{Email: &email})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReplaceLines(t *testing.T) {
	platform := newTestPlatform(t)
	ctx := context.Background()

	cart, err := platform.CreateCart(ctx, []backend.CartLine{{VariantRef: "prod_001", Quantity: 1}})
	if err != nil {
		t.Fatalf("CreateCart: %v", err)
	}

	replaced, err := platform.ReplaceLines(ctx, cart.Ref, []backend.CartLine{
		{VariantRef: "prod_002", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("ReplaceLines: %v", err)
	}
	if len(replaced.Items) != 1 || replaced.Items[0].VariantRef != "prod_002" || replaced.Items[0].Quantity != 3 {
		t.Fatalf("items = %+v", replaced.Items)
	}
	// 3 x 49.99 = 149.97
	if replaced.Subtotal != "149.97" {
		t.Errorf("subtotal = %s", replaced.Subtotal)
	}

	_, err = platform.ReplaceLines(ctx, cart.Ref, []backend.CartLine{{VariantRef: "prod_404", Quantity: 1}})
	if !pkgerrors.HasCode(err, pkgerrors.CodeItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}
}

func TestFinalizeCartCreatesOrderOnce(t *testing.T) {
	platform := newTestPlatform(t)
	ctx := context.Background()

	cart, err := platform.CreateCart(ctx, []backend.CartLine{{VariantRef: "prod_001", Quantity: 2}})
	if err != nil {
		t.Fatalf("CreateCart: %v", err)
	}

	result, err := platform.FinalizeCart(ctx, cart.Ref)
	if err != nil {
		t.Fatalf("FinalizeCart: %v", err)
	}
	if result.Outcome != backend.OutcomeOrderCreated {
		t.Fatalf("outcome = %q", result.Outcome)
	}
	if !strings.HasPrefix(result.OrderID, "order_") {
		t.Errorf("order id = %q", result.OrderID)
	}
	if result.PermalinkURL != "https://store.example/orders/"+result.OrderID {
		t.Errorf("permalink = %q", result.PermalinkURL)
	}

	again, err := platform.FinalizeCart(ctx, cart.Ref)
	if err != nil {
		t.Fatalf("second FinalizeCart: %v", err)
	}
	if again.OrderID != result.OrderID {
		t.Errorf("finalize is not idempotent: %q vs %q", again.OrderID, result.OrderID)
	}

	snapshot, err := platform.GetCart(ctx, cart.Ref)
	if err != nil {
		t.Fatalf("GetCart after finalize: %v", err)
	}
	if !snapshot.Completed {
		t.Errorf("cart should be marked completed")
	}
}

func TestFinalizeMissingCart(t *testing.T) {
	platform := newTestPlatform(t)

	_, err := platform.FinalizeCart(context.Background(), "cart_missing")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPaymentHandlersListEnabledGateways(t *testing.T) {
	platform := newTestPlatform(t)
	ctx := context.Background()

	handlers, err := platform.PaymentHandlers(ctx)
	if err != nil {
		t.Fatalf("PaymentHandlers: %v", err)
	}
	if len(handlers) != 2 {
		t.Fatalf("handlers = %+v", handlers)
	}
	if handlers[0].ID != "bank_transfer" || handlers[1].ID != "cod" {
		t.Errorf("gateway order = %+v", handlers)
	}

	err = platform.client.DB().Model(&PaymentGateway{}).Where("id = ?", "cod").Update("enabled", false).Error
	if err != nil {
		t.Fatalf("disabling gateway: %v", err)
	}
	handlers, err = platform.PaymentHandlers(ctx)
	if err != nil {
		t.Fatalf("PaymentHandlers after disable: %v", err)
	}
	if len(handlers) != 1 || handlers[0].ID != "bank_transfer" {
		t.Errorf("handlers = %+v", handlers)
	}
}
