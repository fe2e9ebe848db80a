package local

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercebridge/ucp-gateway/internal/backend"
	"github.com/commercebridge/ucp-gateway/pkg/db"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
	"github.com/commercebridge/ucp-gateway/pkg/money"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

// Platform is the in-process store backend.
type Platform struct {
	client  *db.Client
	taxes   money.TaxPolicy
	baseURL string
	logger  *logger.Logger
}

// New wires the platform against the shared DB client.
func New(client *db.Client, taxes money.TaxPolicy, baseURL string, logg *logger.Logger) (*Platform, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if taxes == nil {
		taxes = money.NoTax{}
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Platform{
		client:  client,
		taxes:   taxes,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logg,
	}, nil
}

func (p *Platform) Name() string { return "local" }

// ListProducts returns active catalog rows, newest first.
func (p *Platform) ListProducts(ctx context.Context, limit int) ([]backend.Product, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []Product
	err := p.client.DB().WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "listing products")
	}

	products := make([]backend.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, mapProduct(row))
	}
	return products, nil
}

// GetProduct resolves one product row, nil when absent.
func (p *Platform) GetProduct(ctx context.Context, id string) (*backend.Product, error) {
	row, err := p.findProduct(ctx, id)
	if err != nil || row == nil {
		return nil, err
	}
	product := mapProduct(*row)
	return &product, nil
}

func (p *Platform) findProduct(ctx context.Context, id string) (*Product, error) {
	var row Product
	err := p.client.DB().WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "loading product")
	}
	return &row, nil
}

func mapProduct(row Product) backend.Product {
	return backend.Product{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		PriceMinor:  row.PriceMinor,
		Currency:    row.Currency,
		ImageURL:    row.ImageURL,
		Available:   row.Active,
		VariantRef:  row.ID,
	}
}

// resolveLines validates the requested lines against the catalog and
// snapshots unit prices.
func (p *Platform) resolveLines(ctx context.Context, cartID string, lines []backend.CartLine) ([]CartItem, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}

	items := make([]CartItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		product, err := p.findProduct(ctx, line.VariantRef)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.Active {
			return nil, pkgerrors.New(pkgerrors.CodeItemNotFound, fmt.Sprintf("product %s not found", line.VariantRef))
		}
		items = append(items, CartItem{
			ID:             "item_" + uuid.NewString(),
			CartID:         cartID,
			ProductID:      product.ID,
			Quantity:       line.Quantity,
			UnitPriceMinor: product.PriceMinor,
		})
	}
	return items, nil
}

// CreateCart opens a cart with the requested lines.
func (p *Platform) CreateCart(ctx context.Context, lines []backend.CartLine) (*backend.Cart, error) {
	cartID := "cart_" + uuid.NewString()

	items, err := p.resolveLines(ctx, cartID, lines)
	if err != nil {
		return nil, err
	}

	cart := Cart{
		ID:       cartID,
		Status:   cartStatusOpen,
		Currency: "USD",
		Items:    items,
	}
	err = p.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&cart).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "creating cart")
	}

	return p.GetCart(ctx, cartID)
}

// GetCart loads a cart snapshot with quoted totals, nil when absent.
func (p *Platform) GetCart(ctx context.Context, ref string) (*backend.Cart, error) {
	var cart Cart
	err := p.client.DB().WithContext(ctx).Preload("Items").First(&cart, "id = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "loading cart")
	}
	return p.snapshot(ctx, &cart)
}

// snapshot maps a cart row to the backend shape and quotes totals with
// the configured tax policy.
func (p *Platform) snapshot(ctx context.Context, cart *Cart) (*backend.Cart, error) {
	out := &backend.Cart{
		Ref:         cart.ID,
		ContinueURL: p.baseURL + "/checkout",
		Currency:    cart.Currency,
		Completed:   cart.Status == cartStatusCompleted,
	}
	if cart.BuyerEmail != nil {
		out.Email = *cart.BuyerEmail
	}

	var subtotal int64
	for _, item := range cart.Items {
		title, err := p.productTitle(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		line := item.UnitPriceMinor * int64(item.Quantity)
		subtotal += line
		out.Items = append(out.Items, backend.CartItem{
			VariantRef: item.ProductID,
			Title:      title,
			Quantity:   item.Quantity,
			UnitPrice:  money.FromMinorUnits(item.UnitPriceMinor).String(),
			LinePrice:  money.FromMinorUnits(line).String(),
		})
	}

	tax := p.taxes.Tax(subtotal)
	out.Subtotal = money.FromMinorUnits(subtotal).String()
	out.Tax = money.FromMinorUnits(tax).String()
	out.Total = money.FromMinorUnits(subtotal + tax).String()
	return out, nil
}

func (p *Platform) productTitle(ctx context.Context, id string) (string, error) {
	row, err := p.findProduct(ctx, id)
	if err != nil {
		return "", err
	}
	if row == nil {
		return id, nil
	}
	return row.Title, nil
}

// UpdateCart applies buyer email and shipping address changes.
func (p *Platform) UpdateCart(ctx context.Context, ref string, update backend.CartUpdate) (*backend.Cart, error) {
	var cart Cart
	err := p.client.DB().WithContext(ctx).First(&cart, "id = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "loading cart")
	}

	if update.Email != nil {
		cart.BuyerEmail = update.Email
	}
	if addr := update.ShippingAddress; addr != nil {
		cart.AddressName = addr.FullName
		cart.AddressLineOne = &addr.StreetAddress
		cart.AddressCity = &addr.AddressLocality
		cart.AddressState = &addr.AddressRegion
		cart.AddressCountry = &addr.AddressCountry
		cart.AddressPostal = &addr.PostalCode
	}

	if err := p.client.DB().WithContext(ctx).Save(&cart).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "saving cart")
	}
	return p.GetCart(ctx, ref)
}

// ReplaceLines swaps the full contents of an open cart.
func (p *Platform) ReplaceLines(ctx context.Context, ref string, lines []backend.CartLine) (*backend.Cart, error) {
	var cart Cart
	err := p.client.DB().WithContext(ctx).First(&cart, "id = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "loading cart")
	}
	if cart.Status == cartStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is already completed")
	}

	items, err := p.resolveLines(ctx, ref, lines)
	if err != nil {
		return nil, err
	}

	err = p.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", ref).Delete(&CartItem{}).Error; err != nil {
			return err
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "replacing cart lines")
	}

	return p.GetCart(ctx, ref)
}

// FinalizeCart creates an order from the cart synchronously. Calling
// it again for a completed cart returns the already created order.
func (p *Platform) FinalizeCart(ctx context.Context, ref string) (*backend.FinalizeResult, error) {
	var cart Cart
	err := p.client.DB().WithContext(ctx).Preload("Items").First(&cart, "id = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "loading cart")
	}

	if cart.Status == cartStatusCompleted {
		var existing Order
		err := p.client.DB().WithContext(ctx).First(&existing, "cart_id = ?", ref).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeOrderCreation, err, "loading existing order")
		}
		return &backend.FinalizeResult{
			Outcome:      backend.OutcomeOrderCreated,
			OrderID:      existing.ID,
			PermalinkURL: existing.PermalinkURL,
		}, nil
	}

	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot finalize an empty cart")
	}

	var subtotal int64
	for _, item := range cart.Items {
		subtotal += item.UnitPriceMinor * int64(item.Quantity)
	}
	tax := p.taxes.Tax(subtotal)

	orderID := "order_" + uuid.NewString()
	order := Order{
		ID:            orderID,
		CartID:        cart.ID,
		Status:        orderStatusPending,
		Currency:      cart.Currency,
		SubtotalMinor: subtotal,
		TaxMinor:      tax,
		TotalMinor:    subtotal + tax,
		PermalinkURL:  fmt.Sprintf("%s/orders/%s", p.baseURL, orderID),
	}
	for _, item := range cart.Items {
		title, err := p.productTitle(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, OrderItem{
			ID:             "oitem_" + uuid.NewString(),
			OrderID:        orderID,
			ProductID:      item.ProductID,
			Title:          title,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
		})
	}

	err = p.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Model(&Cart{}).Where("id = ?", cart.ID).Update("status", cartStatusCompleted).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderCreation, err, "creating order")
	}

	ctx = p.logger.WithField(ctx, "order_id", orderID)
	p.logger.Info(ctx, "order created from cart")

	return &backend.FinalizeResult{
		Outcome:      backend.OutcomeOrderCreated,
		OrderID:      orderID,
		PermalinkURL: order.PermalinkURL,
	}, nil
}

// PaymentHandlers lists the enabled gateways in display order.
func (p *Platform) PaymentHandlers(ctx context.Context) ([]ucp.PaymentHandler, error) {
	var rows []PaymentGateway
	err := p.client.DB().WithContext(ctx).
		Where("enabled = ?", true).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "listing payment gateways")
	}

	handlers := make([]ucp.PaymentHandler, 0, len(rows))
	for _, row := range rows {
		handlers = append(handlers, ucp.PaymentHandler{
			ID:      row.ID,
			Name:    row.Title,
			Version: ucp.Version,
		})
	}
	return handlers, nil
}
