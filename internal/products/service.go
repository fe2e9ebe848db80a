// Package products surfaces the backend catalog in protocol shape.
package products

import (
	"context"
	"fmt"

	"github.com/commercebridge/ucp-gateway/internal/backend"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

const defaultLimit = 10

// Service reads the catalog of the active backend.
type Service interface {
	List(ctx context.Context, limit int) ([]ucp.Product, error)
	Get(ctx context.Context, id string) (*ucp.Product, error)
}

type service struct {
	adapter backend.Adapter
}

// NewService wires the catalog read side against the active backend.
func NewService(adapter backend.Adapter) (Service, error) {
	if adapter == nil {
		return nil, fmt.Errorf("backend adapter required")
	}
	return &service{adapter: adapter}, nil
}

func (s *service) List(ctx context.Context, limit int) ([]ucp.Product, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.adapter.ListProducts(ctx, limit)
	if err != nil {
		return nil, err
	}

	products := make([]ucp.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, formatProduct(row))
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, id string) (*ucp.Product, error) {
	row, err := s.adapter.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", id))
	}
	product := formatProduct(*row)
	return &product, nil
}

func formatProduct(row backend.Product) ucp.Product {
	product := ucp.Product{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		Price:         row.PriceMinor,
		Currency:      row.Currency,
		Available:     row.Available,
		StockQuantity: row.Stock,
		SKU:           row.SKU,
		Permalink:     row.Permalink,
	}
	if row.ImageURL != "" {
		url := row.ImageURL
		product.ImageURL = &url
	}
	return product
}
