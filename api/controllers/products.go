package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commercebridge/ucp-gateway/api/responses"
	"github.com/commercebridge/ucp-gateway/api/validators"
	productsvc "github.com/commercebridge/ucp-gateway/internal/products"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

type productListResponse struct {
	Products []ucp.Product `json:"products"`
}

func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if products == nil {
			products = []ucp.Product{}
		}

		responses.WriteJSON(w, http.StatusOK, productListResponse{Products: products})
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		product, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, product)
	}
}
