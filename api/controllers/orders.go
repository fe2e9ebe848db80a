package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commercebridge/ucp-gateway/api/responses"
	ordersvc "github.com/commercebridge/ucp-gateway/internal/orders"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
)

func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		order, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, order)
	}
}
