package controllers

import (
	"net/http"

	"github.com/commercebridge/ucp-gateway/api/responses"
	"github.com/commercebridge/ucp-gateway/internal/discovery"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
)

// DiscoveryProfile serves the /.well-known/ucp document.
func DiscoveryProfile(svc discovery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discovery service unavailable"))
			return
		}

		profile, err := svc.Profile(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, profile)
	}
}
