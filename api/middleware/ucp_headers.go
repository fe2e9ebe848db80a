package middleware

import (
	"net/http"
	"strings"

	"github.com/commercebridge/ucp-gateway/api/responses"
	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRequestID      = "X-Request-Id"
)

// RequireUCPHeaders rejects session mutations that arrive without the
// protocol headers. The request id the client sent is also the one
// echoed back, so the check runs against the raw header rather than the
// context value the RequestID middleware fills in.
func RequireUCPHeaders(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			missing := make([]string, 0, 2)
			if strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey)) == "" {
				missing = append(missing, HeaderIdempotencyKey)
			}
			if strings.TrimSpace(r.Header.Get(HeaderRequestID)) == "" {
				missing = append(missing, HeaderRequestID)
			}
			if len(missing) > 0 {
				err := pkgerrors.New(pkgerrors.CodeValidation, "missing required headers").
					WithDetails(map[string]any{"headers": missing})
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
