// Package checkout holds the session lifecycle engine and the session
// store it persists through. The store is a TTL cache, not a ledger;
// the engine re-derives sessions from the backend when a lookup misses.
package checkout

import (
	"context"

	"github.com/commercebridge/ucp-gateway/pkg/ucp"
)

// Record binds a protocol session to its backend cart handle and the
// idempotency key that created it.
type Record struct {
	Session        ucp.CheckoutSession `json:"session"`
	BackendRef     string              `json:"backend_ref"`
	IdempotencyKey string              `json:"idempotency_key"`
}

// Store persists session records with a TTL. Lookups return (nil, nil)
// on a miss. PutNewIdempotencyKey gives Create an atomic first-writer
// check so concurrent creates with the same key cannot both win.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, sessionID string) (*Record, error)
	FindByIdempotencyKey(ctx context.Context, backendName, key string) (*Record, error)
	PutNewIdempotencyKey(ctx context.Context, backendName, key, sessionID string) (bool, error)
}
