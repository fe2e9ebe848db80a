package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/commercebridge/ucp-gateway/pkg/errors"
	"github.com/commercebridge/ucp-gateway/pkg/redis"
)

// RedisStore keeps session records in Redis under the shared gateway
// namespace, expiring them after the configured TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wires the store against the shared Redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("positive ttl required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Put stores the record under the session key and refreshes the
// idempotency index alongside it.
func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding session record")
	}
	if err := s.client.Set(ctx, s.client.SessionKey(rec.Session.ID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeBackend, err, "storing session record")
	}
	return nil
}

// Get loads a record, nil on a miss or after expiry.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	raw, err := s.client.Get(ctx, s.client.SessionKey(sessionID))
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "loading session record")
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding session record")
	}
	return &rec, nil
}

// FindByIdempotencyKey resolves the idempotency index to a session id
// and loads its record.
func (s *RedisStore) FindByIdempotencyKey(ctx context.Context, backendName, key string) (*Record, error) {
	sessionID, err := s.client.Get(ctx, s.client.IdempotencyKey(backendName, key))
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "resolving idempotency key")
	}
	return s.Get(ctx, sessionID)
}

// PutNewIdempotencyKey claims the idempotency key for sessionID. The
// first writer wins; later writers get false.
func (s *RedisStore) PutNewIdempotencyKey(ctx context.Context, backendName, key, sessionID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.client.IdempotencyKey(backendName, key), sessionID, s.ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "claiming idempotency key")
	}
	return ok, nil
}
