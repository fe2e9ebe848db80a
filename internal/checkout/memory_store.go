package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is the in-process fallback used when Redis is not
// configured. Entries expire lazily on read.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
	idemKeys map[string]memoryEntry
}

type memoryEntry struct {
	record    *Record
	sessionID string
	expiresAt time.Time
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore(ttl time.Duration) (*MemoryStore, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("positive ttl required")
	}
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: map[string]memoryEntry{},
		idemKeys: map[string]memoryEntry{},
	}, nil
}

func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := rec
	s.sessions[rec.Session.ID] = memoryEntry{
		record:    &copied,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.sessions, sessionID)
		return nil, nil
	}
	copied := *entry.record
	return &copied, nil
}

func (s *MemoryStore) FindByIdempotencyKey(ctx context.Context, backendName, key string) (*Record, error) {
	s.mu.Lock()
	entry, ok := s.idemKeys[backendName+"/"+key]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.idemKeys, backendName+"/"+key)
		s.mu.Unlock()
		return nil, nil
	}
	sessionID := entry.sessionID
	s.mu.Unlock()

	return s.Get(ctx, sessionID)
}

func (s *MemoryStore) PutNewIdempotencyKey(_ context.Context, backendName, key, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	indexKey := backendName + "/" + key
	entry, ok := s.idemKeys[indexKey]
	if ok && !s.now().After(entry.expiresAt) {
		return false, nil
	}
	s.idemKeys[indexKey] = memoryEntry{
		sessionID: sessionID,
		expiresAt: s.now().Add(s.ttl),
	}
	return true, nil
}

// Evict drops a session entry. Used by tests to simulate TTL expiry.
func (s *MemoryStore) Evict(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
