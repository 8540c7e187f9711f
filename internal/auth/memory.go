package auth

import (
	"context"
	"sync"
	"time"

	"phonebook.org/internal/ids"
)

// MemoryStore is an in-process IdentityStore.
type MemoryStore struct {
	mu         sync.RWMutex
	identities map[string]Identity
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{identities: make(map[string]Identity)}
}

func (m *MemoryStore) Create(_ context.Context, identity Identity) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[identity.Username]; ok {
		return Identity{}, ErrConflict
	}
	if identity.ID == "" {
		identity.ID = ids.New()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}
	m.identities[identity.Username] = identity
	return identity, nil
}

func (m *MemoryStore) FindByUsername(_ context.Context, username string) (Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	identity, ok := m.identities[username]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return identity, nil
}

func (m *MemoryStore) BumpTokenVersion(_ context.Context, username string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[username]
	if !ok {
		return 0, ErrNotFound
	}
	identity.TokenVersion++
	m.identities[username] = identity
	return identity.TokenVersion, nil
}
