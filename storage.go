package session

import (
	"context"
	"sync"
)

// TokenStorage persists the encrypted session token between runs. The store
// keeps exactly one secret, so the interface is a single slot, not a keyed
// collection.
type TokenStorage interface {
	// Load returns ErrNoStoredToken when the slot is empty.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, ciphertext []byte) error
	Delete(ctx context.Context) error
}

// MemoryTokenStorage is a TokenStorage for tests and ephemeral sessions.
type MemoryTokenStorage struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

var _ TokenStorage = (*MemoryTokenStorage)(nil)

func NewMemoryTokenStorage() *MemoryTokenStorage {
	return &MemoryTokenStorage{}
}

func (m *MemoryTokenStorage) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, ErrNoStoredToken
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryTokenStorage) Save(_ context.Context, ciphertext []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), ciphertext...)
	m.set = true
	return nil
}

func (m *MemoryTokenStorage) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.set = false
	return nil
}
