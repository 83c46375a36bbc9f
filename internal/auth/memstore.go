// README: In-memory user store for tests and local development.
package auth

import (
	"context"
	"sync"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type MemStore struct {
	mu      sync.RWMutex
	byID    map[types.ID]*User
	byEmail map[string]*User
}

func NewMemStore() *MemStore {
	return &MemStore{
		byID:    make(map[types.ID]*User),
		byEmail: make(map[string]*User),
	}
}

func (m *MemStore) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *MemStore) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) Get(_ context.Context, id types.ID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
