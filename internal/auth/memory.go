package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KevinKickass/OpenPedalCore/internal/storage"
	"github.com/google/uuid"
)

type refreshRecord struct {
	userID    uuid.UUID
	expiresAt time.Time
	revoked   bool
}

// MemoryStore is a process-local Store used when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*storage.User
	tokens  map[uuid.UUID]*storage.APIToken
	refresh map[string]*refreshRecord
	events  []storage.AuthEvent
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[uuid.UUID]*storage.User),
		tokens:  make(map[uuid.UUID]*storage.APIToken),
		refresh: make(map[string]*refreshRecord),
		now:     time.Now,
	}
}

func copyUser(u *storage.User) *storage.User {
	c := *u
	return &c
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *MemoryStore) GetUserByID(_ context.Context, userID uuid.UUID) (*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyUser(u), nil
}

func (m *MemoryStore) CreateUser(_ context.Context, username, passwordHash, role string) (*storage.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return nil, storage.ErrConflict
		}
	}
	u := &storage.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    m.now(),
	}
	m.users[u.ID] = u
	return copyUser(u), nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]*storage.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]*storage.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *MemoryStore) withUser(userID uuid.UUID, fn func(u *storage.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	fn(u)
	return nil
}

func (m *MemoryStore) UpdateUserPassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	return m.withUser(userID, func(u *storage.User) { u.PasswordHash = passwordHash })
}

func (m *MemoryStore) UpdateUserRole(_ context.Context, userID uuid.UUID, role string) error {
	return m.withUser(userID, func(u *storage.User) { u.Role = role })
}

func (m *MemoryStore) DeleteUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.users, userID)
	for hash, r := range m.refresh {
		if r.userID == userID {
			delete(m.refresh, hash)
		}
	}
	return nil
}

func (m *MemoryStore) UpdateLastLogin(_ context.Context, userID uuid.UUID) error {
	now := m.now()
	return m.withUser(userID, func(u *storage.User) { u.LastLoginAt = &now })
}

func (m *MemoryStore) RecordFailedLogin(_ context.Context, userID uuid.UUID, maxAttempts int, lockFor time.Duration) error {
	now := m.now()
	return m.withUser(userID, func(u *storage.User) {
		u.FailedLoginAttempts++
		if u.FailedLoginAttempts >= maxAttempts {
			until := now.Add(lockFor)
			u.LockedUntil = &until
		}
	})
}

func (m *MemoryStore) ResetFailedLogins(_ context.Context, userID uuid.UUID) error {
	return m.withUser(userID, func(u *storage.User) {
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
	})
}

func (m *MemoryStore) CreateAPIToken(_ context.Context, tokenHash, name string, permissions []string, createdByUserID *uuid.UUID, metadata map[string]any) (*storage.APIToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &storage.APIToken{
		ID:              uuid.New(),
		TokenHash:       tokenHash,
		Name:            name,
		Permissions:     append([]string(nil), permissions...),
		CreatedAt:       m.now(),
		CreatedByUserID: createdByUserID,
		Metadata:        metadata,
	}
	m.tokens[t.ID] = t
	c := *t
	return &c, nil
}

func (m *MemoryStore) GetAPITokenByHash(_ context.Context, tokenHash string) (*storage.APIToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash {
			c := *t
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *MemoryStore) UpdateAPITokenLastUsed(_ context.Context, tokenID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenID]
	if !ok {
		return storage.ErrNotFound
	}
	now := m.now()
	t.LastUsedAt = &now
	return nil
}

func (m *MemoryStore) ListAPITokens(_ context.Context) ([]*storage.APIToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tokens := make([]*storage.APIToken, 0, len(m.tokens))
	for _, t := range m.tokens {
		c := *t
		tokens = append(tokens, &c)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Name < tokens[j].Name })
	return tokens, nil
}

func (m *MemoryStore) UpdateAPIToken(_ context.Context, tokenID uuid.UUID, name *string, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenID]
	if !ok {
		return storage.ErrNotFound
	}
	if name != nil {
		t.Name = *name
	}
	if metadata != nil {
		t.Metadata = metadata
	}
	return nil
}

func (m *MemoryStore) DeleteAPIToken(_ context.Context, tokenID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[tokenID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.tokens, tokenID)
	return nil
}

func (m *MemoryStore) StoreRefreshToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[tokenHash] = &refreshRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *MemoryStore) GetRefreshToken(_ context.Context, tokenHash string) (uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.refresh[tokenHash]
	if !ok || r.revoked || m.now().After(r.expiresAt) {
		return uuid.Nil, storage.ErrNotFound
	}
	return r.userID, nil
}

func (m *MemoryStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.refresh[tokenHash]; ok {
		r.revoked = true
	}
	return nil
}

func (m *MemoryStore) RevokeAllUserRefreshTokens(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.refresh {
		if r.userID == userID {
			r.revoked = true
		}
	}
	return nil
}

func (m *MemoryStore) LogAuthEvent(_ context.Context, ev storage.AuthEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// Events returns the recorded auth events in order.
func (m *MemoryStore) Events() []storage.AuthEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]storage.AuthEvent(nil), m.events...)
}
