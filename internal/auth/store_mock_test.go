package auth_test

import (
	"context"
	"sync"
	"time"

	"videotube/internal/user"
)

// memStore is an in-memory user.Store used across the auth tests. It
// enforces the same uniqueness and conditional-rotation semantics as the
// Postgres repository.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]user.Account
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]user.Account)}
}

func (m *memStore) Create(_ context.Context, account user.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return user.ErrDuplicate
		}
	}

	m.accounts[account.ID] = account
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (user.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return user.Account{}, user.ErrNotFound
	}
	return account, nil
}

func (m *memStore) GetByLogin(_ context.Context, usernameOrEmail string) (user.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, account := range m.accounts {
		if account.Username == usernameOrEmail || account.Email == usernameOrEmail {
			return account, nil
		}
	}
	return user.Account{}, user.ErrNotFound
}

func (m *memStore) SetRefreshToken(_ context.Context, id, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return user.ErrNotFound
	}

	account.RefreshToken = &token
	account.RefreshTokenExpiresAt = &expiresAt
	m.accounts[id] = account
	return nil
}

func (m *memStore) RotateRefreshToken(_ context.Context, id, presented, next string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return user.ErrNotFound
	}
	if account.RefreshToken == nil || *account.RefreshToken != presented {
		return user.ErrTokenMismatch
	}

	account.RefreshToken = &next
	account.RefreshTokenExpiresAt = &expiresAt
	m.accounts[id] = account
	return nil
}

func (m *memStore) ClearRefreshToken(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil
	}

	account.RefreshToken = nil
	account.RefreshTokenExpiresAt = nil
	m.accounts[id] = account
	return nil
}

func (m *memStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return user.ErrNotFound
	}

	account.PasswordHash = hash
	m.accounts[id] = account
	return nil
}

func (m *memStore) ClearExpiredRefreshTokens(_ context.Context, _ int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	var cleared int64
	for id, account := range m.accounts {
		if account.RefreshToken != nil && account.RefreshTokenExpiresAt != nil && account.RefreshTokenExpiresAt.Before(now) {
			account.RefreshToken = nil
			account.RefreshTokenExpiresAt = nil
			m.accounts[id] = account
			cleared++
		}
	}
	return cleared, nil
}

func (m *memStore) storedRefreshToken(id string) *string {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil
	}
	return account.RefreshToken
}
