package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("account not found")
	ErrDuplicate = errors.New("username or email already taken")
	// ErrTokenMismatch is returned by RotateRefreshToken when the presented
	// value no longer matches the stored one; a concurrent rotation or a
	// logout got there first.
	ErrTokenMismatch = errors.New("refresh token mismatch")
)

// Store is the persistence boundary for accounts. The service holds at most
// one live refresh token per account, kept directly on the account record, so
// every mutation here is a single-row update.
type Store interface {
	Create(ctx context.Context, account Account) error
	GetByID(ctx context.Context, id string) (Account, error)
	// GetByLogin matches the identifier against username or email.
	GetByLogin(ctx context.Context, usernameOrEmail string) (Account, error)
	SetRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error
	// RotateRefreshToken swaps the stored token for next only if it still
	// equals presented. At most one concurrent caller observes the match.
	RotateRefreshToken(ctx context.Context, id, presented, next string, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	// ClearExpiredRefreshTokens drops refresh-token values whose recorded
	// expiry has passed. Used by the maintenance endpoint.
	ClearExpiredRefreshTokens(ctx context.Context, batchSize int) (int64, error)
}
