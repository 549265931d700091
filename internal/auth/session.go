package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"videotube/internal/apperr"
	"videotube/internal/user"
)

// Sessions orchestrates the credential/session lifecycle. The service keeps
// at most one live refresh token per account: every login or refresh
// overwrites the stored value, and logout clears it.
type Sessions struct {
	store  user.Store
	tokens *TokenService
}

func NewSessions(store user.Store, tokens *TokenService) *Sessions {
	return &Sessions{store: store, tokens: tokens}
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *Sessions) Login(ctx context.Context, usernameOrEmail, password string) (TokenPair, user.Public, error) {
	usernameOrEmail = strings.ToLower(strings.TrimSpace(usernameOrEmail))
	password = strings.TrimSpace(password)

	if usernameOrEmail == "" || password == "" {
		return TokenPair{}, user.Public{}, apperr.Validation("username or email and password are required")
	}

	account, err := s.store.GetByLogin(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenPair{}, user.Public{}, apperr.NotFound("user does not exist")
		}
		return TokenPair{}, user.Public{}, apperr.Internal("failed to login", err)
	}

	if !user.CheckPassword(account.PasswordHash, password) {
		return TokenPair{}, user.Public{}, apperr.Unauthorized("invalid credentials")
	}

	pair, err := s.issuePair(ctx, account.ID, false, "")
	if err != nil {
		return TokenPair{}, user.Public{}, err
	}

	return pair, account.Public(), nil
}

func (s *Sessions) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return TokenPair{}, apperr.Unauthorized("refresh token is required")
	}

	accountID, err := s.tokens.Verify(presented, RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	account, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenPair{}, apperr.Unauthorized("invalid or expired token")
		}
		return TokenPair{}, apperr.Internal("failed to refresh token", err)
	}

	// A valid signature is not enough: the presented value must match the
	// token currently stored on the account. A mismatch means the token was
	// already rotated away or the session was logged out.
	if account.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*account.RefreshToken), []byte(presented)) != 1 {
		return TokenPair{}, apperr.Unauthorized("refresh token is expired or already used")
	}

	return s.issuePair(ctx, account.ID, true, presented)
}

func (s *Sessions) Logout(ctx context.Context, accountID string) error {
	if err := s.store.ClearRefreshToken(ctx, accountID); err != nil {
		return apperr.Internal("failed to logout", err)
	}
	return nil
}

// issuePair mints a fresh access+refresh pair and persists the refresh value
// on the account row. Rotation uses a conditional swap so that of two racing
// refresh calls holding the same token, only one can win.
func (s *Sessions) issuePair(ctx context.Context, accountID string, rotate bool, presented string) (TokenPair, error) {
	access, err := s.tokens.IssueAccess(accountID)
	if err != nil {
		return TokenPair{}, apperr.Internal("failed to generate tokens", err)
	}

	refresh, err := s.tokens.IssueRefresh(accountID)
	if err != nil {
		return TokenPair{}, apperr.Internal("failed to generate tokens", err)
	}

	expiresAt := time.Now().UTC().Add(s.tokens.RefreshTTL())
	if rotate {
		err = s.store.RotateRefreshToken(ctx, accountID, presented, refresh, expiresAt)
	} else {
		err = s.store.SetRefreshToken(ctx, accountID, refresh, expiresAt)
	}
	if err != nil {
		if errors.Is(err, user.ErrTokenMismatch) {
			return TokenPair{}, apperr.Unauthorized("refresh token is expired or already used")
		}
		return TokenPair{}, apperr.Internal("failed to generate tokens", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
