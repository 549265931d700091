package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"videotube/internal/apperr"
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenConfig is loaded once at boot. Access and refresh tokens are signed
// with distinct secrets so a leak of one does not compromise the other.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type TokenService struct {
	config TokenConfig
}

func NewTokenService(config TokenConfig) (*TokenService, error) {
	if len(config.AccessSecret) == 0 || len(config.RefreshSecret) == 0 {
		return nil, fmt.Errorf("token secrets are required")
	}
	if config.AccessTTL <= 0 {
		config.AccessTTL = defaultAccessTTL
	}
	if config.RefreshTTL <= 0 {
		config.RefreshTTL = defaultRefreshTTL
	}

	return &TokenService{config: config}, nil
}

func (s *TokenService) AccessTTL() time.Duration  { return s.config.AccessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.config.RefreshTTL }

func (s *TokenService) IssueAccess(accountID string) (string, error) {
	return s.issue(accountID, AccessToken, s.config.AccessSecret, s.config.AccessTTL)
}

func (s *TokenService) IssueRefresh(accountID string) (string, error) {
	return s.issue(accountID, RefreshToken, s.config.RefreshSecret, s.config.RefreshTTL)
}

func (s *TokenService) issue(accountID string, kind TokenKind, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	// jti makes every issued token unique; without it two tokens minted for
	// the same account within one second would be byte-identical, and
	// rotation relies on old and new refresh values differing.
	claims := jwt.MapClaims{
		"sub": accountID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"typ": string(kind),
	}

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}

	return encoded, nil
}

// Verify checks signature, expiry and token kind, and returns the account
// identifier carried in the subject claim. All failure causes collapse into
// one unauthorized error so callers cannot probe which check failed.
func (s *TokenService) Verify(tokenString string, kind TokenKind) (string, error) {
	secret := s.config.AccessSecret
	if kind == RefreshToken {
		secret = s.config.RefreshSecret
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", apperr.Unauthorized("invalid or expired token")
	}

	if tokenType, _ := claims["typ"].(string); tokenType != string(kind) {
		return "", apperr.Unauthorized("invalid or expired token")
	}

	accountID, err := claims.GetSubject()
	if err != nil || accountID == "" {
		return "", apperr.Unauthorized("invalid or expired token")
	}

	return accountID, nil
}
