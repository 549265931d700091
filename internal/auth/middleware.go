package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"videotube/internal/apperr"
	"videotube/internal/respond"
	"videotube/internal/user"
)

type contextKey struct{}

var accountContextKey contextKey

// CurrentAccount returns the sanitized account attached by Middleware.
func CurrentAccount(ctx context.Context) (user.Public, bool) {
	account, ok := ctx.Value(accountContextKey).(user.Public)
	return account, ok
}

// Middleware gates protected routes. The access token is taken from the
// accessToken cookie when present, falling back to the Authorization header.
// The account is loaded on every request and attached to the context without
// its password hash or refresh token.
func Middleware(tokens *TokenService, store user.Store, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractAccessToken(r)
		if tokenString == "" {
			respond.Error(w, apperr.Unauthorized("unauthorized request"))
			return
		}

		accountID, err := tokens.Verify(tokenString, AccessToken)
		if err != nil {
			respond.Error(w, apperr.Unauthorized("invalid access token"))
			return
		}

		account, err := store.GetByID(r.Context(), accountID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				respond.Error(w, apperr.Unauthorized("invalid access token"))
				return
			}
			respond.Error(w, apperr.Internal("failed to authenticate request", err))
			return
		}

		ctx := context.WithValue(r.Context(), accountContextKey, account.Public())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessCookieName); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
