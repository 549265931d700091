package auth

import (
	"net/http"
	"time"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// CookieWriter sets and clears the token cookies. Secure is enabled for
// production deployments; tokens are always httpOnly.
type CookieWriter struct {
	secure bool
}

func NewCookieWriter(secure bool) *CookieWriter {
	return &CookieWriter{secure: secure}
}

func (c *CookieWriter) SetTokens(w http.ResponseWriter, pair TokenPair, accessTTL, refreshTTL time.Duration) {
	c.set(w, accessCookieName, pair.AccessToken, accessTTL)
	c.set(w, refreshCookieName, pair.RefreshToken, refreshTTL)
}

func (c *CookieWriter) ClearTokens(w http.ResponseWriter) {
	c.set(w, accessCookieName, "", -time.Second)
	c.set(w, refreshCookieName, "", -time.Second)
}

func (c *CookieWriter) set(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
