package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"videotube/internal/apperr"
	"videotube/internal/respond"
	"videotube/internal/user"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	sessions *Sessions
	users    *user.Service
	tokens   *TokenService
	cookies  *CookieWriter
}

func NewHandler(sessions *Sessions, users *user.Service, tokens *TokenService, cookies *CookieWriter) *Handler {
	return &Handler{sessions: sessions, users: users, tokens: tokens, cookies: cookies}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginResponse struct {
	User         user.Public `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	identifier := strings.TrimSpace(body.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(body.Email)
	}

	pair, account, err := h.sessions.Login(r.Context(), identifier, body.Password)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.cookies.SetTokens(w, pair, h.tokens.AccessTTL(), h.tokens.RefreshTTL())
	respond.JSON(w, http.StatusOK, "user logged in successfully", loginResponse{
		User:         account,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	account, ok := CurrentAccount(r.Context())
	if !ok {
		respond.Error(w, apperr.Unauthorized("unauthorized request"))
		return
	}

	if err := h.sessions.Logout(r.Context(), account.ID); err != nil {
		respond.Error(w, err)
		return
	}

	h.cookies.ClearTokens(w)
	respond.JSON(w, http.StatusOK, "user logged out", map[string]any{})
}

// Refresh accepts the refresh token from the httpOnly cookie or, for
// non-browser clients, from the JSON body.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		presented = strings.TrimSpace(cookie.Value)
	}
	if presented == "" {
		var body refreshRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			presented = strings.TrimSpace(body.RefreshToken)
		}
	}

	pair, err := h.sessions.Refresh(r.Context(), presented)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.cookies.SetTokens(w, pair, h.tokens.AccessTTL(), h.tokens.RefreshTTL())
	respond.JSON(w, http.StatusOK, "access token refreshed", pair)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	account, ok := CurrentAccount(r.Context())
	if !ok {
		respond.Error(w, apperr.Unauthorized("unauthorized request"))
		return
	}

	var body changePasswordRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), account.ID, body.OldPassword, body.NewPassword, body.ConfirmPassword); err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "password changed successfully", map[string]any{})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := CurrentAccount(r.Context())
	if !ok {
		respond.Error(w, apperr.Unauthorized("unauthorized request"))
		return
	}

	respond.JSON(w, http.StatusOK, "current user fetched successfully", account)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		respond.Error(w, apperr.Validation("invalid json body"))
		return false
	}

	return true
}
