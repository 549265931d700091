// Package maintenance exposes a cron-triggered cleanup endpoint. Refresh
// tokens live directly on the account row, so cleanup means nulling out
// values whose recorded expiry has passed rather than deleting rows.
package maintenance

import (
	"net/http"
	"strings"

	"videotube/internal/observability"
	"videotube/internal/respond"
	"videotube/internal/user"
)

type CleanupHandler struct {
	store      user.Store
	logger     *observability.Logger
	cronSecret string
	batchSize  int
}

func NewCleanupHandler(store user.Store, logger *observability.Logger, cronSecret string, batchSize int) *CleanupHandler {
	return &CleanupHandler{
		store:      store,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
		batchSize:  batchSize,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Without a configured secret the endpoint does not exist.
	if h.cronSecret == "" {
		http.NotFound(w, r)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		return
	}

	cleared, err := h.store.ClearExpiredRefreshTokens(r.Context(), h.batchSize)
	if err != nil {
		h.logger.Error("session_cleanup_failed", map[string]any{"error": err.Error()})
		respond.Error(w, err)
		return
	}

	h.logger.Info("session_cleanup_completed", map[string]any{
		"cleared_refresh_tokens": cleared,
	})

	respond.JSON(w, http.StatusOK, "cleanup completed", map[string]any{
		"clearedRefreshTokens": cleared,
	})
}
