package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"gridvolt/internal/api/middleware"
	"gridvolt/internal/cache"
	"gridvolt/internal/models"
)

// SessionLister is the slice of session storage the history endpoint needs.
type SessionLister interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.ChargingSession, error)
}

// SessionsHandlers serves charging session history and the live view.
type SessionsHandlers struct {
	sessions SessionLister
	active   *cache.ActiveSessionStore
	logger   *zap.Logger
}

// NewSessionsHandlers builds handlers. active may be nil when redis is
// not configured; the live endpoint then answers an empty list.
func NewSessionsHandlers(sessions SessionLister, active *cache.ActiveSessionStore, logger *zap.Logger) *SessionsHandlers {
	return &SessionsHandlers{sessions: sessions, active: active, logger: logger}
}

// Me handles GET /api/sessions/me?limit=N.
func (h *SessionsHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := h.sessions.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("session history failed", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	if sessions == nil {
		sessions = []models.ChargingSession{}
	}

	writeJSON(w, http.StatusOK, sessions)
}

// Active handles GET /api/sessions/active.
func (h *SessionsHandlers) Active(w http.ResponseWriter, r *http.Request) {
	if h.active == nil {
		writeJSON(w, http.StatusOK, []cache.ActiveSession{})
		return
	}

	sessions, err := h.active.List(r.Context())
	if err != nil {
		h.logger.Error("active session list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load active sessions")
		return
	}
	if sessions == nil {
		sessions = []cache.ActiveSession{}
	}

	writeJSON(w, http.StatusOK, sessions)
}
