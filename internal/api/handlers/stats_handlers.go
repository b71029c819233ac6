package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"gridvolt/internal/api/middleware"
	"gridvolt/internal/repository"
)

// StatsHandlers serves reporting aggregates over settled sessions.
type StatsHandlers struct {
	stats  *repository.StatsRepository
	logger *zap.Logger
}

// NewStatsHandlers builds handlers.
func NewStatsHandlers(stats *repository.StatsRepository, logger *zap.Logger) *StatsHandlers {
	return &StatsHandlers{stats: stats, logger: logger}
}

// Global handles GET /api/stats/global.
func (h *StatsHandlers) Global(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Global(r.Context())
	if err != nil {
		h.logger.Error("global stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Revenue handles GET /api/stats/revenue?days=N.
func (h *StatsHandlers) Revenue(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	points, err := h.stats.RevenueOverTime(r.Context(), days)
	if err != nil {
		h.logger.Error("revenue stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	if points == nil {
		points = []repository.RevenuePoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

// Me handles GET /api/stats/me.
func (h *StatsHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	stats, err := h.stats.ForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("user stats failed", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
