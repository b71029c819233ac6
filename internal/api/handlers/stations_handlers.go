package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"gridvolt/internal/models"
	"gridvolt/internal/repository"
)

// StationsHandlers serves the station listing used by client apps.
type StationsHandlers struct {
	stations   *repository.StationRepository
	connectors *repository.ConnectorRepository
	logger     *zap.Logger
}

// NewStationsHandlers builds handlers.
func NewStationsHandlers(stations *repository.StationRepository, connectors *repository.ConnectorRepository, logger *zap.Logger) *StationsHandlers {
	return &StationsHandlers{stations: stations, connectors: connectors, logger: logger}
}

// List handles GET /api/stations.
func (h *StationsHandlers) List(w http.ResponseWriter, r *http.Request) {
	type stationView struct {
		models.Station
		Connectors []models.Connector `json:"connectors"`
	}

	stations, err := h.stations.List(r.Context())
	if err != nil {
		h.logger.Error("station list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list stations")
		return
	}

	views := make([]stationView, 0, len(stations))
	for _, st := range stations {
		connectors, err := h.connectors.ListByStation(r.Context(), st.ID)
		if err != nil {
			h.logger.Error("connector list failed", zap.Int64("station_id", st.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list stations")
			return
		}
		views = append(views, stationView{Station: st, Connectors: connectors})
	}

	writeJSON(w, http.StatusOK, views)
}
