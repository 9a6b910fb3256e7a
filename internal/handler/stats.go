package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fieldtrack/tracker-go/internal/middleware"
	"github.com/fieldtrack/tracker-go/internal/service"
)

type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GET /v1/stats/dashboard
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	stats, err := h.statsService.Dashboard(r.Context(), account.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to compute dashboard stats")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
