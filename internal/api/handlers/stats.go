package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/inquest/internal/service"
)

type StatsHandler struct {
	orch *service.Orchestrator
}

func NewStatsHandler(orch *service.Orchestrator) *StatsHandler {
	return &StatsHandler{orch: orch}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orch.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.ResetStats(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
