package handlers

import (
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/inquest/internal/service"
)

const (
	defaultSourceLimit = 10
	maxSourceLimit     = 100
)

type SourcesHandler struct {
	trust *service.TrustService
}

func NewSourcesHandler(trust *service.TrustService) *SourcesHandler {
	return &SourcesHandler{trust: trust}
}

// Top lists the most reliable domains in the trust ledger.
func (h *SourcesHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), defaultSourceLimit, maxSourceLimit)

	records, err := h.trust.Top(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load source rankings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": records})
}

func parseLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
