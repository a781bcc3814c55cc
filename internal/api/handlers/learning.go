package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/inquest/internal/service"
)

const (
	defaultLearningLimit = 20
	maxLearningLimit     = 100
)

type LearningHandler struct {
	learning *service.LearningService
}

func NewLearningHandler(learning *service.LearningService) *LearningHandler {
	return &LearningHandler{learning: learning}
}

// List returns accumulated learnings, filtered by topic when given.
func (h *LearningHandler) List(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		writeError(w, http.StatusBadRequest, "topic query parameter is required")
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"), defaultLearningLimit, maxLearningLimit)

	records, err := h.learning.LearningsByTopic(r.Context(), topic, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load learnings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topic": topic, "learnings": records})
}

// Topics lists the distinct topics with accumulated learnings.
func (h *LearningHandler) Topics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.learning.Topics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load topics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

// History lists recently archived query outcomes.
func (h *LearningHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), defaultLearningLimit, maxLearningLimit)

	records, err := h.learning.RecentHistory(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}
