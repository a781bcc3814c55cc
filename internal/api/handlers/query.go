package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/inquest/internal/service"
	"github.com/Harshitk-cp/inquest/internal/store"
	"github.com/go-chi/chi/v5"
)

type QueryHandler struct {
	orch *service.Orchestrator
}

func NewQueryHandler(orch *service.Orchestrator) *QueryHandler {
	return &QueryHandler{orch: orch}
}

type submitQueryRequest struct {
	Query            string `json:"query"`
	EnableReflection *bool  `json:"enable_reflection,omitempty"`
}

// Submit admits a query and runs the full pipeline synchronously,
// returning either the finalized result or the structured failure.
func (h *QueryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.orch.Submit(req.Query)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyQuery), errors.Is(err, service.ErrQueryTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to admit query")
		}
		return
	}

	opts := service.RunOptions{}
	if req.EnableReflection != nil && !*req.EnableReflection {
		opts.SkipReflection = true
	}

	result, err := h.orch.RunWith(r.Context(), id, opts)
	if err != nil {
		var pe *service.PipelineError
		if errors.As(err, &pe) {
			writeJSON(w, statusForCode(pe.Code), pipelineErrorResponse{
				Error:   pe.Message,
				Code:    pe.Code,
				QueryID: pe.QueryID,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "pipeline failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Status returns the live snapshot of an in-flight query, falling back to
// the archived record once the query has finalized and been evicted.
func (h *QueryHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	st, err := h.orch.Status(id)
	if err == nil {
		writeJSON(w, http.StatusOK, st)
		return
	}

	record, err := h.orch.Result(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "query not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "completed",
		"result": record,
	})
}

// Result returns the archived outcome of a completed query.
func (h *QueryHandler) Result(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.orch.Result(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotCompleted):
			writeError(w, http.StatusConflict, "query has not completed")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "no result for query")
		default:
			writeError(w, http.StatusInternalServerError, "failed to load result")
		}
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func statusForCode(code string) int {
	switch code {
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeQueryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
