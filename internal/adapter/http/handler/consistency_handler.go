package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railbird/chipsettle/internal/usecase"
)

// ConsistencyService defines the behavior needed by ConsistencyHandler.
type ConsistencyService interface {
	CheckSession(ctx context.Context, sessionID string) (*usecase.ConsistencyReport, error)
}

// ConsistencyHandler serves ledger consistency reports.
type ConsistencyHandler struct {
	consistencyUC ConsistencyService
}

// NewConsistencyHandler creates a new ConsistencyHandler.
func NewConsistencyHandler(consistencyUC ConsistencyService) *ConsistencyHandler {
	return &ConsistencyHandler{consistencyUC: consistencyUC}
}

// Check recomputes session state from the transaction ledger and reports
// any drift against the stored values.
func (h *ConsistencyHandler) Check(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID", "")
		return
	}

	report, err := h.consistencyUC.CheckSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to check consistency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}
