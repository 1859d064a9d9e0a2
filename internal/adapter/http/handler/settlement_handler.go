package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railbird/chipsettle/internal/adapter/http/dto"
	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
)

// SettlementService defines the behavior needed by SettlementHandler.
type SettlementService interface {
	SettleSession(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error)
	PreviewSettlement(ctx context.Context, positions []domain.NetPosition) (*domain.OptimizedSettlement, error)
	CompareSettlements(ctx context.Context, positions []domain.NetPosition) (*usecase.AlternativeComparison, error)
	GetSettlement(ctx context.Context, id string) (*domain.OptimizedSettlement, error)
	GetLatestSettlement(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error)
	GetProof(ctx context.Context, settlementID string) (*domain.MathematicalProof, error)
	VerifyProof(ctx context.Context, proof *domain.MathematicalProof) (*domain.ProofVerification, error)
}

// SettlementHandler handles settlement and proof HTTP requests.
type SettlementHandler struct {
	settlementUC SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementUC SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementUC: settlementUC}
}

// Settle settles a session: derives final positions, computes the optimized
// plan, generates the proof, and closes the session.
func (h *SettlementHandler) Settle(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID", "")
		return
	}

	settlement, err := h.settlementUC.SettleSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to settle session", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.SettlementFromDomain(settlement))
}

// GetLatest retrieves the most recent settlement for a session.
func (h *SettlementHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID", "")
		return
	}

	settlement, err := h.settlementUC.GetLatestSettlement(r.Context(), sessionID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get settlement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromDomain(settlement))
}

// Get retrieves a settlement by ID.
func (h *SettlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing settlement ID", "")
		return
	}

	settlement, err := h.settlementUC.GetSettlement(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get settlement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromDomain(settlement))
}

// GetProof returns the exportable proof attached to a settlement.
func (h *SettlementHandler) GetProof(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing settlement ID", "")
		return
	}

	proof, err := h.settlementUC.GetProof(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get proof", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, proof)
}

// Preview runs the optimizer and proof engine over arbitrary positions
// without touching any session.
func (h *SettlementHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.PositionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	settlement, err := h.settlementUC.PreviewSettlement(r.Context(), req.Positions)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compute settlement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromDomain(settlement))
}

// Compare scores every supported settlement algorithm over the same
// positions.
func (h *SettlementHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req dto.PositionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	comparison, err := h.settlementUC.CompareSettlements(r.Context(), req.Positions)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compare settlements", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ComparisonFromUseCase(comparison))
}

// VerifyProof rechecks an exported proof from scratch. A proof that fails
// verification is still a 200: the verification outcome is the resource.
func (h *SettlementHandler) VerifyProof(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Proof == nil {
		writeError(w, http.StatusBadRequest, "missing proof", "")
		return
	}

	verification, err := h.settlementUC.VerifyProof(r.Context(), req.Proof)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to verify proof", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, verification)
}
