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

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	RecordBuyIn(ctx context.Context, input usecase.RecordTransactionInput) (*domain.Transaction, domain.ValidationResult, error)
	RecordCashOut(ctx context.Context, input usecase.RecordTransactionInput) (*domain.Transaction, domain.ValidationResult, error)
}

// LedgerHandler handles buy-in and cash-out HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// RecordBuyIn validates and commits a buy-in.
func (h *LedgerHandler) RecordBuyIn(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.ledgerUC.RecordBuyIn)
}

// RecordCashOut validates and commits a cash-out.
func (h *LedgerHandler) RecordCashOut(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.ledgerUC.RecordCashOut)
}

func (h *LedgerHandler) record(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, input usecase.RecordTransactionInput) (*domain.Transaction, domain.ValidationResult, error),
) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID", "")
		return
	}

	var req dto.RecordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, result, err := op(r.Context(), req.ToUseCaseInput(sessionID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record transaction", err.Error())
		return
	}

	if !result.IsValid {
		writeValidationFailure(w, result)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RecordTransactionResponse{
		Transaction: dto.TransactionFromDomain(txn),
		Validation:  result,
	})
}
