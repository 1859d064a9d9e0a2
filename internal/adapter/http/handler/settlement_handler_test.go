package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/adapter/http/dto"
	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
)

type settlementServiceStub struct {
	settleFn      func(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error)
	previewFn     func(ctx context.Context, positions []domain.NetPosition) (*domain.OptimizedSettlement, error)
	compareFn     func(ctx context.Context, positions []domain.NetPosition) (*usecase.AlternativeComparison, error)
	getFn         func(ctx context.Context, id string) (*domain.OptimizedSettlement, error)
	getLatestFn   func(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error)
	getProofFn    func(ctx context.Context, settlementID string) (*domain.MathematicalProof, error)
	verifyProofFn func(ctx context.Context, proof *domain.MathematicalProof) (*domain.ProofVerification, error)
}

func (s *settlementServiceStub) SettleSession(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error) {
	return s.settleFn(ctx, sessionID)
}

func (s *settlementServiceStub) PreviewSettlement(ctx context.Context, positions []domain.NetPosition) (*domain.OptimizedSettlement, error) {
	return s.previewFn(ctx, positions)
}

func (s *settlementServiceStub) CompareSettlements(ctx context.Context, positions []domain.NetPosition) (*usecase.AlternativeComparison, error) {
	return s.compareFn(ctx, positions)
}

func (s *settlementServiceStub) GetSettlement(ctx context.Context, id string) (*domain.OptimizedSettlement, error) {
	return s.getFn(ctx, id)
}

func (s *settlementServiceStub) GetLatestSettlement(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error) {
	return s.getLatestFn(ctx, sessionID)
}

func (s *settlementServiceStub) GetProof(ctx context.Context, settlementID string) (*domain.MathematicalProof, error) {
	return s.getProofFn(ctx, settlementID)
}

func (s *settlementServiceStub) VerifyProof(ctx context.Context, proof *domain.MathematicalProof) (*domain.ProofVerification, error) {
	return s.verifyProofFn(ctx, proof)
}

func sampleSettlement() *domain.OptimizedSettlement {
	return &domain.OptimizedSettlement{
		ID:        "stl-1",
		SessionID: "ses-1",
		Positions: []domain.NetPosition{
			{PlayerID: "p1", Name: "Alice", Amount: decimal.NewFromInt(50)},
			{PlayerID: "p2", Name: "Bob", Amount: decimal.NewFromInt(-50)},
		},
		Plan: domain.PaymentPlan{
			Instructions: []domain.PaymentInstruction{
				{FromPlayerID: "p2", FromName: "Bob", ToPlayerID: "p1", ToName: "Alice", Amount: decimal.NewFromInt(50)},
			},
		},
		IsValid: true,
	}
}

func TestSettlementHandler_Settle_Success(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{
		settleFn: func(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error) {
			if sessionID != "ses-1" {
				t.Fatalf("expected session ses-1, got %s", sessionID)
			}
			return sampleSettlement(), nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/sessions/ses-1/settle", nil)
	req = setChiURLParam(req, "id", "ses-1")
	rec := httptest.NewRecorder()

	h.Settle(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.SettlementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "stl-1" || len(resp.Plan.Instructions) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSettlementHandler_Settle_PlayersStillActive(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{
		settleFn: func(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error) {
			return nil, domain.ErrPlayersStillActive
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/sessions/ses-1/settle", nil)
	req = setChiURLParam(req, "id", "ses-1")
	rec := httptest.NewRecorder()

	h.Settle(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestSettlementHandler_Preview(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{
		previewFn: func(ctx context.Context, positions []domain.NetPosition) (*domain.OptimizedSettlement, error) {
			if len(positions) != 2 {
				t.Fatalf("expected 2 positions, got %d", len(positions))
			}
			s := sampleSettlement()
			s.SessionID = ""
			return s, nil
		},
	})

	body, _ := json.Marshal(dto.PositionsRequest{Positions: sampleSettlement().Positions})
	req := httptest.NewRequest(http.MethodPost, "/settlements/preview", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Preview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSettlementHandler_Preview_Unbalanced(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{
		previewFn: func(ctx context.Context, positions []domain.NetPosition) (*domain.OptimizedSettlement, error) {
			return nil, domain.ErrUnbalancedNetPositions
		},
	})

	body, _ := json.Marshal(dto.PositionsRequest{Positions: []domain.NetPosition{
		{PlayerID: "p1", Amount: decimal.NewFromInt(10)},
	}})
	req := httptest.NewRequest(http.MethodPost, "/settlements/preview", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Preview(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSettlementHandler_Compare(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{
		compareFn: func(ctx context.Context, positions []domain.NetPosition) (*usecase.AlternativeComparison, error) {
			return &usecase.AlternativeComparison{
				Options: []usecase.SettlementOption{
					{Algorithm: domain.AlgorithmGreedy, TransactionCount: 1},
					{Algorithm: domain.AlgorithmDirect, TransactionCount: 2},
				},
				Recommended: 0,
			}, nil
		},
	})

	body, _ := json.Marshal(dto.PositionsRequest{Positions: sampleSettlement().Positions})
	req := httptest.NewRequest(http.MethodPost, "/settlements/compare", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Compare(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ComparisonResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Options) != 2 || resp.Recommended != 0 {
		t.Fatalf("unexpected comparison: %+v", resp)
	}
}

func TestSettlementHandler_GetProof_NotFound(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{
		getProofFn: func(ctx context.Context, settlementID string) (*domain.MathematicalProof, error) {
			return nil, domain.ErrProofNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/settlements/stl-1/proof", nil)
	req = setChiURLParam(req, "id", "stl-1")
	rec := httptest.NewRecorder()

	h.GetProof(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSettlementHandler_VerifyProof_InvalidProofIsStill200(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{
		verifyProofFn: func(ctx context.Context, proof *domain.MathematicalProof) (*domain.ProofVerification, error) {
			return &domain.ProofVerification{
				ChecksumValid: false,
				IsValid:       false,
			}, nil
		},
	})

	body, _ := json.Marshal(dto.VerifyProofRequest{Proof: &domain.MathematicalProof{ID: "prf-1"}})
	req := httptest.NewRequest(http.MethodPost, "/proofs/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.VerifyProof(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for failed verification, got %d", rec.Code)
	}

	var verification domain.ProofVerification
	if err := json.Unmarshal(rec.Body.Bytes(), &verification); err != nil {
		t.Fatalf("failed to decode verification: %v", err)
	}
	if verification.IsValid {
		t.Fatal("expected verification to report invalid")
	}
}

func TestSettlementHandler_VerifyProof_MissingProof(t *testing.T) {
	h := NewSettlementHandler(&settlementServiceStub{
		verifyProofFn: func(ctx context.Context, proof *domain.MathematicalProof) (*domain.ProofVerification, error) {
			t.Fatal("VerifyProof should not be called without a proof")
			return nil, nil
		},
	})

	body, _ := json.Marshal(dto.VerifyProofRequest{})
	req := httptest.NewRequest(http.MethodPost, "/proofs/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.VerifyProof(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
