package dto

import (
	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
)

// CreateSessionRequest represents a request to create a session.
type CreateSessionRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateSessionRequest) ToUseCaseInput() usecase.CreateSessionInput {
	return usecase.CreateSessionInput{
		Name:     r.Name,
		Currency: r.Currency,
	}
}

// AddPlayerRequest represents a request to add a player to a session.
type AddPlayerRequest struct {
	Name string `json:"name"`
}

// RecordTransactionRequest represents a proposed buy-in or cash-out.
type RecordTransactionRequest struct {
	PlayerID string          `json:"player_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input for the given session.
func (r *RecordTransactionRequest) ToUseCaseInput(sessionID string) usecase.RecordTransactionInput {
	return usecase.RecordTransactionInput{
		SessionID: sessionID,
		PlayerID:  r.PlayerID,
		Amount:    r.Amount,
	}
}

// PositionsRequest carries net positions for stateless settlement
// computation (preview and compare).
type PositionsRequest struct {
	Positions []domain.NetPosition `json:"positions"`
}

// VerifyProofRequest carries an exported proof for verification.
type VerifyProofRequest struct {
	Proof *domain.MathematicalProof `json:"proof"`
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
