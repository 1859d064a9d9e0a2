package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
)

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	TotalPot  decimal.Decimal `json:"total_pot"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SessionFromDomain converts a domain session to a response.
func SessionFromDomain(s *domain.Session) *SessionResponse {
	return &SessionResponse{
		ID:        s.ID,
		Name:      s.Name,
		Currency:  s.Currency,
		Status:    string(s.Status),
		TotalPot:  s.TotalPot,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// SessionsFromDomain converts domain sessions to responses.
func SessionsFromDomain(sessions []*domain.Session) []*SessionResponse {
	result := make([]*SessionResponse, len(sessions))
	for i, s := range sessions {
		result[i] = SessionFromDomain(s)
	}
	return result
}

// ListSessionsResponse wraps a session listing.
type ListSessionsResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
	Total    int64              `json:"total"`
}

// PlayerResponse represents a player in API responses.
type PlayerResponse struct {
	ID                 string          `json:"id"`
	SessionID          string          `json:"session_id"`
	Name               string          `json:"name"`
	Status             string          `json:"status"`
	TotalBuyIns        decimal.Decimal `json:"total_buy_ins"`
	TotalCashOuts      decimal.Decimal `json:"total_cash_outs"`
	CurrentChipBalance decimal.Decimal `json:"current_chip_balance"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PlayerFromDomain converts a domain player to a response.
func PlayerFromDomain(p *domain.Player) *PlayerResponse {
	return &PlayerResponse{
		ID:                 p.ID,
		SessionID:          p.SessionID,
		Name:               p.Name,
		Status:             string(p.Status),
		TotalBuyIns:        p.TotalBuyIns,
		TotalCashOuts:      p.TotalCashOuts,
		CurrentChipBalance: p.CurrentChipBalance,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// PlayersFromDomain converts domain players to responses.
func PlayersFromDomain(players []*domain.Player) []*PlayerResponse {
	result := make([]*PlayerResponse, len(players))
	for i, p := range players {
		result[i] = PlayerFromDomain(p)
	}
	return result
}

// ListPlayersResponse wraps a roster listing.
type ListPlayersResponse struct {
	Players []*PlayerResponse `json:"players"`
	Total   int64             `json:"total"`
}

// TransactionResponse represents a committed transaction in API responses.
type TransactionResponse struct {
	ID                 string          `json:"id"`
	SessionID          string          `json:"session_id"`
	PlayerID           string          `json:"player_id"`
	Type               string          `json:"type"`
	Amount             decimal.Decimal `json:"amount"`
	PotBefore          decimal.Decimal `json:"pot_before"`
	PotAfter           decimal.Decimal `json:"pot_after"`
	PlayerBalanceAfter decimal.Decimal `json:"player_balance_after"`
	CreatedAt          time.Time       `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                 t.ID,
		SessionID:          t.SessionID,
		PlayerID:           t.PlayerID,
		Type:               string(t.Type),
		Amount:             t.Amount,
		PotBefore:          t.PotBefore,
		PotAfter:           t.PotAfter,
		PlayerBalanceAfter: t.PlayerBalanceAfter,
		CreatedAt:          t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse wraps a ledger listing.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// RecordTransactionResponse is the body for an accepted buy-in or cash-out.
type RecordTransactionResponse struct {
	Transaction *TransactionResponse    `json:"transaction"`
	Validation  domain.ValidationResult `json:"validation"`
}

// SettlementResponse represents a settlement in API responses. The embedded
// domain types already carry JSON tags; the payment plan and proof are
// exported as-is so external verifiers see the exact persisted objects.
type SettlementResponse struct {
	ID         string                     `json:"id"`
	SessionID  string                     `json:"session_id,omitempty"`
	Positions  []domain.NetPosition       `json:"positions"`
	Plan       domain.PaymentPlan         `json:"plan"`
	DirectPlan domain.PaymentPlan         `json:"direct_plan"`
	Metrics    domain.OptimizationMetrics `json:"metrics"`
	Summary    string                     `json:"summary"`
	Proof      *domain.MathematicalProof  `json:"proof,omitempty"`
	IsValid    bool                       `json:"is_valid"`
	CreatedAt  time.Time                  `json:"created_at"`
}

// SettlementFromDomain converts a domain settlement to a response.
func SettlementFromDomain(s *domain.OptimizedSettlement) *SettlementResponse {
	return &SettlementResponse{
		ID:         s.ID,
		SessionID:  s.SessionID,
		Positions:  s.Positions,
		Plan:       s.Plan,
		DirectPlan: s.DirectPlan,
		Metrics:    s.Metrics,
		Summary:    s.Plan.Summary(),
		Proof:      s.Proof,
		IsValid:    s.IsValid,
		CreatedAt:  s.CreatedAt,
	}
}

// ComparisonResponse wraps the alternative comparison.
type ComparisonResponse struct {
	Options     []usecase.SettlementOption `json:"options"`
	Recommended int                        `json:"recommended"`
}

// ComparisonFromUseCase converts a comparison to a response.
func ComparisonFromUseCase(c *usecase.AlternativeComparison) *ComparisonResponse {
	return &ComparisonResponse{
		Options:     c.Options,
		Recommended: c.Recommended,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
