package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SettlementAlgorithm identifies which algorithm produced a payment plan.
type SettlementAlgorithm string

const (
	AlgorithmGreedy SettlementAlgorithm = "greedy_debt_reduction"
	AlgorithmDirect SettlementAlgorithm = "direct_pairwise"
	AlgorithmBanker SettlementAlgorithm = "banker_hub"
)

// PaymentInstruction is one payer-to-payee transfer. Amount is always
// positive and rounded to the minor unit.
type PaymentInstruction struct {
	FromPlayerID string          `json:"from_player_id"`
	FromName     string          `json:"from_name"`
	ToPlayerID   string          `json:"to_player_id"`
	ToName       string          `json:"to_name"`
	Amount       decimal.Decimal `json:"amount"`
}

// PaymentPlan is an ordered list of instructions that settles all net
// positions to zero.
type PaymentPlan struct {
	Algorithm    SettlementAlgorithm  `json:"algorithm"`
	Instructions []PaymentInstruction `json:"instructions"`
}

// Count returns the number of instructions in the plan.
func (p PaymentPlan) Count() int {
	return len(p.Instructions)
}

// Apply replays the plan against positions and returns each player's
// remaining net. Used by the proof engine to re-derive the arithmetic
// independently of the optimizer's bookkeeping.
func (p PaymentPlan) Apply(positions []NetPosition) map[string]decimal.Decimal {
	remaining := make(map[string]decimal.Decimal, len(positions))
	for _, pos := range positions {
		remaining[pos.PlayerID] = RoundToMinorUnit(pos.Amount)
	}

	for _, ins := range p.Instructions {
		remaining[ins.FromPlayerID] = AddMoney(remaining[ins.FromPlayerID], ins.Amount)
		remaining[ins.ToPlayerID] = SubMoney(remaining[ins.ToPlayerID], ins.Amount)
	}

	return remaining
}

// Summary renders a short human-readable description of the plan.
func (p PaymentPlan) Summary() string {
	if len(p.Instructions) == 0 {
		return "everyone broke even, no payments needed"
	}

	lines := make([]string, 0, len(p.Instructions))
	for _, ins := range p.Instructions {
		lines = append(lines, fmt.Sprintf("%s pays %s %s", ins.FromName, ins.ToName, ins.Amount.StringFixed(MinorUnitExponent)))
	}

	return strings.Join(lines, "; ")
}

// OptimizationMetrics compares the optimized plan against the direct
// pairwise baseline.
type OptimizationMetrics struct {
	OriginalPaymentCount  int             `json:"original_payment_count"`
	OptimizedPaymentCount int             `json:"optimized_payment_count"`
	ReductionPercentage   decimal.Decimal `json:"reduction_percentage"`
}

// OptimizedSettlement is the immutable result of one settlement request.
// Recomputing from the same net positions yields an identical plan; a
// recompute supersedes rather than edits the previous settlement.
type OptimizedSettlement struct {
	ID         string              `json:"id"`
	SessionID  string              `json:"session_id"`
	Positions  []NetPosition       `json:"positions"`
	Plan       PaymentPlan         `json:"plan"`
	DirectPlan PaymentPlan         `json:"direct_plan"`
	Metrics    OptimizationMetrics `json:"metrics"`
	Proof      *MathematicalProof  `json:"proof,omitempty"`
	IsValid    bool                `json:"is_valid"`
	CreatedAt  time.Time           `json:"created_at"`
}
