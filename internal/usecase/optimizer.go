package usecase

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
)

// SettlementOptimizer computes payment plans from final net positions. It
// is stateless and freely constructible; computation is pure apart from ID
// and timestamp generation.
type SettlementOptimizer struct {
	idGen IDGenerator
}

// NewSettlementOptimizer creates a new SettlementOptimizer.
func NewSettlementOptimizer(idGen IDGenerator) *SettlementOptimizer {
	return &SettlementOptimizer{idGen: idGen}
}

// party is one side of an open balance during plan construction.
type party struct {
	playerID  string
	name      string
	remaining decimal.Decimal
}

// Optimize validates the zero-sum input invariant and produces the greedy
// minimized-transfer plan plus the direct pairwise baseline. The plan
// content is fully determined by the input positions, so recomputation
// yields an identical plan.
func (o *SettlementOptimizer) Optimize(sessionID string, positions []domain.NetPosition) (*domain.OptimizedSettlement, error) {
	if err := domain.ValidateNetPositions(positions); err != nil {
		return nil, err
	}

	plan := domain.PaymentPlan{
		Algorithm:    domain.AlgorithmGreedy,
		Instructions: GreedyInstructions(positions),
	}
	direct := domain.PaymentPlan{
		Algorithm:    domain.AlgorithmDirect,
		Instructions: DirectInstructions(positions),
	}

	return &domain.OptimizedSettlement{
		ID:         o.idGen.Generate(),
		SessionID:  sessionID,
		Positions:  positions,
		Plan:       plan,
		DirectPlan: direct,
		Metrics:    computeMetrics(direct.Count(), plan.Count()),
		IsValid:    true,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func computeMetrics(originalCount, optimizedCount int) domain.OptimizationMetrics {
	m := domain.OptimizationMetrics{
		OriginalPaymentCount:  originalCount,
		OptimizedPaymentCount: optimizedCount,
		ReductionPercentage:   decimal.Zero,
	}

	if originalCount > 0 {
		m.ReductionPercentage = decimal.NewFromInt(int64(originalCount - optimizedCount)).
			Div(decimal.NewFromInt(int64(originalCount))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return m
}

// GreedyInstructions implements greedy debt reduction: repeatedly match the
// largest remaining creditor with the largest remaining debtor and transfer
// the smaller of the two magnitudes. Ties break on player ID so the output
// is deterministic for the same input. Emits at most playerCount-1
// instructions.
func GreedyInstructions(positions []domain.NetPosition) []domain.PaymentInstruction {
	creditors, debtors := partition(positions)

	instructions := make([]domain.PaymentInstruction, 0, len(positions))

	for len(creditors) > 0 && len(debtors) > 0 {
		c := &creditors[0]
		d := &debtors[0]

		transfer := decimal.Min(c.remaining, d.remaining)

		instructions = append(instructions, domain.PaymentInstruction{
			FromPlayerID: d.playerID,
			FromName:     d.name,
			ToPlayerID:   c.playerID,
			ToName:       c.name,
			Amount:       transfer,
		})

		c.remaining = domain.SubMoney(c.remaining, transfer)
		d.remaining = domain.SubMoney(d.remaining, transfer)

		creditors = compact(creditors)
		debtors = compact(debtors)
	}

	return instructions
}

// DirectInstructions implements direct pairwise settlement: every debtor
// pays every creditor proportionally to the creditor's share of the total
// imbalance, with no netting across more than two parties. Always produces
// at least as many instructions as the greedy plan; used as the
// optimization-metrics baseline and as a presentation alternative.
func DirectInstructions(positions []domain.NetPosition) []domain.PaymentInstruction {
	creditors, debtors := partition(positions)
	if len(creditors) == 0 || len(debtors) == 0 {
		return nil
	}

	totalCredits := decimal.Zero
	for _, c := range creditors {
		totalCredits = domain.AddMoney(totalCredits, c.remaining)
	}

	var instructions []domain.PaymentInstruction

	for _, d := range debtors {
		paid := decimal.Zero

		for i, c := range creditors {
			var share decimal.Decimal
			if i == len(creditors)-1 {
				// Last creditor absorbs the rounding remainder so
				// the debtor pays out exactly their debt.
				share = domain.SubMoney(d.remaining, paid)
			} else {
				share = domain.RoundToMinorUnit(d.remaining.Mul(c.remaining).Div(totalCredits))
			}

			if share.IsZero() || share.IsNegative() {
				continue
			}

			instructions = append(instructions, domain.PaymentInstruction{
				FromPlayerID: d.playerID,
				FromName:     d.name,
				ToPlayerID:   c.playerID,
				ToName:       c.name,
				Amount:       share,
			})

			paid = domain.AddMoney(paid, share)
		}
	}

	return instructions
}

// BankerInstructions implements hub settlement: the largest creditor acts
// as the banker, collecting every debt in full and paying out every other
// creditor. Simple to run at a physical table, at the cost of routing all
// money through one player.
func BankerInstructions(positions []domain.NetPosition) []domain.PaymentInstruction {
	creditors, debtors := partition(positions)
	if len(creditors) == 0 || len(debtors) == 0 {
		return nil
	}

	banker := creditors[0]

	instructions := make([]domain.PaymentInstruction, 0, len(debtors)+len(creditors)-1)

	for _, d := range debtors {
		instructions = append(instructions, domain.PaymentInstruction{
			FromPlayerID: d.playerID,
			FromName:     d.name,
			ToPlayerID:   banker.playerID,
			ToName:       banker.name,
			Amount:       d.remaining,
		})
	}

	for _, c := range creditors[1:] {
		instructions = append(instructions, domain.PaymentInstruction{
			FromPlayerID: banker.playerID,
			FromName:     banker.name,
			ToPlayerID:   c.playerID,
			ToName:       c.name,
			Amount:       c.remaining,
		})
	}

	return instructions
}

// partition splits positions into creditors (owed money) and debtors (owe
// money), both carrying positive remaining magnitudes and sorted largest
// first with player ID as the stable tie-break.
func partition(positions []domain.NetPosition) (creditors, debtors []party) {
	for _, p := range positions {
		amount := domain.RoundToMinorUnit(p.Amount)

		switch {
		case amount.IsPositive():
			creditors = append(creditors, party{playerID: p.PlayerID, name: p.Name, remaining: amount})
		case amount.IsNegative():
			debtors = append(debtors, party{playerID: p.PlayerID, name: p.Name, remaining: amount.Abs()})
		}
	}

	sortParties(creditors)
	sortParties(debtors)

	return creditors, debtors
}

func sortParties(parties []party) {
	sort.SliceStable(parties, func(i, j int) bool {
		if !parties[i].remaining.Equal(parties[j].remaining) {
			return parties[i].remaining.GreaterThan(parties[j].remaining)
		}

		return parties[i].playerID < parties[j].playerID
	})
}

// compact drops settled parties and restores the largest-first order.
func compact(parties []party) []party {
	kept := parties[:0]
	for _, p := range parties {
		if !domain.RoundToMinorUnit(p.remaining).IsZero() {
			kept = append(kept, p)
		}
	}

	sortParties(kept)

	return kept
}
