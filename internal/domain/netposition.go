package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NetPosition is one player's final amount owed to them (positive) or owed
// by them (negative) at session close. The game is zero-sum by construction,
// so a valid set of positions sums to zero within Tolerance.
type NetPosition struct {
	PlayerID string          `json:"player_id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}

// SumNetPositions returns the sum of all position amounts.
func SumNetPositions(positions []NetPosition) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range positions {
		sum = AddMoney(sum, p.Amount)
	}

	return sum
}

// ValidateNetPositions checks the zero-sum input invariant before any
// settlement computation. A violation means a bookkeeping defect upstream,
// so it is escalated as an error rather than returned as a validation result.
// Both checks count residue at or below Tolerance as zero: a set whose only
// imbalance is a sub-tolerance remainder is treated as already settled and
// produces an empty plan.
func ValidateNetPositions(positions []NetPosition) error {
	sum := SumNetPositions(positions)
	if !IsZeroWithinTolerance(sum) {
		return fmt.Errorf("%w: sum is %s", ErrUnbalancedNetPositions, sum)
	}

	nonZero := 0
	for _, p := range positions {
		if !IsZeroWithinTolerance(p.Amount) {
			nonZero++
		}
	}

	// A lone non-zero position sums to ~zero only through rounding slack.
	// It cannot be settled: there is no counterparty.
	if nonZero == 1 {
		return ErrSingleNonZeroPosition
	}

	return nil
}

// DeriveNetPositions computes the per-player net positions from a final
// roster. Only meaningful once every player has cashed out.
func DeriveNetPositions(players []*Player) []NetPosition {
	positions := make([]NetPosition, 0, len(players))
	for _, p := range players {
		positions = append(positions, NetPosition{
			PlayerID: p.ID,
			Name:     p.Name,
			Amount:   p.NetAmount(),
		})
	}

	return positions
}
