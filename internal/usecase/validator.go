package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
)

// ValidatorConfig holds the configured buy-in and cash-out bounds.
type ValidatorConfig struct {
	MinBuyIn   decimal.Decimal
	MaxBuyIn   decimal.Decimal
	MinCashOut decimal.Decimal
	MaxCashOut decimal.Decimal
}

// DefaultValidatorConfig returns the default bounds.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MinBuyIn:   decimal.RequireFromString(DefaultMinBuyIn),
		MaxBuyIn:   decimal.RequireFromString(DefaultMaxBuyIn),
		MinCashOut: decimal.RequireFromString(DefaultMinCashOut),
		MaxCashOut: decimal.RequireFromString(DefaultMaxCashOut),
	}
}

// TransactionValidator decides whether a proposed buy-in or cash-out may be
// committed. It is a pure decision function over supplied state snapshots:
// it never mutates anything and never performs I/O. Committing an accepted
// transaction is the caller's job, inside the same critical section that
// produced the snapshot.
type TransactionValidator struct {
	cfg ValidatorConfig
}

// NewTransactionValidator creates a validator with the given bounds.
func NewTransactionValidator(cfg ValidatorConfig) *TransactionValidator {
	return &TransactionValidator{cfg: cfg}
}

// ValidateBuyIn applies the buy-in rules in order; the first failure wins.
func (v *TransactionValidator) ValidateBuyIn(session *domain.Session, player *domain.Player, amount decimal.Decimal) domain.ValidationResult {
	var trail []domain.ValidationCheck

	if result, ok := v.checkAmount(amount, v.cfg.MinBuyIn, v.cfg.MaxBuyIn, &trail); !ok {
		return result
	}

	if result, ok := v.checkSessionOpen(session, &trail); !ok {
		return result
	}

	if player == nil {
		trail = append(trail, domain.ValidationCheck{Name: "player_exists", Passed: false})
		return domain.InvalidResult(domain.CodePlayerNotFound, "player not found in session", trail)
	}
	trail = append(trail, domain.ValidationCheck{Name: "player_exists", Passed: true})

	if player.Status != domain.PlayerStatusActive {
		trail = append(trail, domain.ValidationCheck{Name: "player_active", Passed: false, Detail: string(player.Status)})
		return domain.InvalidResult(domain.CodePlayerInactive,
			fmt.Sprintf("player %s has cashed out and cannot buy in", player.Name), trail)
	}
	trail = append(trail, domain.ValidationCheck{Name: "player_active", Passed: true})

	return domain.ValidResult(session.ID, player.ID, amount, trail)
}

// ValidateCashOut applies the cash-out rules in order; the first failure
// wins. roster must be the session's full player list so the last-active-
// player constraint can be evaluated.
func (v *TransactionValidator) ValidateCashOut(session *domain.Session, player *domain.Player, amount decimal.Decimal, roster []*domain.Player) domain.ValidationResult {
	var trail []domain.ValidationCheck

	if result, ok := v.checkAmount(amount, v.cfg.MinCashOut, v.cfg.MaxCashOut, &trail); !ok {
		return result
	}

	if result, ok := v.checkSessionOpen(session, &trail); !ok {
		return result
	}

	if player == nil {
		trail = append(trail, domain.ValidationCheck{Name: "player_exists", Passed: false})
		return domain.InvalidResult(domain.CodePlayerNotFound, "player not found in session", trail)
	}
	trail = append(trail, domain.ValidationCheck{Name: "player_exists", Passed: true})

	if player.Status == domain.PlayerStatusCashedOut {
		trail = append(trail, domain.ValidationCheck{Name: "player_not_cashed_out", Passed: false})
		return domain.InvalidResult(domain.CodePlayerCashedOut,
			fmt.Sprintf("player %s has already cashed out", player.Name), trail)
	}
	trail = append(trail, domain.ValidationCheck{Name: "player_not_cashed_out", Passed: true})

	if player.Status != domain.PlayerStatusActive {
		trail = append(trail, domain.ValidationCheck{Name: "player_active", Passed: false, Detail: string(player.Status)})
		return domain.InvalidResult(domain.CodePlayerInactive,
			fmt.Sprintf("player %s is not active", player.Name), trail)
	}
	trail = append(trail, domain.ValidationCheck{Name: "player_active", Passed: true})

	// Hard pot ceiling, checked before any last-player rule. Holds
	// regardless of player count.
	amount = domain.RoundToMinorUnit(amount)
	if amount.GreaterThan(session.TotalPot) {
		trail = append(trail, domain.ValidationCheck{
			Name:   "within_pot",
			Passed: false,
			Detail: fmt.Sprintf("pot is %s", session.TotalPot.StringFixed(domain.MinorUnitExponent)),
		})
		return domain.InvalidResult(domain.CodeInsufficientPot,
			fmt.Sprintf("cash-out of %s exceeds the session pot of %s",
				amount.StringFixed(domain.MinorUnitExponent),
				session.TotalPot.StringFixed(domain.MinorUnitExponent)), trail)
	}
	trail = append(trail, domain.ValidationCheck{Name: "within_pot", Passed: true})

	// Last-active-player constraint: a partial cash-out by the final
	// player would strand money in the pot with no one left to claim it.
	if v.isLastActivePlayer(player, roster) && !domain.WithinTolerance(amount, session.TotalPot) {
		required := domain.RoundToMinorUnit(session.TotalPot)
		trail = append(trail, domain.ValidationCheck{
			Name:   "last_player_exact_amount",
			Passed: false,
			Detail: fmt.Sprintf("required %s", required.StringFixed(domain.MinorUnitExponent)),
		})

		result := domain.InvalidResult(domain.CodeLastPlayerExactAmount,
			fmt.Sprintf("last active player must cash out exactly %s", required.StringFixed(domain.MinorUnitExponent)), trail)
		result.RequiredAmount = &required

		return result
	}
	trail = append(trail, domain.ValidationCheck{Name: "last_player_exact_amount", Passed: true})

	return domain.ValidResult(session.ID, player.ID, amount, trail)
}

func (v *TransactionValidator) checkAmount(amount, min, max decimal.Decimal, trail *[]domain.ValidationCheck) (domain.ValidationResult, bool) {
	if amount.LessThanOrEqual(decimal.Zero) || !domain.IsValidAmount(amount) {
		*trail = append(*trail, domain.ValidationCheck{Name: "amount_valid", Passed: false, Detail: amount.String()})
		return domain.InvalidResult(domain.CodeInvalidAmount,
			"amount must be a positive value in whole cents", *trail), false
	}
	*trail = append(*trail, domain.ValidationCheck{Name: "amount_valid", Passed: true})

	if amount.LessThan(min) {
		*trail = append(*trail, domain.ValidationCheck{Name: "amount_above_minimum", Passed: false})
		return domain.InvalidResult(domain.CodeAmountBelowMinimum,
			fmt.Sprintf("minimum amount is %s", min.StringFixed(domain.MinorUnitExponent)), *trail), false
	}
	*trail = append(*trail, domain.ValidationCheck{Name: "amount_above_minimum", Passed: true})

	if amount.GreaterThan(max) {
		*trail = append(*trail, domain.ValidationCheck{Name: "amount_below_maximum", Passed: false})
		return domain.InvalidResult(domain.CodeAmountAboveMaximum,
			fmt.Sprintf("maximum amount is %s", max.StringFixed(domain.MinorUnitExponent)), *trail), false
	}
	*trail = append(*trail, domain.ValidationCheck{Name: "amount_below_maximum", Passed: true})

	return domain.ValidationResult{}, true
}

func (v *TransactionValidator) checkSessionOpen(session *domain.Session, trail *[]domain.ValidationCheck) (domain.ValidationResult, bool) {
	if !session.AcceptsTransactions() {
		*trail = append(*trail, domain.ValidationCheck{Name: "session_open", Passed: false, Detail: string(session.Status)})
		return domain.InvalidResult(domain.CodeSessionClosed,
			"session is completed and no longer accepts transactions", *trail), false
	}
	*trail = append(*trail, domain.ValidationCheck{Name: "session_open", Passed: true})

	return domain.ValidationResult{}, true
}

// isLastActivePlayer reports whether no other active players remain once
// the target is excluded.
func (v *TransactionValidator) isLastActivePlayer(target *domain.Player, roster []*domain.Player) bool {
	for _, p := range roster {
		if p.ID == target.ID {
			continue
		}

		if p.Status == domain.PlayerStatusActive {
			return false
		}
	}

	return true
}
