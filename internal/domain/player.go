package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PlayerStatus is the lifecycle state of a player within a session.
type PlayerStatus string

const (
	PlayerStatusActive    PlayerStatus = "active"
	PlayerStatusCashedOut PlayerStatus = "cashed_out"
)

// Player is one player's ledger entry within a session. CurrentChipBalance
// is always TotalBuyIns minus TotalCashOuts: the value of chips the player
// still has in play. A player becomes cashed_out only through an accepted
// cash-out transaction, after which no further transactions may target them.
type Player struct {
	ID                 string
	SessionID          string
	Name               string
	Status             PlayerStatus
	TotalBuyIns        decimal.Decimal
	TotalCashOuts      decimal.Decimal
	CurrentChipBalance decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const MaxPlayerNameLength = 255

// ValidatePlayerName validates a player name.
func ValidatePlayerName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidPlayerName)
	}

	if len(name) > MaxPlayerNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidPlayerName, MaxPlayerNameLength)
	}

	return nil
}

// CheckBalanceInvariant verifies CurrentChipBalance == TotalBuyIns - TotalCashOuts.
func (p *Player) CheckBalanceInvariant() error {
	expected := SubMoney(p.TotalBuyIns, p.TotalCashOuts)
	if !p.CurrentChipBalance.Equal(expected) {
		return fmt.Errorf("%w: player %s has balance %s, expected %s",
			ErrChipBalanceMismatch, p.ID, p.CurrentChipBalance, expected)
	}

	return nil
}

// NetAmount is the player's realized result: cash taken out minus cash put
// in. Positive means the player must receive money at settlement, negative
// means they must pay.
func (p *Player) NetAmount() decimal.Decimal {
	return SubMoney(p.TotalCashOuts, p.TotalBuyIns)
}

// ApplyBuyIn returns the player's totals after a buy-in of amount.
func (p *Player) ApplyBuyIn(amount decimal.Decimal) (totalBuyIns, chipBalance decimal.Decimal) {
	return AddMoney(p.TotalBuyIns, amount), AddMoney(p.CurrentChipBalance, amount)
}

// ApplyCashOut returns the player's totals after a cash-out of amount.
func (p *Player) ApplyCashOut(amount decimal.Decimal) (totalCashOuts, chipBalance decimal.Decimal) {
	return AddMoney(p.TotalCashOuts, amount), SubMoney(p.CurrentChipBalance, amount)
}
