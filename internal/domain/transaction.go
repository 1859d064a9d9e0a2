package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes chips bought in from chips cashed out.
type TransactionType string

const (
	TransactionTypeBuyIn   TransactionType = "buy_in"
	TransactionTypeCashOut TransactionType = "cash_out"
)

// Transaction is one committed, immutable buy-in or cash-out. PotBefore,
// PotAfter and PlayerBalanceAfter form the running-balance audit trail that
// consistency checks recompute from scratch.
type Transaction struct {
	ID                 string
	SessionID          string
	PlayerID           string
	Type               TransactionType
	Amount             decimal.Decimal
	PotBefore          decimal.Decimal
	PotAfter           decimal.Decimal
	PlayerBalanceAfter decimal.Decimal
	CreatedAt          time.Time
}
