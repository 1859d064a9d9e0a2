package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of a cash-game session.
type SessionStatus string

const (
	SessionStatusCreated   SessionStatus = "created"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session represents one cash-game session. TotalPot is the money currently
// in play: the sum of confirmed buy-ins minus the sum of confirmed cash-outs
// across all players. It is rounded to the minor unit on every mutation and
// must never go negative.
type Session struct {
	ID        string
	Name      string
	Currency  string
	Status    SessionStatus
	TotalPot  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	MaxSessionNameLength = 255
	MinSessionNameLength = 1
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
}

// ValidateSessionName validates a session name.
func ValidateSessionName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinSessionNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidSessionName)
	}

	if len(name) > MaxSessionNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidSessionName, MaxSessionNameLength)
	}

	return nil
}

// ValidateCurrency validates a currency code.
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrencyCode, currency)
	}

	return nil
}

// AcceptsTransactions reports whether buy-ins and cash-outs may still be
// recorded against this session.
func (s *Session) AcceptsTransactions() bool {
	return s.Status == SessionStatusCreated || s.Status == SessionStatusActive
}

// ApplyBuyIn returns the pot after a buy-in of amount.
func (s *Session) ApplyBuyIn(amount decimal.Decimal) decimal.Decimal {
	return AddMoney(s.TotalPot, amount)
}

// ApplyCashOut returns the pot after a cash-out of amount, or ErrNegativePot
// if the cash-out would overdraw the pot. The pot invariant is enforced here
// and rejected before any mutation, never silently clamped.
func (s *Session) ApplyCashOut(amount decimal.Decimal) (decimal.Decimal, error) {
	newPot := SubMoney(s.TotalPot, amount)
	if newPot.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: pot %s, cash-out %s", ErrNegativePot, s.TotalPot, amount)
	}

	return newPot, nil
}
