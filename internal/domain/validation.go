package domain

import (
	"github.com/shopspring/decimal"
)

// ValidationCode is the closed set of business-rule violation codes shared
// by transaction and settlement validation. Every rejection carries exactly
// one code so callers can render an exact, actionable message.
type ValidationCode string

const (
	CodeOK ValidationCode = ""

	// Amount rules
	CodeInvalidAmount      ValidationCode = "INVALID_AMOUNT"
	CodeAmountBelowMinimum ValidationCode = "AMOUNT_BELOW_MINIMUM"
	CodeAmountAboveMaximum ValidationCode = "AMOUNT_ABOVE_MAXIMUM"

	// Session rules
	CodeSessionClosed ValidationCode = "SESSION_CLOSED"

	// Player rules
	CodePlayerNotFound  ValidationCode = "PLAYER_NOT_FOUND"
	CodePlayerCashedOut ValidationCode = "PLAYER_CASHED_OUT"
	CodePlayerInactive  ValidationCode = "PLAYER_INACTIVE"
	CodePlayerMismatch  ValidationCode = "PLAYER_SESSION_MISMATCH"

	// Pot rules
	CodeInsufficientPot       ValidationCode = "INSUFFICIENT_POT"
	CodeLastPlayerExactAmount ValidationCode = "LAST_PLAYER_EXACT_AMOUNT"

	// Settlement rules
	CodeUnbalancedPositions ValidationCode = "UNBALANCED_POSITIONS"
)

// ValidationCheck is one entry in a validation audit trail.
type ValidationCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// ValidationResult is the discriminated outcome of a validation run.
// Business-rule violations are expected, user-correctable outcomes: they are
// returned as data with IsValid false, never as errors. On success the
// result carries the normalized session/player/amount triple the caller may
// commit.
type ValidationResult struct {
	IsValid        bool              `json:"is_valid"`
	Code           ValidationCode    `json:"code,omitempty"`
	Message        string            `json:"message,omitempty"`
	SessionID      string            `json:"session_id,omitempty"`
	PlayerID       string            `json:"player_id,omitempty"`
	Amount         decimal.Decimal   `json:"amount"`
	RequiredAmount *decimal.Decimal  `json:"required_amount,omitempty"`
	AuditTrail     []ValidationCheck `json:"audit_trail,omitempty"`
}

// ValidResult builds a success result carrying the normalized transaction.
func ValidResult(sessionID, playerID string, amount decimal.Decimal, trail []ValidationCheck) ValidationResult {
	return ValidationResult{
		IsValid:    true,
		SessionID:  sessionID,
		PlayerID:   playerID,
		Amount:     RoundToMinorUnit(amount),
		AuditTrail: trail,
	}
}

// InvalidResult builds a rejection with a distinct code and display message.
func InvalidResult(code ValidationCode, message string, trail []ValidationCheck) ValidationResult {
	return ValidationResult{
		IsValid:    false,
		Code:       code,
		Message:    message,
		AuditTrail: trail,
	}
}
