package domain

import "errors"

var (
	// Not-found errors
	ErrSessionNotFound    = errors.New("session not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrProofNotFound      = errors.New("proof not found")

	// Invariant violations. These indicate a defect upstream of the
	// settlement core or deliberate tampering, never a user mistake.
	ErrUnbalancedNetPositions = errors.New("net positions do not sum to zero")
	ErrSingleNonZeroPosition  = errors.New("single non-zero net position cannot be settled")
	ErrNegativePot            = errors.New("session pot would become negative")
	ErrChipBalanceMismatch    = errors.New("chip balance does not match buy-ins minus cash-outs")
	ErrChecksumMismatch       = errors.New("proof checksum does not match content")
	ErrSignatureMismatch      = errors.New("proof signature does not match checksum")

	// Settlement lifecycle errors
	ErrSessionCompleted    = errors.New("session is already completed")
	ErrPlayersStillActive  = errors.New("session has players that have not cashed out")
	ErrPotNotEmpty         = errors.New("session pot is not empty")
	ErrSettlementInvalid   = errors.New("settlement failed proof verification")
	ErrInvalidCurrencyCode = errors.New("invalid currency code")
	ErrInvalidPlayerName   = errors.New("invalid player name")
	ErrInvalidSessionName  = errors.New("invalid session name")
)
