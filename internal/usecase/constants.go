package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a single validate-then-commit
	// database transaction.
	DefaultTransactionTimeout = 10 * time.Second

	// Default buy-in and cash-out bounds (decimal strings). Overridable
	// through configuration.
	DefaultMinBuyIn   = "0.01"
	DefaultMaxBuyIn   = "100000"
	DefaultMinCashOut = "0.01"
	DefaultMaxCashOut = "1000000"

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour

	// SettlementCacheTTL is how long stateless settlement previews stay
	// cached in Redis.
	SettlementCacheTTL = time.Hour
)
