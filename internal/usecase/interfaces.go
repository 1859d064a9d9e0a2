package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
)

// SessionRepository defines data access for sessions.
type SessionRepository interface {
	Create(ctx context.Context, tx Transaction, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Session, error)
	UpdatePot(ctx context.Context, tx Transaction, id string, pot decimal.Decimal, status domain.SessionStatus, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Session, error)
}

// PlayerRepository defines data access for players.
type PlayerRepository interface {
	Create(ctx context.Context, tx Transaction, player *domain.Player) error
	GetByID(ctx context.Context, id string) (*domain.Player, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Player, error)
	ListBySessionForUpdate(ctx context.Context, tx Transaction, sessionID string) ([]*domain.Player, error)
	UpdateTotals(ctx context.Context, tx Transaction, id string, totalBuyIns, totalCashOuts, chipBalance decimal.Decimal, status domain.PlayerStatus, updatedAt time.Time) error
}

// TransactionRepository defines data access for committed buy-ins and cash-outs.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]*domain.Transaction, error)
	ListByPlayer(ctx context.Context, playerID string, limit, offset int) ([]*domain.Transaction, error)
}

// SettlementRepository defines data access for optimized settlements.
type SettlementRepository interface {
	Create(ctx context.Context, tx Transaction, settlement *domain.OptimizedSettlement) error
	GetByID(ctx context.Context, id string) (*domain.OptimizedSettlement, error)
	GetLatestBySession(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient database failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
