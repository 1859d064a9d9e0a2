package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
// Rows are append-only: committed buy-ins and cash-outs are never
// updated or deleted.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, session_id, player_id, type, amount, pot_before, pot_after, player_balance_after, created_at`

// Create inserts a committed transaction within a database transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transactions (id, session_id, player_id, type, amount, pot_before, pot_after, player_balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := pgxTx.Exec(ctx, query,
		txn.ID,
		txn.SessionID,
		txn.PlayerID,
		txn.Type,
		txn.Amount,
		txn.PotBefore,
		txn.PotAfter,
		txn.PlayerBalanceAfter,
		txn.CreatedAt,
	)

	return err
}

// ListBySession retrieves transactions for a session in commit order.
func (r *TransactionRepository) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE session_id = $1 ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListByPlayer retrieves transactions for a player in commit order.
func (r *TransactionRepository) ListByPlayer(ctx context.Context, playerID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE player_id = $1 ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, playerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		err := rows.Scan(
			&t.ID, &t.SessionID, &t.PlayerID, &t.Type,
			&t.Amount, &t.PotBefore, &t.PotAfter, &t.PlayerBalanceAfter,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		txns = append(txns, &t)
	}

	return txns, rows.Err()
}
