package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
)

// PlayerRepository implements usecase.PlayerRepository.
type PlayerRepository struct {
	pool *pgxpool.Pool
}

// NewPlayerRepository creates a new PlayerRepository.
func NewPlayerRepository(pool *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{pool: pool}
}

const playerColumns = `id, session_id, name, status, total_buy_ins, total_cash_outs, current_chip_balance, created_at, updated_at`

// Create inserts a new player within a transaction.
func (r *PlayerRepository) Create(ctx context.Context, tx usecase.Transaction, player *domain.Player) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO players (id, session_id, name, status, total_buy_ins, total_cash_outs, current_chip_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := pgxTx.Exec(ctx, query,
		player.ID,
		player.SessionID,
		player.Name,
		player.Status,
		player.TotalBuyIns,
		player.TotalCashOuts,
		player.CurrentChipBalance,
		player.CreatedAt,
		player.UpdatedAt,
	)

	return err
}

// GetByID retrieves a player by ID.
func (r *PlayerRepository) GetByID(ctx context.Context, id string) (*domain.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	var p domain.Player
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SessionID, &p.Name, &p.Status,
		&p.TotalBuyIns, &p.TotalCashOuts, &p.CurrentChipBalance,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, err
	}

	return &p, nil
}

// ListBySession retrieves all players in a session, oldest first.
func (r *PlayerRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE session_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// ListBySessionForUpdate retrieves all players in a session with row locks.
// Ordered by id so that concurrent transactions acquire locks in the same
// order.
func (r *PlayerRepository) ListBySessionForUpdate(ctx context.Context, tx usecase.Transaction, sessionID string) ([]*domain.Player, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + playerColumns + ` FROM players WHERE session_id = $1 ORDER BY id ASC FOR UPDATE`

	rows, err := pgxTx.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlayers(rows)
}

// UpdateTotals updates a player's running totals within a transaction.
func (r *PlayerRepository) UpdateTotals(ctx context.Context, tx usecase.Transaction, id string, totalBuyIns, totalCashOuts, chipBalance decimal.Decimal, status domain.PlayerStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE players
		SET total_buy_ins = $2, total_cash_outs = $3, current_chip_balance = $4, status = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query, id, totalBuyIns, totalCashOuts, chipBalance, status, updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrPlayerNotFound
	}

	return nil
}

func scanPlayers(rows pgx.Rows) ([]*domain.Player, error) {
	var players []*domain.Player
	for rows.Next() {
		var p domain.Player
		err := rows.Scan(
			&p.ID, &p.SessionID, &p.Name, &p.Status,
			&p.TotalBuyIns, &p.TotalCashOuts, &p.CurrentChipBalance,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		players = append(players, &p)
	}

	return players, rows.Err()
}
