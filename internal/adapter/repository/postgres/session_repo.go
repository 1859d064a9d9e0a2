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

// SessionRepository implements usecase.SessionRepository.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, name, currency, status, total_pot, created_at, updated_at`

// Create inserts a new session within a transaction.
func (r *SessionRepository) Create(ctx context.Context, tx usecase.Transaction, session *domain.Session) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO sessions (id, name, currency, status, total_pot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := pgxTx.Exec(ctx, query,
		session.ID,
		session.Name,
		session.Currency,
		session.Status,
		session.TotalPot,
		session.CreatedAt,
		session.UpdatedAt,
	)

	return err
}

// GetByID retrieves a session by ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	return scanSession(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a session by ID with a row lock. All pot
// mutations for a session serialize on this lock.
func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Session, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 FOR UPDATE`

	return scanSession(pgxTx.QueryRow(ctx, query, id))
}

// UpdatePot updates a session's pot and status within a transaction.
func (r *SessionRepository) UpdatePot(ctx context.Context, tx usecase.Transaction, id string, pot decimal.Decimal, status domain.SessionStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `UPDATE sessions SET total_pot = $2, status = $3, updated_at = $4 WHERE id = $1`

	tag, err := pgxTx.Exec(ctx, query, id, pot, status, updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

// List retrieves sessions ordered by creation time, newest first.
func (r *SessionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		var s domain.Session
		err := rows.Scan(&s.ID, &s.Name, &s.Currency, &s.Status, &s.TotalPot, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}

	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.Name, &s.Currency, &s.Status, &s.TotalPot, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	return &s, nil
}
