package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
)

// SettlementRepository implements usecase.SettlementRepository. Positions,
// plans, metrics and the proof are stored as JSONB: a settlement is an
// immutable document, never queried by its internals.
type SettlementRepository struct {
	pool *pgxpool.Pool
}

// NewSettlementRepository creates a new SettlementRepository.
func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{pool: pool}
}

const settlementColumns = `id, session_id, positions, plan, direct_plan, metrics, proof, is_valid, created_at`

// Create inserts a settlement within a transaction.
func (r *SettlementRepository) Create(ctx context.Context, tx usecase.Transaction, settlement *domain.OptimizedSettlement) error {
	pgxTx := tx.(*Tx).PgxTx()

	positionsJSON, err := json.Marshal(settlement.Positions)
	if err != nil {
		return err
	}

	planJSON, err := json.Marshal(settlement.Plan)
	if err != nil {
		return err
	}

	directPlanJSON, err := json.Marshal(settlement.DirectPlan)
	if err != nil {
		return err
	}

	metricsJSON, err := json.Marshal(settlement.Metrics)
	if err != nil {
		return err
	}

	var proofJSON []byte
	if settlement.Proof != nil {
		proofJSON, err = json.Marshal(settlement.Proof)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO settlements (id, session_id, positions, plan, direct_plan, metrics, proof, is_valid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = pgxTx.Exec(ctx, query,
		settlement.ID,
		settlement.SessionID,
		positionsJSON,
		planJSON,
		directPlanJSON,
		metricsJSON,
		proofJSON,
		settlement.IsValid,
		settlement.CreatedAt,
	)

	return err
}

// GetByID retrieves a settlement by ID.
func (r *SettlementRepository) GetByID(ctx context.Context, id string) (*domain.OptimizedSettlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = $1`

	return scanSettlement(r.pool.QueryRow(ctx, query, id))
}

// GetLatestBySession retrieves the most recent settlement for a session.
// Recomputed settlements supersede earlier ones, so the latest row is the
// authoritative one.
func (r *SettlementRepository) GetLatestBySession(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE session_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`

	return scanSettlement(r.pool.QueryRow(ctx, query, sessionID))
}

func scanSettlement(row pgx.Row) (*domain.OptimizedSettlement, error) {
	var s domain.OptimizedSettlement
	var positionsJSON, planJSON, directPlanJSON, metricsJSON, proofJSON []byte

	err := row.Scan(
		&s.ID,
		&s.SessionID,
		&positionsJSON,
		&planJSON,
		&directPlanJSON,
		&metricsJSON,
		&proofJSON,
		&s.IsValid,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSettlementNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(positionsJSON, &s.Positions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(planJSON, &s.Plan); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(directPlanJSON, &s.DirectPlan); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metricsJSON, &s.Metrics); err != nil {
		return nil, err
	}
	if len(proofJSON) > 0 {
		s.Proof = &domain.MathematicalProof{}
		if err := json.Unmarshal(proofJSON, s.Proof); err != nil {
			return nil, err
		}
	}

	return &s, nil
}
