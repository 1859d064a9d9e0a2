package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/infrastructure/metrics"
)

// SettlementUseCase orchestrates settlement computation, proof generation
// and persistence. Settlements are immutable rows; recomputation inserts a
// new row that supersedes the previous one.
type SettlementUseCase struct {
	txManager      TransactionManager
	sessionRepo    SessionRepository
	playerRepo     PlayerRepository
	settlementRepo SettlementRepository
	outboxRepo     OutboxRepository
	optimizer      *SettlementOptimizer
	proofEngine    *ProofEngine
	comparator     *AlternativeComparator
	cache          Cache
	idGen          IDGenerator
	metrics        *metrics.Metrics
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	txManager TransactionManager,
	sessionRepo SessionRepository,
	playerRepo PlayerRepository,
	settlementRepo SettlementRepository,
	outboxRepo OutboxRepository,
	optimizer *SettlementOptimizer,
	proofEngine *ProofEngine,
	comparator *AlternativeComparator,
	cache Cache,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *SettlementUseCase {
	return &SettlementUseCase{
		txManager:      txManager,
		sessionRepo:    sessionRepo,
		playerRepo:     playerRepo,
		settlementRepo: settlementRepo,
		outboxRepo:     outboxRepo,
		optimizer:      optimizer,
		proofEngine:    proofEngine,
		comparator:     comparator,
		cache:          cache,
		idGen:          idGen,
		metrics:        metrics,
	}
}

// SettleSession derives final net positions, computes the optimized plan,
// generates its proof and persists the settlement, marking the session
// completed. Requires every player cashed out and an empty pot.
func (uc *SettlementUseCase) SettleSession(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error) {
	start := time.Now()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	session, err := uc.sessionRepo.GetByIDForUpdate(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == domain.SessionStatusCompleted {
		return nil, domain.ErrSessionCompleted
	}

	roster, err := uc.playerRepo.ListBySessionForUpdate(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, p := range roster {
		if p.Status != domain.PlayerStatusCashedOut {
			return nil, fmt.Errorf("%w: %s is still active", domain.ErrPlayersStillActive, p.Name)
		}

		if err := p.CheckBalanceInvariant(); err != nil {
			return nil, err
		}
	}

	if !domain.IsZeroWithinTolerance(session.TotalPot) {
		return nil, fmt.Errorf("%w: pot is %s", domain.ErrPotNotEmpty, session.TotalPot)
	}

	positions := domain.DeriveNetPositions(roster)

	settlement, err := uc.optimizer.Optimize(sessionID, positions)
	if err != nil {
		return nil, err
	}

	proof, err := uc.proofEngine.GenerateProof(settlement)
	if err != nil {
		return nil, err
	}

	settlement.Proof = proof
	settlement.IsValid = proof.IsValid

	if !settlement.IsValid {
		return nil, domain.ErrSettlementInvalid
	}

	if err := uc.settlementRepo.Create(ctx, tx, settlement); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.sessionRepo.UpdatePot(ctx, tx, sessionID, session.TotalPot, domain.SessionStatusCompleted, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   settlement.ID,
		AggregateType: domain.AggregateTypeSettlement,
		EventType:     domain.EventTypeSessionSettled,
		Payload: map[string]any{
			"settlement_id": settlement.ID,
			"session_id":    sessionID,
			"payment_count": settlement.Plan.Count(),
			"proof_valid":   proof.IsValid,
		},
		CreatedAt: now,
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SessionsSettled.Inc()
		uc.metrics.SettlementsComputed.Inc()
		uc.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
		uc.metrics.PaymentInstructions.Observe(float64(settlement.Plan.Count()))
		uc.metrics.PaymentReduction.Observe(settlement.Metrics.ReductionPercentage.InexactFloat64())
	}

	return settlement, nil
}

// PreviewSettlement runs the optimizer and proof engine statelessly over
// arbitrary positions without touching any session. Results are cached by
// a digest of the canonical positions, since the computation is
// deterministic.
func (uc *SettlementUseCase) PreviewSettlement(ctx context.Context, positions []domain.NetPosition) (*domain.OptimizedSettlement, error) {
	key := previewCacheKey(positions)

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, key); err == nil && cached != nil {
			var settlement domain.OptimizedSettlement
			if err := json.Unmarshal(cached, &settlement); err == nil {
				return &settlement, nil
			}
		}
	}

	settlement, err := uc.optimizer.Optimize("", positions)
	if err != nil {
		return nil, err
	}

	proof, err := uc.proofEngine.GenerateProof(settlement)
	if err != nil {
		return nil, err
	}

	settlement.Proof = proof
	settlement.IsValid = proof.IsValid

	if uc.cache != nil {
		if payload, err := json.Marshal(settlement); err == nil {
			_ = uc.cache.Set(ctx, key, payload, SettlementCacheTTL)
		}
	}

	return settlement, nil
}

// CompareSettlements runs the alternative comparator statelessly.
func (uc *SettlementUseCase) CompareSettlements(ctx context.Context, positions []domain.NetPosition) (*AlternativeComparison, error) {
	return uc.comparator.Compare(positions)
}

// GetSettlement retrieves a settlement by ID.
func (uc *SettlementUseCase) GetSettlement(ctx context.Context, id string) (*domain.OptimizedSettlement, error) {
	return uc.settlementRepo.GetByID(ctx, id)
}

// GetLatestSettlement retrieves the most recent settlement for a session.
func (uc *SettlementUseCase) GetLatestSettlement(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error) {
	return uc.settlementRepo.GetLatestBySession(ctx, sessionID)
}

// GetProof retrieves the proof attached to a settlement.
func (uc *SettlementUseCase) GetProof(ctx context.Context, settlementID string) (*domain.MathematicalProof, error) {
	settlement, err := uc.settlementRepo.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	if settlement.Proof == nil {
		return nil, domain.ErrProofNotFound
	}

	return settlement.Proof, nil
}

// VerifyProof rechecks an exported proof from scratch.
func (uc *SettlementUseCase) VerifyProof(ctx context.Context, proof *domain.MathematicalProof) (*domain.ProofVerification, error) {
	verification, err := uc.proofEngine.VerifyProof(proof)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		outcome := "invalid"
		if verification.IsValid {
			outcome = "valid"
		}
		uc.metrics.ProofVerifications.WithLabelValues(outcome).Inc()
	}

	return verification, nil
}

// previewCacheKey digests the canonical position list: sorted by player ID
// with normalized amounts.
func previewCacheKey(positions []domain.NetPosition) string {
	normalized := make([]domain.NetPosition, len(positions))
	for i, p := range positions {
		normalized[i] = domain.NetPosition{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Amount:   domain.RoundToMinorUnit(p.Amount),
		}
	}

	sort.Slice(normalized, func(i, j int) bool { return normalized[i].PlayerID < normalized[j].PlayerID })

	payload, _ := json.Marshal(normalized)
	sum := sha256.Sum256(payload)

	return "settlement:preview:" + hex.EncodeToString(sum[:])
}
