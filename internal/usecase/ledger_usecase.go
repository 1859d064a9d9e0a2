package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/infrastructure/metrics"
)

// LedgerUseCase runs the validate-then-commit flow for buy-ins and
// cash-outs. Each call is one critical section: the session row is locked,
// state is snapshotted, the pure validator decides, and only on acceptance
// is the ledger mutated, all inside a single database transaction.
// Concurrent requests against the same session serialize on the row lock,
// so two cash-outs can never both pass the pot check against a stale pot.
type LedgerUseCase struct {
	txManager   TransactionManager
	sessionRepo SessionRepository
	playerRepo  PlayerRepository
	txnRepo     TransactionRepository
	outboxRepo  OutboxRepository
	validator   *TransactionValidator
	retrier     Retrier
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	sessionRepo SessionRepository,
	playerRepo PlayerRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	validator *TransactionValidator,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		sessionRepo: sessionRepo,
		playerRepo:  playerRepo,
		txnRepo:     txnRepo,
		outboxRepo:  outboxRepo,
		validator:   validator,
		retrier:     retrier,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// RecordTransactionInput represents a proposed buy-in or cash-out.
type RecordTransactionInput struct {
	SessionID string
	PlayerID  string
	Amount    decimal.Decimal
}

// RecordBuyIn validates and, on acceptance, commits a buy-in. A rejection
// is returned as data in the ValidationResult; the error return is reserved
// for infrastructure faults.
func (uc *LedgerUseCase) RecordBuyIn(ctx context.Context, input RecordTransactionInput) (*domain.Transaction, domain.ValidationResult, error) {
	return uc.record(ctx, domain.TransactionTypeBuyIn, input)
}

// RecordCashOut validates and, on acceptance, commits a cash-out. An
// accepted cash-out is terminal for the player: their status becomes
// cashed_out and no further transactions may target them.
func (uc *LedgerUseCase) RecordCashOut(ctx context.Context, input RecordTransactionInput) (*domain.Transaction, domain.ValidationResult, error) {
	return uc.record(ctx, domain.TransactionTypeCashOut, input)
}

func (uc *LedgerUseCase) record(ctx context.Context, txnType domain.TransactionType, input RecordTransactionInput) (*domain.Transaction, domain.ValidationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	start := time.Now()

	var (
		txn    *domain.Transaction
		result domain.ValidationResult
	)

	err := uc.retrier.Retry(ctx, func() error {
		var opErr error
		txn, result, opErr = uc.recordOnce(ctx, txnType, input)

		return opErr
	})
	if err != nil {
		return nil, domain.ValidationResult{}, err
	}

	if uc.metrics != nil {
		if result.IsValid {
			uc.metrics.TransactionsCommitted.WithLabelValues(string(txnType)).Inc()
			uc.metrics.TransactionAmount.WithLabelValues(string(txnType)).Observe(result.Amount.InexactFloat64())
			uc.metrics.TransactionDuration.Observe(time.Since(start).Seconds())
		} else {
			uc.metrics.TransactionsRejected.WithLabelValues(string(txnType), string(result.Code)).Inc()
		}
	}

	return txn, result, nil
}

func (uc *LedgerUseCase) recordOnce(ctx context.Context, txnType domain.TransactionType, input RecordTransactionInput) (*domain.Transaction, domain.ValidationResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, domain.ValidationResult{}, err
	}
	defer tx.Rollback(ctx)

	// Lock the session row first, then the roster. This is the
	// serialization point for all mutations of one session.
	session, err := uc.sessionRepo.GetByIDForUpdate(ctx, tx, input.SessionID)
	if err != nil {
		return nil, domain.ValidationResult{}, err
	}

	roster, err := uc.playerRepo.ListBySessionForUpdate(ctx, tx, input.SessionID)
	if err != nil {
		return nil, domain.ValidationResult{}, err
	}

	var player *domain.Player
	for _, p := range roster {
		if p.ID == input.PlayerID {
			player = p
			break
		}
	}

	var result domain.ValidationResult
	switch txnType {
	case domain.TransactionTypeBuyIn:
		result = uc.validator.ValidateBuyIn(session, player, input.Amount)
	case domain.TransactionTypeCashOut:
		result = uc.validator.ValidateCashOut(session, player, input.Amount, roster)
	}

	if !result.IsValid {
		return nil, result, nil
	}

	txn, err := uc.commit(ctx, tx, txnType, session, player, result.Amount)
	if err != nil {
		return nil, domain.ValidationResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ValidationResult{}, err
	}

	return txn, result, nil
}

func (uc *LedgerUseCase) commit(ctx context.Context, tx Transaction, txnType domain.TransactionType, session *domain.Session, player *domain.Player, amount decimal.Decimal) (*domain.Transaction, error) {
	now := time.Now().UTC()

	var (
		newPot        decimal.Decimal
		totalBuyIns   = player.TotalBuyIns
		totalCashOuts = player.TotalCashOuts
		chipBalance   decimal.Decimal
		status        = player.Status
		err           error
	)

	switch txnType {
	case domain.TransactionTypeBuyIn:
		newPot = session.ApplyBuyIn(amount)
		totalBuyIns, chipBalance = player.ApplyBuyIn(amount)
	case domain.TransactionTypeCashOut:
		newPot, err = session.ApplyCashOut(amount)
		if err != nil {
			// The validator already capped at the pot; reaching this
			// means the snapshot went stale inside the lock.
			return nil, err
		}

		totalCashOuts, chipBalance = player.ApplyCashOut(amount)
		status = domain.PlayerStatusCashedOut
	}

	txn := &domain.Transaction{
		ID:                 uc.idGen.Generate(),
		SessionID:          session.ID,
		PlayerID:           player.ID,
		Type:               txnType,
		Amount:             amount,
		PotBefore:          session.TotalPot,
		PotAfter:           newPot,
		PlayerBalanceAfter: chipBalance,
		CreatedAt:          now,
	}

	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.playerRepo.UpdateTotals(ctx, tx, player.ID, totalBuyIns, totalCashOuts, chipBalance, status, now); err != nil {
		return nil, err
	}

	sessionStatus := session.Status
	if sessionStatus == domain.SessionStatusCreated {
		sessionStatus = domain.SessionStatusActive
	}

	if err := uc.sessionRepo.UpdatePot(ctx, tx, session.ID, newPot, sessionStatus, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   txn.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeTransactionCommitted,
		Payload: map[string]any{
			"transaction_id": txn.ID,
			"session_id":     session.ID,
			"player_id":      player.ID,
			"type":           string(txnType),
			"amount":         amount.StringFixed(domain.MinorUnitExponent),
			"pot_after":      newPot.StringFixed(domain.MinorUnitExponent),
		},
		CreatedAt: now,
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	return txn, nil
}
