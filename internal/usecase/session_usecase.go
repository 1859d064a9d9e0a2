package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
)

// SessionUseCase handles session and roster management.
type SessionUseCase struct {
	txManager   TransactionManager
	sessionRepo SessionRepository
	playerRepo  PlayerRepository
	txnRepo     TransactionRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
}

// NewSessionUseCase creates a new SessionUseCase.
func NewSessionUseCase(
	txManager TransactionManager,
	sessionRepo SessionRepository,
	playerRepo PlayerRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *SessionUseCase {
	return &SessionUseCase{
		txManager:   txManager,
		sessionRepo: sessionRepo,
		playerRepo:  playerRepo,
		txnRepo:     txnRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
	}
}

// CreateSessionInput represents input for creating a session.
type CreateSessionInput struct {
	Name     string
	Currency string
}

// CreateSession creates a new session in the created state with an empty pot.
func (uc *SessionUseCase) CreateSession(ctx context.Context, input CreateSessionInput) (*domain.Session, error) {
	if err := domain.ValidateSessionName(input.Name); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uc.idGen.Generate(),
		Name:      input.Name,
		Currency:  input.Currency,
		Status:    domain.SessionStatusCreated,
		TotalPot:  decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.sessionRepo.Create(ctx, tx, session); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   session.ID,
		AggregateType: domain.AggregateTypeSession,
		EventType:     domain.EventTypeSessionCreated,
		Payload: map[string]any{
			"session_id": session.ID,
			"name":       session.Name,
			"currency":   session.Currency,
		},
		CreatedAt: now,
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return session, nil
}

// GetSession retrieves a session by ID.
func (uc *SessionUseCase) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return uc.sessionRepo.GetByID(ctx, id)
}

// ListSessionsInput represents input for listing sessions.
type ListSessionsInput struct {
	Limit  int
	Offset int
}

// ListSessions lists sessions with pagination.
func (uc *SessionUseCase) ListSessions(ctx context.Context, input ListSessionsInput) ([]*domain.Session, error) {
	limit, offset := normalizePagination(input.Limit, input.Offset)

	return uc.sessionRepo.List(ctx, limit, offset)
}

// AddPlayerInput represents input for adding a player to a session.
type AddPlayerInput struct {
	SessionID string
	Name      string
}

// AddPlayer adds an active player with zero totals. Rejected once the
// session is completed.
func (uc *SessionUseCase) AddPlayer(ctx context.Context, input AddPlayerInput) (*domain.Player, domain.ValidationResult, error) {
	if err := domain.ValidatePlayerName(input.Name); err != nil {
		return nil, domain.ValidationResult{}, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, domain.ValidationResult{}, err
	}
	defer tx.Rollback(ctx)

	session, err := uc.sessionRepo.GetByIDForUpdate(ctx, tx, input.SessionID)
	if err != nil {
		return nil, domain.ValidationResult{}, err
	}

	if !session.AcceptsTransactions() {
		result := domain.InvalidResult(domain.CodeSessionClosed,
			"session is completed and no longer accepts players", nil)

		return nil, result, nil
	}

	now := time.Now().UTC()
	player := &domain.Player{
		ID:                 uc.idGen.Generate(),
		SessionID:          session.ID,
		Name:               input.Name,
		Status:             domain.PlayerStatusActive,
		TotalBuyIns:        decimal.Zero,
		TotalCashOuts:      decimal.Zero,
		CurrentChipBalance: decimal.Zero,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := uc.playerRepo.Create(ctx, tx, player); err != nil {
		return nil, domain.ValidationResult{}, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   player.ID,
		AggregateType: domain.AggregateTypePlayer,
		EventType:     domain.EventTypePlayerJoined,
		Payload: map[string]any{
			"player_id":  player.ID,
			"session_id": session.ID,
			"name":       player.Name,
		},
		CreatedAt: now,
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, domain.ValidationResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ValidationResult{}, err
	}

	return player, domain.ValidResult(session.ID, player.ID, decimal.Zero, nil), nil
}

// ListPlayers lists the session roster.
func (uc *SessionUseCase) ListPlayers(ctx context.Context, sessionID string) ([]*domain.Player, error) {
	if _, err := uc.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}

	return uc.playerRepo.ListBySession(ctx, sessionID)
}

// ListTransactionsInput represents input for listing a session's ledger.
type ListTransactionsInput struct {
	SessionID string
	Limit     int
	Offset    int
}

// ListTransactions lists the session's committed transactions.
func (uc *SessionUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	limit, offset := normalizePagination(input.Limit, input.Offset)

	return uc.txnRepo.ListBySession(ctx, input.SessionID, limit, offset)
}

func normalizePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}

	if limit > 1000 {
		limit = 1000
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
