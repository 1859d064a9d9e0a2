package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
)

// MockSessionRepository is a mock implementation of SessionRepository.
type MockSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, session *domain.Session) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Session, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Session, error)
	UpdatePotFunc        func(ctx context.Context, tx usecase.Transaction, id string, pot decimal.Decimal, status domain.SessionStatus, updatedAt time.Time) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Session, error)
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]*domain.Session)}
}

func (m *MockSessionRepository) Create(ctx context.Context, tx usecase.Transaction, session *domain.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockSessionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Session, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockSessionRepository) UpdatePot(ctx context.Context, tx usecase.Transaction, id string, pot decimal.Decimal, status domain.SessionStatus, updatedAt time.Time) error {
	if m.UpdatePotFunc != nil {
		return m.UpdatePotFunc(ctx, tx, id, pot, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.TotalPot = pot
	s.Status = status
	s.UpdatedAt = updatedAt
	return nil
}

func (m *MockSessionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Session, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Session
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

// MockPlayerRepository is a mock implementation of PlayerRepository.
type MockPlayerRepository struct {
	mu      sync.RWMutex
	players map[string]*domain.Player

	CreateFunc                 func(ctx context.Context, tx usecase.Transaction, player *domain.Player) error
	GetByIDFunc                func(ctx context.Context, id string) (*domain.Player, error)
	ListBySessionFunc          func(ctx context.Context, sessionID string) ([]*domain.Player, error)
	ListBySessionForUpdateFunc func(ctx context.Context, tx usecase.Transaction, sessionID string) ([]*domain.Player, error)
	UpdateTotalsFunc           func(ctx context.Context, tx usecase.Transaction, id string, totalBuyIns, totalCashOuts, chipBalance decimal.Decimal, status domain.PlayerStatus, updatedAt time.Time) error
}

func NewMockPlayerRepository() *MockPlayerRepository {
	return &MockPlayerRepository{players: make(map[string]*domain.Player)}
}

func (m *MockPlayerRepository) Create(ctx context.Context, tx usecase.Transaction, player *domain.Player) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, player)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[player.ID] = player
	return nil
}

func (m *MockPlayerRepository) GetByID(ctx context.Context, id string) (*domain.Player, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.players[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPlayerNotFound
}

func (m *MockPlayerRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Player, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, sessionID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Player
	for _, p := range m.players {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPlayerRepository) ListBySessionForUpdate(ctx context.Context, tx usecase.Transaction, sessionID string) ([]*domain.Player, error) {
	if m.ListBySessionForUpdateFunc != nil {
		return m.ListBySessionForUpdateFunc(ctx, tx, sessionID)
	}
	return m.ListBySession(ctx, sessionID)
}

func (m *MockPlayerRepository) UpdateTotals(ctx context.Context, tx usecase.Transaction, id string, totalBuyIns, totalCashOuts, chipBalance decimal.Decimal, status domain.PlayerStatus, updatedAt time.Time) error {
	if m.UpdateTotalsFunc != nil {
		return m.UpdateTotalsFunc(ctx, tx, id, totalBuyIns, totalCashOuts, chipBalance, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.TotalBuyIns = totalBuyIns
	p.TotalCashOuts = totalCashOuts
	p.CurrentChipBalance = chipBalance
	p.Status = status
	p.UpdatedAt = updatedAt
	return nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu   sync.RWMutex
	txns []*domain.Transaction

	CreateFunc        func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	ListBySessionFunc func(ctx context.Context, sessionID string, limit, offset int) ([]*domain.Transaction, error)
	ListByPlayerFunc  func(ctx context.Context, playerID string, limit, offset int) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns = append(m.txns, txn)
	return nil
}

func (m *MockTransactionRepository) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, sessionID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.Transaction
	for _, t := range m.txns {
		if t.SessionID == sessionID {
			all = append(all, t)
		}
	}
	return page(all, limit, offset), nil
}

func (m *MockTransactionRepository) ListByPlayer(ctx context.Context, playerID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByPlayerFunc != nil {
		return m.ListByPlayerFunc(ctx, playerID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.Transaction
	for _, t := range m.txns {
		if t.PlayerID == playerID {
			all = append(all, t)
		}
	}
	return page(all, limit, offset), nil
}

func page(all []*domain.Transaction, limit, offset int) []*domain.Transaction {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// MockSettlementRepository is a mock implementation of SettlementRepository.
type MockSettlementRepository struct {
	mu          sync.RWMutex
	settlements map[string]*domain.OptimizedSettlement

	CreateFunc             func(ctx context.Context, tx usecase.Transaction, settlement *domain.OptimizedSettlement) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.OptimizedSettlement, error)
	GetLatestBySessionFunc func(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error)
}

func NewMockSettlementRepository() *MockSettlementRepository {
	return &MockSettlementRepository{settlements: make(map[string]*domain.OptimizedSettlement)}
}

func (m *MockSettlementRepository) Create(ctx context.Context, tx usecase.Transaction, settlement *domain.OptimizedSettlement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, settlement)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlements[settlement.ID] = settlement
	return nil
}

func (m *MockSettlementRepository) GetByID(ctx context.Context, id string) (*domain.OptimizedSettlement, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.settlements[id]; ok {
		return s, nil
	}
	return nil, domain.ErrSettlementNotFound
}

func (m *MockSettlementRepository) GetLatestBySession(ctx context.Context, sessionID string) (*domain.OptimizedSettlement, error) {
	if m.GetLatestBySessionFunc != nil {
		return m.GetLatestBySessionFunc(ctx, sessionID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.OptimizedSettlement
	for _, s := range m.settlements {
		if s.SessionID != sessionID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, domain.ErrSettlementNotFound
	}
	return latest, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return fmt.Errorf("event %s not found", id)
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published || e.CreatedAt.After(before) {
			kept = append(kept, e)
		}
	}
	m.Events = kept
	return nil
}

// MockTransaction is a no-op database transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.RolledBack = true
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockRetrier runs the operation once without retries.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIDGenerator returns sequential IDs.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("id-%d", m.next)
}
