package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
	"github.com/railbird/chipsettle/internal/usecase/mocks"
)

type settlementFixture struct {
	uc             *usecase.SettlementUseCase
	sessionRepo    *mocks.MockSessionRepository
	playerRepo     *mocks.MockPlayerRepository
	settlementRepo *mocks.MockSettlementRepository
	outboxRepo     *mocks.MockOutboxRepository
	cache          *mocks.MockCache
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &settlementFixture{
		sessionRepo:    mocks.NewMockSessionRepository(),
		playerRepo:     mocks.NewMockPlayerRepository(),
		settlementRepo: mocks.NewMockSettlementRepository(),
		outboxRepo:     mocks.NewMockOutboxRepository(),
		cache:          mocks.NewMockCache(ctrl),
	}

	idGen := mocks.NewMockIDGenerator()

	f.uc = usecase.NewSettlementUseCase(
		mocks.NewMockTransactionManager(),
		f.sessionRepo,
		f.playerRepo,
		f.settlementRepo,
		f.outboxRepo,
		usecase.NewSettlementOptimizer(idGen),
		usecase.NewProofEngine(idGen, testSigningKey),
		usecase.NewAlternativeComparator(),
		f.cache,
		idGen,
		nil,
	)

	return f
}

// seedSettledTable seeds a session where every player has cashed out and the
// pot is empty: Alice won 50, Bob lost 30, Carol lost 20.
func (f *settlementFixture) seedSettledTable() {
	ctx := context.Background()

	_ = f.sessionRepo.Create(ctx, nil, &domain.Session{
		ID:       "session-1",
		Name:     "Friday Game",
		Currency: "USD",
		Status:   domain.SessionStatusActive,
		TotalPot: decimal.Zero,
	})

	seed := []struct {
		id       string
		name     string
		buyIns   float64
		cashOuts float64
	}{
		{"p-alice", "Alice", 50, 100},
		{"p-bob", "Bob", 60, 30},
		{"p-carol", "Carol", 40, 20},
	}

	for _, s := range seed {
		_ = f.playerRepo.Create(ctx, nil, &domain.Player{
			ID:                 s.id,
			SessionID:          "session-1",
			Name:               s.name,
			Status:             domain.PlayerStatusCashedOut,
			TotalBuyIns:        decimal.NewFromFloat(s.buyIns),
			TotalCashOuts:      decimal.NewFromFloat(s.cashOuts),
			CurrentChipBalance: decimal.NewFromFloat(s.buyIns - s.cashOuts),
		})
	}
}

func TestSettleSession(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	f.seedSettledTable()

	settlement, err := f.uc.SettleSession(context.Background(), "session-1")
	require.NoError(t, err)

	assert.True(t, settlement.IsValid)
	require.NotNil(t, settlement.Proof)
	assert.True(t, settlement.Proof.IsValid)
	assert.Equal(t, 2, settlement.Plan.Count())

	// Settlement persisted and session closed in the same transaction.
	stored, err := f.settlementRepo.GetLatestBySession(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, settlement.ID, stored.ID)

	session, err := f.sessionRepo.GetByID(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, session.Status)

	require.Len(t, f.outboxRepo.Events, 1)
	assert.Equal(t, domain.EventTypeSessionSettled, f.outboxRepo.Events[0].EventType)
}

func TestSettleSessionPlayersStillActive(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	f.seedSettledTable()

	ctx := context.Background()
	_ = f.playerRepo.Create(ctx, nil, &domain.Player{
		ID:                 "p-dave",
		SessionID:          "session-1",
		Name:               "Dave",
		Status:             domain.PlayerStatusActive,
		TotalBuyIns:        decimal.NewFromInt(10),
		TotalCashOuts:      decimal.Zero,
		CurrentChipBalance: decimal.NewFromInt(10),
	})

	_, err := f.uc.SettleSession(ctx, "session-1")
	assert.ErrorIs(t, err, domain.ErrPlayersStillActive)
}

func TestSettleSessionPotNotEmpty(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	f.seedSettledTable()

	ctx := context.Background()
	session, err := f.sessionRepo.GetByID(ctx, "session-1")
	require.NoError(t, err)
	session.TotalPot = decimal.NewFromInt(5)

	_, err = f.uc.SettleSession(ctx, "session-1")
	assert.ErrorIs(t, err, domain.ErrPotNotEmpty)
}

func TestSettleSessionAlreadyCompleted(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	f.seedSettledTable()

	ctx := context.Background()
	session, err := f.sessionRepo.GetByID(ctx, "session-1")
	require.NoError(t, err)
	session.Status = domain.SessionStatusCompleted

	_, err = f.uc.SettleSession(ctx, "session-1")
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
}

func TestSettleSessionBalanceInvariantViolation(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	f.seedSettledTable()

	ctx := context.Background()
	player, err := f.playerRepo.GetByID(ctx, "p-bob")
	require.NoError(t, err)
	player.CurrentChipBalance = decimal.NewFromInt(999)

	_, err = f.uc.SettleSession(ctx, "session-1")
	assert.ErrorIs(t, err, domain.ErrChipBalanceMismatch)
}

func TestPreviewSettlementCacheMiss(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)

	positions := []domain.NetPosition{
		pos("p1", "Alice", 50),
		pos("p2", "Bob", -30),
		pos("p3", "Carol", -20),
	}

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("cache miss"))
	f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), usecase.SettlementCacheTTL).Return(nil)

	settlement, err := f.uc.PreviewSettlement(context.Background(), positions)
	require.NoError(t, err)

	assert.True(t, settlement.IsValid)
	assert.Equal(t, 2, settlement.Plan.Count())
	require.NotNil(t, settlement.Proof)
	assert.True(t, settlement.Proof.IsValid)
	assert.Empty(t, settlement.SessionID, "previews are not bound to a session")
}

func TestPreviewSettlementCacheHit(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)

	positions := []domain.NetPosition{
		pos("p1", "Alice", 10),
		pos("p2", "Bob", -10),
	}

	cached := &domain.OptimizedSettlement{ID: "cached-settlement", IsValid: true}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(payload, nil)

	settlement, err := f.uc.PreviewSettlement(context.Background(), positions)
	require.NoError(t, err)

	assert.Equal(t, "cached-settlement", settlement.ID)
}

func TestPreviewSettlementCacheFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)

	positions := []domain.NetPosition{
		pos("p1", "Alice", 10),
		pos("p2", "Bob", -10),
	}

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
	f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	settlement, err := f.uc.PreviewSettlement(context.Background(), positions)
	require.NoError(t, err)
	assert.True(t, settlement.IsValid)
}

func TestGetProofNotFound(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)

	_ = f.settlementRepo.Create(context.Background(), nil, &domain.OptimizedSettlement{
		ID: "settlement-1",
	})

	_, err := f.uc.GetProof(context.Background(), "settlement-1")
	assert.ErrorIs(t, err, domain.ErrProofNotFound)
}

func TestVerifyProofThroughUseCase(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture(t)
	f.seedSettledTable()

	settlement, err := f.uc.SettleSession(context.Background(), "session-1")
	require.NoError(t, err)

	v, err := f.uc.VerifyProof(context.Background(), settlement.Proof)
	require.NoError(t, err)
	assert.True(t, v.IsValid)
}
