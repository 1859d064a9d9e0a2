package usecase_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
	"github.com/railbird/chipsettle/internal/usecase/mocks"
)

func pos(id, name string, amount float64) domain.NetPosition {
	return domain.NetPosition{PlayerID: id, Name: name, Amount: decimal.NewFromFloat(amount)}
}

func newOptimizer() *usecase.SettlementOptimizer {
	return usecase.NewSettlementOptimizer(mocks.NewMockIDGenerator())
}

func TestOptimizeThreePlayers(t *testing.T) {
	t.Parallel()

	// Alice won 50, Bob lost 30, Carol lost 20. Two payments settle it.
	positions := []domain.NetPosition{
		pos("p-alice", "Alice", 50),
		pos("p-bob", "Bob", -30),
		pos("p-carol", "Carol", -20),
	}

	settlement, err := newOptimizer().Optimize("session-1", positions)
	require.NoError(t, err)

	require.Len(t, settlement.Plan.Instructions, 2)

	first := settlement.Plan.Instructions[0]
	assert.Equal(t, "p-bob", first.FromPlayerID)
	assert.Equal(t, "p-alice", first.ToPlayerID)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(30)), "got %s", first.Amount)

	second := settlement.Plan.Instructions[1]
	assert.Equal(t, "p-carol", second.FromPlayerID)
	assert.Equal(t, "p-alice", second.ToPlayerID)
	assert.True(t, second.Amount.Equal(decimal.NewFromInt(20)), "got %s", second.Amount)

	assert.Equal(t, domain.AlgorithmGreedy, settlement.Plan.Algorithm)
	assert.True(t, settlement.IsValid)
}

func TestOptimizeAllZeroPositions(t *testing.T) {
	t.Parallel()

	positions := []domain.NetPosition{
		pos("p1", "Alice", 0),
		pos("p2", "Bob", 0),
		pos("p3", "Carol", 0),
	}

	settlement, err := newOptimizer().Optimize("session-1", positions)
	require.NoError(t, err)

	assert.Empty(t, settlement.Plan.Instructions)
	assert.True(t, settlement.IsValid)
	assert.Equal(t, 0, settlement.Metrics.OptimizedPaymentCount)
}

func TestOptimizeRejectsUnbalancedPositions(t *testing.T) {
	t.Parallel()

	positions := []domain.NetPosition{
		pos("p1", "Alice", 50),
		pos("p2", "Bob", -30),
	}

	_, err := newOptimizer().Optimize("session-1", positions)
	if !errors.Is(err, domain.ErrUnbalancedNetPositions) {
		t.Fatalf("expected ErrUnbalancedNetPositions, got %v", err)
	}
}

func TestOptimizeRejectsSingleNonZeroPosition(t *testing.T) {
	t.Parallel()

	// 0.02 exceeds the tolerance while the two one-cent debts do not, so
	// Alice is the lone effective counterparty.
	positions := []domain.NetPosition{
		pos("p1", "Alice", 0.02),
		pos("p2", "Bob", -0.01),
		pos("p3", "Carol", -0.01),
	}

	_, err := newOptimizer().Optimize("session-1", positions)
	if !errors.Is(err, domain.ErrSingleNonZeroPosition) {
		t.Fatalf("expected ErrSingleNonZeroPosition, got %v", err)
	}
}

func TestOptimizeIsDeterministic(t *testing.T) {
	t.Parallel()

	positions := []domain.NetPosition{
		pos("p1", "Alice", 80),
		pos("p2", "Bob", -25),
		pos("p3", "Carol", -25),
		pos("p4", "Dave", -30),
		pos("p5", "Eve", 0),
	}

	opt := newOptimizer()

	first, err := opt.Optimize("session-1", positions)
	require.NoError(t, err)

	second, err := opt.Optimize("session-1", positions)
	require.NoError(t, err)

	require.Len(t, second.Plan.Instructions, len(first.Plan.Instructions))
	for i := range first.Plan.Instructions {
		a, b := first.Plan.Instructions[i], second.Plan.Instructions[i]
		assert.Equal(t, a.FromPlayerID, b.FromPlayerID)
		assert.Equal(t, a.ToPlayerID, b.ToPlayerID)
		assert.True(t, a.Amount.Equal(b.Amount))
	}
}

func TestOptimizeTieBreaksOnPlayerID(t *testing.T) {
	t.Parallel()

	// Bob and Carol lost the same amount; the lower player ID pays first.
	positions := []domain.NetPosition{
		pos("p1", "Alice", 50),
		pos("p3", "Carol", -25),
		pos("p2", "Bob", -25),
	}

	settlement, err := newOptimizer().Optimize("session-1", positions)
	require.NoError(t, err)

	require.Len(t, settlement.Plan.Instructions, 2)
	assert.Equal(t, "p2", settlement.Plan.Instructions[0].FromPlayerID)
	assert.Equal(t, "p3", settlement.Plan.Instructions[1].FromPlayerID)
}

func TestGreedyPlanSettlesEveryPlayer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		positions []domain.NetPosition
	}{
		{
			name: "two winners three losers",
			positions: []domain.NetPosition{
				pos("p1", "Alice", 60),
				pos("p2", "Bob", 15),
				pos("p3", "Carol", -40),
				pos("p4", "Dave", -20),
				pos("p5", "Eve", -15),
			},
		},
		{
			name: "fractional cents",
			positions: []domain.NetPosition{
				pos("p1", "Alice", 33.34),
				pos("p2", "Bob", 33.33),
				pos("p3", "Carol", -66.67),
			},
		},
		{
			name: "symmetric",
			positions: []domain.NetPosition{
				pos("p1", "Alice", 10),
				pos("p2", "Bob", -10),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settlement, err := newOptimizer().Optimize("session-1", tt.positions)
			require.NoError(t, err)

			remaining := settlement.Plan.Apply(tt.positions)
			for playerID, amount := range remaining {
				assert.True(t, domain.IsZeroWithinTolerance(amount),
					"player %s left with %s", playerID, amount)
			}

			// The greedy plan never needs more than playerCount-1 payments.
			assert.LessOrEqual(t, settlement.Plan.Count(), len(tt.positions)-1)
		})
	}
}

func TestDirectPlanSettlesEveryPlayer(t *testing.T) {
	t.Parallel()

	positions := []domain.NetPosition{
		pos("p1", "Alice", 60),
		pos("p2", "Bob", 15),
		pos("p3", "Carol", -40),
		pos("p4", "Dave", -20),
		pos("p5", "Eve", -15),
	}

	plan := domain.PaymentPlan{
		Algorithm:    domain.AlgorithmDirect,
		Instructions: usecase.DirectInstructions(positions),
	}

	remaining := plan.Apply(positions)
	for playerID, amount := range remaining {
		assert.True(t, domain.IsZeroWithinTolerance(amount), "player %s left with %s", playerID, amount)
	}
}

func TestBankerPlanSettlesEveryPlayer(t *testing.T) {
	t.Parallel()

	positions := []domain.NetPosition{
		pos("p1", "Alice", 60),
		pos("p2", "Bob", 15),
		pos("p3", "Carol", -40),
		pos("p4", "Dave", -35),
	}

	plan := domain.PaymentPlan{
		Algorithm:    domain.AlgorithmBanker,
		Instructions: usecase.BankerInstructions(positions),
	}

	remaining := plan.Apply(positions)
	for playerID, amount := range remaining {
		assert.True(t, domain.IsZeroWithinTolerance(amount), "player %s left with %s", playerID, amount)
	}

	// Everything routes through the largest creditor.
	for _, ins := range plan.Instructions {
		assert.True(t, ins.FromPlayerID == "p1" || ins.ToPlayerID == "p1")
	}
}

func TestOptimizeNeverExceedsDirectCount(t *testing.T) {
	t.Parallel()

	tests := [][]domain.NetPosition{
		{
			pos("p1", "Alice", 50),
			pos("p2", "Bob", -30),
			pos("p3", "Carol", -20),
		},
		{
			pos("p1", "Alice", 100),
			pos("p2", "Bob", 50),
			pos("p3", "Carol", -75),
			pos("p4", "Dave", -75),
		},
		{
			pos("p1", "Alice", 12.5),
			pos("p2", "Bob", 12.5),
			pos("p3", "Carol", 25),
			pos("p4", "Dave", -50),
		},
	}

	for _, positions := range tests {
		settlement, err := newOptimizer().Optimize("session-1", positions)
		require.NoError(t, err)

		assert.LessOrEqual(t, settlement.Metrics.OptimizedPaymentCount, settlement.Metrics.OriginalPaymentCount)
		assert.Equal(t, settlement.Plan.Count(), settlement.Metrics.OptimizedPaymentCount)
		assert.Equal(t, settlement.DirectPlan.Count(), settlement.Metrics.OriginalPaymentCount)
		assert.False(t, settlement.Metrics.ReductionPercentage.IsNegative())
	}
}

func TestOptimizeMetricsReductionPercentage(t *testing.T) {
	t.Parallel()

	// Two winners, two losers: direct needs four payments, greedy needs
	// three at most.
	positions := []domain.NetPosition{
		pos("p1", "Alice", 60),
		pos("p2", "Bob", 40),
		pos("p3", "Carol", -55),
		pos("p4", "Dave", -45),
	}

	settlement, err := newOptimizer().Optimize("session-1", positions)
	require.NoError(t, err)

	m := settlement.Metrics
	require.Positive(t, m.OriginalPaymentCount)

	expected := decimal.NewFromInt(int64(m.OriginalPaymentCount - m.OptimizedPaymentCount)).
		Div(decimal.NewFromInt(int64(m.OriginalPaymentCount))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	assert.True(t, m.ReductionPercentage.Equal(expected), "got %s want %s", m.ReductionPercentage, expected)
}
