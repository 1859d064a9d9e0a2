package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
	"github.com/railbird/chipsettle/tests/testutil"
)

// TestConcurrentBuyIns fires parallel buy-ins at the same session and
// verifies the pot equals the exact sum of accepted amounts. The session row
// lock serializes the writes; the retrier absorbs deadlocks.
func TestConcurrentBuyIns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	stack := newTestStack(t, testDB)

	session := testDB.CreateTestSession(ctx, "concurrent game", domain.SessionStatusActive, decimal.Zero)

	const playerCount = 8
	players := make([]*domain.Player, playerCount)
	for i := range players {
		players[i] = testDB.CreateTestPlayer(ctx, session.ID, testutil.GenerateID())
	}

	var wg sync.WaitGroup
	errs := make(chan error, playerCount)

	for _, p := range players {
		wg.Add(1)
		go func(playerID string) {
			defer wg.Done()

			_, result, err := stack.LedgerUC.RecordBuyIn(ctx, usecase.RecordTransactionInput{
				SessionID: session.ID,
				PlayerID:  playerID,
				Amount:    decimal.NewFromInt(25),
			})
			if err != nil {
				errs <- err
				return
			}
			if !result.IsValid {
				t.Errorf("unexpected rejection: %+v", result)
			}
		}(p.ID)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent buy-in failed: %v", err)
	}

	session2, err := stack.SessionUC.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}

	expected := decimal.NewFromInt(25 * playerCount)
	if !session2.TotalPot.Equal(expected) {
		t.Errorf("expected pot %s, got %s", expected, session2.TotalPot)
	}
}

// TestConcurrentCashOutsRespectPot runs competing cash-outs that together
// exceed the pot; exactly the affordable ones commit.
func TestConcurrentCashOutsRespectPot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	stack := newTestStack(t, testDB)

	session := testDB.CreateTestSession(ctx, "contended pot", domain.SessionStatusActive, decimal.Zero)

	// Three players, 100 in the pot. Two try to cash out 80 each.
	payers := make([]*domain.Player, 3)
	for i := range payers {
		payers[i] = testDB.CreateTestPlayer(ctx, session.ID, testutil.GenerateID())
	}
	for i, amount := range []int64{40, 30, 30} {
		_, result, err := stack.LedgerUC.RecordBuyIn(ctx, usecase.RecordTransactionInput{
			SessionID: session.ID,
			PlayerID:  payers[i].ID,
			Amount:    decimal.NewFromInt(amount),
		})
		if err != nil || !result.IsValid {
			t.Fatalf("setup buy-in failed: %v %+v", err, result)
		}
	}

	var wg sync.WaitGroup
	accepted := make(chan bool, 2)

	for _, p := range payers[:2] {
		wg.Add(1)
		go func(playerID string) {
			defer wg.Done()

			_, result, err := stack.LedgerUC.RecordCashOut(ctx, usecase.RecordTransactionInput{
				SessionID: session.ID,
				PlayerID:  playerID,
				Amount:    decimal.NewFromInt(80),
			})
			if err != nil {
				t.Errorf("cash-out failed: %v", err)
				return
			}
			accepted <- result.IsValid
		}(p.ID)
	}

	wg.Wait()
	close(accepted)

	committed := 0
	for ok := range accepted {
		if ok {
			committed++
		}
	}

	if committed != 1 {
		t.Errorf("expected exactly 1 cash-out of 80 to commit against a pot of 100, got %d", committed)
	}

	session2, err := stack.SessionUC.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if !session2.TotalPot.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected pot 20 after one 80 cash-out, got %s", session2.TotalPot)
	}
}
