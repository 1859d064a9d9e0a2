package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
	"github.com/railbird/chipsettle/internal/usecase"
)

func newValidator() *usecase.TransactionValidator {
	return usecase.NewTransactionValidator(usecase.DefaultValidatorConfig())
}

func activeSession(pot float64) *domain.Session {
	return &domain.Session{
		ID:       "session-1",
		Status:   domain.SessionStatusActive,
		TotalPot: decimal.NewFromFloat(pot),
	}
}

func activePlayer(id string, chips float64) *domain.Player {
	return &domain.Player{
		ID:                 id,
		SessionID:          "session-1",
		Name:               "Player " + id,
		Status:             domain.PlayerStatusActive,
		CurrentChipBalance: decimal.NewFromFloat(chips),
	}
}

func TestValidateBuyIn(t *testing.T) {
	t.Parallel()

	v := newValidator()

	tests := []struct {
		name     string
		session  *domain.Session
		player   *domain.Player
		amount   decimal.Decimal
		wantCode domain.ValidationCode
		wantOK   bool
	}{
		{
			name:    "valid buy-in accepted",
			session: activeSession(100),
			player:  activePlayer("p1", 50),
			amount:  decimal.NewFromInt(25),
			wantOK:  true,
		},
		{
			name:     "zero amount rejected",
			session:  activeSession(100),
			player:   activePlayer("p1", 50),
			amount:   decimal.Zero,
			wantCode: domain.CodeInvalidAmount,
		},
		{
			name:     "negative amount rejected",
			session:  activeSession(100),
			player:   activePlayer("p1", 50),
			amount:   decimal.NewFromInt(-10),
			wantCode: domain.CodeInvalidAmount,
		},
		{
			name:     "sub-cent precision rejected",
			session:  activeSession(100),
			player:   activePlayer("p1", 50),
			amount:   decimal.NewFromFloat(10.001),
			wantCode: domain.CodeInvalidAmount,
		},
		{
			name:     "amount above maximum rejected",
			session:  activeSession(100),
			player:   activePlayer("p1", 50),
			amount:   decimal.NewFromInt(200000),
			wantCode: domain.CodeAmountAboveMaximum,
		},
		{
			name: "completed session rejected",
			session: &domain.Session{
				ID:     "session-1",
				Status: domain.SessionStatusCompleted,
			},
			player:   activePlayer("p1", 50),
			amount:   decimal.NewFromInt(25),
			wantCode: domain.CodeSessionClosed,
		},
		{
			name:     "missing player rejected",
			session:  activeSession(100),
			player:   nil,
			amount:   decimal.NewFromInt(25),
			wantCode: domain.CodePlayerNotFound,
		},
		{
			name:    "cashed-out player rejected",
			session: activeSession(100),
			player: &domain.Player{
				ID:     "p1",
				Name:   "Player p1",
				Status: domain.PlayerStatusCashedOut,
			},
			amount:   decimal.NewFromInt(25),
			wantCode: domain.CodePlayerInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.ValidateBuyIn(tt.session, tt.player, tt.amount)

			if result.IsValid != tt.wantOK {
				t.Fatalf("expected valid=%v, got %v (code=%s)", tt.wantOK, result.IsValid, result.Code)
			}

			if !tt.wantOK && result.Code != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, result.Code)
			}

			if tt.wantOK {
				if result.SessionID != tt.session.ID || result.PlayerID != tt.player.ID {
					t.Fatal("expected success result to carry normalized session and player IDs")
				}
			}

			if len(result.AuditTrail) == 0 {
				t.Fatal("expected audit trail to record checks performed")
			}
		})
	}
}

func TestValidateCashOutPotCeiling(t *testing.T) {
	t.Parallel()

	// Scenario: a cash-out of 120 against a pot of 100 fails with a
	// distinct insufficient-pot code regardless of player count.
	v := newValidator()
	session := activeSession(100)
	target := activePlayer("p1", 120)
	roster := []*domain.Player{target, activePlayer("p2", 30)}

	result := v.ValidateCashOut(session, target, decimal.NewFromInt(120), roster)

	if result.IsValid {
		t.Fatal("expected rejection")
	}

	if result.Code != domain.CodeInsufficientPot {
		t.Fatalf("expected CodeInsufficientPot, got %s", result.Code)
	}
}

func TestValidateCashOutLastPlayerExactAmount(t *testing.T) {
	t.Parallel()

	// Scenario: the last active player holds a 75 pot and tries to cash
	// out 50. A partial cash-out would strand 25 with no one left to
	// claim it.
	v := newValidator()
	session := activeSession(75)
	target := activePlayer("p1", 75)
	cashedOut := &domain.Player{ID: "p2", Name: "Player p2", Status: domain.PlayerStatusCashedOut}
	roster := []*domain.Player{target, cashedOut}

	result := v.ValidateCashOut(session, target, decimal.NewFromInt(50), roster)

	if result.IsValid {
		t.Fatal("expected rejection")
	}

	if result.Code != domain.CodeLastPlayerExactAmount {
		t.Fatalf("expected CodeLastPlayerExactAmount, got %s", result.Code)
	}

	if result.RequiredAmount == nil || !result.RequiredAmount.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected required amount 75, got %v", result.RequiredAmount)
	}
}

func TestValidateCashOutLastPlayerExactAmountAccepted(t *testing.T) {
	t.Parallel()

	v := newValidator()
	session := activeSession(75)
	target := activePlayer("p1", 75)
	roster := []*domain.Player{target}

	result := v.ValidateCashOut(session, target, decimal.NewFromInt(75), roster)

	if !result.IsValid {
		t.Fatalf("expected exact-pot cash-out to be accepted, got code %s", result.Code)
	}
}

func TestValidateCashOutLastPlayerWithinTolerance(t *testing.T) {
	t.Parallel()

	// One cent short of the pot is accepted under the fixed tolerance.
	v := newValidator()
	session := activeSession(75)
	target := activePlayer("p1", 75)
	roster := []*domain.Player{target}

	result := v.ValidateCashOut(session, target, decimal.NewFromFloat(74.99), roster)

	if !result.IsValid {
		t.Fatalf("expected within-tolerance cash-out to be accepted, got code %s", result.Code)
	}
}

func TestValidateCashOutNonLastPlayerPartial(t *testing.T) {
	t.Parallel()

	// With another active player remaining, a partial cash-out is fine.
	v := newValidator()
	session := activeSession(100)
	target := activePlayer("p1", 60)
	roster := []*domain.Player{target, activePlayer("p2", 40)}

	result := v.ValidateCashOut(session, target, decimal.NewFromInt(60), roster)

	if !result.IsValid {
		t.Fatalf("expected partial cash-out to be accepted, got code %s", result.Code)
	}
}

func TestValidateCashOutAlreadyCashedOut(t *testing.T) {
	t.Parallel()

	v := newValidator()
	session := activeSession(100)
	target := &domain.Player{ID: "p1", Name: "Player p1", Status: domain.PlayerStatusCashedOut}
	roster := []*domain.Player{target, activePlayer("p2", 100)}

	result := v.ValidateCashOut(session, target, decimal.NewFromInt(10), roster)

	if result.Code != domain.CodePlayerCashedOut {
		t.Fatalf("expected CodePlayerCashedOut, got %s", result.Code)
	}
}

func TestValidateCashOutRuleOrder(t *testing.T) {
	t.Parallel()

	// Pot ceiling is checked before the last-player rule: an oversized
	// amount from the last player reports insufficient pot, not the
	// exact-amount requirement.
	v := newValidator()
	session := activeSession(75)
	target := activePlayer("p1", 75)
	roster := []*domain.Player{target}

	result := v.ValidateCashOut(session, target, decimal.NewFromInt(80), roster)

	if result.Code != domain.CodeInsufficientPot {
		t.Fatalf("expected CodeInsufficientPot before last-player rule, got %s", result.Code)
	}
}
