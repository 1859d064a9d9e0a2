package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
)

// ConsistencyUseCase recomputes session state from the transaction ledger
// and compares it with the stored values, surfacing any drift between the
// running balances and the committed history.
type ConsistencyUseCase struct {
	sessionRepo SessionRepository
	playerRepo  PlayerRepository
	txnRepo     TransactionRepository
}

// NewConsistencyUseCase creates a new ConsistencyUseCase.
func NewConsistencyUseCase(
	sessionRepo SessionRepository,
	playerRepo PlayerRepository,
	txnRepo TransactionRepository,
) *ConsistencyUseCase {
	return &ConsistencyUseCase{
		sessionRepo: sessionRepo,
		playerRepo:  playerRepo,
		txnRepo:     txnRepo,
	}
}

// PlayerDiscrepancy describes one player whose stored totals differ from
// the totals recomputed from the ledger.
type PlayerDiscrepancy struct {
	PlayerID            string          `json:"player_id"`
	Name                string          `json:"name"`
	StoredBuyIns        decimal.Decimal `json:"stored_buy_ins"`
	ComputedBuyIns      decimal.Decimal `json:"computed_buy_ins"`
	StoredCashOuts      decimal.Decimal `json:"stored_cash_outs"`
	ComputedCashOuts    decimal.Decimal `json:"computed_cash_outs"`
	StoredChipBalance   decimal.Decimal `json:"stored_chip_balance"`
	ComputedChipBalance decimal.Decimal `json:"computed_chip_balance"`
}

// ConsistencyReport is the outcome of a full session consistency check.
type ConsistencyReport struct {
	SessionID        string              `json:"session_id"`
	StoredPot        decimal.Decimal     `json:"stored_pot"`
	ComputedPot      decimal.Decimal     `json:"computed_pot"`
	PotConsistent    bool                `json:"pot_consistent"`
	PlayersChecked   int                 `json:"players_checked"`
	Discrepancies    []PlayerDiscrepancy `json:"discrepancies,omitempty"`
	LedgerConsistent bool                `json:"ledger_consistent"`
	CheckedAt        time.Time           `json:"checked_at"`
}

// CheckSession recomputes the pot and every player's totals from the full
// transaction history.
func (uc *ConsistencyUseCase) CheckSession(ctx context.Context, sessionID string) (*ConsistencyReport, error) {
	session, err := uc.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	players, err := uc.playerRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	type totals struct {
		buyIns   decimal.Decimal
		cashOuts decimal.Decimal
	}

	computed := make(map[string]*totals, len(players))
	for _, p := range players {
		computed[p.ID] = &totals{buyIns: decimal.Zero, cashOuts: decimal.Zero}
	}

	computedPot := decimal.Zero

	const pageSize = 1000
	for offset := 0; ; offset += pageSize {
		txns, err := uc.txnRepo.ListBySession(ctx, sessionID, pageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, txn := range txns {
			t, ok := computed[txn.PlayerID]
			if !ok {
				t = &totals{buyIns: decimal.Zero, cashOuts: decimal.Zero}
				computed[txn.PlayerID] = t
			}

			switch txn.Type {
			case domain.TransactionTypeBuyIn:
				t.buyIns = domain.AddMoney(t.buyIns, txn.Amount)
				computedPot = domain.AddMoney(computedPot, txn.Amount)
			case domain.TransactionTypeCashOut:
				t.cashOuts = domain.AddMoney(t.cashOuts, txn.Amount)
				computedPot = domain.SubMoney(computedPot, txn.Amount)
			}
		}

		if len(txns) < pageSize {
			break
		}
	}

	report := &ConsistencyReport{
		SessionID:      sessionID,
		StoredPot:      session.TotalPot,
		ComputedPot:    computedPot,
		PotConsistent:  session.TotalPot.Equal(computedPot),
		PlayersChecked: len(players),
		CheckedAt:      time.Now().UTC(),
	}

	for _, p := range players {
		t := computed[p.ID]
		chipBalance := domain.SubMoney(t.buyIns, t.cashOuts)

		if p.TotalBuyIns.Equal(t.buyIns) && p.TotalCashOuts.Equal(t.cashOuts) && p.CurrentChipBalance.Equal(chipBalance) {
			continue
		}

		report.Discrepancies = append(report.Discrepancies, PlayerDiscrepancy{
			PlayerID:            p.ID,
			Name:                p.Name,
			StoredBuyIns:        p.TotalBuyIns,
			ComputedBuyIns:      t.buyIns,
			StoredCashOuts:      p.TotalCashOuts,
			ComputedCashOuts:    t.cashOuts,
			StoredChipBalance:   p.CurrentChipBalance,
			ComputedChipBalance: chipBalance,
		})
	}

	report.LedgerConsistent = report.PotConsistent && len(report.Discrepancies) == 0

	return report, nil
}
