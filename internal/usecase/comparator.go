package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
)

// SettlementOption is one scored settlement alternative. Scores are 0-10,
// composed of equally weighted simplicity, fairness, efficiency and
// user-friendliness sub-scores. The comparison is presentation-only: the
// primary optimizer's plan stays authoritative unless a user explicitly
// selects an alternative, and a selected alternative must itself pass the
// proof engine before being recorded.
type SettlementOption struct {
	Algorithm        domain.SettlementAlgorithm `json:"algorithm"`
	Plan             domain.PaymentPlan         `json:"plan"`
	TransactionCount int                        `json:"transaction_count"`
	Score            decimal.Decimal            `json:"score"`
	Simplicity       decimal.Decimal            `json:"simplicity"`
	Fairness         decimal.Decimal            `json:"fairness"`
	Efficiency       decimal.Decimal            `json:"efficiency"`
	UserFriendliness decimal.Decimal            `json:"user_friendliness"`
	Pros             []string                   `json:"pros"`
	Cons             []string                   `json:"cons"`
}

// AlternativeComparison is the scored result of running the same net
// positions through every supported algorithm.
type AlternativeComparison struct {
	Options     []SettlementOption `json:"options"`
	Recommended int                `json:"recommended"`
}

// AlternativeComparator runs multiple settlement algorithms over the same
// positions and scores them for optional user choice.
type AlternativeComparator struct{}

// NewAlternativeComparator creates a new AlternativeComparator.
func NewAlternativeComparator() *AlternativeComparator {
	return &AlternativeComparator{}
}

// Compare builds and scores one option per algorithm. The option order and
// content are deterministic for the same input.
func (c *AlternativeComparator) Compare(positions []domain.NetPosition) (*AlternativeComparison, error) {
	if err := domain.ValidateNetPositions(positions); err != nil {
		return nil, err
	}

	playerCount := countNonZero(positions)

	options := []SettlementOption{
		scoreOption(domain.PaymentPlan{
			Algorithm:    domain.AlgorithmGreedy,
			Instructions: GreedyInstructions(positions),
		}, playerCount,
			[]string{"fewest transfers in practice", "no single player handles everyone's money"},
			[]string{"payment pairs can look arbitrary to participants"}),
		scoreOption(domain.PaymentPlan{
			Algorithm:    domain.AlgorithmDirect,
			Instructions: DirectInstructions(positions),
		}, playerCount,
			[]string{"every debt maps directly to a winner", "easy to explain pair by pair"},
			[]string{"most transfers of any option", "small rounding-driven amounts appear"}),
		scoreOption(domain.PaymentPlan{
			Algorithm:    domain.AlgorithmBanker,
			Instructions: BankerInstructions(positions),
		}, playerCount,
			[]string{"one collection point, simple at the table"},
			[]string{"banker temporarily holds everyone's money", "banker makes the most individual transfers"}),
	}

	recommended := 0
	for i, opt := range options {
		if opt.Score.GreaterThan(options[recommended].Score) {
			recommended = i
		}
	}

	return &AlternativeComparison{Options: options, Recommended: recommended}, nil
}

// scoreOption derives the sub-scores from measurable plan properties.
// Efficiency rewards few transfers relative to the playerCount-1 floor;
// simplicity rewards few distinct counterparties per payer; fairness
// penalizes plans that concentrate flow through one player;
// user-friendliness penalizes sub-dollar amounts.
func scoreOption(plan domain.PaymentPlan, playerCount int, pros, cons []string) SettlementOption {
	count := plan.Count()

	opt := SettlementOption{
		Algorithm:        plan.Algorithm,
		Plan:             plan,
		TransactionCount: count,
		Pros:             pros,
		Cons:             cons,
	}

	ten := decimal.NewFromInt(10)

	if count == 0 {
		opt.Simplicity, opt.Fairness, opt.Efficiency, opt.UserFriendliness = ten, ten, ten, ten
		opt.Score = ten

		return opt
	}

	floor := playerCount - 1
	if floor < 1 {
		floor = 1
	}

	// Efficiency: floor/count scaled to 0-10.
	opt.Efficiency = decimal.NewFromInt(int64(floor)).Div(decimal.NewFromInt(int64(count))).Mul(ten).Round(1)

	// Simplicity: average instructions per involved payer, best when 1.
	payers := make(map[string]int)
	touchCount := make(map[string]int)
	fractional := 0

	for _, ins := range plan.Instructions {
		payers[ins.FromPlayerID]++
		touchCount[ins.FromPlayerID]++
		touchCount[ins.ToPlayerID]++

		if !ins.Amount.Equal(ins.Amount.Truncate(0)) {
			fractional++
		}
	}

	opt.Simplicity = decimal.NewFromInt(int64(len(payers))).Div(decimal.NewFromInt(int64(count))).Mul(ten).Round(1)

	// Fairness: the busiest player's share of all money touches, inverted.
	busiest := 0
	for _, n := range touchCount {
		if n > busiest {
			busiest = n
		}
	}

	opt.Fairness = ten.Sub(decimal.NewFromInt(int64(busiest - 1)).
		Div(decimal.NewFromInt(int64(count))).Mul(ten)).Round(1)
	if opt.Fairness.IsNegative() {
		opt.Fairness = decimal.Zero
	}

	opt.UserFriendliness = ten.Sub(decimal.NewFromInt(int64(fractional)).
		Div(decimal.NewFromInt(int64(count))).Mul(decimal.NewFromInt(3))).Round(1)

	opt.Score = opt.Simplicity.Add(opt.Fairness).Add(opt.Efficiency).Add(opt.UserFriendliness).
		Div(decimal.NewFromInt(4)).Round(1)

	return opt
}

func countNonZero(positions []domain.NetPosition) int {
	n := 0
	for _, p := range positions {
		if !domain.IsZeroWithinTolerance(p.Amount) {
			n++
		}
	}

	return n
}
