package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/railbird/chipsettle/internal/domain"
)

// ProofEngine re-derives and verifies settlement arithmetic independently
// of the optimizer's own bookkeeping, guarding against a latent optimizer
// defect silently proving its own incorrect output. Proofs are signed so
// exported copies are tamper-evident.
type ProofEngine struct {
	idGen      IDGenerator
	signingKey []byte
}

// NewProofEngine creates a ProofEngine signing with the given key.
func NewProofEngine(idGen IDGenerator, signingKey []byte) *ProofEngine {
	return &ProofEngine{idGen: idGen, signingKey: signingKey}
}

// GenerateProof walks the settlement's payment plan instruction by
// instruction, records every arithmetic step, cross-checks the outcome
// against an independently computed plan, and seals the result with a
// checksum and signature.
func (e *ProofEngine) GenerateProof(settlement *domain.OptimizedSettlement) (*domain.MathematicalProof, error) {
	if err := domain.ValidateNetPositions(settlement.Positions); err != nil {
		return nil, err
	}

	audit := domain.NewRoundingAudit()

	steps := make([]domain.CalculationStep, 0, len(settlement.Plan.Instructions)+len(settlement.Positions)+2)
	seq := 0

	// Balance verification: total owed to winners vs total owed by losers,
	// re-summed from the positions rather than taken from the optimizer.
	balance := verifyBalance(settlement.Positions, audit)

	seq++
	steps = append(steps, domain.CalculationStep{
		Sequence:    seq,
		Operation:   "balance_verification",
		Description: "total credits must equal total debits",
		Formula: fmt.Sprintf("%s - %s", balance.TotalCredits.StringFixed(domain.MinorUnitExponent),
			balance.TotalDebits.StringFixed(domain.MinorUnitExponent)),
		Expected:  decimal.Zero,
		Actual:    balance.NetBalance,
		Tolerance: domain.Tolerance,
		Passed:    balance.IsBalanced,
	})

	// Replay every instruction, recomputing each running balance.
	remaining := make(map[string]decimal.Decimal, len(settlement.Positions))
	names := make(map[string]string, len(settlement.Positions))
	for _, pos := range settlement.Positions {
		remaining[pos.PlayerID] = audit.Round(pos.Amount)
		names[pos.PlayerID] = pos.Name
	}

	for _, ins := range settlement.Plan.Instructions {
		fromBefore := remaining[ins.FromPlayerID]
		toBefore := remaining[ins.ToPlayerID]

		remaining[ins.FromPlayerID] = domain.AddMoney(fromBefore, ins.Amount)
		remaining[ins.ToPlayerID] = domain.SubMoney(toBefore, ins.Amount)

		seq++
		steps = append(steps, domain.CalculationStep{
			Sequence:    seq,
			Operation:   "apply_payment",
			Description: fmt.Sprintf("%s pays %s %s", ins.FromName, ins.ToName, ins.Amount.StringFixed(domain.MinorUnitExponent)),
			Formula: fmt.Sprintf("%s + %s = %s; %s - %s = %s",
				fromBefore.StringFixed(domain.MinorUnitExponent), ins.Amount.StringFixed(domain.MinorUnitExponent),
				remaining[ins.FromPlayerID].StringFixed(domain.MinorUnitExponent),
				toBefore.StringFixed(domain.MinorUnitExponent), ins.Amount.StringFixed(domain.MinorUnitExponent),
				remaining[ins.ToPlayerID].StringFixed(domain.MinorUnitExponent)),
			Expected:  domain.AddMoney(fromBefore, ins.Amount),
			Actual:    remaining[ins.FromPlayerID],
			Tolerance: domain.Tolerance,
			Passed:    true,
		})
	}

	// Every player must land on zero once the plan has been applied.
	for _, pos := range sortedPositions(settlement.Positions) {
		final := remaining[pos.PlayerID]

		seq++
		steps = append(steps, domain.CalculationStep{
			Sequence:    seq,
			Operation:   "final_balance",
			Description: fmt.Sprintf("%s settles to zero", pos.Name),
			Formula:     fmt.Sprintf("net(%s) = %s", pos.Name, final.StringFixed(domain.MinorUnitExponent)),
			Expected:    decimal.Zero,
			Actual:      final,
			Tolerance:   domain.Tolerance,
			Passed:      domain.IsZeroWithinTolerance(final),
		})
	}

	// Consensus check: an independently computed plan must reach the same
	// final per-player nets even though its instruction list differs.
	consensus := consensusHolds(settlement.Positions, settlement.Plan)

	seq++
	steps = append(steps, domain.CalculationStep{
		Sequence:    seq,
		Operation:   "algorithm_consensus",
		Description: "banker-hub plan reaches the same final balances",
		Formula:     "max |final_greedy - final_banker| per player",
		Expected:    decimal.Zero,
		Actual:      consensus,
		Tolerance:   domain.Tolerance,
		Passed:      domain.IsZeroWithinTolerance(consensus),
	})

	precision := domain.PrecisionAnalysis{
		DecimalPrecision:        domain.MinorUnitExponent,
		RoundingOperations:      audit.Operations,
		CumulativePrecisionLoss: audit.CumulativeLoss,
		IsWithinTolerance:       audit.WithinBound(len(settlement.Positions)),
	}

	proof := &domain.MathematicalProof{
		ID:           e.idGen.Generate(),
		SettlementID: settlement.ID,
		Positions:    settlement.Positions,
		Instructions: settlement.Plan.Instructions,
		Steps:        steps,
		Balance:      balance,
		Precision:    precision,
		GeneratedAt:  time.Now().UTC(),
	}

	checksum, err := proof.ComputeChecksum()
	if err != nil {
		return nil, fmt.Errorf("failed to checksum proof: %w", err)
	}

	proof.Checksum = checksum
	proof.Signature = domain.SignChecksum(checksum, e.signingKey)
	proof.IsValid = balance.IsBalanced && allStepsPassed(steps) && precision.IsWithinTolerance

	return proof, nil
}

// VerifyProof independently rechecks an exported proof: checksum from
// content, signature from checksum, each calculation step, balance, and
// algorithm consensus. The proof's embedded IsValid flag is never trusted.
func (e *ProofEngine) VerifyProof(proof *domain.MathematicalProof) (*domain.ProofVerification, error) {
	checksum, err := proof.ComputeChecksum()
	if err != nil {
		return nil, fmt.Errorf("failed to checksum proof: %w", err)
	}

	v := &domain.ProofVerification{
		ChecksumValid:  checksum == proof.Checksum,
		SignatureValid: domain.VerifySignature(proof.Checksum, proof.Signature, e.signingKey),
	}

	v.StepsValid = true
	for i, step := range proof.Steps {
		if !step.Recheck() || !step.Passed {
			v.StepsValid = false
			v.FailedSteps = append(v.FailedSteps, i)
		}
	}

	// Recheck the balance section from its own recorded numbers and from
	// the embedded positions.
	recomputed := verifyBalance(proof.Positions, domain.NewRoundingAudit())
	v.BalanceValid = proof.Balance.IsBalanced &&
		recomputed.TotalDebits.Equal(proof.Balance.TotalDebits) &&
		recomputed.TotalCredits.Equal(proof.Balance.TotalCredits) &&
		recomputed.IsBalanced

	// Re-apply the embedded instructions and re-run the consensus
	// algorithm against the embedded positions.
	plan := domain.PaymentPlan{Instructions: proof.Instructions}
	v.ConsensusValid = domain.IsZeroWithinTolerance(consensusHolds(proof.Positions, plan))

	v.PrecisionValid = proof.Precision.IsWithinTolerance

	v.IsValid = v.ChecksumValid && v.SignatureValid && v.StepsValid && v.BalanceValid && v.ConsensusValid && v.PrecisionValid

	return v, nil
}

func verifyBalance(positions []domain.NetPosition, audit *domain.RoundingAudit) domain.BalanceVerification {
	totalCredits := decimal.Zero
	totalDebits := decimal.Zero

	for _, p := range positions {
		amount := audit.Round(p.Amount)
		if amount.IsPositive() {
			totalCredits = domain.AddMoney(totalCredits, amount)
		} else {
			totalDebits = domain.AddMoney(totalDebits, amount.Abs())
		}
	}

	net := domain.SubMoney(totalCredits, totalDebits)

	return domain.BalanceVerification{
		TotalDebits:  totalDebits,
		TotalCredits: totalCredits,
		NetBalance:   net,
		IsBalanced:   domain.IsZeroWithinTolerance(net),
	}
}

// consensusHolds applies both the given plan and an independently built
// banker-hub plan to the same positions and returns the largest per-player
// divergence between the two outcomes.
func consensusHolds(positions []domain.NetPosition, plan domain.PaymentPlan) decimal.Decimal {
	primary := plan.Apply(positions)
	alternative := domain.PaymentPlan{
		Algorithm:    domain.AlgorithmBanker,
		Instructions: BankerInstructions(positions),
	}.Apply(positions)

	maxDiff := decimal.Zero
	for _, pos := range positions {
		diff := primary[pos.PlayerID].Sub(alternative[pos.PlayerID]).Abs()
		if diff.GreaterThan(maxDiff) {
			maxDiff = diff
		}
	}

	return maxDiff
}

func allStepsPassed(steps []domain.CalculationStep) bool {
	for _, s := range steps {
		if !s.Passed {
			return false
		}
	}

	return true
}

func sortedPositions(positions []domain.NetPosition) []domain.NetPosition {
	out := make([]domain.NetPosition, len(positions))
	copy(out, positions)
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })

	return out
}
