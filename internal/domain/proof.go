package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CalculationStep is one verifiable arithmetic step in a proof. Expected and
// Actual carry the operands of the final comparison, so a verifier can
// recheck the step without re-running the optimizer.
type CalculationStep struct {
	Sequence    int             `json:"sequence"`
	Operation   string          `json:"operation"`
	Description string          `json:"description"`
	Formula     string          `json:"formula"`
	Expected    decimal.Decimal `json:"expected"`
	Actual      decimal.Decimal `json:"actual"`
	Tolerance   decimal.Decimal `json:"tolerance"`
	Passed      bool            `json:"passed"`
}

// Recheck recomputes the pass/fail outcome from the recorded operands.
func (s CalculationStep) Recheck() bool {
	return s.Actual.Sub(s.Expected).Abs().LessThanOrEqual(s.Tolerance)
}

// BalanceVerification records the double-entry check: total money owed to
// winners must equal total money owed by losers.
type BalanceVerification struct {
	TotalDebits  decimal.Decimal `json:"total_debits"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	NetBalance   decimal.Decimal `json:"net_balance"`
	IsBalanced   bool            `json:"is_balanced"`
}

// PrecisionAnalysis records how much rounding occurred while the proof was
// derived and whether the cumulative loss stays within bounds.
type PrecisionAnalysis struct {
	DecimalPrecision        int32           `json:"decimal_precision"`
	RoundingOperations      int             `json:"rounding_operations"`
	CumulativePrecisionLoss decimal.Decimal `json:"cumulative_precision_loss"`
	IsWithinTolerance       bool            `json:"is_within_tolerance"`
}

// MathematicalProof is an auditable, independently re-derivable record that
// a settlement's arithmetic is balanced and correct. It embeds the net
// positions and the payment plan it proves, so exporters and verifiers need
// no access back into the optimizer. Immutable once generated; the checksum
// covers the canonical content and the signature covers the checksum.
type MathematicalProof struct {
	ID           string               `json:"id"`
	SettlementID string               `json:"settlement_id"`
	Positions    []NetPosition        `json:"positions"`
	Instructions []PaymentInstruction `json:"instructions"`
	Steps        []CalculationStep    `json:"steps"`
	Balance      BalanceVerification  `json:"balance"`
	Precision    PrecisionAnalysis    `json:"precision"`
	Checksum     string               `json:"checksum"`
	Signature    string               `json:"signature"`
	IsValid      bool                 `json:"is_valid"`
	GeneratedAt  time.Time            `json:"generated_at"`
}

// proofContent is the canonical serialization target: everything the
// checksum covers, in fixed field order, excluding the checksum and
// signature themselves.
type proofContent struct {
	ID           string               `json:"id"`
	SettlementID string               `json:"settlement_id"`
	Positions    []NetPosition        `json:"positions"`
	Instructions []PaymentInstruction `json:"instructions"`
	Steps        []CalculationStep    `json:"steps"`
	Balance      BalanceVerification  `json:"balance"`
	Precision    PrecisionAnalysis    `json:"precision"`
	GeneratedAt  string               `json:"generated_at"`
}

// CanonicalContent serializes the proof's checksummed content
// deterministically.
func (p *MathematicalProof) CanonicalContent() ([]byte, error) {
	return json.Marshal(proofContent{
		ID:           p.ID,
		SettlementID: p.SettlementID,
		Positions:    p.Positions,
		Instructions: p.Instructions,
		Steps:        p.Steps,
		Balance:      p.Balance,
		Precision:    p.Precision,
		GeneratedAt:  p.GeneratedAt.UTC().Format(time.RFC3339Nano),
	})
}

// ComputeChecksum hashes the canonical content.
func (p *MathematicalProof) ComputeChecksum() (string, error) {
	content, err := p.CanonicalContent()
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(content)

	return hex.EncodeToString(sum[:]), nil
}

// SignChecksum produces an HMAC-SHA256 signature over a checksum.
func SignChecksum(checksum string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(checksum))

	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature in constant time.
func VerifySignature(checksum, signature string, key []byte) bool {
	expected := SignChecksum(checksum, key)

	return hmac.Equal([]byte(expected), []byte(signature))
}

// ProofVerification is the per-check outcome of verifying an exported
// proof. The embedded IsValid flag of the proof itself is never trusted.
type ProofVerification struct {
	ChecksumValid  bool  `json:"checksum_valid"`
	SignatureValid bool  `json:"signature_valid"`
	StepsValid     bool  `json:"steps_valid"`
	BalanceValid   bool  `json:"balance_valid"`
	ConsensusValid bool  `json:"consensus_valid"`
	PrecisionValid bool  `json:"precision_valid"`
	FailedSteps    []int `json:"failed_steps,omitempty"`
	IsValid        bool  `json:"is_valid"`
}
