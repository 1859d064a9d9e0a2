package domain

import "github.com/shopspring/decimal"

// MinorUnitExponent is the number of decimal places carried by every
// monetary amount. All supported currencies use two (cents, pence).
const MinorUnitExponent int32 = 2

// Tolerance is the fixed comparison slack for monetary equality: one minor
// unit. Balance checks treat any difference at or below it as zero.
var Tolerance = decimal.New(1, -MinorUnitExponent)

// AddMoney adds two amounts after normalizing each to the minor unit.
func AddMoney(a, b decimal.Decimal) decimal.Decimal {
	return RoundToMinorUnit(a).Add(RoundToMinorUnit(b))
}

// SubMoney subtracts b from a after normalizing each to the minor unit.
func SubMoney(a, b decimal.Decimal) decimal.Decimal {
	return RoundToMinorUnit(a).Sub(RoundToMinorUnit(b))
}

// RoundToMinorUnit rounds half away from zero to the minor unit.
func RoundToMinorUnit(a decimal.Decimal) decimal.Decimal {
	return a.Round(MinorUnitExponent)
}

// IsValidAmount reports whether the amount carries no precision beyond the
// minor unit. Amounts failing this are rejected at the boundary rather than
// silently rounded.
func IsValidAmount(a decimal.Decimal) bool {
	return a.Equal(a.Round(MinorUnitExponent))
}

// WithinTolerance reports whether two amounts differ by at most Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// IsZeroWithinTolerance reports whether an amount is zero within Tolerance.
func IsZeroWithinTolerance(a decimal.Decimal) bool {
	return a.Abs().LessThanOrEqual(Tolerance)
}

// RoundingAudit accumulates the absolute precision loss of every rounding
// operation performed during a computation, so the proof engine can show the
// cumulative loss stayed within bounds.
type RoundingAudit struct {
	Operations     int             `json:"operations"`
	CumulativeLoss decimal.Decimal `json:"cumulative_loss"`
}

// NewRoundingAudit creates an empty audit.
func NewRoundingAudit() *RoundingAudit {
	return &RoundingAudit{CumulativeLoss: decimal.Zero}
}

// Round rounds the amount to the minor unit, recording the operation and any
// precision lost.
func (r *RoundingAudit) Round(a decimal.Decimal) decimal.Decimal {
	rounded := RoundToMinorUnit(a)
	r.Operations++
	r.CumulativeLoss = r.CumulativeLoss.Add(a.Sub(rounded).Abs())

	return rounded
}

// WithinBound reports whether the cumulative loss is below one minor unit
// per participant, the bound the precision analysis asserts.
func (r *RoundingAudit) WithinBound(playerCount int) bool {
	if playerCount < 1 {
		playerCount = 1
	}

	bound := Tolerance.Mul(decimal.NewFromInt(int64(playerCount)))

	return r.CumulativeLoss.LessThanOrEqual(bound)
}
