package core

import "math"

// percentEpsilon absorbs float noise when checking that percentages sum to
// 100, so inputs like 33.33+33.33+33.34 are not rejected.
const percentEpsilon = 1e-9

// AllocationInput carries the strategy-specific inputs for Allocate.
// ExactAmounts pairs positionally with participants for EXACT; Percentages
// pairs positionally for PERCENT; both are ignored for EQUAL.
type AllocationInput struct {
	ExactAmounts []Money
	Percentages  []float64

	// ValidateExactTotal rejects EXACT inputs whose shares drift from the
	// stated total by more than one cent. Off by default: the historical
	// behavior records whatever the caller supplied.
	ValidateExactTotal bool
}

// Allocate computes one share per participant from the expense total under
// the given strategy. It is a pure function; persisting the result
// transactionally is the caller's job.
//
// The returned shares always satisfy len(shares) == len(participants), and
// for EQUAL and PERCENT they sum exactly to total: the final share absorbs
// any rounding remainder so no cent is silently lost.
func Allocate(total Money, strategy Strategy, participants []string, input AllocationInput) ([]Share, error) {
	if !total.IsPositive() {
		return nil, ErrInvalidInput
	}
	if len(participants) == 0 {
		return nil, ErrInvalidInput
	}

	switch strategy {
	case StrategyEqual:
		return allocateEqual(total, participants), nil
	case StrategyExact:
		return allocateExact(total, participants, input)
	case StrategyPercent:
		return allocatePercent(total, participants, input.Percentages)
	default:
		return nil, ErrUnknownStrategy
	}
}

func allocateEqual(total Money, participants []string) []Share {
	n := int64(len(participants))
	base := total.Cents / n

	shares := make([]Share, len(participants))
	for i, name := range participants {
		shares[i] = Share{ParticipantName: name, Amount: MoneyFromCents(base)}
	}
	// Remainder redistribution: the last entry absorbs what integer division
	// dropped, so the shares reconstruct the total exactly.
	shares[len(shares)-1].Amount = total.Sub(MoneyFromCents(base * (n - 1)))
	return shares
}

func allocateExact(total Money, participants []string, input AllocationInput) ([]Share, error) {
	if len(input.ExactAmounts) != len(participants) {
		return nil, ErrCountMismatch
	}

	var sum Money
	shares := make([]Share, len(participants))
	for i, name := range participants {
		amount := input.ExactAmounts[i]
		if amount.IsNegative() {
			return nil, ErrInvalidInput
		}
		shares[i] = Share{ParticipantName: name, Amount: amount}
		sum = sum.Add(amount)
	}

	if input.ValidateExactTotal {
		if diff := sum.Sub(total).Cents; diff > 1 || diff < -1 {
			return nil, ErrExactSumMismatch
		}
	}
	return shares, nil
}

func allocatePercent(total Money, participants []string, percentages []float64) ([]Share, error) {
	if len(percentages) != len(participants) {
		return nil, ErrCountMismatch
	}

	var pctSum float64
	for _, p := range percentages {
		if p < 0 {
			return nil, ErrInvalidInput
		}
		pctSum += p
	}
	if math.Abs(pctSum-100) > percentEpsilon {
		return nil, ErrPercentSumMismatch
	}

	shares := make([]Share, len(participants))
	var allocated Money
	for i, name := range participants {
		amount := total.MulPercent(percentages[i])
		shares[i] = Share{ParticipantName: name, Amount: amount}
		if i < len(participants)-1 {
			allocated = allocated.Add(amount)
		}
	}
	// As with EQUAL, the last share absorbs per-share rounding drift.
	shares[len(shares)-1].Amount = total.Sub(allocated)
	if shares[len(shares)-1].Amount.IsNegative() {
		return nil, ErrConsistency
	}
	return shares, nil
}
