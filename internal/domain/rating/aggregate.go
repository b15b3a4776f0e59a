package rating

import (
	"math"
)

// Aggregate names how a team folds member values into a single value.
type Aggregate int

const (
	// Sum adds member values (ratings).
	Sum Aggregate = iota
	// RootSumSquares combines independent spreads (deviations, volatilities).
	RootSumSquares
)

// Of folds values.
func (a Aggregate) Of(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		if a == RootSumSquares {
			total += v * v
		} else {
			total += v
		}
	}
	if a == RootSumSquares {
		return math.Sqrt(total)
	}
	return total
}

// Redistribute moves an aggregate from total to target by giving every
// member a share of the difference proportional to its current value:
// member += (target-total) * member/total.
//
// When total is zero the proportional rule is undefined and the difference
// is split equally, so the new values still fold back to target.
func (a Aggregate) Redistribute(current []float64, total, target float64) ([]float64, error) {
	if len(current) == 0 {
		return nil, &DegenerateStateError{Op: "redistribute", Reason: "team has no members"}
	}
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return nil, &DegenerateStateError{Op: "redistribute", Reason: "non-finite target"}
	}

	diff := target - total
	out := make([]float64, len(current))
	if total == 0 {
		share := diff / float64(len(current))
		if a == RootSumSquares {
			share = diff / math.Sqrt(float64(len(current)))
		}
		for i, v := range current {
			out[i] = v + share
		}
		return out, nil
	}

	for i, v := range current {
		out[i] = v + diff*(v/total)
	}
	return out, nil
}
