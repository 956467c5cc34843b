// Package ratectrl decides, given per-coefficient importance scores, which
// coefficients survive into the bitstream under a CBR bit budget or a VBR
// quality target.
//
// Ported from: the reference's descending binary search over a
// sorted-by-importance cutoff, re-costing the candidate bitstream at each
// step via the same evaluator the serializer itself uses.
package ratectrl

import (
	"math"
	"sort"
)

// Coefficient is one band's importance score as seen by the rate
// controller; Band breaks ties (ascending) when two coefficients share an
// importance value.
type Coefficient struct {
	Band       int
	Importance float64
}

// CostFunc evaluates the bitstream cost, in bits, of keeping exactly the
// coefficients whose Band appears in kept (every other coefficient is
// coded as a dropped/zero band). Callers bind this to
// internal/bitstream.Cost over their current zone/quantizer plan.
type CostFunc func(kept map[int]bool) int

// SelectCBR performs the descending binary search: starting from "keep
// all", it bisects the sorted-importance cutoff until the evaluated cost
// is at or below budgetBits, and returns the set of kept band indices.
// The search runs in O(log n) cost evaluations.
func SelectCBR(coeffs []Coefficient, budgetBits int, cost CostFunc) map[int]bool {
	sorted := sortedByImportance(coeffs)

	keepSet := func(k int) map[int]bool {
		m := make(map[int]bool, k)
		for i := 0; i < k; i++ {
			m[sorted[i].Band] = true
		}
		return m
	}

	lo, hi := 0, len(sorted)
	if cost(keepSet(hi)) <= budgetBits {
		return keepSet(hi)
	}
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if cost(keepSet(mid)) <= budgetBits {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return keepSet(lo)
}

// SelectVBR keeps every coefficient whose importance exceeds
// exp(-quality*ln2).
func SelectVBR(coeffs []Coefficient, quality float64) map[int]bool {
	threshold := math.Exp(-quality * math.Ln2)
	kept := make(map[int]bool)
	for _, c := range coeffs {
		if c.Importance > threshold {
			kept[c.Band] = true
		}
	}
	return kept
}

// sortedByImportance returns coeffs sorted descending by importance, ties
// broken by band index ascending.
func sortedByImportance(coeffs []Coefficient) []Coefficient {
	sorted := make([]Coefficient, len(coeffs))
	copy(sorted, coeffs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Importance != sorted[j].Importance {
			return sorted[i].Importance > sorted[j].Importance
		}
		return sorted[i].Band < sorted[j].Band
	})
	return sorted
}
