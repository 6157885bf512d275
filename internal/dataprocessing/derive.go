package dataprocessing

import (
	"math"

	"fundcli/pkg/contracts/domain"
)

// DetectPercentWeights decides, once for the whole table, whether holding
// weights are stored as percentage values (3.06 meaning 3.06%) rather than
// fractions in [0,1]. The rule is a global-maximum heuristic: if any
// non-null weight exceeds 1 in absolute value, every weight is treated as a
// percentage and divided by 100 before use, including rows whose own weight
// is below 1.
func DetectPercentWeights(rows []domain.Holding) bool {
	maxAbs := 0.0
	for i := range rows {
		if rows[i].HoldingPct == nil {
			continue
		}
		if v := math.Abs(*rows[i].HoldingPct); v > maxAbs {
			maxAbs = v
		}
	}
	return maxAbs > 1
}

// Derive populates the four derived columns in place.
//
// Per instrument group, in period order:
//
//	Start Price    = previous row's price; nil for the group's first row.
//	Monthly Return = price/startPrice - 1 when start price is non-nil and
//	                 non-zero and the current price is present; nil otherwise.
//	Start Weight   = previous row's (scale-adjusted) holding weight; 0 for
//	                 the group's first row so contributions stay numeric.
//	Contribution   = startWeight * monthlyReturn, or 0 when the return is
//	                 nil, so the aggregator can sum without nil checks.
//
// Derive is a pure function of the input columns and the row grouping, so
// re-running it on an already-derived table rewrites identical values.
func Derive(t *domain.Table) {
	scaleDown := DetectPercentWeights(t.Rows)

	for _, group := range partitionByInstrument(t.Rows) {
		var prev *domain.Holding
		for _, idx := range group {
			row := &t.Rows[idx]
			row.StartPrice = nil
			row.MonthlyReturn = nil
			row.StartWeight = 0
			row.Contribution = 0

			if prev != nil {
				if prev.Price != nil {
					start := *prev.Price
					row.StartPrice = &start
					if start != 0 && row.Price != nil {
						ret := *row.Price/start - 1
						row.MonthlyReturn = &ret
					}
				}
				if prev.HoldingPct != nil {
					weight := *prev.HoldingPct
					if scaleDown {
						weight /= 100
					}
					row.StartWeight = weight
				}
			}

			if row.MonthlyReturn != nil {
				row.Contribution = row.StartWeight * *row.MonthlyReturn
			}

			prev = &t.Rows[idx]
		}
	}

	t.Derived = true
}

// partitionByInstrument splits row indexes into per-instrument groups,
// preserving the table's row order within each group and the order in which
// instruments first appear.
func partitionByInstrument(rows []domain.Holding) [][]int {
	var order []string
	groups := make(map[string][]int)
	for i := range rows {
		key := rows[i].InstrumentName
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	out := make([][]int, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}
