package dataprocessing

import (
	"sort"
	"time"

	"fundcli/internal/errors"
	"fundcli/pkg/contracts/domain"
)

// PivotSet holds the three contribution cross-tabs, in report order.
type PivotSet struct {
	Company   *domain.CrossTab
	Sector    *domain.CrossTab
	MarketCap *domain.CrossTab
}

// All returns the cross-tabs in their fixed report order.
func (ps *PivotSet) All() []*domain.CrossTab {
	return []*domain.CrossTab{ps.Company, ps.Sector, ps.MarketCap}
}

// BuildPivots builds the company, sector, and market-cap cross-tabs from a
// derived table. Each cell sums Stock Monthly Contribution % over the rows
// matching (dimension value, period); totals are appended last.
//
// Fails with a prerequisite error when the table has not been derived yet.
func BuildPivots(t *domain.Table) (*PivotSet, error) {
	if !t.Derived {
		return nil, errors.NewPrerequisiteError(
			"cross-tabulation requires the derived contribution column; run derivation first")
	}

	return &PivotSet{
		Company: buildCrossTab(t, domain.ColInstrumentName, func(h *domain.Holding) string {
			return h.InstrumentName
		}),
		Sector: buildCrossTab(t, domain.ColSector, func(h *domain.Holding) string {
			return h.Sector
		}),
		MarketCap: buildCrossTab(t, domain.ColMcapType, func(h *domain.Holding) string {
			return h.McapType
		}),
	}, nil
}

// buildCrossTab runs the two-pass aggregation: one pass over the table to
// fill the sparse (rowKey, colKey) sums, then one pass over the completed
// mapping to append totals.
func buildCrossTab(t *domain.Table, dimension string, keyFn func(*domain.Holding) string) *domain.CrossTab {
	cells := make(map[string]map[string]float64)
	periodTimes := make(map[string]time.Time)

	for i := range t.Rows {
		row := &t.Rows[i]
		rk := keyFn(row)
		ck := row.PeriodLabel()

		if cells[rk] == nil {
			cells[rk] = make(map[string]float64)
		}
		cells[rk][ck] += row.Contribution

		if _, seen := periodTimes[ck]; !seen {
			periodTimes[ck] = row.MonthEnd
		}
	}

	rowKeys := make([]string, 0, len(cells))
	for rk := range cells {
		rowKeys = append(rowKeys, rk)
	}
	sort.Strings(rowKeys)

	colKeys := make([]string, 0, len(periodTimes))
	for ck := range periodTimes {
		colKeys = append(colKeys, ck)
	}
	// Same total order as the loader: dated periods chronological and
	// ahead of undated ones, undated compared as labels.
	sort.Slice(colKeys, func(i, j int) bool {
		ti, tj := periodTimes[colKeys[i]], periodTimes[colKeys[j]]
		iDated, jDated := !ti.IsZero(), !tj.IsZero()
		switch {
		case iDated && jDated:
			return ti.Before(tj)
		case iDated != jDated:
			return iDated
		default:
			return colKeys[i] < colKeys[j]
		}
	})

	// Totals pass.
	colTotals := make(map[string]float64, len(colKeys))
	grand := 0.0
	for _, rk := range rowKeys {
		rowTotal := 0.0
		for _, ck := range colKeys {
			v := cells[rk][ck]
			rowTotal += v
			colTotals[ck] += v
		}
		cells[rk][domain.GrandTotalLabel] = rowTotal
		grand += rowTotal
	}

	totalRow := make(map[string]float64, len(colKeys)+1)
	for _, ck := range colKeys {
		totalRow[ck] = colTotals[ck]
	}
	totalRow[domain.GrandTotalLabel] = grand
	cells[domain.GrandTotalLabel] = totalRow

	return &domain.CrossTab{
		Dimension: dimension,
		RowKeys:   append(rowKeys, domain.GrandTotalLabel),
		ColKeys:   append(colKeys, domain.GrandTotalLabel),
		Cells:     cells,
	}
}
