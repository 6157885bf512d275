package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fundcli/internal/errors"
	"fundcli/pkg/contracts/domain"
)

// pivotFixture builds a derived two-instrument, three-period table with
// sector and market-cap attributes.
func pivotFixture(t *testing.T) *domain.Table {
	t.Helper()

	months := monthsOf2024(3)
	rows := []domain.Holding{}
	prices := map[string][]float64{
		"ALPHA": {100, 110, 121},
		"BETA":  {50, 45, 54},
	}
	sectors := map[string]string{"ALPHA": "IT", "BETA": "Energy"}
	caps := map[string]string{"ALPHA": "Large Cap", "BETA": "Mid Cap"}

	for _, name := range []string{"ALPHA", "BETA"} {
		for i, m := range months {
			h := holdingRow(name, m, fp(prices[name][i]), fp(0.10))
			h.Sector = sectors[name]
			h.McapType = caps[name]
			rows = append(rows, h)
		}
	}

	table := &domain.Table{Rows: rows}
	Derive(table)
	return table
}

func tableContributionSum(table *domain.Table) float64 {
	sum := 0.0
	for i := range table.Rows {
		sum += table.Rows[i].Contribution
	}
	return sum
}

func TestBuildPivotsRequiresDerivation(t *testing.T) {
	table := &domain.Table{Rows: []domain.Holding{holdingRow("A", monthsOf2024(1)[0], fp(1), fp(0.1))}}

	_, err := BuildPivots(table)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypePrerequisite))
}

func TestCompanyPivotShape(t *testing.T) {
	table := pivotFixture(t)

	pivots, err := BuildPivots(table)
	require.NoError(t, err)

	company := pivots.Company
	assert.Equal(t, domain.ColInstrumentName, company.Dimension)
	assert.Equal(t, []string{"ALPHA", "BETA"}, company.DataRowKeys())
	assert.Len(t, company.DataColKeys(), 3)
	assert.Equal(t, domain.GrandTotalLabel, company.RowKeys[len(company.RowKeys)-1])
	assert.Equal(t, domain.GrandTotalLabel, company.ColKeys[len(company.ColKeys)-1])

	// Period columns are chronological.
	assert.Equal(t, []string{"2024-01-28", "2024-02-28", "2024-03-28"}, company.DataColKeys())
}

func TestPivotTotalsConsistency(t *testing.T) {
	table := pivotFixture(t)
	pivots, err := BuildPivots(table)
	require.NoError(t, err)

	want := tableContributionSum(table)

	for _, ct := range pivots.All() {
		assert.InDelta(t, want, ct.GrandTotal(), 1e-9, "grand total of %s", ct.Dimension)

		// Each total-row cell equals its column sum excluding the total row.
		for _, ck := range ct.DataColKeys() {
			colSum := 0.0
			for _, rk := range ct.DataRowKeys() {
				colSum += ct.Value(rk, ck)
			}
			assert.InDelta(t, colSum, ct.Value(domain.GrandTotalLabel, ck), 1e-9)
		}

		// Each total-column cell equals its row sum excluding the total column.
		for _, rk := range ct.DataRowKeys() {
			rowSum := 0.0
			for _, ck := range ct.DataColKeys() {
				rowSum += ct.Value(rk, ck)
			}
			assert.InDelta(t, rowSum, ct.Value(rk, domain.GrandTotalLabel), 1e-9)
		}
	}
}

func TestPivotDimensions(t *testing.T) {
	table := pivotFixture(t)
	pivots, err := BuildPivots(table)
	require.NoError(t, err)

	assert.Equal(t, []string{"Energy", "IT"}, pivots.Sector.DataRowKeys())
	assert.Equal(t, []string{"Large Cap", "Mid Cap"}, pivots.MarketCap.DataRowKeys())

	// ALPHA returns: +10% then +10% with start weight 0.10 each period.
	assert.InDelta(t, 0.01+0.01, pivots.Sector.Value("IT", domain.GrandTotalLabel), 1e-9)
}

func TestPivotMissingCellIsZero(t *testing.T) {
	// BETA only has data for one period; ALPHA for two. The cross product
	// still yields a numeric zero for the absent pair.
	months := monthsOf2024(2)
	a1 := holdingRow("ALPHA", months[0], fp(100), fp(0.1))
	a2 := holdingRow("ALPHA", months[1], fp(110), fp(0.1))
	b1 := holdingRow("BETA", months[0], fp(50), fp(0.1))

	table := &domain.Table{Rows: []domain.Holding{a1, a2, b1}}
	Derive(table)

	pivots, err := BuildPivots(table)
	require.NoError(t, err)

	company := pivots.Company
	assert.Zero(t, company.Value("BETA", "2024-02-28"))
	assert.Zero(t, company.Value("no such row", "no such column"))
}

func TestPivotPeriodFallbackOrdering(t *testing.T) {
	// Unparseable month-end cells fall back to label ordering.
	rows := []domain.Holding{
		{InstrumentName: "A", Month: "P1", MonthEndLabel: "period-1", HoldingPct: fp(0.1), Price: fp(10)},
		{InstrumentName: "A", Month: "P2", MonthEndLabel: "period-2", HoldingPct: fp(0.1), Price: fp(11)},
	}
	table := &domain.Table{Rows: rows}
	Derive(table)

	pivots, err := BuildPivots(table)
	require.NoError(t, err)
	assert.Equal(t, []string{"period-1", "period-2"}, pivots.Company.DataColKeys())
}

func TestGrandTotalTwoInstrumentsThreePeriods(t *testing.T) {
	// Two instruments, three periods each: the company pivot has exactly 2
	// non-total rows and 3 non-total columns, and its grand total equals
	// the sum over all 6 rows.
	table := pivotFixture(t)
	pivots, err := BuildPivots(table)
	require.NoError(t, err)

	company := pivots.Company
	assert.Len(t, company.DataRowKeys(), 2)
	assert.Len(t, company.DataColKeys(), 3)
	assert.InDelta(t, tableContributionSum(table), company.GrandTotal(), 1e-9)
	assert.Len(t, table.Rows, 6)
}
