package dataprocessing

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "fundcli/internal/errors"
	"fundcli/pkg/contracts/domain"
)

// writeWorkbook builds a minimal holdings workbook in a temp dir and
// returns its path.
func writeWorkbook(t *testing.T, header []string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for c, name := range header {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, name))
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	path := filepath.Join(t.TempDir(), "holdings.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

// fullHeader returns the 11 required columns in canonical order.
func fullHeader() []string {
	return append([]string{}, domain.RequiredColumns...)
}

// holdingCells builds one data row matching fullHeader order.
func holdingCells(instrument, month, monthEnd string, holding, price interface{}) []interface{} {
	return []interface{}{
		"S001", "Test Scheme", month, monthEnd, instrument,
		holding, "IT", "Large", "Large Cap", "TST", price,
	}
}

func TestLoadTable(t *testing.T) {
	path := writeWorkbook(t, fullHeader(), [][]interface{}{
		holdingCells("BETA", "Feb-24", "2024-02-29", 0.12, 110.0),
		holdingCells("ALPHA", "Jan-24", "2024-01-31", 0.10, 100.0),
		holdingCells("BETA", "Jan-24", "2024-01-31", 0.11, 105.0),
	})

	table, err := LoadTable(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, table.Rows, 3)
	assert.False(t, table.Derived)
	assert.Equal(t, fullHeader(), table.Columns)

	// Sorted by instrument, then chronologically by month end.
	assert.Equal(t, "ALPHA", table.Rows[0].InstrumentName)
	assert.Equal(t, "BETA", table.Rows[1].InstrumentName)
	assert.Equal(t, "Jan-24", table.Rows[1].Month)
	assert.Equal(t, "BETA", table.Rows[2].InstrumentName)
	assert.Equal(t, "Feb-24", table.Rows[2].Month)

	first := table.Rows[0]
	require.NotNil(t, first.HoldingPct)
	assert.InDelta(t, 0.10, *first.HoldingPct, 1e-9)
	require.NotNil(t, first.Price)
	assert.InDelta(t, 100.0, *first.Price, 1e-9)
	assert.Equal(t, "2024-01-31", first.PeriodLabel())
	assert.Equal(t, "IT", first.Sector)
	assert.Equal(t, "Large Cap", first.McapType)
	assert.Equal(t, "TST", first.Symbol)
}

func TestSortRowsMixedDateParsing(t *testing.T) {
	jan := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	// One instrument group mixing parsed and unparsed month-end cells:
	// dated rows come first in chronological order, undated rows follow in
	// label order.
	rows := []domain.Holding{
		{InstrumentName: "ALPHA", Month: "zz-unknown"},
		{InstrumentName: "ALPHA", Month: "Feb-24", MonthEnd: feb},
		{InstrumentName: "ALPHA", Month: "aa-unknown"},
		{InstrumentName: "ALPHA", Month: "Jan-24", MonthEnd: jan},
	}
	sortRows(rows)

	var order []string
	for i := range rows {
		order = append(order, rows[i].Month)
	}
	assert.Equal(t, []string{"Jan-24", "Feb-24", "aa-unknown", "zz-unknown"}, order)
}

func TestLoadTableMissingColumn(t *testing.T) {
	header := fullHeader()[:10] // drop "Price"
	path := writeWorkbook(t, header, [][]interface{}{
		holdingCells("ALPHA", "Jan-24", "2024-01-31", 0.10, nil)[:10],
	})

	_, err := LoadTable(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))

	missing, found, ok := apperrors.SchemaDetails(err)
	require.True(t, ok)
	assert.Equal(t, []string{domain.ColPrice}, missing)
	assert.Contains(t, found, domain.ColSchemeCode)
}

func TestLoadTableEmptyInput(t *testing.T) {
	t.Run("header only", func(t *testing.T) {
		path := writeWorkbook(t, fullHeader(), nil)

		_, err := LoadTable(context.Background(), path)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyInput))
	})

	t.Run("blank data rows only", func(t *testing.T) {
		path := writeWorkbook(t, fullHeader(), [][]interface{}{
			{nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil},
		})

		_, err := LoadTable(context.Background(), path)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyInput))
	})
}

func TestLoadTableUnreadableFile(t *testing.T) {
	_, err := LoadTable(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestLoadTableExtraColumnsPassThrough(t *testing.T) {
	header := append(fullHeader(), "ISIN")
	row := append(holdingCells("ALPHA", "Jan-24", "2024-01-31", 0.10, 100.0), "INE000A01001")
	path := writeWorkbook(t, header, [][]interface{}{row})

	table, err := LoadTable(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, header, table.Columns)
	assert.Equal(t, "INE000A01001", table.Rows[0].Extra["ISIN"])
}

func TestLoadTableBlankNumericCells(t *testing.T) {
	path := writeWorkbook(t, fullHeader(), [][]interface{}{
		holdingCells("ALPHA", "Jan-24", "2024-01-31", nil, nil),
	})

	table, err := LoadTable(context.Background(), path)
	require.NoError(t, err)

	assert.Nil(t, table.Rows[0].HoldingPct)
	assert.Nil(t, table.Rows[0].Price)
}

func TestParseMonthEnd(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2024-01-31", "2024-01-31"},
		{"01-31-24", "2024-01-31"},
		{"1/31/2024", "2024-01-31"},
		{"31-Jan-24", "2024-01-31"},
		{"45322", "2024-01-31"}, // Excel serial for 2024-01-31
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseMonthEnd(tt.input)
			require.False(t, got.IsZero())
			assert.Equal(t, tt.expected, got.Format("2006-01-02"))
		})
	}

	t.Run("unparseable", func(t *testing.T) {
		assert.True(t, parseMonthEnd("January month-end").IsZero())
		assert.True(t, parseMonthEnd("").IsZero())
	})
}

func TestParseNullableFloat(t *testing.T) {
	require.Nil(t, parseNullableFloat(""))
	require.Nil(t, parseNullableFloat("n/a"))

	v := parseNullableFloat("1,234.5")
	require.NotNil(t, v)
	assert.InDelta(t, 1234.5, *v, 1e-9)

	z := parseNullableFloat("0")
	require.NotNil(t, z)
	assert.Zero(t, *z)
}
