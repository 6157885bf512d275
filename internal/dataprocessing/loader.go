package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fundcli/internal/errors"
	"fundcli/pkg/contracts/domain"
)

// excelEpoch is the zero date of Excel's serial date system.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// monthEndLayouts covers the date renderings excelize produces for styled
// date cells plus the common plain-text forms.
var monthEndLayouts = []string{
	"2006-01-02",
	"01-02-06",
	"1-2-06",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"2006/01/02",
	"02-Jan-06",
	"2-Jan-06",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// LoadTable reads the first sheet of a holdings workbook into a Table.
//
// The source must contain every required column (order irrelevant, extra
// columns pass through) and at least one data row. Rows come back sorted by
// instrument name, then chronologically by month-end date; rows whose
// month-end cell does not parse as a date fall back to the raw month label.
func LoadTable(ctx context.Context, path string) (*domain.Table, error) {
	logger := slog.Default()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError("failed to open input workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewParsingError("failed to read sheet rows", err).
			WithContext("sheet", sheet)
	}

	if len(rows) == 0 {
		return nil, errors.NewEmptyInputError(filepath.Base(path))
	}

	header := make([]string, 0, len(rows[0]))
	for _, h := range rows[0] {
		header = append(header, strings.TrimSpace(h))
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if _, dup := colIdx[name]; !dup {
			colIdx[name] = i
		}
	}

	var missing []string
	for _, required := range domain.RequiredColumns {
		if _, ok := colIdx[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewSchemaError(missing, header)
	}

	table := &domain.Table{Columns: header}
	for _, raw := range rows[1:] {
		if rowIsEmpty(raw) {
			continue
		}
		table.Rows = append(table.Rows, parseHolding(raw, header, colIdx))
	}

	if len(table.Rows) == 0 {
		return nil, errors.NewEmptyInputError(filepath.Base(path))
	}

	sortRows(table.Rows)

	logger.InfoContext(ctx, "holdings table loaded",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(table.Rows)),
		slog.Int("columns", len(header)))

	return table, nil
}

// sortRows applies the two-key ascending sort: instrument name first, then
// period. The month-end date is the chronological key; month labels like
// "Jan-24" do not sort lexicographically in time order, so the label is
// only a fallback for rows whose month-end cell never parsed.
func sortRows(rows []domain.Holding) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if a.InstrumentName != b.InstrumentName {
			return a.InstrumentName < b.InstrumentName
		}
		return lessPeriod(a, b)
	})
}

// lessPeriod orders rows of one instrument group. Rows with a parsed
// month-end date sort chronologically and come before rows without one,
// which order by month label. Every row gets the same kind of key, so the
// comparison stays a total order even when a group mixes parsed and
// unparsed cells.
func lessPeriod(a, b *domain.Holding) bool {
	aDated, bDated := !a.MonthEnd.IsZero(), !b.MonthEnd.IsZero()
	switch {
	case aDated && bDated:
		return a.MonthEnd.Before(b.MonthEnd)
	case aDated != bDated:
		return aDated
	default:
		return a.Month < b.Month
	}
}

func parseHolding(raw, header []string, colIdx map[string]int) domain.Holding {
	cell := func(name string) string {
		idx, ok := colIdx[name]
		if !ok || idx >= len(raw) {
			return ""
		}
		return strings.TrimSpace(raw[idx])
	}

	monthEndLabel := cell(domain.ColMonthEnd)
	h := domain.Holding{
		SchemeCode:     cell(domain.ColSchemeCode),
		SchemeName:     cell(domain.ColSchemeName),
		Month:          cell(domain.ColMonth),
		MonthEnd:       parseMonthEnd(monthEndLabel),
		MonthEndLabel:  monthEndLabel,
		InstrumentName: cell(domain.ColInstrumentName),
		HoldingPct:     parseNullableFloat(cell(domain.ColHolding)),
		Sector:         cell(domain.ColSector),
		Mcap:           cell(domain.ColMcap),
		McapType:       cell(domain.ColMcapType),
		Symbol:         cell(domain.ColSymbol),
		Price:          parseNullableFloat(cell(domain.ColPrice)),
	}

	required := make(map[string]bool, len(domain.RequiredColumns))
	for _, name := range domain.RequiredColumns {
		required[name] = true
	}
	for _, name := range header {
		if name == "" || required[name] {
			continue
		}
		if h.Extra == nil {
			h.Extra = make(map[string]string)
		}
		h.Extra[name] = cell(name)
	}

	return h
}

func rowIsEmpty(raw []string) bool {
	for _, cell := range raw {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseNullableFloat parses a numeric cell, tolerating thousands separators.
// Blank or non-numeric cells become nil rather than zero so missing data
// stays distinguishable from a genuine zero.
func parseNullableFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseMonthEnd parses a month-end cell. Styled date cells arrive as
// formatted strings, unstyled ones as Excel serial numbers; both are
// accepted. Returns the zero time when nothing matches.
func parseMonthEnd(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range monthEndLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		return excelEpoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
	}
	return time.Time{}
}
