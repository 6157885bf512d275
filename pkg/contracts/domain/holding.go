package domain

import (
	"time"
)

// Required input columns, in canonical order. The loader accepts any column
// order and passes unknown columns through untouched.
var RequiredColumns = []string{
	ColSchemeCode,
	ColSchemeName,
	ColMonth,
	ColMonthEnd,
	ColInstrumentName,
	ColHolding,
	ColSector,
	ColMcap,
	ColMcapType,
	ColSymbol,
	ColPrice,
}

// DerivedColumns are appended after the input columns, in this order.
var DerivedColumns = []string{
	ColStartPrice,
	ColMonthlyReturn,
	ColStartWeight,
	ColContribution,
}

// Column identifiers as they appear in the spreadsheet header.
const (
	ColSchemeCode     = "Scheme Code"
	ColSchemeName     = "Scheme Name"
	ColMonth          = "Month"
	ColMonthEnd       = "Month End"
	ColInstrumentName = "Instrument Name"
	ColHolding        = "Holding (%)"
	ColSector         = "Instrument Sector"
	ColMcap           = "Instrument SEBI Mcap"
	ColMcapType       = "Instrument SEBI Mcap Type"
	ColSymbol         = "NSE Symbol"
	ColPrice          = "Price"

	ColStartPrice    = "Start Price"
	ColMonthlyReturn = "Monthly Stock Return%"
	ColStartWeight   = "Start wt%"
	ColContribution  = "Stock Monthly Contribution %"
)

// Holding is one fund holding record: a single instrument observed in a
// single reporting month, plus the four derived lookback fields.
type Holding struct {
	SchemeCode     string
	SchemeName     string
	Month          string
	MonthEnd       time.Time // zero when the cell did not parse as a date
	MonthEndLabel  string    // raw cell text, kept for output fidelity
	InstrumentName string
	HoldingPct     *float64 // nil when the cell was blank
	Sector         string
	Mcap           string
	McapType       string
	Symbol         string
	Price          *float64

	// Extra holds passthrough values for columns outside the required set,
	// keyed by column name.
	Extra map[string]string

	// Derived fields. StartPrice and MonthlyReturn stay nil for rows with
	// no usable prior period; StartWeight and Contribution default to 0 so
	// downstream aggregation never has to special-case missing values.
	StartPrice    *float64
	MonthlyReturn *float64
	StartWeight   float64
	Contribution  float64
}

// PeriodLabel returns the column label used for this row's period in pivot
// output: the month-end date when it parsed, otherwise the raw cell text.
func (h *Holding) PeriodLabel() string {
	if !h.MonthEnd.IsZero() {
		return h.MonthEnd.Format("2006-01-02")
	}
	if h.MonthEndLabel != "" {
		return h.MonthEndLabel
	}
	return h.Month
}

// Table is an ordered collection of holdings plus the column schema observed
// in the input file. Columns preserves the input header order; the four
// derived columns are appended on output.
type Table struct {
	Columns []string
	Rows    []Holding

	// Derived reports whether the derivation step has populated the four
	// derived fields. Aggregation refuses to run until it has.
	Derived bool
}

// Instruments returns the distinct instrument names in row order.
func (t *Table) Instruments() []string {
	seen := make(map[string]bool)
	var names []string
	for i := range t.Rows {
		name := t.Rows[i].InstrumentName
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Periods returns the distinct period labels in row order.
func (t *Table) Periods() []string {
	seen := make(map[string]bool)
	var labels []string
	for i := range t.Rows {
		label := t.Rows[i].PeriodLabel()
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	return labels
}
