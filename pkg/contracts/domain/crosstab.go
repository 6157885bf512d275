package domain

// GrandTotalLabel names the synthetic total row and column of a CrossTab.
const GrandTotalLabel = "Grand Total"

// CrossTab is a two-dimensional aggregation of contribution: one grouping
// dimension down the rows, reporting periods across the columns, with a
// synthetic total row and total column appended last.
type CrossTab struct {
	// Dimension is the header for the row-key column, e.g. "Instrument Sector".
	Dimension string

	// RowKeys and ColKeys hold the sorted key sets. GrandTotalLabel is
	// always the final entry of each.
	RowKeys []string
	ColKeys []string

	// Cells maps rowKey -> colKey -> summed contribution. Totals live under
	// GrandTotalLabel keys like any other cell.
	Cells map[string]map[string]float64
}

// Value returns the cell for (rowKey, colKey), or 0 when no rows matched
// that pair. A cross-tab cell is never missing, only zero.
func (ct *CrossTab) Value(rowKey, colKey string) float64 {
	if row, ok := ct.Cells[rowKey]; ok {
		return row[colKey]
	}
	return 0
}

// GrandTotal returns the bottom-right cell: the sum of the aggregated field
// over the entire table.
func (ct *CrossTab) GrandTotal() float64 {
	return ct.Value(GrandTotalLabel, GrandTotalLabel)
}

// DataRowKeys returns the row keys excluding the total row.
func (ct *CrossTab) DataRowKeys() []string {
	return trimTotal(ct.RowKeys)
}

// DataColKeys returns the column keys excluding the total column.
func (ct *CrossTab) DataColKeys() []string {
	return trimTotal(ct.ColKeys)
}

func trimTotal(keys []string) []string {
	if n := len(keys); n > 0 && keys[n-1] == GrandTotalLabel {
		return keys[:n-1]
	}
	return keys
}
