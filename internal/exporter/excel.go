package exporter

import (
	"context"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"fundcli/internal/dataprocessing"
	apperrors "fundcli/internal/errors"
	"fundcli/pkg/contracts/domain"
)

// Output sheet names, in their fixed order.
const (
	SheetProcessedData  = "Processed Data"
	SheetCompanyPivot   = "Company Pivot"
	SheetSectorPivot    = "Sector Pivot"
	SheetMarketCapPivot = "Market Cap Pivot"
)

// percentNumFmt is the builtin Excel number format "0.00%".
const percentNumFmt = 10

// percentColumns are the Processed Data columns that receive percentage
// display formatting. Start wt% deliberately stays raw.
var percentColumns = map[string]bool{
	domain.ColHolding:       true,
	domain.ColMonthlyReturn: true,
	domain.ColContribution:  true,
}

// ExcelWriter writes the four-sheet processed report.
type ExcelWriter struct {
	logger *slog.Logger

	// openFile re-opens the written artifact for the formatting pass.
	openFile func(string) (*excelize.File, error)
}

// NewExcelWriter creates a report writer.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger, openFile: func(name string) (*excelize.File, error) {
		return excelize.OpenFile(name)
	}}
}

// Write serializes the table and cross-tabs to path. A failure to persist
// the workbook is a write error; a failure to apply display formats is
// logged as a warning and the unformatted artifact stands.
func (w *ExcelWriter) Write(ctx context.Context, path string, t *domain.Table, pivots *dataprocessing.PivotSet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetProcessedData); err != nil {
		return apperrors.NewWriteError("failed to create processed data sheet", err)
	}
	if err := w.writeTable(f, t); err != nil {
		return apperrors.NewWriteError("failed to write processed data sheet", err)
	}

	sheets := []struct {
		name string
		ct   *domain.CrossTab
	}{
		{SheetCompanyPivot, pivots.Company},
		{SheetSectorPivot, pivots.Sector},
		{SheetMarketCapPivot, pivots.MarketCap},
	}
	for _, s := range sheets {
		if _, err := f.NewSheet(s.name); err != nil {
			return apperrors.NewWriteError("failed to create sheet "+s.name, err)
		}
		if err := writeCrossTab(f, s.name, s.ct); err != nil {
			return apperrors.NewWriteError("failed to write sheet "+s.name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewWriteError("failed to write report to "+path, err).
			WithContext("path", path)
	}

	w.logger.InfoContext(ctx, "report written",
		slog.String("path", path),
		slog.Int("rows", len(t.Rows)))

	// Formatting re-opens the written artifact; a failure here is not
	// fatal since the raw numeric values are already persisted.
	if err := w.applyPercentFormats(path, t, pivots); err != nil {
		w.logger.WarnContext(ctx, "could not apply percentage formats, values stay as raw decimals",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}

	return nil
}

// outputColumns returns the full output header: input columns in their
// observed order, then the four derived columns.
func outputColumns(t *domain.Table) []string {
	cols := make([]string, 0, len(t.Columns)+len(domain.DerivedColumns))
	cols = append(cols, t.Columns...)
	cols = append(cols, domain.DerivedColumns...)
	return cols
}

func (w *ExcelWriter) writeTable(f *excelize.File, t *domain.Table) error {
	cols := outputColumns(t)
	for c, name := range cols {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetProcessedData, cell, name); err != nil {
			return err
		}
	}

	for r := range t.Rows {
		row := &t.Rows[r]
		for c, name := range cols {
			value, ok := columnValue(row, name)
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetProcessedData, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// columnValue resolves one output cell. ok is false for null cells, which
// stay empty in the workbook.
func columnValue(row *domain.Holding, name string) (interface{}, bool) {
	switch name {
	case domain.ColSchemeCode:
		return row.SchemeCode, true
	case domain.ColSchemeName:
		return row.SchemeName, true
	case domain.ColMonth:
		return row.Month, true
	case domain.ColMonthEnd:
		// The raw cell text passes through unchanged; normalization is
		// only for sorting and pivot column labels.
		if row.MonthEndLabel == "" {
			return nil, false
		}
		return row.MonthEndLabel, true
	case domain.ColInstrumentName:
		return row.InstrumentName, true
	case domain.ColHolding:
		if row.HoldingPct == nil {
			return nil, false
		}
		return *row.HoldingPct, true
	case domain.ColSector:
		return row.Sector, true
	case domain.ColMcap:
		return row.Mcap, true
	case domain.ColMcapType:
		return row.McapType, true
	case domain.ColSymbol:
		return row.Symbol, true
	case domain.ColPrice:
		if row.Price == nil {
			return nil, false
		}
		return *row.Price, true
	case domain.ColStartPrice:
		if row.StartPrice == nil {
			return nil, false
		}
		return *row.StartPrice, true
	case domain.ColMonthlyReturn:
		if row.MonthlyReturn == nil {
			return nil, false
		}
		return *row.MonthlyReturn, true
	case domain.ColStartWeight:
		return row.StartWeight, true
	case domain.ColContribution:
		return row.Contribution, true
	default:
		value, ok := row.Extra[name]
		return value, ok
	}
}

// writeCrossTab lays out one pivot sheet: dimension header and period
// labels on row 1, one row per dimension value, Grand Total row and column
// last.
func writeCrossTab(f *excelize.File, sheet string, ct *domain.CrossTab) error {
	if err := f.SetCellValue(sheet, "A1", ct.Dimension); err != nil {
		return err
	}
	for c, ck := range ct.ColKeys {
		cell, err := excelize.CoordinatesToCellName(c+2, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, ck); err != nil {
			return err
		}
	}

	for r, rk := range ct.RowKeys {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, rk); err != nil {
			return err
		}
		for c, ck := range ct.ColKeys {
			cell, err := excelize.CoordinatesToCellName(c+2, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, ct.Value(rk, ck)); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyPercentFormats re-opens the written workbook and applies the 0.00%
// display format: the percentage-valued columns of Processed Data and every
// numeric cell of every pivot sheet. Stored values are untouched.
func (w *ExcelWriter) applyPercentFormats(path string, t *domain.Table, pivots *dataprocessing.PivotSet) error {
	f, err := w.openFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	style, err := f.NewStyle(&excelize.Style{NumFmt: percentNumFmt})
	if err != nil {
		return err
	}

	lastRow := len(t.Rows) + 1
	for c, name := range outputColumns(t) {
		if !percentColumns[name] {
			continue
		}
		top, err := excelize.CoordinatesToCellName(c+1, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(c+1, lastRow)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetProcessedData, top, bottom, style); err != nil {
			return err
		}
	}

	pivotSheets := []struct {
		name string
		ct   *domain.CrossTab
	}{
		{SheetCompanyPivot, pivots.Company},
		{SheetSectorPivot, pivots.Sector},
		{SheetMarketCapPivot, pivots.MarketCap},
	}
	for _, s := range pivotSheets {
		bottom, err := excelize.CoordinatesToCellName(len(s.ct.ColKeys)+1, len(s.ct.RowKeys)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(s.name, "B2", bottom, style); err != nil {
			return err
		}
	}

	return f.Save()
}
