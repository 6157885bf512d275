package dataprocessing

import (
	"context"
	"log/slog"

	"fundcli/pkg/contracts/domain"
)

// ReportWriter serializes the enriched table and cross-tabs into the output
// artifact. Implemented by exporter.ExcelWriter.
type ReportWriter interface {
	Write(ctx context.Context, path string, t *domain.Table, pivots *PivotSet) error
}

// Result summarizes one completed processing run.
type Result struct {
	OutputPath        string  `json:"output_path"`
	Rows              int     `json:"rows"`
	Instruments       int     `json:"instruments"`
	Periods           int     `json:"periods"`
	TotalContribution float64 `json:"total_contribution"`
}

// Processor runs the full pipeline: load, derive, aggregate, report.
// One Processor may serve many runs; each run owns its own table and
// cross-tab set, so runs never share mutable state.
type Processor struct {
	logger *slog.Logger
	writer ReportWriter
}

// NewProcessor creates a pipeline processor writing through the given
// report writer.
func NewProcessor(logger *slog.Logger, writer ReportWriter) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, writer: writer}
}

// Process executes one all-or-nothing batch run. Any stage error aborts the
// run and is returned verbatim; a failed run is retried from the beginning
// with the original source.
func (p *Processor) Process(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	p.logger.InfoContext(ctx, "starting processing run",
		slog.String("input", inputPath),
		slog.String("output", outputPath))

	table, err := LoadTable(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	Derive(table)

	pivots, err := BuildPivots(table)
	if err != nil {
		return nil, err
	}

	if err := p.writer.Write(ctx, outputPath, table, pivots); err != nil {
		return nil, err
	}

	result := &Result{
		OutputPath:        outputPath,
		Rows:              len(table.Rows),
		Instruments:       len(table.Instruments()),
		Periods:           len(table.Periods()),
		TotalContribution: pivots.Company.GrandTotal(),
	}

	p.logger.InfoContext(ctx, "processing run completed",
		slog.String("output", result.OutputPath),
		slog.Int("rows", result.Rows),
		slog.Int("instruments", result.Instruments),
		slog.Int("periods", result.Periods),
		slog.Float64("total_contribution", result.TotalContribution))

	return result, nil
}
