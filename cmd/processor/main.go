// Command processor runs the fund holdings pipeline as a batch job:
// read a holdings workbook, derive the lookback columns, build the
// contribution pivots, and write the four-sheet processed report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fundcli/internal/config"
	"fundcli/internal/dataprocessing"
	apperrors "fundcli/internal/errors"
	"fundcli/internal/exporter"
	"fundcli/internal/infrastructure"
)

func main() {
	in := flag.String("in", "", "input holdings workbook (.xlsx)")
	out := flag.String("out", "", "output report path (defaults to <input>_processed.xlsx)")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: processor -in holdings.xlsx [-out report.xlsx]")
		os.Exit(2)
	}
	if *out == "" {
		*out = config.DefaultOutputPath(*in)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:    "info",
				Format:   "json",
				Output:   "console",
				FilePath: "logs/processor.log",
			},
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.Info("Starting fund holdings processing",
		slog.String("input", *in),
		slog.String("output", *out))

	processor := dataprocessing.NewProcessor(logger, exporter.NewExcelWriter(logger))
	result, err := processor.Process(context.Background(), *in, *out)
	if err != nil {
		reportFailure(logger, err)
		os.Exit(1)
	}

	logger.Info("Processing completed",
		slog.String("output", result.OutputPath),
		slog.Int("rows", result.Rows),
		slog.Int("instruments", result.Instruments),
		slog.Int("periods", result.Periods),
		slog.Float64("total_contribution", result.TotalContribution))

	fmt.Printf("Processed %d rows (%d instruments, %d periods)\n",
		result.Rows, result.Instruments, result.Periods)
	fmt.Printf("Output saved to: %s\n", result.OutputPath)
}

// reportFailure surfaces the typed pipeline errors with their detail; a
// schema error additionally lists the exact headers to fix.
func reportFailure(logger *slog.Logger, err error) {
	logger.Error("Processing failed", slog.String("error", err.Error()))

	if missing, found, ok := apperrors.SchemaDetails(err); ok {
		fmt.Fprintf(os.Stderr, "error: input is missing required columns: %s\n",
			strings.Join(missing, ", "))
		fmt.Fprintf(os.Stderr, "found columns: %s\n", strings.Join(found, ", "))
		return
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
