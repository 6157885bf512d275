// Package dataprocessing implements the fund holdings pipeline core:
//
//   - Loader: reads a holdings workbook, validates the required column
//     schema, and sorts rows by instrument and period.
//   - Derivation engine: computes the four derived columns per row using
//     prior-period lookback within each instrument group.
//   - Aggregator: builds the company, sector, and market-cap contribution
//     cross-tabs with grand totals.
//   - Processor: runs the stages end to end and hands the result to a
//     report writer.
//
// The pipeline is a single-pass, single-threaded batch job. Data flows
// strictly forward; each stage validates its own prerequisites and fails
// with a typed error from internal/errors.
package dataprocessing
