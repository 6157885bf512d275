// Package exporter serializes a processed holdings table and its
// contribution cross-tabs into a four-sheet Excel workbook, then applies
// percentage display formats to percentage-valued cells without altering
// the stored numeric values.
package exporter
