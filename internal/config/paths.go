package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths centralizes every directory the tools read from or write to.
// All paths resolve relative to the data directory unless absolute.
type Paths struct {
	DataDir    string
	UploadsDir string
	ReportsDir string
	LogsDir    string
}

// NewPaths builds the path set from configuration.
func NewPaths(cfg PathsConfig) *Paths {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	logsDir := cfg.LogsDir
	if logsDir == "" {
		logsDir = "logs"
	}
	return &Paths{
		DataDir:    dataDir,
		UploadsDir: filepath.Join(dataDir, "uploads"),
		ReportsDir: filepath.Join(dataDir, "reports"),
		LogsDir:    logsDir,
	}
}

// EnsureDirectories creates every managed directory that does not exist yet.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.UploadsDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetUploadPath returns the full path for an uploaded file.
func (p *Paths) GetUploadPath(filename string) string {
	return filepath.Join(p.UploadsDir, filename)
}

// GetReportPath returns the full path for a generated report.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the full path for a log file.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// DefaultOutputPath derives the output artifact path from the input path:
// "<stem>_processed.xlsx" in the same directory.
func DefaultOutputPath(inputPath string) string {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	return filepath.Join(dir, stem+"_processed.xlsx")
}
