package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"scadapulse/pkg/contracts/domain"
)

// Paths contains all the application paths
// This is the single source of truth for every file the pipeline reads or writes
type Paths struct {
	DataDir     string
	ReadingsDir string
	ZipsDir     string
	ReportsDir  string
	ForecastDir string
	LogsDir     string
}

// NewPaths lays out the data directory tree under cfg.DataDir.
//
//	data/
//	  ├── aemo/       (readings CSVs)
//	  ├── zips/       (downloaded Dispatch SCADA zips)
//	  ├── reports/    (summary JSON, Markdown, XLSX, PDF, narratives)
//	  └── forecast/   (next-day forecast and ramp alert CSVs)
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
		DataDir:     dataDir,
		ReadingsDir: filepath.Join(dataDir, "aemo"),
		ZipsDir:     filepath.Join(dataDir, "zips"),
		ReportsDir:  filepath.Join(dataDir, "reports"),
		ForecastDir: filepath.Join(dataDir, "forecast"),
		LogsDir:     logsDir,
	}
}

// GetPaths returns the paths of the loaded configuration.
func (c *Config) GetPaths() *Paths {
	return NewPaths(c.Paths)
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ReadingsDir,
		p.ZipsDir,
		p.ReportsDir,
		p.ForecastDir,
		p.LogsDir,
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// UnitTag names the unit selection in file names: ALL for the wildcard,
// otherwise the upper-cased ids joined by underscores.
func UnitTag(units []string) string {
	var tags []string
	for _, u := range units {
		u = strings.ToUpper(strings.TrimSpace(u))
		if u == "*" {
			return "ALL"
		}
		if u != "" {
			tags = append(tags, u)
		}
	}
	if len(tags) == 0 {
		return "ALL"
	}
	return strings.Join(tags, "_")
}

func dayString(day time.Time) string {
	return day.Format(domain.DayLayout)
}

// ReadingsCSVPath returns the readings file for a day and unit selection,
// e.g. aemo_2024-01-15_ALL_5min.csv.
func (p *Paths) ReadingsCSVPath(day time.Time, units []string) string {
	return filepath.Join(p.ReadingsDir, fmt.Sprintf("aemo_%s_%s_5min.csv", dayString(day), UnitTag(units)))
}

// LatestReadingsCSV returns the newest readings file by name.
func (p *Paths) LatestReadingsCSV() (string, error) {
	matches, err := filepath.Glob(filepath.Join(p.ReadingsDir, "aemo_*_*_5min.csv"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no readings CSVs in %s", p.ReadingsDir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// ReportJSONPath returns the summary JSON of a day.
func (p *Paths) ReportJSONPath(day time.Time) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf("report_%s.json", dayString(day)))
}

// ReportMarkdownPath returns the Markdown report of a day.
func (p *Paths) ReportMarkdownPath(day time.Time) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf("report_%s.md", dayString(day)))
}

// ReportWorkbookPath returns the XLSX workbook of a day.
func (p *Paths) ReportWorkbookPath(day time.Time) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf("report_%s.xlsx", dayString(day)))
}

// ReportPDFPath returns the PDF report of a day.
func (p *Paths) ReportPDFPath(day time.Time) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf("report_%s.pdf", dayString(day)))
}

// NarrativePath returns the cached operator narrative of a day.
func (p *Paths) NarrativePath(day time.Time) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf("ai_status_%s.txt", dayString(day)))
}

// NarrativeMonthGlob matches the narratives of day's month.
func (p *Paths) NarrativeMonthGlob(day time.Time) string {
	return filepath.Join(p.ReportsDir, fmt.Sprintf("ai_status_%s-*.txt", day.Format("2006-01")))
}

// ForecastCSVPath returns the next-day forecast generated from day's readings.
func (p *Paths) ForecastCSVPath(day time.Time) string {
	return filepath.Join(p.ForecastDir, fmt.Sprintf("forecast_%s_nextday.csv", dayString(day)))
}

// RampAlertsCSVPath returns the ramp alerts generated from day's readings.
func (p *Paths) RampAlertsCSVPath(day time.Time) string {
	return filepath.Join(p.ForecastDir, fmt.Sprintf("ramp_alerts_%s_nextday.csv", dayString(day)))
}

// LogPath returns the path for a log file
func (p *Paths) LogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved layout for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("data", p.DataDir),
			slog.String("readings", p.ReadingsDir),
			slog.String("zips", p.ZipsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("forecast", p.ForecastDir),
			slog.String("logs", p.LogsDir),
		))
}
