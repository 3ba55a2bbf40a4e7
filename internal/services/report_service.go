package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	apperrors "scadapulse/internal/errors"
	"scadapulse/internal/exporter"
	"scadapulse/internal/files"
	"scadapulse/pkg/contracts/domain"
)

// Document formats served for a day.
const (
	FormatJSON     = "json"
	FormatMarkdown = "md"
	FormatWorkbook = "xlsx"
	FormatPDF      = "pdf"
	FormatForecast = "forecast"
	FormatAlerts   = "alerts"
)

// ReportService reads the outputs of finished runs from the data
// directory.
type ReportService struct {
	exporter  *exporter.Exporter
	discovery *files.Discovery
	loc       *time.Location
	logger    *slog.Logger
}

// NewReportService creates a report service. Days are interpreted in loc.
func NewReportService(exp *exporter.Exporter, loc *time.Location, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		exporter:  exp,
		discovery: files.NewDiscovery(loc),
		loc:       loc,
		logger:    logger.With(slog.String("service", "reports")),
	}
}

// ParseDay parses a yyyy-mm-dd day in the service location.
func (s *ReportService) ParseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation(domain.DayLayout, value, s.loc)
	if err != nil {
		return time.Time{}, apperrors.NewAppValidationError(fmt.Sprintf("invalid day %q, want yyyy-mm-dd", value))
	}
	return day, nil
}

// Days lists the days with a summary report, newest first.
func (s *ReportService) Days(ctx context.Context) ([]string, error) {
	days, err := s.discovery.Days(s.exporter.Paths().ReportsDir, files.KindReport)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(days))
	for i, day := range days {
		out[i] = day.Format(domain.DayLayout)
	}
	return out, nil
}

// Summary returns the per-unit summary of a day.
func (s *ReportService) Summary(ctx context.Context, day time.Time) (domain.DaySummary, error) {
	return s.exporter.LoadSummary(day)
}

// Forecast returns the next-day forecast and ramp alerts built from day.
func (s *ReportService) Forecast(ctx context.Context, day time.Time) (domain.ForecastResult, error) {
	return s.exporter.LoadForecast(day)
}

// Narrative returns the stored operator narrative of a day.
func (s *ReportService) Narrative(ctx context.Context, day time.Time) (string, error) {
	path := s.exporter.Paths().NarrativePath(day)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", apperrors.NewNotFoundError("narrative for " + day.Format(domain.DayLayout))
	}
	if err != nil {
		return "", apperrors.NewStorageError("failed to read narrative", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// DocumentPath returns the file of a day in format, if it exists.
func (s *ReportService) DocumentPath(day time.Time, format string) (string, error) {
	paths := s.exporter.Paths()
	var path string
	switch format {
	case FormatJSON:
		path = paths.ReportJSONPath(day)
	case FormatMarkdown:
		path = paths.ReportMarkdownPath(day)
	case FormatWorkbook:
		path = paths.ReportWorkbookPath(day)
	case FormatPDF:
		path = paths.ReportPDFPath(day)
	case FormatForecast:
		path = paths.ForecastCSVPath(day)
	case FormatAlerts:
		path = paths.RampAlertsCSVPath(day)
	default:
		return "", apperrors.NewAppValidationError(fmt.Sprintf("unknown document format %q", format))
	}
	if _, err := os.Stat(path); err != nil {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("%s document for %s", format, day.Format(domain.DayLayout)))
	}
	return path, nil
}
