package exporter

import (
	"log/slog"
	"time"

	"scadapulse/internal/config"
	"scadapulse/pkg/contracts/domain"
)

// Exporter writes the artifacts of a trading day into the data layout
// described by config.Paths and reports every file it wrote.
type Exporter struct {
	paths  *config.Paths
	csv    *CSVWriter
	logger *slog.Logger
}

// NewExporter creates an exporter rooted at paths.
func NewExporter(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &Exporter{paths: paths, csv: NewCSVWriter(logger), logger: logger}
}

// Paths returns the layout the exporter writes into.
func (e *Exporter) Paths() *config.Paths { return e.paths }

// ExportReadings writes the stitched readings of a day.
func (e *Exporter) ExportReadings(day time.Time, units []string, readings []domain.Reading) (string, error) {
	path := e.paths.ReadingsCSVPath(day, units)
	if err := e.csv.WriteReadings(path, readings); err != nil {
		return "", err
	}
	e.logger.Info("Readings exported", slog.String("path", path), slog.Int("rows", len(readings)))
	return path, nil
}

// ExportSummary writes the JSON and Markdown reports of a day.
func (e *Exporter) ExportSummary(day time.Time, summary domain.DaySummary) ([]string, error) {
	jsonPath := e.paths.ReportJSONPath(day)
	if err := WriteSummaryJSON(jsonPath, summary); err != nil {
		return nil, err
	}
	mdPath := e.paths.ReportMarkdownPath(day)
	if err := WriteMarkdown(mdPath, summary); err != nil {
		return nil, err
	}
	e.logger.Info("Summary exported",
		slog.String("json", jsonPath),
		slog.String("markdown", mdPath),
		slog.Int("units", summary.Len()))
	return []string{jsonPath, mdPath}, nil
}

// ExportForecast writes the forecast and ramp alert tables of a day.
func (e *Exporter) ExportForecast(day time.Time, result domain.ForecastResult) ([]string, error) {
	fcPath := e.paths.ForecastCSVPath(day)
	if err := e.csv.WriteForecast(fcPath, result.Forecast); err != nil {
		return nil, err
	}
	alertPath := e.paths.RampAlertsCSVPath(day)
	if err := e.csv.WriteRampAlerts(alertPath, result.Alerts); err != nil {
		return nil, err
	}
	e.logger.Info("Forecast exported",
		slog.String("forecast", fcPath),
		slog.String("alerts", alertPath),
		slog.Int("points", len(result.Forecast)),
		slog.Int("ramp_alerts", len(result.Alerts)))
	return []string{fcPath, alertPath}, nil
}

// ExportDocuments writes the workbook and PDF renditions of a day.
func (e *Exporter) ExportDocuments(day time.Time, summary domain.DaySummary, result domain.ForecastResult, narrative string) ([]string, error) {
	xlsxPath := e.paths.ReportWorkbookPath(day)
	if err := WriteWorkbook(xlsxPath, summary, result); err != nil {
		return nil, err
	}
	pdfPath := e.paths.ReportPDFPath(day)
	if err := WritePDF(pdfPath, day.Format(domain.DayLayout), summary, len(result.Alerts), narrative); err != nil {
		return nil, err
	}
	e.logger.Info("Documents exported", slog.String("xlsx", xlsxPath), slog.String("pdf", pdfPath))
	return []string{xlsxPath, pdfPath}, nil
}

// LoadSummary reads back the JSON report of a day.
func (e *Exporter) LoadSummary(day time.Time) (domain.DaySummary, error) {
	return ReadSummaryJSON(e.paths.ReportJSONPath(day))
}

// LoadForecast reads back the forecast and ramp alerts of a day.
func (e *Exporter) LoadForecast(day time.Time) (domain.ForecastResult, error) {
	loc := day.Location()
	forecast, err := ReadForecast(e.paths.ForecastCSVPath(day), loc)
	if err != nil {
		return domain.ForecastResult{}, err
	}
	alerts, err := ReadRampAlerts(e.paths.RampAlertsCSVPath(day), loc)
	if err != nil {
		return domain.ForecastResult{}, err
	}
	return domain.ForecastResult{Forecast: forecast, Alerts: alerts}, nil
}
