package exporter

import (
	"bytes"
	"math"

	"github.com/xuri/excelize/v2"

	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/domain"
)

const (
	summarySheet  = "summary"
	forecastSheet = "forecast"
	alertsSheet   = "ramp_alerts"
)

var summaryColumns = []string{
	"unit_id", "day", "n_rows", "p_min", "p_max", "p_mean", "energy_mwh",
	"zero_frac", "neg_frac", "ramp_max", "ramp_95p", "outages", "anomalies",
	"slope_mw_per_hr", "intraday_up_bursts", "intraday_down_bursts", "notes",
}

// BuildWorkbook lays the day summary and the forecast tables out on three
// sheets. Empty tables still carry their header row.
func BuildWorkbook(day domain.DaySummary, result domain.ForecastResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, apperrors.NewStorageError("failed to build workbook", err)
	}
	if _, err := f.NewSheet(forecastSheet); err != nil {
		return nil, apperrors.NewStorageError("failed to build workbook", err)
	}
	if _, err := f.NewSheet(alertsSheet); err != nil {
		return nil, apperrors.NewStorageError("failed to build workbook", err)
	}

	rows := make([][]interface{}, 0, day.Len())
	for _, s := range day.Summaries() {
		rows = append(rows, []interface{}{
			s.UnitID, s.Day, s.NRows, cellFloat(s.PMin), cellFloat(s.PMax), cellFloat(s.PMean),
			cellFloat(s.EnergyMWh), s.ZeroFrac, s.NegFrac, s.RampMax, s.Ramp95p,
			len(s.Outages), s.Anomalies, s.SlopeMWPerHr, s.IntradayUpBursts, s.IntradayDownBursts,
			joinNotes(s.Notes),
		})
	}
	if err := writeSheet(f, summarySheet, summaryColumns, rows); err != nil {
		return nil, err
	}

	rows = rows[:0]
	for _, p := range result.Forecast {
		rows = append(rows, []interface{}{formatTimestamp(p.Timestamp), p.UnitID, cellFloat(p.PowerHatMW)})
	}
	if err := writeSheet(f, forecastSheet, domain.ForecastColumns, rows); err != nil {
		return nil, err
	}

	rows = rows[:0]
	for _, a := range result.Alerts {
		rows = append(rows, []interface{}{formatTimestamp(a.Timestamp), a.UnitID, cellFloat(a.PredictedRampMW)})
	}
	if err := writeSheet(f, alertsSheet, domain.RampAlertColumns, rows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apperrors.NewStorageError("failed to encode workbook", err)
	}
	return buf.Bytes(), nil
}

// WriteWorkbook builds the workbook and writes it to path.
func WriteWorkbook(path string, day domain.DaySummary, result domain.ForecastResult) error {
	data, err := BuildWorkbook(day, result)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return apperrors.NewStorageError("failed to write sheet "+sheet, err)
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewStorageError("failed to write sheet "+sheet, err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return apperrors.NewStorageError("failed to write sheet "+sheet, err)
		}
	}
	return nil
}

// cellFloat leaves NaN cells empty.
func cellFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return ""
	}
	return v
}
