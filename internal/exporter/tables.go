package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/domain"
)

// unitAliases are header names accepted for the unit id column.
var unitAliases = []string{"unit_id", "duid"}

// WriteReadings writes a readings table with the canonical columns.
func (w *CSVWriter) WriteReadings(path string, readings []domain.Reading) error {
	records := make([][]string, len(readings))
	for i, r := range readings {
		records[i] = []string{formatTimestamp(r.Timestamp), r.UnitID, formatFloat(r.PowerMW)}
	}
	if err := w.WriteCSV(path, WriteOptions{Headers: domain.ReadingColumns, Records: records}); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write readings %s", path), err)
	}
	return nil
}

// WriteForecast writes a forecast table. The header is written even when
// the forecast is empty.
func (w *CSVWriter) WriteForecast(path string, points []domain.ForecastPoint) error {
	records := make([][]string, len(points))
	for i, p := range points {
		records[i] = []string{formatTimestamp(p.Timestamp), p.UnitID, formatFloat(p.PowerHatMW)}
	}
	if err := w.WriteCSV(path, WriteOptions{Headers: domain.ForecastColumns, Records: records}); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write forecast %s", path), err)
	}
	return nil
}

// WriteRampAlerts writes a ramp alert table, header included when empty.
func (w *CSVWriter) WriteRampAlerts(path string, alerts []domain.RampAlert) error {
	records := make([][]string, len(alerts))
	for i, a := range alerts {
		records[i] = []string{formatTimestamp(a.Timestamp), a.UnitID, formatFloat(a.PredictedRampMW)}
	}
	if err := w.WriteCSV(path, WriteOptions{Headers: domain.RampAlertColumns, Records: records}); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write ramp alerts %s", path), err)
	}
	return nil
}

// tableRow is one decoded (timestamp, unit, value) row.
type tableRow struct {
	ts    time.Time
	unit  string
	value float64
}

// readTable decodes a three-column table whose value column is valueCol.
// Naive timestamps are interpreted in loc.
func readTable(path string, valueCol string, loc *time.Location) ([]tableRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(path)
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read %s", path), err)
	}
	rows, err := decodeTable(bytes.TrimPrefix(data, utf8BOM), valueCol, loc)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to parse %s", path), err)
	}
	return rows, nil
}

func decodeTable(data []byte, valueCol string, loc *time.Location) ([]tableRow, error) {
	if loc == nil {
		loc = time.UTC
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []tableRow{}, nil
	}
	if err != nil {
		return nil, err
	}

	tsIdx := columnIndex(header, "timestamp")
	unitIdx := columnIndex(header, unitAliases...)
	valIdx := columnIndex(header, valueCol)
	if tsIdx < 0 || unitIdx < 0 || valIdx < 0 {
		return nil, fmt.Errorf("missing columns: want timestamp, unit_id and %s, got %v", valueCol, header)
	}

	rows := []tableRow{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) <= tsIdx || len(record) <= unitIdx || len(record) <= valIdx {
			return nil, fmt.Errorf("line %d: short record", line)
		}
		ts, err := parseTimestamp(record[tsIdx], loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		value, err := parseFloat(record[valIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, tableRow{ts: ts, unit: strings.TrimSpace(record[unitIdx]), value: value})
	}
	return rows, nil
}

func columnIndex(header []string, names ...string) int {
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, name := range names {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

// ReadReadings loads a readings table written by WriteReadings or by the
// stitch tool. A "duid" header is accepted for the unit column.
func ReadReadings(path string, loc *time.Location) ([]domain.Reading, error) {
	rows, err := readTable(path, "power_MW", loc)
	if err != nil {
		return nil, err
	}
	readings := make([]domain.Reading, len(rows))
	for i, r := range rows {
		readings[i] = domain.Reading{Timestamp: r.ts, UnitID: r.unit, PowerMW: r.value}
	}
	return readings, nil
}

// ReadForecast loads a forecast table.
func ReadForecast(path string, loc *time.Location) ([]domain.ForecastPoint, error) {
	rows, err := readTable(path, "power_hat_MW", loc)
	if err != nil {
		return nil, err
	}
	points := make([]domain.ForecastPoint, len(rows))
	for i, r := range rows {
		points[i] = domain.ForecastPoint{Timestamp: r.ts, UnitID: r.unit, PowerHatMW: r.value}
	}
	return points, nil
}

// ReadRampAlerts loads a ramp alert table.
func ReadRampAlerts(path string, loc *time.Location) ([]domain.RampAlert, error) {
	rows, err := readTable(path, "predicted_ramp_MW", loc)
	if err != nil {
		return nil, err
	}
	alerts := make([]domain.RampAlert, len(rows))
	for i, r := range rows {
		alerts[i] = domain.RampAlert{Timestamp: r.ts, UnitID: r.unit, PredictedRampMW: r.value}
	}
	return alerts, nil
}
