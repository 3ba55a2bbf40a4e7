package exporter

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/domain"
)

func brisbane(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Brisbane")
	require.NoError(t, err)
	return loc
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{name: "integer", in: 12, want: "12"},
		{name: "fraction", in: 13.4, want: "13.4"},
		{name: "negative", in: -0.25, want: "-0.25"},
		{name: "nan", in: math.NaN(), want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFloat(tt.in))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	loc := brisbane(t)
	want := time.Date(2024, 1, 15, 4, 5, 0, 0, loc)

	for _, in := range []string{"2024-01-15 04:05:00", "2024-01-15T04:05:00", "2024/01/15 04:05:00", "2024-01-15T04:05:00+10:00"} {
		t.Run(in, func(t *testing.T) {
			got, err := parseTimestamp(in, loc)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %v", got)
		})
	}

	_, err := parseTimestamp("yesterday", loc)
	assert.Error(t, err)
}

func TestReadingsRoundTrip(t *testing.T) {
	loc := brisbane(t)
	path := filepath.Join(t.TempDir(), "aemo", "readings.csv")
	t0 := time.Date(2024, 1, 15, 0, 5, 0, 0, loc)
	readings := []domain.Reading{
		{Timestamp: t0, UnitID: "BAYSW1", PowerMW: 512.5},
		{Timestamp: t0.Add(domain.SampleInterval), UnitID: "BAYSW1", PowerMW: math.NaN()},
	}

	w := NewCSVWriter(nil)
	require.NoError(t, w.WriteReadings(path, readings))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,unit_id,power_MW", lines[0])
	assert.Equal(t, "2024-01-15 00:05:00,BAYSW1,512.5", lines[1])
	assert.Equal(t, "2024-01-15 00:10:00,BAYSW1,", lines[2])

	got, err := ReadReadings(path, loc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, t0.Equal(got[0].Timestamp))
	assert.Equal(t, "BAYSW1", got[0].UnitID)
	assert.Equal(t, 512.5, got[0].PowerMW)
	assert.True(t, math.IsNaN(got[1].PowerMW))
}

func TestReadReadings_DuidAliasAndBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.csv")
	content := "\xEF\xBB\xBFtimestamp,duid,power_MW\n2024-01-15 00:05:00,ERARING,100\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := ReadReadings(path, time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ERARING", got[0].UnitID)
}

func TestReadReadings_InfiniteValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inf.csv")
	content := "timestamp,unit_id,power_MW\n2024-01-15 00:05:00,U1,inf\n2024-01-15 00:05:00,U2,-Infinity\n2024-01-15 00:05:00,U3,7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := ReadReadings(path, time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, math.IsNaN(got[0].PowerMW))
	assert.True(t, math.IsNaN(got[1].PowerMW))
	assert.Equal(t, 7.0, got[2].PowerMW)
}

func TestReadTable_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadReadings(filepath.Join(dir, "missing.csv"), time.UTC)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("when,who\n1,2\n"), 0644))
	_, err = ReadReadings(bad, time.UTC)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestEmptyTablesKeepHeaders(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(nil)

	fc := filepath.Join(dir, "forecast.csv")
	require.NoError(t, w.WriteForecast(fc, []domain.ForecastPoint{}))
	data, err := os.ReadFile(fc)
	require.NoError(t, err)
	assert.Equal(t, "timestamp,unit_id,power_hat_MW\n", string(data))

	alerts := filepath.Join(dir, "alerts.csv")
	require.NoError(t, w.WriteRampAlerts(alerts, nil))
	got, err := ReadRampAlerts(alerts, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func sampleDay() domain.DaySummary {
	return domain.NewDaySummary(
		domain.DuidSummary{
			UnitID: "BAYSW1", Day: "2024-01-15", NRows: 288,
			PMin: 0, PMax: 660, PMean: 410.25, EnergyMWh: 9846,
			ZeroFrac: 0.1, RampMax: 40, Ramp95p: 22.5,
			Outages:        []domain.Outage{},
			DiurnalProfile: []domain.HourMean{{Hour: 0, MeanMW: 400}},
			Notes:          []string{},
		},
		domain.DuidSummary{
			UnitID: "DEAD1", Day: "2024-01-15", NRows: 3,
			PMin: math.NaN(), PMax: math.NaN(), PMean: math.NaN(), EnergyMWh: math.NaN(),
			Outages: []domain.Outage{}, DiurnalProfile: []domain.HourMean{}, Notes: []string{},
		},
	)
}

func sampleForecast(loc *time.Location) domain.ForecastResult {
	t0 := time.Date(2024, 1, 16, 0, 0, 0, 0, loc)
	return domain.ForecastResult{
		Forecast: []domain.ForecastPoint{
			{Timestamp: t0, UnitID: "BAYSW1", PowerHatMW: 400},
			{Timestamp: t0.Add(domain.SampleInterval), UnitID: "BAYSW1", PowerHatMW: 450},
		},
		Alerts: []domain.RampAlert{
			{Timestamp: t0.Add(domain.SampleInterval), UnitID: "BAYSW1", PredictedRampMW: 50},
		},
	}
}

func TestExporter_SummaryAndForecast(t *testing.T) {
	loc := brisbane(t)
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, loc)
	paths := config.NewPaths(config.PathsConfig{DataDir: t.TempDir(), LogsDir: t.TempDir()})
	exp := NewExporter(paths, nil)

	files, err := exp.ExportSummary(day, sampleDay())
	require.NoError(t, err)
	assert.Equal(t, []string{paths.ReportJSONPath(day), paths.ReportMarkdownPath(day)}, files)

	loaded, err := exp.LoadSummary(day)
	require.NoError(t, err)
	assert.Equal(t, []string{"BAYSW1", "DEAD1"}, loaded.Units())
	dead, ok := loaded.Get("DEAD1")
	require.True(t, ok)
	assert.True(t, math.IsNaN(dead.PMean))

	md, err := os.ReadFile(paths.ReportMarkdownPath(day))
	require.NoError(t, err)
	assert.Contains(t, string(md), "## BAYSW1")

	result := sampleForecast(loc)
	files, err = exp.ExportForecast(day, result)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	back, err := exp.LoadForecast(day)
	require.NoError(t, err)
	require.Len(t, back.Forecast, 2)
	require.Len(t, back.Alerts, 1)
	assert.True(t, result.Alerts[0].Timestamp.Equal(back.Alerts[0].Timestamp))
	assert.Equal(t, 50.0, back.Alerts[0].PredictedRampMW)
}

func TestExporter_LoadMissing(t *testing.T) {
	paths := config.NewPaths(config.PathsConfig{DataDir: t.TempDir(), LogsDir: t.TempDir()})
	exp := NewExporter(paths, nil)
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	_, err := exp.LoadSummary(day)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	_, err = exp.LoadForecast(day)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestBuildWorkbook(t *testing.T) {
	loc := brisbane(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(path, sampleDay(), sampleForecast(loc)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"summary", "forecast", "ramp_alerts"}, f.GetSheetList())

	rows, err := f.GetRows("summary")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "unit_id", rows[0][0])
	assert.Equal(t, "BAYSW1", rows[1][0])

	rows, err = f.GetRows("ramp_alerts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.RampAlertColumns, rows[0])
	assert.Equal(t, "2024-01-16 00:05:00", rows[1][0])
}

func TestBuildPDF(t *testing.T) {
	data, err := BuildPDF("2024-01-15", sampleDay(), 1, "All units nominal.")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, WritePDF(path, "2024-01-15", domain.NewDaySummary(), 0, ""))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
