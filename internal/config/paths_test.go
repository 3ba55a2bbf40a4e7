package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths_FileNames(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	p := NewPaths(PathsConfig{DataDir: "data", LogsDir: "logs"})

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "readings all", got: p.ReadingsCSVPath(day, []string{"*"}), want: "data/aemo/aemo_2024-01-15_ALL_5min.csv"},
		{name: "readings units", got: p.ReadingsCSVPath(day, []string{"bayswl1", " eraring "}), want: "data/aemo/aemo_2024-01-15_BAYSWL1_ERARING_5min.csv"},
		{name: "report json", got: p.ReportJSONPath(day), want: "data/reports/report_2024-01-15.json"},
		{name: "report md", got: p.ReportMarkdownPath(day), want: "data/reports/report_2024-01-15.md"},
		{name: "workbook", got: p.ReportWorkbookPath(day), want: "data/reports/report_2024-01-15.xlsx"},
		{name: "pdf", got: p.ReportPDFPath(day), want: "data/reports/report_2024-01-15.pdf"},
		{name: "narrative", got: p.NarrativePath(day), want: "data/reports/ai_status_2024-01-15.txt"},
		{name: "narrative month", got: p.NarrativeMonthGlob(day), want: "data/reports/ai_status_2024-01-*.txt"},
		{name: "forecast", got: p.ForecastCSVPath(day), want: "data/forecast/forecast_2024-01-15_nextday.csv"},
		{name: "alerts", got: p.RampAlertsCSVPath(day), want: "data/forecast/ramp_alerts_2024-01-15_nextday.csv"},
		{name: "log", got: p.LogPath("app.log"), want: "logs/app.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), tt.got)
		})
	}
}

func TestUnitTag(t *testing.T) {
	assert.Equal(t, "ALL", UnitTag(nil))
	assert.Equal(t, "ALL", UnitTag([]string{"A1", "*"}))
	assert.Equal(t, "A1_B2", UnitTag([]string{"a1", "", "b2"}))
}

func TestPaths_EnsureDirectoriesAndLatest(t *testing.T) {
	root := t.TempDir()
	p := NewPaths(PathsConfig{DataDir: filepath.Join(root, "data"), LogsDir: filepath.Join(root, "logs")})

	require.NoError(t, p.EnsureDirectories())
	for _, dir := range []string{p.ReadingsDir, p.ZipsDir, p.ReportsDir, p.ForecastDir, p.LogsDir} {
		assert.DirExists(t, dir)
	}

	_, err := p.LatestReadingsCSV()
	assert.Error(t, err)

	for _, day := range []string{"2024-01-14", "2024-01-16", "2024-01-15"} {
		name := filepath.Join(p.ReadingsDir, "aemo_"+day+"_ALL_5min.csv")
		require.NoError(t, os.WriteFile(name, []byte("timestamp,unit_id,power_MW\n"), 0o644))
	}
	latest, err := p.LatestReadingsCSV()
	require.NoError(t, err)
	assert.Equal(t, "aemo_2024-01-16_ALL_5min.csv", filepath.Base(latest))
	assert.True(t, FileExists(latest))
}
