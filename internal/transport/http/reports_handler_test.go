package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
	"scadapulse/internal/exporter"
	"scadapulse/internal/services"
	api "scadapulse/pkg/contracts/api/v1"
	"scadapulse/pkg/contracts/domain"
)

func newReportsRouter(t *testing.T) (http.Handler, *exporter.Exporter) {
	t.Helper()
	logger := testLogger()
	exp := exporter.NewExporter(config.NewPaths(config.PathsConfig{DataDir: t.TempDir()}), logger)
	svc := services.NewReportService(exp, brisbane, logger)
	h := NewReportsHandler(svc, apperrors.NewErrorHandler(logger, false), logger)

	r := chi.NewRouter()
	r.Mount("/reports", h.Routes())
	return r, exp
}

func seedReports(t *testing.T, exp *exporter.Exporter, day time.Time) {
	t.Helper()
	_, err := exp.ExportSummary(day, domain.NewDaySummary(
		domain.DuidSummary{UnitID: "BW01", Day: day.Format(domain.DayLayout), NRows: 288, PMean: 610.5},
		domain.DuidSummary{UnitID: "ER02", Day: day.Format(domain.DayLayout), NRows: 288, PMean: 402},
	))
	require.NoError(t, err)

	next := day.AddDate(0, 0, 1)
	_, err = exp.ExportForecast(day, domain.ForecastResult{
		Forecast: []domain.ForecastPoint{
			{Timestamp: next, UnitID: "BW01", PowerHatMW: 600},
			{Timestamp: next.Add(5 * time.Minute), UnitID: "BW01", PowerHatMW: 640},
		},
		Alerts: []domain.RampAlert{
			{Timestamp: next.Add(5 * time.Minute), UnitID: "BW01", PredictedRampMW: 40},
		},
	})
	require.NoError(t, err)
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReportsHandler_Lookups(t *testing.T) {
	router, exp := newReportsRouter(t)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, brisbane)
	seedReports(t, exp, day)

	w := get(router, "/reports/days")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"days":["2025-03-14"],"count":1}`, w.Body.String())

	w = get(router, "/reports/2025-03-14/summary")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary api.SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Units)
	assert.Equal(t, []string{"BW01", "ER02"}, summary.Data.Units())

	w = get(router, "/reports/2025-03-14/units/ER02")
	require.Equal(t, http.StatusOK, w.Code)
	var unit domain.DuidSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &unit))
	assert.Equal(t, 402.0, unit.PMean)

	w = get(router, "/reports/2025-03-14/forecast")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var forecast api.ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forecast))
	assert.Equal(t, 2, forecast.Points)
	assert.Equal(t, 640.0, forecast.Data[1].PowerHatMW)

	w = get(router, "/reports/2025-03-14/alerts")
	require.Equal(t, http.StatusOK, w.Code)
	var alerts api.AlertsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	assert.Equal(t, 1, alerts.Alerts)
	assert.Equal(t, 40.0, alerts.Data[0].PredictedRampMW)
}

func TestReportsHandler_Errors(t *testing.T) {
	router, exp := newReportsRouter(t)
	seedReports(t, exp, time.Date(2025, 3, 14, 0, 0, 0, 0, brisbane))

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/reports/2025-13-01/summary", http.StatusBadRequest},
		{"/reports/2025-03-15/summary", http.StatusNotFound},
		{"/reports/2025-03-14/units/XX99", http.StatusNotFound},
		{"/reports/2025-03-14/narrative", http.StatusNotFound},
		{"/reports/2025-03-14/files/pdf", http.StatusNotFound},
		{"/reports/2025-03-14/files/docx", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(router, tt.path)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"status"`)
		})
	}
}

func TestReportsHandler_NarrativeAndDownload(t *testing.T) {
	router, exp := newReportsRouter(t)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, brisbane)
	seedReports(t, exp, day)
	require.NoError(t, os.WriteFile(exp.Paths().NarrativePath(day), []byte("BW01 ramps up at dawn.\n"), 0o644))

	w := get(router, "/reports/2025-03-14/narrative")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"day":"2025-03-14","text":"BW01 ramps up at dawn."}`, w.Body.String())

	w = get(router, "/reports/2025-03-14/files/md")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report_2025-03-14.md")
	assert.Contains(t, w.Body.String(), "BW01")

	w = get(router, "/reports/2025-03-14/files/alerts")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "predicted_ramp_MW")
}
