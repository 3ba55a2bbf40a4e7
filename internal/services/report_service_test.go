package services_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
	"scadapulse/internal/exporter"
	"scadapulse/internal/services"
	"scadapulse/pkg/contracts/domain"
)

func newReportService(t *testing.T) (*services.ReportService, *exporter.Exporter, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Brisbane")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exp := exporter.NewExporter(config.NewPaths(config.PathsConfig{DataDir: t.TempDir()}), logger)
	return services.NewReportService(exp, loc, logger), exp, loc
}

func TestReportService_ParseDay(t *testing.T) {
	svc, _, loc := newReportService(t)

	day, err := svc.ParseDay("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, loc), day)

	for _, bad := range []string{"", "14-03-2025", "2025-02-30", "yesterday"} {
		_, err := svc.ParseDay(bad)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation), bad)
	}
}

func TestReportService_DaysAndLookups(t *testing.T) {
	ctx := context.Background()
	svc, exp, loc := newReportService(t)

	days, err := svc.Days(ctx)
	require.NoError(t, err)
	assert.Empty(t, days)

	for _, d := range []int{12, 14, 13} {
		day := time.Date(2025, 3, d, 0, 0, 0, 0, loc)
		_, err := exp.ExportSummary(day, domain.NewDaySummary(domain.DuidSummary{
			UnitID: "UNIT1",
			Day:    day.Format(domain.DayLayout),
			NRows:  288,
			PMean:  42,
		}))
		require.NoError(t, err)
	}

	days, err = svc.Days(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-14", "2025-03-13", "2025-03-12"}, days)

	day := time.Date(2025, 3, 14, 0, 0, 0, 0, loc)
	summary, err := svc.Summary(ctx, day)
	require.NoError(t, err)
	s, ok := summary.Get("UNIT1")
	require.True(t, ok)
	assert.Equal(t, 42.0, s.PMean)

	path, err := svc.DocumentPath(day, services.FormatMarkdown)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = svc.DocumentPath(day, services.FormatPDF)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	_, err = svc.DocumentPath(day, "docx")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	_, err = svc.Forecast(ctx, day)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestReportService_Narrative(t *testing.T) {
	ctx := context.Background()
	svc, exp, loc := newReportService(t)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, loc)

	_, err := svc.Narrative(ctx, day)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	path := exp.Paths().NarrativePath(day)
	require.NoError(t, os.MkdirAll(exp.Paths().ReportsDir, 0o755))
	require.NoError(t, os.WriteFile(path, []byte("All units steady.\n"), 0o644))

	text, err := svc.Narrative(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "All units steady.", text)
}
