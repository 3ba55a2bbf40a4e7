package http

import (
	"context"
	"time"

	"scadapulse/internal/operations"
	api "scadapulse/pkg/contracts/api/v1"
	"scadapulse/pkg/contracts/domain"
	"scadapulse/pkg/contracts/events"
)

// RunService starts and tracks pipeline runs. *operations.Runner
// satisfies it.
type RunService interface {
	Location() *time.Location
	Submit(ctx context.Context, req operations.RunRequest) (events.RunSnapshot, error)
	Get(ctx context.Context, runID string) (events.RunSnapshot, error)
	List(ctx context.Context, limit int) ([]events.RunSnapshot, error)
	Cancel(runID string) error
}

// ReportService reads finished reports. *services.ReportService
// satisfies it.
type ReportService interface {
	ParseDay(value string) (time.Time, error)
	Days(ctx context.Context) ([]string, error)
	Summary(ctx context.Context, day time.Time) (domain.DaySummary, error)
	Forecast(ctx context.Context, day time.Time) (domain.ForecastResult, error)
	Narrative(ctx context.Context, day time.Time) (string, error)
	DocumentPath(day time.Time, format string) (string, error)
}

// HealthChecker reports service health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) api.HealthResponse
	Stats() map[string]interface{}
}
