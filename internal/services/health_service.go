package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"scadapulse/internal/storage"
	api "scadapulse/pkg/contracts/api/v1"
)

// Health states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// ClientCounter reports connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// RunCounter reports runs in progress.
type RunCounter interface {
	Active() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	store     storage.StatusStore
	hub       ClientCounter
	runs      RunCounter
	scheduled bool
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. Any dependency may be nil.
func NewHealthService(version string, store storage.StatusStore, hub ClientCounter, runs RunCounter, scheduled bool, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		store:     store,
		hub:       hub,
		runs:      runs,
		scheduled: scheduled,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck probes the status store and reports component states.
func (hs *HealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	resp := api.HealthResponse{
		Status:     StatusHealthy,
		Version:    hs.version,
		Uptime:     time.Since(hs.startTime).Round(time.Second).String(),
		Components: map[string]string{},
	}

	if hs.store != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if _, err := hs.store.List(probeCtx, 1); err != nil {
			hs.logger.WarnContext(ctx, "Status store probe failed", slog.String("error", err.Error()))
			resp.Components["status_store"] = StatusUnhealthy
			resp.Status = StatusDegraded
		} else {
			resp.Components["status_store"] = StatusHealthy
		}
	}
	if hs.scheduled {
		resp.Components["scheduler"] = "enabled"
	} else {
		resp.Components["scheduler"] = "disabled"
	}
	return resp
}

// Stats returns runtime counters for the status page.
func (hs *HealthService) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"uptime_seconds": time.Since(hs.startTime).Seconds(),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
	}
	if hs.hub != nil {
		stats["websocket_clients"] = hs.hub.ClientCount()
	}
	if hs.runs != nil {
		stats["active_runs"] = hs.runs.Active()
	}
	return stats
}
