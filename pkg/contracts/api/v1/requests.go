// Package api contains the request and response contracts of the v1 HTTP API.
package api

import (
	"scadapulse/pkg/contracts/domain"
	"scadapulse/pkg/contracts/events"
)

// RunRequest starts a pipeline run for one trading day.
type RunRequest struct {
	// Day defaults to yesterday in the analysis timezone.
	Day   string   `json:"day" validate:"omitempty,datetime=2006-01-02"`
	Units []string `json:"units" validate:"omitempty,max=200,dive,unitid"`
	Mode  string   `json:"mode" validate:"omitempty,oneof=auto archive current"`
	// Documents also renders the XLSX and PDF reports.
	Documents bool `json:"documents"`
}

// RunListRequest filters the run list.
type RunListRequest struct {
	Status string `json:"status" query:"status" validate:"omitempty,oneof=pending running completed failed cancelled"`
	Limit  int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
}

// RunResponse is returned when a run is accepted or looked up.
type RunResponse struct {
	Run events.RunSnapshot `json:"run"`
}

// RunListResponse lists runs, newest first.
type RunListResponse struct {
	Runs  []events.RunSnapshot `json:"runs"`
	Count int                  `json:"count"`
}

// SummaryResponse wraps the day report.
type SummaryResponse struct {
	Day   string            `json:"day"`
	Units int               `json:"units"`
	Data  domain.DaySummary `json:"data"`
}

// ForecastResponse wraps the next-day forecast of a day.
type ForecastResponse struct {
	Day    string                 `json:"day"`
	Points int                    `json:"points"`
	Data   []domain.ForecastPoint `json:"data"`
}

// AlertsResponse wraps the ramp alerts of a day.
type AlertsResponse struct {
	Day    string             `json:"day"`
	Alerts int                `json:"alerts"`
	Data   []domain.RampAlert `json:"data"`
}

// NarrativeResponse carries the operator status text of a day.
type NarrativeResponse struct {
	Day  string `json:"day"`
	Text string `json:"text"`
}

// HealthResponse reports service health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Uptime     string            `json:"uptime"`
	Components map[string]string `json:"components,omitempty"`
}
