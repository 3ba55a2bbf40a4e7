package narrative

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"scadapulse/pkg/contracts/domain"
)

// Request carries everything a narrator may draw on for one trading day.
type Request struct {
	Day      time.Time
	Summary  domain.DaySummary
	Forecast []domain.ForecastPoint
	// Prompt is filled by BuildPrompt when left empty.
	Prompt string
}

func (r Request) prompt() string {
	if r.Prompt != "" {
		return r.Prompt
	}
	return BuildPrompt(r.Summary, r.Forecast)
}

// Narrator turns a day's KPIs into a short operator status text.
type Narrator interface {
	Narrate(ctx context.Context, req Request) (string, error)
}

// TemplateNarrator writes a deterministic status paragraph without any
// external service.
type TemplateNarrator struct{}

// Narrate implements Narrator.
func (TemplateNarrator) Narrate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	day := req.Day.Format(domain.DayLayout)
	summaries := req.Summary.Summaries()
	if len(summaries) == 0 {
		return fmt.Sprintf("%s: no SCADA data was available for review.", day), nil
	}

	parts := []string{fmt.Sprintf("%s: %d units reviewed.", day, len(summaries))}

	var flagged []string
	for _, s := range summaries {
		if s.Anomalies > 0 {
			flagged = append(flagged, fmt.Sprintf("%s (%d)", s.UnitID, s.Anomalies))
		}
	}
	if len(flagged) > 0 {
		parts = append(parts, "Anomalies on "+strings.Join(flagged, ", ")+".")
	} else {
		parts = append(parts, "No anomalies detected.")
	}

	byRamp := append([]domain.DuidSummary(nil), summaries...)
	sort.SliceStable(byRamp, func(i, j int) bool { return byRamp[i].Ramp95p > byRamp[j].Ramp95p })
	parts = append(parts, fmt.Sprintf("Steepest ramping: %s at %.1f MW per 5 min (95th percentile).",
		byRamp[0].UnitID, byRamp[0].Ramp95p))

	byTrend := append([]domain.DuidSummary(nil), summaries...)
	sort.SliceStable(byTrend, func(i, j int) bool {
		return math.Abs(byTrend[i].SlopeMWPerHr) > math.Abs(byTrend[j].SlopeMWPerHr)
	})
	parts = append(parts, fmt.Sprintf("Strongest intraday trend: %s at %+.1f MW/h.",
		byTrend[0].UnitID, byTrend[0].SlopeMWPerHr))

	var outages []string
	for _, s := range summaries {
		if len(s.Outages) > 0 {
			outages = append(outages, s.UnitID)
		}
	}
	if len(outages) > 0 {
		parts = append(parts, "Outage-like zero segments on "+strings.Join(outages, ", ")+".")
	}

	if means := HourlyForecastMeans(req.Forecast); len(means) > 0 {
		peak := means[0]
		for _, m := range means[1:] {
			if m.MeanMW > peak.MeanMW {
				peak = m
			}
		}
		parts = append(parts, fmt.Sprintf("Next-day peak forecast: %s at %.1f MW around %02d:00.",
			peak.UnitID, peak.MeanMW, peak.Hour))
	}

	return strings.Join(parts, " "), nil
}
