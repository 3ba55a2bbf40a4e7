package narrative

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"scadapulse/pkg/contracts/domain"
)

const (
	// SystemPrompt sets the voice of chat-model narratives.
	SystemPrompt = "You are a senior power plant O&M engineer."

	// MaxPromptBytes caps the prompt; trailing forecast lines are dropped first.
	MaxPromptBytes = 16 << 10
)

type hourKey struct {
	unit string
	hour int
}

// BuildPrompt renders one KPI line per unit followed by the hourly mean of
// the next-day forecast per unit and hour.
func BuildPrompt(summary domain.DaySummary, forecast []domain.ForecastPoint) string {
	lines := []string{"# KPIs and anomalies summary"}
	for _, s := range summary.Summaries() {
		lines = append(lines, fmt.Sprintf("%s | anomalies=%d, ramp95=%.1f, trend=%+.1f MW/h",
			s.UnitID, s.Anomalies, s.Ramp95p, s.SlopeMWPerHr))
	}

	means := HourlyForecastMeans(forecast)
	if len(means) > 0 {
		lines = append(lines, "\n# Forecast hourly mean MW")
		for _, m := range means {
			lines = append(lines, fmt.Sprintf("%s h%02d=%.1f", m.UnitID, m.Hour, m.MeanMW))
		}
	}

	size := 0
	for i, l := range lines {
		size += len(l) + 1
		if size > MaxPromptBytes {
			lines = lines[:i]
			break
		}
	}
	return strings.Join(lines, "\n")
}

// UnitHourMean is the mean forecast of one unit over one clock hour.
type UnitHourMean struct {
	UnitID string
	Hour   int
	MeanMW float64
}

// HourlyForecastMeans averages finite forecast values per unit and hour,
// rounded to one decimal, ordered by unit then hour.
func HourlyForecastMeans(forecast []domain.ForecastPoint) []UnitHourMean {
	sums := make(map[hourKey]float64)
	counts := make(map[hourKey]int)
	for _, p := range forecast {
		if math.IsNaN(p.PowerHatMW) {
			continue
		}
		k := hourKey{unit: p.UnitID, hour: p.Timestamp.Hour()}
		sums[k] += p.PowerHatMW
		counts[k]++
	}

	out := make([]UnitHourMean, 0, len(sums))
	for k, sum := range sums {
		out = append(out, UnitHourMean{
			UnitID: k.unit,
			Hour:   k.hour,
			MeanMW: math.Round(sum/float64(counts[k])*10) / 10,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitID != out[j].UnitID {
			return out[i].UnitID < out[j].UnitID
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}
