package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"time"

	"scadapulse/internal/errors"
	"scadapulse/internal/timeseries"
	"scadapulse/pkg/contracts/domain"
)

// Forecaster projects each unit's power over the day after its input day
// and derives ramp alerts from the projection.
//
// The projection is mean reverting: it starts at the end-of-day smoothed
// level and decays geometrically toward the day's mean. It does not
// reproduce the diurnal shape of the input.
type Forecaster struct {
	logger *slog.Logger
	cfg    domain.ForecastConfig
}

// NewForecaster creates a forecaster. The configuration is validated when
// Forecast is called.
func NewForecaster(logger *slog.Logger, cfg domain.ForecastConfig) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forecaster{
		logger: logger.With(slog.String("component", "forecaster")),
		cfg:    cfg,
	}
}

// Forecast produces the next-day forecast and ramp alerts of every unit in
// readings. The forecast day follows the floor of the batch's earliest
// timestamp. Output is unit-major in ascending unit order, time-ascending
// within a unit. Empty input yields an empty, well-formed result.
func (f *Forecaster) Forecast(ctx context.Context, readings []domain.Reading) (domain.ForecastResult, error) {
	if err := f.cfg.Validate(); err != nil {
		return domain.ForecastResult{}, errors.NewAppValidationError(err.Error()).
			WithContext("alpha", f.cfg.Alpha).
			WithContext("ramp_alert_sigma", f.cfg.RampAlertSigma)
	}

	result := domain.NewForecastResult()
	earliest, ok := domain.MinTimestamp(readings)
	if !ok {
		f.logger.InfoContext(ctx, "no readings to forecast")
		return result, nil
	}
	day0 := domain.FloorDay(earliest)

	groups := domain.GroupByUnit(readings)
	for _, unit := range domain.SortedUnitIDs(groups) {
		points, alerts := f.ForecastUnit(unit, groups[unit], day0)
		result.Forecast = append(result.Forecast, points...)
		result.Alerts = append(result.Alerts, alerts...)
	}

	f.logger.InfoContext(ctx, "forecast complete",
		slog.String("input_day", day0.Format(domain.DayLayout)),
		slog.Int("units", len(groups)),
		slog.Int("points", len(result.Forecast)),
		slog.Int("alerts", len(result.Alerts)))
	return result, nil
}

// ForecastUnit forecasts one unit for the day after day0. It returns nil
// slices for a unit without readings. The configuration is assumed valid.
func (f *Forecaster) ForecastUnit(unitID string, readings []domain.Reading, day0 time.Time) ([]domain.ForecastPoint, []domain.RampAlert) {
	if len(readings) == 0 {
		return nil, nil
	}

	sorted := make([]domain.Reading, len(readings))
	copy(sorted, readings)
	domain.SortByTime(sorted)

	raw := make([]float64, len(sorted))
	for i, r := range sorted {
		raw[i] = r.PowerMW
	}
	values := timeseries.ForwardFill(raw, 0)

	alpha := f.cfg.Alpha
	level := smoothedLevel(values, alpha)
	meanLevel := timeseries.Mean(values)

	start := day0.AddDate(0, 0, 1)
	points := make([]domain.ForecastPoint, domain.SlotsPerDay)
	for i := range points {
		level = alpha*meanLevel + (1-alpha)*level
		points[i] = domain.ForecastPoint{
			Timestamp:  start.Add(time.Duration(i) * domain.SampleInterval),
			UnitID:     unitID,
			PowerHatMW: level,
		}
	}

	threshold := f.cfg.RampAlertSigma * timeseries.PopulationStdDev(timeseries.Diff(values))
	if threshold <= 0 || math.IsNaN(threshold) {
		return points, nil
	}

	var alerts []domain.RampAlert
	for i, delta := range RampDeltas(points) {
		if delta >= threshold {
			alerts = append(alerts, domain.RampAlert{
				Timestamp:       points[i].Timestamp,
				UnitID:          unitID,
				PredictedRampMW: delta,
			})
		}
	}
	return points, alerts
}

// smoothedLevel runs simple exponential smoothing and returns the last
// smoothed value: s[0] = v[0], s[i] = alpha*v[i-1] + (1-alpha)*s[i-1].
func smoothedLevel(values []float64, alpha float64) float64 {
	level := values[0]
	for i := 1; i < len(values); i++ {
		level = alpha*values[i-1] + (1-alpha)*level
	}
	return level
}

// RampDeltas returns the absolute slot-to-slot change of a forecast curve.
// The first slot is compared with itself and is always 0.
func RampDeltas(points []domain.ForecastPoint) []float64 {
	deltas := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		deltas[i] = math.Abs(points[i].PowerHatMW - points[i-1].PowerHatMW)
	}
	return deltas
}
