package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultForecastAlpha  = 0.3
	DefaultRampAlertSigma = 2.0
)

var (
	// ForecastColumns is the column schema of a forecast table.
	ForecastColumns = []string{"timestamp", "unit_id", "power_hat_MW"}

	// RampAlertColumns is the column schema of a ramp alert table.
	RampAlertColumns = []string{"timestamp", "unit_id", "predicted_ramp_MW"}
)

// ForecastPoint is one predicted 5-minute slot of the next day.
type ForecastPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	UnitID     string    `json:"unit_id"`
	PowerHatMW float64   `json:"power_hat_MW"`
}

// RampAlert marks a forecast slot whose predicted change from the previous
// slot meets the unit's alert threshold.
type RampAlert struct {
	Timestamp       time.Time `json:"timestamp"`
	UnitID          string    `json:"unit_id"`
	PredictedRampMW float64   `json:"predicted_ramp_MW"`
}

// ForecastResult holds the forecast and alert tables of a batch, unit-major
// and time-ascending. Both slices are non-nil even when empty.
type ForecastResult struct {
	Forecast []ForecastPoint `json:"forecast"`
	Alerts   []RampAlert     `json:"ramp_alerts"`
}

// NewForecastResult returns an empty, well-formed result.
func NewForecastResult() ForecastResult {
	return ForecastResult{
		Forecast: []ForecastPoint{},
		Alerts:   []RampAlert{},
	}
}

// ForecastConfig parameterizes the next-day forecaster.
type ForecastConfig struct {
	// Alpha is the smoothing factor, in (0,1].
	Alpha float64 `json:"alpha" yaml:"alpha" envconfig:"ALPHA"`
	// RampAlertSigma scales the historical ramp deviation into an alert threshold.
	RampAlertSigma float64 `json:"ramp_alert_sigma" yaml:"ramp_alert_sigma" envconfig:"RAMP_ALERT_SIGMA"`
}

// DefaultForecastConfig returns the stock forecaster parameters.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Alpha:          DefaultForecastAlpha,
		RampAlertSigma: DefaultRampAlertSigma,
	}
}

// Validate rejects parameters outside their domain.
func (c ForecastConfig) Validate() error {
	if math.IsNaN(c.Alpha) || c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0,1], got %v", c.Alpha)
	}
	if math.IsNaN(c.RampAlertSigma) || math.IsInf(c.RampAlertSigma, 0) || c.RampAlertSigma < 0 {
		return fmt.Errorf("ramp alert sigma must be a finite value >= 0, got %v", c.RampAlertSigma)
	}
	return nil
}
