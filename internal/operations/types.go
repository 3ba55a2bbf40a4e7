package operations

import (
	"time"
)

// Stage IDs of the daily pipeline, in execution order.
const (
	StageIDFetch     = "fetch"
	StageIDSummarize = "summarize"
	StageIDForecast  = "forecast"
	StageIDExport    = "export"
	StageIDNarrate   = "narrate"
	StageIDPublish   = "publish"
)

// Run triggers.
const (
	TriggerAPI      = "api"
	TriggerSchedule = "schedule"
	TriggerCLI      = "cli"
)

// Stage timeouts
const (
	DefaultStageTimeout = 10 * time.Minute
	DefaultFetchTimeout = 30 * time.Minute
)

// RetryConfig defines retry behavior for stages failing with transient
// network errors.
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 5 * time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
	}
}

// Delay returns the wait before attempt (1-based) is retried.
func (c RetryConfig) Delay(attempt int) time.Duration {
	delay := float64(c.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= c.Multiplier
	}
	if d := time.Duration(delay); d < c.MaxDelay {
		return d
	}
	return c.MaxDelay
}
