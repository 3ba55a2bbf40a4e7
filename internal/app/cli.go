package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
	"scadapulse/internal/exporter"
	"scadapulse/internal/infrastructure"
	"scadapulse/internal/validation"
	"scadapulse/pkg/contracts/domain"
)

// CLI is the shared setup of the command line tools. Logs go to stderr so
// stdout stays free for command output.
type CLI struct {
	Config     *config.Config
	Logger     *slog.Logger
	Components *Components
}

// NewCLI loads configFile (or the default search path when empty) and
// builds the pipeline components. inputDir switches retrieval to local
// zips.
func NewCLI(ctx context.Context, configFile, inputDir string) (*CLI, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	components, err := NewComponents(ctx, cfg, inputDir, nil, logger)
	if err != nil {
		return nil, err
	}
	return &CLI{Config: cfg, Logger: logger, Components: components}, nil
}

// ResolveDay parses a -day flag in loc. Empty and "yesterday" mean the
// previous calendar day, "today" the current one.
func ResolveDay(value string, now time.Time, loc *time.Location) (time.Time, error) {
	today := domain.FloorDay(now.In(loc))
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "today":
		return today, nil
	}
	day, err := time.ParseInLocation(domain.DayLayout, value, loc)
	if err != nil {
		return time.Time{}, apperrors.NewAppValidationError(fmt.Sprintf("invalid day %q, want yyyy-mm-dd", value))
	}
	return day, nil
}

// LoadReadings reads a readings CSV, defaulting to the newest one in the
// readings directory. It also returns the day the readings start on.
func (c *CLI) LoadReadings(path string) ([]domain.Reading, time.Time, error) {
	if path == "" {
		latest, err := c.Components.Paths.LatestReadingsCSV()
		if err != nil {
			return nil, time.Time{}, apperrors.NewNotFoundError("readings CSV")
		}
		path = latest
	} else if err := validation.NewFileValidator(c.Logger).ValidateReadingsCSV(path); err != nil {
		return nil, time.Time{}, err
	}
	readings, err := exporter.ReadReadings(path, c.Components.Location)
	if err != nil {
		return nil, time.Time{}, err
	}
	first, ok := domain.MinTimestamp(readings)
	if !ok {
		return nil, time.Time{}, apperrors.NewAppValidationError(fmt.Sprintf("%s holds no readings", path))
	}
	c.Logger.Info("Loaded readings",
		slog.String("path", path),
		slog.Int("rows", len(readings)))
	return readings, domain.FloorDay(first), nil
}
