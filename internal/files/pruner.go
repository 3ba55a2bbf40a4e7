package files

import (
	"context"
	"log/slog"
	"os"
	"time"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/domain"
)

// PruneResult summarizes one retention pass.
type PruneResult struct {
	Removed []string
	Bytes   int64
}

// Pruner deletes readings CSVs and downloaded zips that fell out of the
// retention window. Reports and forecasts are small and kept.
type Pruner struct {
	paths     *config.Paths
	keepDays  int
	discovery *Discovery
	logger    *slog.Logger
}

// NewPruner keeps keepDays days of raw data; zero or less keeps all.
func NewPruner(paths *config.Paths, keepDays int, loc *time.Location, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		paths:     paths,
		keepDays:  keepDays,
		discovery: NewDiscovery(loc),
		logger:    logger.With(slog.String("component", "pruner")),
	}
}

// Prune removes raw files whose day is before the window ending at now.
func (p *Pruner) Prune(ctx context.Context, now time.Time) (PruneResult, error) {
	var result PruneResult
	if p.keepDays <= 0 {
		return result, nil
	}
	cutoff := domain.FloorDay(now.In(p.discovery.loc)).AddDate(0, 0, -p.keepDays)

	targets := []struct {
		dir  string
		kind Kind
	}{
		{p.paths.ReadingsDir, KindReadings},
		{p.paths.ZipsDir, KindZip},
	}
	for _, target := range targets {
		found, err := p.discovery.Find(target.dir, target.kind)
		if err != nil {
			return result, err
		}
		for _, f := range found {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if !f.Day.Before(cutoff) {
				break
			}
			if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
				return result, apperrors.NewStorageError("failed to remove "+f.Path, err)
			}
			result.Removed = append(result.Removed, f.Path)
			result.Bytes += f.Size
		}
	}

	p.logger.InfoContext(ctx, "Retention pass complete",
		slog.String("cutoff", cutoff.Format(domain.DayLayout)),
		slog.Int("removed", len(result.Removed)),
		slog.Int64("bytes", result.Bytes))
	return result, nil
}
