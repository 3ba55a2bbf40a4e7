package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	apperrors "scadapulse/internal/errors"
)

// Scheduler triggers the run for yesterday on a cron schedule in the
// runner's timezone.
type Scheduler struct {
	runner *Runner
	cron   *cron.Cron
	spec   string
	units  []string
	mode   string
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler validates spec and prepares the job. units and mode
// override the runner defaults when set.
func NewScheduler(runner *Runner, spec string, units []string, mode string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner: runner,
		cron:   cron.New(cron.WithLocation(runner.Location())),
		spec:   spec,
		units:  units,
		mode:   mode,
		logger: logger.With(slog.String("component", "scheduler")),
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(spec, s.runJob); err != nil {
		cancel()
		return nil, apperrors.NewConfigError(fmt.Sprintf("invalid schedule %q", spec), err)
	}
	return s, nil
}

// AddJob registers a housekeeping job on its own spec. Jobs share the
// scheduler's context, so Stop cancels them too.
func (s *Scheduler) AddJob(spec, name string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := fn(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Scheduled job failed",
				slog.String("job", name),
				slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("invalid schedule %q for %s", spec, name), err)
	}
	s.logger.Info("Scheduled job registered", slog.String("job", name), slog.String("spec", spec))
	return nil
}

// Start begins firing the schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	entries := s.cron.Entries()
	if len(entries) > 0 {
		s.logger.Info("Scheduler started",
			slog.String("spec", s.spec),
			slog.Time("next_run", entries[0].Next))
	}
}

// Stop halts the schedule, cancels a run in flight and waits for the
// job to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger runs the scheduled job immediately and waits for it.
func (s *Scheduler) Trigger(ctx context.Context) error {
	_, err := s.runner.Run(ctx, RunRequest{
		Units:   s.units,
		Mode:    s.mode,
		Trigger: TriggerSchedule,
	})
	return err
}

func (s *Scheduler) runJob() {
	day := s.runner.Yesterday()
	s.logger.Info("Scheduled run starting", slog.String("day", day.Format("2006-01-02")))

	err := s.Trigger(s.ctx)
	switch {
	case err == nil:
	case apperrors.IsType(err, apperrors.ErrTypeConflict):
		s.logger.Warn("Scheduled run skipped", slog.String("error", err.Error()))
	case errors.Is(s.ctx.Err(), context.Canceled):
		s.logger.Info("Scheduled run cancelled")
	default:
		s.logger.Error("Scheduled run failed", slog.String("error", err.Error()))
	}
}
