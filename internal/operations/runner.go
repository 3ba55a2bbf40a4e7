package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "scadapulse/internal/errors"
	"scadapulse/internal/infrastructure"
	"scadapulse/internal/storage"
	"scadapulse/pkg/contracts/domain"
	"scadapulse/pkg/contracts/events"
)

// Retrieval modes accepted by a run.
const (
	ModeAuto    = "auto"
	ModeArchive = "archive"
	ModeCurrent = "current"
)

// RunRequest asks for one daily run. A zero Day means yesterday in the
// runner's location; empty Units and Mode take the runner defaults.
type RunRequest struct {
	Day       time.Time
	Units     []string
	Mode      string
	Documents bool
	Trigger   string
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Location     *time.Location
	DefaultUnits []string
	DefaultMode  string
	// RunTimeout bounds a whole run; zero means no bound.
	RunTimeout time.Duration
}

type activeRun struct {
	day     string
	ctx     context.Context
	cancel  context.CancelFunc
	tracker *StatusTracker
}

// Runner starts pipeline runs, tracks the active ones and answers status
// queries from the status store.
type Runner struct {
	pipeline *Pipeline
	store    storage.StatusStore
	hub      SnapshotBroadcaster
	metrics  *infrastructure.PipelineMetrics
	opts     RunnerOptions
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]*activeRun
	wg     sync.WaitGroup

	baseCtx    context.Context
	baseCancel context.CancelFunc
	now        func() time.Time
}

// NewRunner creates a runner. store, hub and metrics may be nil.
func NewRunner(pipeline *Pipeline, store storage.StatusStore, hub SnapshotBroadcaster, opts RunnerOptions, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = ModeAuto
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		pipeline:   pipeline,
		store:      store,
		hub:        hub,
		metrics:    pipeline.Metrics(),
		opts:       opts,
		logger:     logger.With(slog.String("component", "runner")),
		active:     make(map[string]*activeRun),
		baseCtx:    ctx,
		baseCancel: cancel,
		now:        time.Now,
	}
}

// Location returns the timezone runs are scheduled in.
func (r *Runner) Location() *time.Location { return r.opts.Location }

// Yesterday returns the previous calendar day in the runner's location.
func (r *Runner) Yesterday() time.Time {
	now := r.now().In(r.opts.Location)
	return time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, r.opts.Location)
}

// Submit starts a run in the background and returns its first snapshot.
// Only one run per day may be active at a time.
func (r *Runner) Submit(ctx context.Context, req RunRequest) (events.RunSnapshot, error) {
	run, state, err := r.start(ctx, r.baseCtx, req)
	if err != nil {
		return events.RunSnapshot{}, err
	}
	snap := run.tracker.Snapshot()

	go func() {
		defer r.wg.Done()
		runCtx, cancel := r.runContext(run)
		defer cancel()
		_ = r.execute(runCtx, run, state)
	}()
	return snap, nil
}

// Run executes a run synchronously and returns its final snapshot
// together with the pipeline error, if any.
func (r *Runner) Run(ctx context.Context, req RunRequest) (events.RunSnapshot, error) {
	run, state, err := r.start(ctx, ctx, req)
	if err != nil {
		return events.RunSnapshot{}, err
	}
	defer r.wg.Done()

	runCtx, cancel := r.runContext(run)
	defer cancel()
	err = r.execute(runCtx, run, state)
	return run.tracker.Snapshot(), err
}

// Get returns the snapshot of a run, active or stored.
func (r *Runner) Get(ctx context.Context, runID string) (events.RunSnapshot, error) {
	r.mu.Lock()
	run, ok := r.active[runID]
	r.mu.Unlock()
	if ok {
		return run.tracker.Snapshot(), nil
	}
	if r.store == nil {
		return events.RunSnapshot{}, apperrors.NewNotFoundError("run " + runID)
	}
	return r.store.Get(ctx, runID)
}

// List returns the most recent runs, newest first.
func (r *Runner) List(ctx context.Context, limit int) ([]events.RunSnapshot, error) {
	if r.store != nil {
		return r.store.List(ctx, limit)
	}

	r.mu.Lock()
	runs := make([]events.RunSnapshot, 0, len(r.active))
	for _, run := range r.active {
		runs = append(runs, run.tracker.Snapshot())
	}
	r.mu.Unlock()
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Active returns the number of runs in progress.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Cancel stops an active run.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	run, ok := r.active[runID]
	r.mu.Unlock()
	if !ok {
		return apperrors.NewNotFoundError("active run " + runID)
	}
	run.cancel()
	r.logger.Info("Run cancellation requested", slog.String("run_id", runID))
	return nil
}

// Shutdown cancels background runs and waits for them to finish or for
// ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	// Cancelling under mu orders it before any later wg.Add in start.
	r.mu.Lock()
	r.baseCancel()
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("runner shutdown: %w", ctx.Err())
	}
}

// normalize fills request defaults and validates the retrieval mode.
func (r *Runner) normalize(req RunRequest) (RunRequest, error) {
	if req.Day.IsZero() {
		req.Day = r.Yesterday()
	} else {
		d := req.Day.In(r.opts.Location)
		req.Day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, r.opts.Location)
	}
	if len(req.Units) == 0 {
		req.Units = append([]string(nil), r.opts.DefaultUnits...)
	}
	if req.Mode == "" {
		req.Mode = r.opts.DefaultMode
	}
	switch req.Mode {
	case ModeAuto, ModeArchive, ModeCurrent:
	default:
		return req, apperrors.NewAppValidationError(fmt.Sprintf("unknown retrieval mode %q", req.Mode))
	}
	if req.Trigger == "" {
		req.Trigger = TriggerAPI
	}
	return req, nil
}

// start registers a new active run. The caller owns one wg slot.
func (r *Runner) start(ctx, parent context.Context, req RunRequest) (*activeRun, *State, error) {
	req, err := r.normalize(req)
	if err != nil {
		return nil, nil, err
	}
	day := req.Day.Format(domain.DayLayout)
	runID := uuid.New().String()

	r.mu.Lock()
	if r.baseCtx.Err() != nil {
		r.mu.Unlock()
		return nil, nil, apperrors.NewUnavailableError("runner is shutting down", r.baseCtx.Err())
	}
	for id, run := range r.active {
		if run.day == day {
			r.mu.Unlock()
			return nil, nil, apperrors.NewConflictError(fmt.Sprintf("run %s for %s is already in progress", id, day))
		}
	}
	now := r.now()
	snap := events.RunSnapshot{
		RunID:     runID,
		Day:       day,
		Units:     req.Units,
		Mode:      req.Mode,
		Trigger:   req.Trigger,
		Status:    events.StatusPending,
		Stages:    r.pipeline.PendingStages(),
		StartedAt: now,
		UpdatedAt: now,
		Message:   "Run queued",
	}
	runCtx, cancel := context.WithCancel(parent)
	run := &activeRun{
		day:     day,
		ctx:     runCtx,
		cancel:  cancel,
		tracker: NewStatusTracker(snap, r.store, r.hub, r.logger),
	}
	run.tracker.now = r.now
	r.active[runID] = run
	r.wg.Add(1)
	r.mu.Unlock()

	run.tracker.Update(ctx, func(*events.RunSnapshot) {})

	state := NewState(runID, req.Day, req.Units, req.Mode)
	state.Documents = req.Documents

	r.logger.InfoContext(ctx, "Run accepted",
		slog.String("run_id", runID),
		slog.String("day", day),
		slog.String("trigger", req.Trigger),
		slog.Any("units", req.Units))
	return run, state, nil
}

// runContext applies the run timeout to the run's context.
func (r *Runner) runContext(run *activeRun) (context.Context, context.CancelFunc) {
	if r.opts.RunTimeout > 0 {
		return context.WithTimeout(run.ctx, r.opts.RunTimeout)
	}
	return context.WithCancel(run.ctx)
}

// execute runs the pipeline and releases the run's day.
func (r *Runner) execute(ctx context.Context, run *activeRun, state *State) error {
	r.metrics.RunStarted(ctx)
	started := r.now()

	err := r.pipeline.Execute(ctx, state, run.tracker)
	final := run.tracker.Snapshot()
	r.metrics.RunFinished(context.WithoutCancel(ctx), final.Status)

	r.mu.Lock()
	delete(r.active, state.RunID)
	r.mu.Unlock()
	run.cancel()

	attrs := []any{
		slog.String("run_id", state.RunID),
		slog.String("day", state.DayString()),
		slog.String("status", final.Status),
		slog.Duration("duration", r.now().Sub(started)),
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Run finished with error", append(attrs, slog.String("error", err.Error()))...)
	} else {
		r.logger.InfoContext(ctx, "Run finished", append(attrs, slog.Int("artifacts", len(state.Artifacts)))...)
	}
	return err
}
