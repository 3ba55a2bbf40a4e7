package operations

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"scadapulse/internal/storage"
	"scadapulse/pkg/contracts/events"
)

// StatusTracker is the single authority for one run's snapshot. Every
// update is persisted to the status store and broadcast to live clients.
type StatusTracker struct {
	mu     sync.Mutex
	snap   events.RunSnapshot
	store  storage.StatusStore
	hub    SnapshotBroadcaster
	logger *slog.Logger
	now    func() time.Time
}

// NewStatusTracker starts tracking snap. store and hub may be nil.
func NewStatusTracker(snap events.RunSnapshot, store storage.StatusStore, hub SnapshotBroadcaster, logger *slog.Logger) *StatusTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusTracker{
		snap:   snap,
		store:  store,
		hub:    hub,
		logger: logger,
		now:    time.Now,
	}
}

// Update implements StatusSink.
func (t *StatusTracker) Update(ctx context.Context, fn func(snap *events.RunSnapshot)) {
	t.mu.Lock()
	fn(&t.snap)
	t.snap.UpdatedAt = t.now()
	t.snap.Progress = stageProgress(t.snap.Stages)
	if t.snap.Terminal() && t.snap.CompletedAt == nil {
		completed := t.snap.UpdatedAt
		t.snap.CompletedAt = &completed
	}
	snap := cloneSnapshot(t.snap)
	t.mu.Unlock()

	t.publish(ctx, snap)
}

// Snapshot returns a copy of the current snapshot.
func (t *StatusTracker) Snapshot() events.RunSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneSnapshot(t.snap)
}

func (t *StatusTracker) publish(ctx context.Context, snap events.RunSnapshot) {
	if t.store != nil {
		// Status persistence failures are logged, never returned.
		if err := t.store.Save(context.WithoutCancel(ctx), snap); err != nil {
			t.logger.WarnContext(ctx, "Failed to save run status",
				slog.String("run_id", snap.RunID),
				slog.String("error", err.Error()))
		}
	}
	if t.hub != nil {
		t.hub.BroadcastRunSnapshot(snap)
	}
}

// stageProgress is the share of stages that reached a final state.
func stageProgress(stages []events.StageSnapshot) int {
	if len(stages) == 0 {
		return 0
	}
	done := 0
	for _, s := range stages {
		switch s.Status {
		case events.StatusCompleted, events.StatusSkipped, events.StatusFailed:
			done++
		}
	}
	return done * 100 / len(stages)
}

func cloneSnapshot(s events.RunSnapshot) events.RunSnapshot {
	out := s
	out.Units = append([]string(nil), s.Units...)
	out.Artifacts = append([]string(nil), s.Artifacts...)
	out.Stages = make([]events.StageSnapshot, len(s.Stages))
	copy(out.Stages, s.Stages)
	if s.CompletedAt != nil {
		completed := *s.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}

// updateStage applies fn to the stage with id, if present.
func updateStage(snap *events.RunSnapshot, id string, fn func(stage *events.StageSnapshot)) {
	for i := range snap.Stages {
		if snap.Stages[i].ID == id {
			fn(&snap.Stages[i])
			return
		}
	}
}
