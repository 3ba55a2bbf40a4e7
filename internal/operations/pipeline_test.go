package operations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "scadapulse/internal/errors"
	"scadapulse/internal/operations"
	"scadapulse/internal/operations/testutil"
	"scadapulse/pkg/contracts/events"
)

var testDay = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func fastConfig() *operations.Config {
	cfg := operations.NewConfig()
	cfg.RetryConfig.InitialDelay = time.Millisecond
	cfg.RetryConfig.MaxDelay = 5 * time.Millisecond
	return cfg
}

func newPipeline(t *testing.T, cfg *operations.Config, stages ...operations.Stage) *operations.Pipeline {
	t.Helper()
	registry := operations.NewRegistry()
	for _, s := range stages {
		require.NoError(t, registry.Register(s))
	}
	return operations.NewPipeline(registry, cfg, nil, nil)
}

// execute runs p with a tracker and returns the final snapshot.
func execute(t *testing.T, ctx context.Context, p *operations.Pipeline) (events.RunSnapshot, *operations.State, error) {
	t.Helper()
	state := operations.NewState("run-1", testDay, []string{"UNIT1"}, "auto")
	tracker := operations.NewStatusTracker(events.RunSnapshot{
		RunID:  "run-1",
		Day:    "2024-01-15",
		Status: events.StatusPending,
		Stages: p.PendingStages(),
	}, nil, nil, nil)
	err := p.Execute(ctx, state, tracker)
	return tracker.Snapshot(), state, err
}

func stageStatuses(snap events.RunSnapshot) map[string]string {
	out := make(map[string]string, len(snap.Stages))
	for _, s := range snap.Stages {
		out[s.ID] = s.Status
	}
	return out
}

func TestRegistry(t *testing.T) {
	r := operations.NewRegistry()

	require.NoError(t, r.Register(testutil.NewMockStage("b")))
	require.NoError(t, r.Register(testutil.NewMockStage("a")))
	assert.Error(t, r.Register(testutil.NewMockStage("a")), "duplicate")
	assert.Error(t, r.Register(testutil.NewMockStage("")), "empty id")
	assert.Error(t, r.Register(nil))

	assert.Equal(t, []string{"b", "a"}, r.ListIDs())
	assert.Equal(t, 2, r.Count())

	s, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", s.ID())

	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  operations.ErrorType
		retryable bool
	}{
		{"network cause", operations.NewExecutionError("fetch", apperrors.NewNetworkError("503", nil)), operations.ErrorTypeExecution, true},
		{"parsing cause", operations.NewExecutionError("fetch", apperrors.NewParsingError("bad csv", nil)), operations.ErrorTypeExecution, false},
		{"timeout", operations.NewTimeoutError("fetch", "1s"), operations.ErrorTypeTimeout, false},
		{"cancel", operations.NewCancellationError("fetch"), operations.ErrorTypeCancellation, false},
		{"skip", operations.SkipStage("nothing to do"), operations.ErrorTypeSkipped, false},
		{"foreign", errors.New("boom"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, operations.GetErrorType(tt.err))
			assert.Equal(t, tt.retryable, operations.IsRetryable(tt.err))
		})
	}

	assert.True(t, operations.IsSkip(operations.SkipStage("x")))
	assert.Equal(t, "[timeout] fetch: stage timed out after 1s", operations.NewTimeoutError("fetch", "1s").Error())

	cause := apperrors.NewNotFoundError("day")
	assert.ErrorIs(t, operations.NewExecutionError("fetch", cause), cause)
}

func TestRetryDelay(t *testing.T) {
	cfg := operations.NewRetryConfig()
	assert.Equal(t, 5*time.Second, cfg.Delay(1))
	assert.Equal(t, 10*time.Second, cfg.Delay(2))
	assert.Equal(t, 40*time.Second, cfg.Delay(4))
	assert.Equal(t, time.Minute, cfg.Delay(10))
}

func TestStageTimeouts(t *testing.T) {
	cfg := operations.NewConfig()
	assert.Equal(t, operations.DefaultFetchTimeout, cfg.GetStageTimeout(operations.StageIDFetch))
	assert.Equal(t, operations.DefaultStageTimeout, cfg.GetStageTimeout(operations.StageIDExport))

	cfg.SetStageTimeout(operations.StageIDExport, time.Second)
	assert.Equal(t, time.Second, cfg.GetStageTimeout(operations.StageIDExport))
}

func TestPipelineSuccess(t *testing.T) {
	a := testutil.NewMockStage("a")
	a.Artifact = "a.csv"
	b := testutil.NewMockStage("b")
	b.Artifact = "b.json"

	snap, state, err := execute(t, context.Background(), newPipeline(t, fastConfig(), a, b))
	require.NoError(t, err)

	assert.Equal(t, events.StatusCompleted, snap.Status)
	assert.Equal(t, 100, snap.Progress)
	assert.NotNil(t, snap.CompletedAt)
	assert.Empty(t, snap.CurrentStage)
	assert.Equal(t, []string{"a.csv", "b.json"}, snap.Artifacts)
	assert.Equal(t, []string{"a.csv", "b.json"}, state.Artifacts)
	assert.Equal(t, map[string]string{"a": events.StatusCompleted, "b": events.StatusCompleted}, stageStatuses(snap))
	for _, s := range snap.Stages {
		assert.NotEmpty(t, s.Duration)
	}
}

func TestPipelineSkipDoesNotFail(t *testing.T) {
	a := testutil.NewMockStage("a", operations.SkipStage("no narrative provider"))
	b := testutil.NewMockStage("b")

	snap, _, err := execute(t, context.Background(), newPipeline(t, fastConfig(), a, b))
	require.NoError(t, err)

	assert.Equal(t, events.StatusCompleted, snap.Status)
	assert.Equal(t, events.StatusSkipped, snap.Stages[0].Status)
	assert.Equal(t, "no narrative provider", snap.Stages[0].Message)
	assert.Equal(t, 1, b.Calls())
}

func TestPipelineFailureSkipsRemaining(t *testing.T) {
	a := testutil.NewMockStage("a", apperrors.NewNotFoundError("SCADA rows"))
	b := testutil.NewMockStage("b")
	c := testutil.NewMockStage("c")

	snap, _, err := execute(t, context.Background(), newPipeline(t, fastConfig(), a, b, c))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(err))

	assert.Equal(t, events.StatusFailed, snap.Status)
	assert.Contains(t, snap.Error, "SCADA rows")
	assert.Equal(t, map[string]string{
		"a": events.StatusFailed,
		"b": events.StatusSkipped,
		"c": events.StatusSkipped,
	}, stageStatuses(snap))
	assert.Equal(t, "previous stage a failed", snap.Stages[1].Message)
	assert.Equal(t, 0, b.Calls())
	assert.Equal(t, 1, a.Calls(), "not found is not retried")
}

func TestPipelineRetriesNetworkErrors(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"recovers", []error{apperrors.NewNetworkError("503", nil)}, 2, false},
		{"exhausted", []error{apperrors.NewNetworkError("503", nil), apperrors.NewNetworkError("503", nil)}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := testutil.NewMockStage("fetch", tt.errs...)
			snap, _, err := execute(t, context.Background(), newPipeline(t, fastConfig(), stage))
			assert.Equal(t, tt.wantCalls, stage.Calls())
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, events.StatusFailed, snap.Status)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, events.StatusCompleted, snap.Status)
			}
		})
	}
}

func TestPipelineStageTimeout(t *testing.T) {
	cfg := fastConfig()
	cfg.SetStageTimeout("slow", 10*time.Millisecond)
	slow := testutil.NewMockStage("slow")
	slow.Delay = time.Second

	snap, _, err := execute(t, context.Background(), newPipeline(t, cfg, slow))
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeTimeout, operations.GetErrorType(err))
	assert.Equal(t, events.StatusFailed, snap.Status)
}

func TestPipelineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := testutil.NewMockStage("slow")
	slow.Delay = time.Second
	next := testutil.NewMockStage("next")

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	snap, _, err := execute(t, ctx, newPipeline(t, fastConfig(), slow, next))
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))
	assert.Equal(t, events.StatusCancelled, snap.Status)
	assert.Equal(t, events.StatusSkipped, stageStatuses(snap)["next"])
	assert.Equal(t, 0, next.Calls())
}

func TestPipelineRecoversPanics(t *testing.T) {
	bad := testutil.NewMockStage("bad")
	bad.Panic = "nil map"

	snap, _, err := execute(t, context.Background(), newPipeline(t, fastConfig(), bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: nil map")
	assert.Equal(t, events.StatusFailed, snap.Status)
}

func TestStageMetadataReachesSnapshot(t *testing.T) {
	stage := operations.NewStageFunc("count", "Count", func(ctx context.Context, state *operations.State) error {
		state.SetMetadata("count", "rows", 288)
		return nil
	})

	snap, _, err := execute(t, context.Background(), newPipeline(t, fastConfig(), stage))
	require.NoError(t, err)
	assert.Equal(t, 288, snap.Stages[0].Metadata["rows"])
}

func TestStatusTrackerPublishes(t *testing.T) {
	hub := &testutil.RecordingHub{}
	tracker := operations.NewStatusTracker(events.RunSnapshot{
		RunID: "run-7",
		Stages: []events.StageSnapshot{
			{ID: "a", Status: events.StatusPending},
			{ID: "b", Status: events.StatusPending},
		},
	}, nil, hub, nil)

	tracker.Update(context.Background(), func(snap *events.RunSnapshot) {
		snap.Status = events.StatusRunning
		snap.Stages[0].Status = events.StatusCompleted
	})
	last, ok := hub.Last()
	require.True(t, ok)
	assert.Equal(t, 50, last.Progress)
	assert.Nil(t, last.CompletedAt)

	tracker.Update(context.Background(), func(snap *events.RunSnapshot) {
		snap.Status = events.StatusFailed
		snap.Stages[1].Status = events.StatusFailed
	})
	last, _ = hub.Last()
	assert.Equal(t, 100, last.Progress)
	require.NotNil(t, last.CompletedAt)
	assert.Len(t, hub.Snapshots(), 2)

	// Published snapshots are copies.
	last.Stages[0].Status = "mutated"
	assert.Equal(t, events.StatusCompleted, tracker.Snapshot().Stages[0].Status)
}
