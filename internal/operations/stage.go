package operations

import (
	"context"
)

// Stage is one step of the daily pipeline.
type Stage interface {
	// ID returns the unique identifier for this stage
	ID() string

	// Name returns the human-readable name for this stage
	Name() string

	// Run executes the stage against the shared run state. Returning a
	// SkipStage error marks the stage skipped without failing the run.
	Run(ctx context.Context, state *State) error
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	id   string
	name string
	fn   func(ctx context.Context, state *State) error
}

// NewStageFunc creates a stage from fn.
func NewStageFunc(id, name string, fn func(ctx context.Context, state *State) error) *StageFunc {
	return &StageFunc{id: id, name: name, fn: fn}
}

// ID implements Stage.
func (s *StageFunc) ID() string { return s.id }

// Name implements Stage.
func (s *StageFunc) Name() string { return s.name }

// Run implements Stage.
func (s *StageFunc) Run(ctx context.Context, state *State) error { return s.fn(ctx, state) }
