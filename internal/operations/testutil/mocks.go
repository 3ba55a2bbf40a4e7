// Package testutil provides test doubles for the operations package.
package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"scadapulse/internal/operations"
	"scadapulse/pkg/contracts/domain"
	"scadapulse/pkg/contracts/events"
)

// MockStage is a configurable stage. Each run optionally panics or waits,
// then writes Artifact and returns the next queued error.
type MockStage struct {
	StageID   string
	StageName string
	Errors    []error
	Delay     time.Duration
	Panic     string
	Artifact  string

	calls atomic.Int32
	mu    sync.Mutex
}

// NewMockStage creates a stage returning errs in turn, then nil.
func NewMockStage(id string, errs ...error) *MockStage {
	return &MockStage{StageID: id, StageName: "Mock " + id, Errors: errs}
}

// ID returns the stage ID.
func (m *MockStage) ID() string { return m.StageID }

// Name returns the stage name.
func (m *MockStage) Name() string { return m.StageName }

// Calls returns how many times Run was called.
func (m *MockStage) Calls() int { return int(m.calls.Load()) }

// Run implements operations.Stage.
func (m *MockStage) Run(ctx context.Context, state *operations.State) error {
	m.calls.Add(1)
	if m.Panic != "" {
		panic(m.Panic)
	}
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Errors) == 0 {
		if m.Artifact != "" {
			state.AddArtifacts(m.Artifact)
		}
		return nil
	}
	err := m.Errors[0]
	m.Errors = m.Errors[1:]
	return err
}

// RecordingHub keeps every broadcast snapshot.
type RecordingHub struct {
	mu        sync.Mutex
	snapshots []events.RunSnapshot
}

// BroadcastRunSnapshot records snap.
func (h *RecordingHub) BroadcastRunSnapshot(snap events.RunSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshots = append(h.snapshots, snap)
}

// Snapshots returns the recorded snapshots in order.
func (h *RecordingHub) Snapshots() []events.RunSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.RunSnapshot(nil), h.snapshots...)
}

// Last returns the most recent snapshot.
func (h *RecordingHub) Last() (events.RunSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.snapshots) == 0 {
		return events.RunSnapshot{}, false
	}
	return h.snapshots[len(h.snapshots)-1], true
}

// StaticSource serves fixed readings for any day, or Err when set.
type StaticSource struct {
	Readings []domain.Reading
	Err      error

	mu   sync.Mutex
	days []time.Time
}

// FetchDay implements retrieval.Source.
func (s *StaticSource) FetchDay(ctx context.Context, day time.Time) ([]domain.Reading, error) {
	s.mu.Lock()
	s.days = append(s.days, day)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]domain.Reading(nil), s.Readings...), nil
}

// Days returns the requested days in order.
func (s *StaticSource) Days() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.days...)
}

// DayReadings builds 288 five-minute readings per unit for day, with a
// power profile given by fn(unit index, interval index).
func DayReadings(day time.Time, units []string, fn func(u, i int) float64) []domain.Reading {
	var out []domain.Reading
	for u, unit := range units {
		for i := 0; i < 288; i++ {
			out = append(out, domain.Reading{
				Timestamp: day.Add(time.Duration(i*5) * time.Minute),
				UnitID:    unit,
				PowerMW:   fn(u, i),
			})
		}
	}
	return out
}
