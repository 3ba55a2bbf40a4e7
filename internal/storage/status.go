package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/events"
)

// StatusStore keeps the latest snapshot of every pipeline run.
type StatusStore interface {
	Save(ctx context.Context, snap events.RunSnapshot) error
	Get(ctx context.Context, runID string) (events.RunSnapshot, error)
	// List returns runs newest first, at most limit when limit > 0.
	List(ctx context.Context, limit int) ([]events.RunSnapshot, error)
	Close() error
}

type memoryEntry struct {
	snap    events.RunSnapshot
	expires time.Time
}

// MemoryStore is a process-local StatusStore with expiry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store whose entries expire ttl after their last
// save. A non-positive ttl means one day.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Save implements StatusStore.
func (m *MemoryStore) Save(ctx context.Context, snap events.RunSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[snap.RunID] = memoryEntry{snap: snap, expires: m.now().Add(m.ttl)}
	return nil
}

// Get implements StatusStore.
func (m *MemoryStore) Get(ctx context.Context, runID string) (events.RunSnapshot, error) {
	m.mu.RLock()
	entry, ok := m.entries[runID]
	m.mu.RUnlock()
	if !ok || m.now().After(entry.expires) {
		return events.RunSnapshot{}, apperrors.NewNotFoundError("run " + runID)
	}
	return entry.snap, nil
}

// List implements StatusStore. Expired entries are evicted on the way.
func (m *MemoryStore) List(ctx context.Context, limit int) ([]events.RunSnapshot, error) {
	m.mu.Lock()
	now := m.now()
	runs := make([]events.RunSnapshot, 0, len(m.entries))
	for id, entry := range m.entries {
		if now.After(entry.expires) {
			delete(m.entries, id)
			continue
		}
		runs = append(runs, entry.snap)
	}
	m.mu.Unlock()

	sortNewestFirst(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close implements StatusStore.
func (m *MemoryStore) Close() error { return nil }

func sortNewestFirst(runs []events.RunSnapshot) {
	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].RunID < runs[j].RunID
	})
}
