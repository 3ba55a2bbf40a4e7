package operations

import (
	"context"

	"scadapulse/pkg/contracts/events"
)

// SnapshotBroadcaster pushes run snapshots to live clients.
type SnapshotBroadcaster interface {
	BroadcastRunSnapshot(snap events.RunSnapshot)
}

// StatusSink receives every change of a run's snapshot.
type StatusSink interface {
	Update(ctx context.Context, fn func(snap *events.RunSnapshot))
}
