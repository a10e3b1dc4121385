// Package history records completed reservation tenures. The engine
// appends exactly one entry per terminated reservation and treats the
// recorder as best-effort: a failed append is logged by the caller but
// never rolls back the reservation transition.
package history

import (
	"context"

	"github.com/WismutNaN/resource-queue/internal/model"
)

// Recorder is the append-only history log. Implementations must keep
// entries immutable; the only permitted deletion is Purge for a removed
// resource, and the default deployment policy is to not call it.
type Recorder interface {
	// Record appends one completed-session entry.
	Record(ctx context.Context, e model.HistoryEntry) error
	// ListRecent returns up to limit entries for a resource, newest
	// first. limit <= 0 means no limit.
	ListRecent(ctx context.Context, resourceID string, limit int) ([]model.HistoryEntry, error)
	// Purge drops all entries for a resource.
	Purge(ctx context.Context, resourceID string) error
}
