package history

import (
	"context"
	"sort"
	"sync"

	"github.com/WismutNaN/resource-queue/internal/model"
)

// DefaultKeep caps how many entries the memory recorder retains per
// resource; older entries fall off the front.
const DefaultKeep = 200

// MemoryRecorder keeps history in process memory. It backs tests and
// DB-less deployments; durable installs use the MySQL repository instead.
type MemoryRecorder struct {
	mu      sync.RWMutex
	keep    int
	entries map[string][]model.HistoryEntry
}

func NewMemoryRecorder(keep int) *MemoryRecorder {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &MemoryRecorder{keep: keep, entries: make(map[string][]model.HistoryEntry)}
}

func (m *MemoryRecorder) Record(_ context.Context, e model.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.entries[e.ResourceID], e)
	if len(list) > m.keep {
		list = list[len(list)-m.keep:]
	}
	m.entries[e.ResourceID] = list
	return nil
}

func (m *MemoryRecorder) ListRecent(_ context.Context, resourceID string, limit int) ([]model.HistoryEntry, error) {
	m.mu.RLock()
	list := m.entries[resourceID]
	out := make([]model.HistoryEntry, len(list))
	copy(out, list)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRecorder) Purge(_ context.Context, resourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, resourceID)
	return nil
}
