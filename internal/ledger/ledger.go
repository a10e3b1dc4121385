// Package ledger holds the in-memory reservation state for every
// registered resource: the single active reservation, the FIFO wait
// queue, and the subscriber set. All of it lives behind per-resource
// locks so that two different resources never contend with each other.
package ledger

import (
	"errors"
	"sync"

	"github.com/WismutNaN/resource-queue/internal/model"
)

// ErrUnknownResource is returned when an operation targets a resource id
// that has no board, either because it was never registered or because it
// has been deleted.
var ErrUnknownResource = errors.New("unknown resource")

// board is the per-resource state. Its mutex serializes every mutating
// operation for that resource, which is the mechanism that prevents a
// racing book/release/sweep from double-applying a transition.
type board struct {
	mu          sync.Mutex
	reservation *model.Reservation
	queue       []model.WaitEntry
}

// Ledger maps resource ids to boards. The outer RWMutex only guards the
// map itself; per-resource work happens under the board mutex, and no
// code path ever holds two board locks at once.
type Ledger struct {
	mu     sync.RWMutex
	boards map[string]*board
}

func New() *Ledger {
	return &Ledger{boards: make(map[string]*board)}
}

// Register creates an empty board for a resource. Registering an id that
// already has a board is a no-op.
func (l *Ledger) Register(resourceID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.boards[resourceID]; !ok {
		l.boards[resourceID] = &board{}
	}
}

// Drop removes a resource's board entirely. It takes the board lock
// first so an in-flight booking operation finishes before the state
// disappears. The cleared reservation and queue are returned so the
// caller can close out history, or hand them back to Restore when the
// rest of the delete cascade fails.
func (l *Ledger) Drop(resourceID string) (*model.Reservation, []model.WaitEntry, bool) {
	l.mu.Lock()
	b, ok := l.boards[resourceID]
	if !ok {
		l.mu.Unlock()
		return nil, nil, false
	}
	b.mu.Lock()
	delete(l.boards, resourceID)
	l.mu.Unlock()
	res := b.reservation
	queue := b.queue
	b.reservation = nil
	b.queue = nil
	b.mu.Unlock()
	return res, queue, true
}

// Restore re-registers a board with the state a failed delete cascade
// took out of it. An existing board for the id is replaced.
func (l *Ledger) Restore(resourceID string, r *model.Reservation, queue []model.WaitEntry) {
	b := &board{queue: queue}
	if r != nil {
		res := *r
		b.reservation = &res
	}
	l.mu.Lock()
	l.boards[resourceID] = b
	l.mu.Unlock()
}

// Resources returns the ids of all boards currently registered.
func (l *Ledger) Resources() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.boards))
	for id := range l.boards {
		ids = append(ids, id)
	}
	return ids
}

func (l *Ledger) board(resourceID string) (*board, bool) {
	l.mu.RLock()
	b, ok := l.boards[resourceID]
	l.mu.RUnlock()
	return b, ok
}

// Tx exposes the board primitives inside an Update or View callback.
// Everything a Tx hands out is a copy; callers never see live state.
type Tx struct {
	b *board
}

// Reservation returns a copy of the active reservation or nil.
func (t *Tx) Reservation() *model.Reservation {
	if t.b.reservation == nil {
		return nil
	}
	r := *t.b.reservation
	return &r
}

// SetReservation installs r as the active reservation.
func (t *Tx) SetReservation(r model.Reservation) {
	t.b.reservation = &r
}

// ClearReservation removes and returns the active reservation.
func (t *Tx) ClearReservation() *model.Reservation {
	r := t.b.reservation
	t.b.reservation = nil
	return r
}

// PushWait appends an entry at the queue tail and returns its 1-based
// position.
func (t *Tx) PushWait(e model.WaitEntry) int {
	t.b.queue = append(t.b.queue, e)
	return len(t.b.queue)
}

// PopFrontWait removes and returns the queue head, or nil when empty.
func (t *Tx) PopFrontWait() *model.WaitEntry {
	if len(t.b.queue) == 0 {
		return nil
	}
	head := t.b.queue[0]
	t.b.queue = append([]model.WaitEntry(nil), t.b.queue[1:]...)
	return &head
}

// RemoveWait deletes the entry for userID, reporting whether one existed.
func (t *Tx) RemoveWait(userID string) bool {
	for i, e := range t.b.queue {
		if e.UserID == userID {
			t.b.queue = append(t.b.queue[:i:i], t.b.queue[i+1:]...)
			return true
		}
	}
	return false
}

// InQueue reports whether userID already has a wait entry.
func (t *Tx) InQueue(userID string) bool {
	for _, e := range t.b.queue {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// QueueLen returns the number of waiting entries.
func (t *Tx) QueueLen() int {
	return len(t.b.queue)
}

// SnapshotQueue returns a copy of the queue in FIFO order.
func (t *Tx) SnapshotQueue() []model.WaitEntry {
	out := make([]model.WaitEntry, len(t.b.queue))
	copy(out, t.b.queue)
	return out
}

// Update runs fn with the resource's board locked. The whole callback is
// one atomic transition: no other mutation or view for this resource can
// interleave with it.
func (l *Ledger) Update(resourceID string, fn func(*Tx) error) error {
	b, ok := l.board(resourceID)
	if !ok {
		return ErrUnknownResource
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return fn(&Tx{b: b})
}

// View runs fn with the board locked for reading a consistent snapshot.
// It reports false when the resource is unknown.
func (l *Ledger) View(resourceID string, fn func(*Tx)) bool {
	b, ok := l.board(resourceID)
	if !ok {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&Tx{b: b})
	return true
}
