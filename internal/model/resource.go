package model

import "time"

// Resource describes a bookable unit (a lab machine, a device, a shared
// service). Attributes carries free-form key/value pairs such as OS or
// rack location that the registry stores but never interprets.
type Resource struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Address     string            `json:"address,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Description string            `json:"description,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CreatedBy   string            `json:"created_by"`
}

// Reservation is the single active holder record for a resource. The
// ledger guarantees at most one exists per resource at any instant and
// that ExpiresAt is strictly after StartedAt.
type Reservation struct {
	ResourceID string    `json:"resource_id"`
	HolderID   string    `json:"holder_id"`
	Purpose    string    `json:"purpose,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	ExpiresAt  time.Time `json:"expires_at"`

	// WarnedExpiry is set once the sweeper has told the holder that the
	// reservation is about to lapse; extend resets it. WarnedQueued is
	// set once the holder has been told someone is waiting.
	WarnedExpiry bool `json:"warned_expiry,omitempty"`
	WarnedQueued bool `json:"warned_queued,omitempty"`
}

// Remaining reports the time left until expiry, floored at zero.
func (r *Reservation) Remaining(now time.Time) time.Duration {
	if d := r.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// WaitEntry is one requester waiting for a resource. Entries keep strict
// FIFO order; the requested minutes are honored as-is when the entry is
// promoted into a reservation.
type WaitEntry struct {
	UserID   string    `json:"user_id"`
	Minutes  int       `json:"minutes"`
	Purpose  string    `json:"purpose,omitempty"`
	QueuedAt time.Time `json:"queued_at"`
}

// HistoryEntry records one completed tenure. Entries are append-only and
// survive the resource by default (tombstoned under the old id).
type HistoryEntry struct {
	ResourceID string    `json:"resource_id"`
	HolderID   string    `json:"holder_id"`
	Purpose    string    `json:"purpose,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// DurationPreset is a labeled booking length offered to clients.
type DurationPreset struct {
	Label   string `json:"label"`
	Minutes int    `json:"minutes"`
}
