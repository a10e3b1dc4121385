// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds published on resource state changes. Consumers use the
// kind to pick a delivery template; the engine never waits on them.
const (
	KindBooked       = "resource.booked"
	KindReleased     = "resource.released"
	KindExpired      = "resource.expired"
	KindPromoted     = "queue.promoted"
	KindQueueJoined  = "queue.joined"
	KindExpiringSoon = "booking.expiring"
	KindDeleted      = "resource.deleted"
)

// ResourceEvent is published whenever a resource's reservation or queue
// state changes. It carries enough for a downstream notifier to deliver
// messages without querying the engine: who to tell, about what, and the
// queue positions after the change for position-shift notices.
type ResourceEvent struct {
	Kind         string         `json:"kind"`
	ResourceID   string         `json:"resource_id"`
	ResourceName string         `json:"resource_name"`
	ActorID      string         `json:"actor_id,omitempty"`
	HolderID     string         `json:"holder_id,omitempty"`
	Minutes      int            `json:"minutes,omitempty"`
	ExpiresAt    string         `json:"expires_at,omitempty"`
	Recipients   []string       `json:"recipients,omitempty"`
	Positions    map[string]int `json:"positions,omitempty"`
	OccurredAt   string         `json:"occurred_at"`
}
