// Package engine implements the booking state machine: who holds a
// resource, for how long, who waits, and how control transfers on
// release, expiry, or admin override.
package engine

import "errors"

// The full failure taxonomy of the engine. Every error is detected
// synchronously under the resource lock and returned to the caller;
// the engine never retries on its own. Handlers translate these into
// HTTP statuses.
var (
	// ErrInvalidDuration rejects non-positive minutes or a request
	// beyond the configured booking ceiling.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrAlreadyHeld rejects book on an occupied resource, including
	// re-booking by the current holder: extending must go through
	// Extend so the session cap cannot be bypassed.
	ErrAlreadyHeld = errors.New("resource already held")

	// ErrNotBooked rejects release/extend on a free resource, and
	// joinQueue when queueing on a free resource is disallowed.
	ErrNotBooked = errors.New("resource not booked")

	// ErrNotHolder rejects release/extend by someone other than the
	// holder (admins may release, never extend).
	ErrNotHolder = errors.New("not the holder")

	// ErrAlreadyQueued rejects a second wait entry for one identity.
	ErrAlreadyQueued = errors.New("already in queue")

	// ErrNotInQueue rejects leaveQueue for an absent identity.
	ErrNotInQueue = errors.New("not in queue")

	// ErrQueueFull rejects joinQueue beyond the queue capacity.
	ErrQueueFull = errors.New("queue is full")

	// ErrExtensionLimit rejects an extend that would push the total
	// session past the configured maximum. Nothing is truncated.
	ErrExtensionLimit = errors.New("extension limit exceeded")

	// ErrUnknownResource covers operations on ids that are not
	// registered (or already deleted).
	ErrUnknownResource = errors.New("unknown resource")

	// ErrPermissionDenied covers admin-only operations invoked by
	// non-admins.
	ErrPermissionDenied = errors.New("permission denied")
)
