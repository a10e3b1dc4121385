package engine

import (
	"github.com/WismutNaN/resource-queue/internal/ledger"
	"github.com/WismutNaN/resource-queue/internal/model"
)

// Status projects one resource's state for one requester. It is a pure
// read: the board is locked only long enough to copy the reservation and
// queue, so callers always see either the pre- or post-mutation state,
// never a torn one.
func (e *Engine) Status(resourceID, requesterID string, resolve NameResolver) (model.ResourceStatus, error) {
	res, ok := e.registry.Get(resourceID)
	if !ok {
		return model.ResourceStatus{}, ErrUnknownResource
	}
	return e.project(res, requesterID, resolve), nil
}

// AllStatuses projects every registered resource for the requester, in
// registry order. Each board is snapshotted independently.
func (e *Engine) AllStatuses(requesterID string, resolve NameResolver) []model.ResourceStatus {
	resources := e.registry.List()
	out := make([]model.ResourceStatus, 0, len(resources))
	for _, res := range resources {
		out = append(out, e.project(res, requesterID, resolve))
	}
	return out
}

func (e *Engine) project(res model.Resource, requesterID string, resolve NameResolver) model.ResourceStatus {
	var (
		reservation *model.Reservation
		waiting     []model.WaitEntry
	)
	e.ledger.View(res.ID, func(tx *ledger.Tx) {
		reservation = tx.Reservation()
		waiting = tx.SnapshotQueue()
	})

	now := e.now()
	status := model.ResourceStatus{
		Resource: res,
		Queue:    make([]model.WaitView, 0, len(waiting)),
	}
	if reservation != nil {
		status.Reservation = &model.ReservationView{
			Reservation:      *reservation,
			HolderName:       e.displayName(resolve, reservation.HolderID),
			RemainingSeconds: int64(reservation.Remaining(now).Seconds()),
		}
		status.IsHolder = reservation.HolderID == requesterID
	}
	for _, w := range waiting {
		status.Queue = append(status.Queue, model.WaitView{
			WaitEntry: w,
			UserName:  e.displayName(resolve, w.UserID),
		})
		if w.UserID == requesterID {
			status.InQueue = true
		}
	}
	status.Subscribers = len(e.subs.Subscribers(res.ID))
	status.IsSubscribed = e.subs.IsSubscribed(res.ID, requesterID)
	return status
}

func (e *Engine) displayName(resolve NameResolver, userID string) string {
	if resolve == nil {
		return userID
	}
	if name := resolve.DisplayName(userID); name != "" {
		return name
	}
	return userID
}
