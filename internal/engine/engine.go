package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/WismutNaN/resource-queue/internal/history"
	"github.com/WismutNaN/resource-queue/internal/ledger"
	"github.com/WismutNaN/resource-queue/internal/model"
	"github.com/WismutNaN/resource-queue/internal/queue"
	"github.com/WismutNaN/resource-queue/internal/registry"
)

// Notifier delivers resource events to the outside world. Dispatch is
// best-effort: the engine logs failures and moves on, and it never calls
// Publish while holding a resource lock.
type Notifier interface {
	Publish(ctx context.Context, ev queue.ResourceEvent) error
}

// NameResolver maps a user id to a display name for status views. The
// middleware layer backs it with names seen in verified tokens.
type NameResolver interface {
	DisplayName(userID string) string
}

// Config carries the booking policy knobs.
type Config struct {
	// MaxBookingMinutes bounds a single book or extend request.
	MaxBookingMinutes int
	// MaxSessionMinutes caps the total tenure reachable via extends.
	MaxSessionMinutes int
	// MaxQueueLen caps the wait queue per resource.
	MaxQueueLen int
	// AllowQueueOnFree auto-books instead of rejecting joinQueue when
	// the resource is free. Default policy is the strict rejection.
	AllowQueueOnFree bool
	// PurgeHistoryOnDelete drops a deleted resource's history instead
	// of retaining it under the dead id.
	PurgeHistoryOnDelete bool
	// ExpiryWarning is how long before expiry the holder is warned.
	ExpiryWarning time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxBookingMinutes <= 0 {
		c.MaxBookingMinutes = 1440
	}
	if c.MaxSessionMinutes <= 0 {
		c.MaxSessionMinutes = c.MaxBookingMinutes
	}
	if c.MaxQueueLen <= 0 {
		c.MaxQueueLen = 20
	}
	if c.ExpiryWarning <= 0 {
		c.ExpiryWarning = 10 * time.Minute
	}
	return c
}

// Engine arbitrates exclusive access to resources. Every mutating
// operation runs as one atomic ledger transition under that resource's
// lock; notifications and history writes happen after the lock drops.
type Engine struct {
	cfg      Config
	registry *registry.Registry
	ledger   *ledger.Ledger
	subs     *ledger.Subscriptions
	recorder history.Recorder
	notifier Notifier

	// now is swappable in tests.
	now func() time.Time
}

func New(cfg Config, reg *registry.Registry, led *ledger.Ledger, subs *ledger.Subscriptions, rec history.Recorder, n Notifier) *Engine {
	e := &Engine{
		cfg:      cfg.withDefaults(),
		registry: reg,
		ledger:   led,
		subs:     subs,
		recorder: rec,
		notifier: n,
		now:      time.Now,
	}
	for _, res := range reg.List() {
		led.Register(res.ID)
	}
	return e
}

// Config returns the active booking policy.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) validMinutes(minutes int) bool {
	return minutes > 0 && minutes <= e.cfg.MaxBookingMinutes
}

// Book grants the caller an exclusive reservation on a free resource.
// Booking an occupied resource always fails, even for its holder.
func (e *Engine) Book(ctx context.Context, resourceID, userID string, minutes int, purpose string) (model.Reservation, error) {
	res, ok := e.registry.Get(resourceID)
	if !ok {
		return model.Reservation{}, ErrUnknownResource
	}
	if !e.validMinutes(minutes) {
		return model.Reservation{}, ErrInvalidDuration
	}

	var booked model.Reservation
	err := e.ledger.Update(resourceID, func(tx *ledger.Tx) error {
		if tx.Reservation() != nil {
			return ErrAlreadyHeld
		}
		now := e.now()
		booked = model.Reservation{
			ResourceID: resourceID,
			HolderID:   userID,
			Purpose:    purpose,
			StartedAt:  now,
			ExpiresAt:  now.Add(time.Duration(minutes) * time.Minute),
		}
		tx.SetReservation(booked)
		return nil
	})
	if err != nil {
		return model.Reservation{}, e.mapLedgerErr(err)
	}

	e.publish(ctx, queue.ResourceEvent{
		Kind:         queue.KindBooked,
		ResourceID:   resourceID,
		ResourceName: res.Name,
		ActorID:      userID,
		HolderID:     userID,
		Minutes:      minutes,
		ExpiresAt:    booked.ExpiresAt.UTC().Format(time.RFC3339),
		Recipients:   exclude(e.subs.Subscribers(resourceID), userID),
	})
	return booked, nil
}

// Release ends the current reservation. Only the holder may release,
// unless isAdmin overrides. The freed resource goes to the queue head
// when one is waiting.
func (e *Engine) Release(ctx context.Context, resourceID, userID string, isAdmin bool) error {
	res, ok := e.registry.Get(resourceID)
	if !ok {
		return ErrUnknownResource
	}

	var ended model.Reservation
	var promo *promotion
	err := e.ledger.Update(resourceID, func(tx *ledger.Tx) error {
		cur := tx.Reservation()
		if cur == nil {
			return ErrNotBooked
		}
		if cur.HolderID != userID && !isAdmin {
			return ErrNotHolder
		}
		ended = *tx.ClearReservation()
		promo = e.promote(tx, resourceID)
		return nil
	})
	if err != nil {
		return e.mapLedgerErr(err)
	}

	e.record(ctx, ended, e.now())
	e.announceHandover(ctx, res, queue.KindReleased, userID, promo)
	return nil
}

// Extend pushes the current expiry forward by minutes, cumulatively.
// The total session length stays under the configured cap; an extend
// that would exceed it fails outright rather than being truncated.
func (e *Engine) Extend(ctx context.Context, resourceID, userID string, minutes int) (model.Reservation, error) {
	if _, ok := e.registry.Get(resourceID); !ok {
		return model.Reservation{}, ErrUnknownResource
	}
	if !e.validMinutes(minutes) {
		return model.Reservation{}, ErrInvalidDuration
	}

	var extended model.Reservation
	err := e.ledger.Update(resourceID, func(tx *ledger.Tx) error {
		cur := tx.Reservation()
		if cur == nil {
			return ErrNotBooked
		}
		if cur.HolderID != userID {
			return ErrNotHolder
		}
		newExpiry := cur.ExpiresAt.Add(time.Duration(minutes) * time.Minute)
		if newExpiry.Sub(cur.StartedAt) > time.Duration(e.cfg.MaxSessionMinutes)*time.Minute {
			return ErrExtensionLimit
		}
		cur.ExpiresAt = newExpiry
		cur.WarnedExpiry = false
		tx.SetReservation(*cur)
		extended = *cur
		return nil
	})
	if err != nil {
		return model.Reservation{}, e.mapLedgerErr(err)
	}
	return extended, nil
}

// JoinQueue appends the caller to the resource's wait queue. On a free
// resource the strict policy rejects with ErrNotBooked; the permissive
// policy books immediately instead.
func (e *Engine) JoinQueue(ctx context.Context, resourceID, userID string, minutes int, purpose string) (int, error) {
	res, ok := e.registry.Get(resourceID)
	if !ok {
		return 0, ErrUnknownResource
	}
	if !e.validMinutes(minutes) {
		return 0, ErrInvalidDuration
	}

	var (
		position   int
		autoBooked bool
		warnHolder string
	)
	err := e.ledger.Update(resourceID, func(tx *ledger.Tx) error {
		if tx.InQueue(userID) {
			return ErrAlreadyQueued
		}
		cur := tx.Reservation()
		if cur == nil {
			if !e.cfg.AllowQueueOnFree {
				return ErrNotBooked
			}
			now := e.now()
			tx.SetReservation(model.Reservation{
				ResourceID: resourceID,
				HolderID:   userID,
				Purpose:    purpose,
				StartedAt:  now,
				ExpiresAt:  now.Add(time.Duration(minutes) * time.Minute),
			})
			autoBooked = true
			return nil
		}
		if cur.HolderID == userID {
			return ErrAlreadyHeld
		}
		if tx.QueueLen() >= e.cfg.MaxQueueLen {
			return ErrQueueFull
		}
		position = tx.PushWait(model.WaitEntry{
			UserID:   userID,
			Minutes:  minutes,
			Purpose:  purpose,
			QueuedAt: e.now(),
		})
		// Tell the holder once per booking that someone is waiting.
		if !cur.WarnedQueued {
			cur.WarnedQueued = true
			tx.SetReservation(*cur)
			warnHolder = cur.HolderID
		}
		return nil
	})
	if err != nil {
		return 0, e.mapLedgerErr(err)
	}

	if autoBooked {
		e.publish(ctx, queue.ResourceEvent{
			Kind:         queue.KindBooked,
			ResourceID:   resourceID,
			ResourceName: res.Name,
			ActorID:      userID,
			HolderID:     userID,
			Minutes:      minutes,
			Recipients:   exclude(e.subs.Subscribers(resourceID), userID),
		})
		return 0, nil
	}
	if warnHolder != "" {
		e.publish(ctx, queue.ResourceEvent{
			Kind:         queue.KindQueueJoined,
			ResourceID:   resourceID,
			ResourceName: res.Name,
			ActorID:      userID,
			Recipients:   []string{warnHolder},
		})
	}
	return position, nil
}

// LeaveQueue removes the caller's wait entry.
func (e *Engine) LeaveQueue(ctx context.Context, resourceID, userID string) error {
	if _, ok := e.registry.Get(resourceID); !ok {
		return ErrUnknownResource
	}
	err := e.ledger.Update(resourceID, func(tx *ledger.Tx) error {
		if !tx.RemoveWait(userID) {
			return ErrNotInQueue
		}
		return nil
	})
	return e.mapLedgerErr(err)
}

// Subscribe registers interest in a resource's state changes. Both
// subscribe and unsubscribe are idempotent.
func (e *Engine) Subscribe(resourceID, userID string) error {
	if _, ok := e.registry.Get(resourceID); !ok {
		return ErrUnknownResource
	}
	e.subs.Subscribe(resourceID, userID)
	return nil
}

func (e *Engine) Unsubscribe(resourceID, userID string) error {
	if _, ok := e.registry.Get(resourceID); !ok {
		return ErrUnknownResource
	}
	e.subs.Unsubscribe(resourceID, userID)
	return nil
}

// Resource returns one registry record.
func (e *Engine) Resource(id string) (model.Resource, error) {
	res, ok := e.registry.Get(id)
	if !ok {
		return model.Resource{}, ErrUnknownResource
	}
	return res, nil
}

// Resources lists all registry records in creation order.
func (e *Engine) Resources() []model.Resource {
	return e.registry.List()
}

// CreateResource registers a new resource and opens its ledger board.
func (e *Engine) CreateResource(ctx context.Context, res model.Resource) (model.Resource, error) {
	created, err := e.registry.Create(ctx, res)
	if err != nil {
		return model.Resource{}, err
	}
	e.ledger.Register(created.ID)
	return created, nil
}

// UpdateResource edits the registry record; ledger state is untouched.
func (e *Engine) UpdateResource(ctx context.Context, id string, upd model.Resource) (model.Resource, error) {
	updated, err := e.registry.Update(ctx, id, upd)
	if errors.Is(err, registry.ErrNotFound) {
		return model.Resource{}, ErrUnknownResource
	}
	return updated, err
}

// DeleteResource removes a resource and cascades: the ledger board goes
// first (under its lock, so in-flight bookings finish), then the
// registry record and subscriptions. History is retained under the dead
// id unless the purge policy is on. An active reservation cut short by
// the delete still gets its history entry.
func (e *Engine) DeleteResource(ctx context.Context, id string) error {
	res, ok := e.registry.Get(id)
	if !ok {
		return ErrUnknownResource
	}
	dropped, waiters, _ := e.ledger.Drop(id)
	if err := e.registry.Delete(ctx, id); err != nil && !errors.Is(err, registry.ErrNotFound) {
		// Store write failed, so the record still exists. Put the
		// reservation and queue back exactly as they were; a failed
		// delete must not evict the holder.
		e.ledger.Restore(id, dropped, waiters)
		return err
	}
	recipients := e.subs.Subscribers(id)
	if dropped != nil {
		recipients = append(recipients, dropped.HolderID)
	}
	e.subs.Clear(id)

	if dropped != nil {
		e.record(ctx, *dropped, e.now())
	}
	if e.cfg.PurgeHistoryOnDelete {
		if err := e.recorder.Purge(ctx, id); err != nil {
			log.Printf("engine: purge history for %s: %v", id, err)
		}
	}
	e.publish(ctx, queue.ResourceEvent{
		Kind:         queue.KindDeleted,
		ResourceID:   id,
		ResourceName: res.Name,
		Recipients:   recipients,
	})
	return nil
}

// History lists a resource's most recent completed sessions. It accepts
// ids of deleted resources so retained history stays reachable.
func (e *Engine) History(ctx context.Context, resourceID string, limit int) ([]model.HistoryEntry, error) {
	return e.recorder.ListRecent(ctx, resourceID, limit)
}

// promotion captures the outcome of handing a freed resource to the
// queue head, gathered under the lock and announced after it.
type promotion struct {
	next      model.Reservation
	positions map[string]int
}

// promote pops the queue head into a fresh reservation. The entry's
// requested minutes were validated at enqueue time and are honored as-is.
// Must run inside a ledger Update.
func (e *Engine) promote(tx *ledger.Tx, resourceID string) *promotion {
	head := tx.PopFrontWait()
	if head == nil {
		return nil
	}
	now := e.now()
	next := model.Reservation{
		ResourceID: resourceID,
		HolderID:   head.UserID,
		Purpose:    head.Purpose,
		StartedAt:  now,
		ExpiresAt:  now.Add(time.Duration(head.Minutes) * time.Minute),
	}
	tx.SetReservation(next)

	positions := make(map[string]int)
	for i, w := range tx.SnapshotQueue() {
		positions[w.UserID] = i + 1
	}
	return &promotion{next: next, positions: positions}
}

// announceHandover publishes the end-of-tenure event and, when a
// promotion happened, the new-holder event with position shifts.
func (e *Engine) announceHandover(ctx context.Context, res model.Resource, kind, actorID string, promo *promotion) {
	e.publish(ctx, queue.ResourceEvent{
		Kind:         kind,
		ResourceID:   res.ID,
		ResourceName: res.Name,
		ActorID:      actorID,
		Recipients:   exclude(e.subs.Subscribers(res.ID), actorID),
	})
	if promo != nil {
		e.announcePromotion(ctx, res, promo)
	}
}

// record appends a history entry for a terminated reservation. History
// is best-effort relative to reservation-state correctness: failures are
// logged, never propagated.
func (e *Engine) record(ctx context.Context, r model.Reservation, endedAt time.Time) {
	entry := model.HistoryEntry{
		ResourceID: r.ResourceID,
		HolderID:   r.HolderID,
		Purpose:    r.Purpose,
		StartedAt:  r.StartedAt,
		EndedAt:    endedAt,
	}
	if err := e.recorder.Record(ctx, entry); err != nil {
		log.Printf("engine: record history for %s: %v", r.ResourceID, err)
	}
}

func (e *Engine) publish(ctx context.Context, ev queue.ResourceEvent) {
	if e.notifier == nil {
		return
	}
	ev.OccurredAt = e.now().UTC().Format(time.RFC3339)
	if err := e.notifier.Publish(ctx, ev); err != nil {
		log.Printf("engine: publish %s for %s: %v", ev.Kind, ev.ResourceID, err)
	}
}

// mapLedgerErr folds the ledger's unknown-resource sentinel into the
// engine taxonomy; a board can vanish between the registry check and the
// update when a delete races in.
func (e *Engine) mapLedgerErr(err error) error {
	if errors.Is(err, ledger.ErrUnknownResource) {
		return ErrUnknownResource
	}
	return err
}

func exclude(ids []string, skip string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != skip {
			out = append(out, id)
		}
	}
	return out
}
