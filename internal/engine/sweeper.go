package engine

import (
	"context"
	"time"

	"github.com/WismutNaN/resource-queue/internal/ledger"
	"github.com/WismutNaN/resource-queue/internal/model"
	"github.com/WismutNaN/resource-queue/internal/queue"
)

// Sweeper periodically terminates lapsed reservations. Each expiry runs
// the exact terminal sequence of an admin release under the same
// per-resource lock, so a sweep racing a manual release applies at most
// one transition; finding the reservation already gone is a no-op.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(e *Engine, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Sweeper{
		engine:   e,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.run()
}

// Stop halts the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.engine.Sweep(context.Background())
		case <-s.stop:
			return
		}
	}
}

// Sweep scans every board once. Expired reservations are released and
// their queues promoted; holders nearing expiry get a one-time warning.
// Repeating a sweep after an expiry has been processed changes nothing.
func (e *Engine) Sweep(ctx context.Context) {
	now := e.now()
	for _, id := range e.ledger.Resources() {
		var (
			ended *model.Reservation
			promo *promotion
			warn  string
		)
		err := e.ledger.Update(id, func(tx *ledger.Tx) error {
			cur := tx.Reservation()
			if cur == nil {
				return nil
			}
			if !cur.ExpiresAt.After(now) {
				ended = tx.ClearReservation()
				promo = e.promote(tx, id)
				return nil
			}
			if cur.Remaining(now) <= e.cfg.ExpiryWarning && !cur.WarnedExpiry {
				cur.WarnedExpiry = true
				tx.SetReservation(*cur)
				warn = cur.HolderID
			}
			return nil
		})
		if err != nil {
			// Board deleted mid-scan; nothing to do.
			continue
		}

		res, _ := e.registry.Get(id)
		switch {
		case ended != nil:
			// The session ran its full course: close history at the
			// expiry instant, not at sweep time.
			e.record(ctx, *ended, ended.ExpiresAt)
			e.publish(ctx, queue.ResourceEvent{
				Kind:         queue.KindExpired,
				ResourceID:   id,
				ResourceName: res.Name,
				HolderID:     ended.HolderID,
				Recipients:   append(e.subs.Subscribers(id), ended.HolderID),
			})
			if promo != nil {
				e.announcePromotion(ctx, res, promo)
			}
		case warn != "":
			e.publish(ctx, queue.ResourceEvent{
				Kind:         queue.KindExpiringSoon,
				ResourceID:   id,
				ResourceName: res.Name,
				HolderID:     warn,
				Recipients:   []string{warn},
			})
		}
	}
}

func (e *Engine) announcePromotion(ctx context.Context, res model.Resource, promo *promotion) {
	recipients := []string{promo.next.HolderID}
	for uid := range promo.positions {
		recipients = append(recipients, uid)
	}
	e.publish(ctx, queue.ResourceEvent{
		Kind:         queue.KindPromoted,
		ResourceID:   res.ID,
		ResourceName: res.Name,
		HolderID:     promo.next.HolderID,
		ExpiresAt:    promo.next.ExpiresAt.UTC().Format(time.RFC3339),
		Recipients:   recipients,
		Positions:    promo.positions,
	})
}
