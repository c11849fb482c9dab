package service

import (
	"club_manager/model"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
)

// AvailabilityPublisher fans out unit availability after ledger changes,
// e.g. to the websocket seat feed. May be nil.
type AvailabilityPublisher interface {
	Availability(unitID string, available int)
}

// Ledger tracks available quantity per sellable unit and performs atomic
// reserve/release/commit. Reservations are grouped under a hold (the order
// public code) and expire if payment never confirms.
type Ledger struct {
	store     LedgerStore
	clock     clockwork.Clock
	broadcast AvailabilityPublisher
}

func NewLedger(store LedgerStore, clk clockwork.Clock) *Ledger {
	return &Ledger{store: store, clock: clk}
}

// WithBroadcaster attaches an availability fan-out.
func (l *Ledger) WithBroadcaster(b AvailabilityPublisher) *Ledger {
	l.broadcast = b
	return l
}

// ReserveLine is one unit/quantity pair of a pending order.
type ReserveLine struct {
	UnitID   string
	Quantity int
}

// Reserve claims quantity on a single unit under holdID.
func (l *Ledger) Reserve(ctx context.Context, unitID string, quantity int, holdID string, ttl time.Duration) (*model.Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var res *model.Reservation
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		r, err := l.reserveOne(ctx, unitID, quantity, holdID, ttl)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.announce(ctx, unitID)
	return res, nil
}

// ReserveAll reserves every line or none: the transaction rolls back as a
// whole on the first failing line, so a partial reservation is never left
// standing.
func (l *Ledger) ReserveAll(ctx context.Context, lines []ReserveLine, holdID string, ttl time.Duration) error {
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		for _, line := range lines {
			if _, err := l.reserveOne(ctx, line.UnitID, line.Quantity, holdID, ttl); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, line := range lines {
		l.announce(ctx, line.UnitID)
	}
	return nil
}

func (l *Ledger) reserveOne(ctx context.Context, unitID string, quantity int, holdID string, ttl time.Duration) (*model.Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	unit, err := l.store.UnitForUpdate(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, unitID)
	}
	if quantity > unit.Available() {
		return nil, fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, unitID, unit.Available())
	}
	unit.Reserved += quantity
	if err := l.store.SaveUnit(ctx, unit); err != nil {
		return nil, err
	}
	res := &model.Reservation{
		UnitID:    unitID,
		HoldID:    holdID,
		Quantity:  quantity,
		ExpiresAt: l.clock.Now().Add(ttl),
	}
	if err := l.store.CreateReservation(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Commit converts every reservation under holdID into committed stock.
// Committing a hold twice is a no-op so retried confirmation callbacks
// stay harmless.
func (l *Ledger) Commit(ctx context.Context, holdID string) error {
	return l.settle(ctx, holdID, true)
}

// Release drops every reservation under holdID back to available.
// Idempotent for the same reason as Commit.
func (l *Ledger) Release(ctx context.Context, holdID string) error {
	return l.settle(ctx, holdID, false)
}

func (l *Ledger) settle(ctx context.Context, holdID string, commit bool) error {
	var touched []string
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		reservations, err := l.store.ReservationsByHold(ctx, holdID)
		if err != nil {
			return err
		}
		if len(reservations) == 0 {
			// Already settled or swept.
			return nil
		}
		for _, r := range reservations {
			unit, err := l.store.UnitForUpdate(ctx, r.UnitID)
			if err != nil {
				return err
			}
			if unit == nil {
				return fmt.Errorf("%w: %s", ErrUnknownUnit, r.UnitID)
			}
			unit.Reserved -= r.Quantity
			if commit {
				unit.Committed += r.Quantity
			}
			if err := l.store.SaveUnit(ctx, unit); err != nil {
				return err
			}
			touched = append(touched, r.UnitID)
		}
		return l.store.DeleteReservationsByHold(ctx, holdID)
	})
	if err != nil {
		return err
	}
	for _, unitID := range touched {
		l.announce(ctx, unitID)
	}
	return nil
}

// Available reports what a new reservation on the unit could still claim.
func (l *Ledger) Available(ctx context.Context, unitID string) (int, error) {
	var available int
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		unit, err := l.store.UnitForUpdate(ctx, unitID)
		if err != nil {
			return err
		}
		if unit == nil {
			return fmt.Errorf("%w: %s", ErrUnknownUnit, unitID)
		}
		available = unit.Available()
		return nil
	})
	return available, err
}

// SweepExpired releases holds whose TTL elapsed without commit and returns
// the swept hold ids so abandoned orders can be cancelled.
func (l *Ledger) SweepExpired(ctx context.Context) []string {
	holds, err := l.store.ExpiredHolds(ctx, l.clock.Now())
	if err != nil {
		log.Printf("ledger sweep: %v", err)
		return nil
	}
	var swept []string
	for _, holdID := range holds {
		if err := l.Release(ctx, holdID); err != nil {
			log.Printf("ledger sweep release %s: %v", holdID, err)
			continue
		}
		swept = append(swept, holdID)
	}
	if len(swept) > 0 {
		log.Printf("ledger sweep released %d expired holds", len(swept))
	}
	return swept
}

func (l *Ledger) announce(ctx context.Context, unitID string) {
	if l.broadcast == nil {
		return
	}
	available, err := l.Available(ctx, unitID)
	if err != nil {
		return
	}
	l.broadcast.Availability(unitID, available)
}
