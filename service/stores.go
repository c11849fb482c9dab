package service

import (
	"club_manager/model"
	"context"
	"time"
)

// LedgerStore persists inventory units and reservations. All mutating
// ledger operations run inside WithTx; UnitForUpdate must take a row lock
// so concurrent reservations on one unit serialize.
type LedgerStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	UnitForUpdate(ctx context.Context, unitID string) (*model.InventoryUnit, error)
	SaveUnit(ctx context.Context, unit *model.InventoryUnit) error
	CreateReservation(ctx context.Context, r *model.Reservation) error
	ReservationsByHold(ctx context.Context, holdID string) ([]model.Reservation, error)
	DeleteReservationsByHold(ctx context.Context, holdID string) error
	ExpiredHolds(ctx context.Context, now time.Time) ([]string, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *model.Order) error
	ByPublicCode(ctx context.Context, code string) (*model.Order, error)
	ByPaymentRef(ctx context.Context, ref string) (*model.Order, error)
	Save(ctx context.Context, order *model.Order) error
	// StaleProcessing lists public codes of PROCESSING orders created
	// before the cutoff. Catches abandoned orders that hold no
	// reservations, e.g. membership purchases.
	StaleProcessing(ctx context.Context, before time.Time) ([]string, error)
}

type TicketStore interface {
	Create(ctx context.Context, rec *model.TicketRecord) error
	ByOrderItem(ctx context.Context, itemID uint) (*model.TicketRecord, error)
	ByCode(ctx context.Context, code string) (*model.TicketRecord, error)
	ByOrder(ctx context.Context, orderID uint) ([]model.TicketRecord, error)
	// Redeem flips ISSUED to USED for the code and reports whether this
	// call won the flip. Must be atomic (guarded update).
	Redeem(ctx context.Context, code string, at time.Time) (bool, error)
	// MarkExpired moves ISSUED records past their validity to EXPIRED.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
	CancelByOrder(ctx context.Context, orderID uint, at time.Time) error
}

type OutboxStore interface {
	Append(ctx context.Context, ev *model.OutboxEvent) error
	Pending(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uint, at time.Time) error
	IncrementAttempts(ctx context.Context, id uint) error
}
