package database

import (
	"club_manager/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore is the Postgres-backed inventory store. Unit rows are read
// FOR UPDATE so two transactions reserving the same unit serialize and
// can never both pass the capacity check.
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(s.db, ctx, fn)
}

func (s *LedgerStore) UnitForUpdate(ctx context.Context, unitID string) (*model.InventoryUnit, error) {
	var unit model.InventoryUnit
	err := conn(s.db, ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("unit_id = ?", unitID).
		First(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (s *LedgerStore) SaveUnit(ctx context.Context, unit *model.InventoryUnit) error {
	return conn(s.db, ctx).Save(unit).Error
}

func (s *LedgerStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	return conn(s.db, ctx).Create(r).Error
}

func (s *LedgerStore) ReservationsByHold(ctx context.Context, holdID string) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := conn(s.db, ctx).
		Where("hold_id = ?", holdID).
		Order("unit_id").
		Find(&reservations).Error
	return reservations, err
}

func (s *LedgerStore) DeleteReservationsByHold(ctx context.Context, holdID string) error {
	return conn(s.db, ctx).Where("hold_id = ?", holdID).Delete(&model.Reservation{}).Error
}

func (s *LedgerStore) ExpiredHolds(ctx context.Context, now time.Time) ([]string, error) {
	var holds []string
	err := conn(s.db, ctx).Model(&model.Reservation{}).
		Distinct("hold_id").
		Where("expires_at < ?", now).
		Pluck("hold_id", &holds).Error
	return holds, err
}
