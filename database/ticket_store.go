package database

import (
	"club_manager/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type TicketStore struct {
	db *gorm.DB
}

func NewTicketStore(db *gorm.DB) *TicketStore {
	return &TicketStore{db: db}
}

func (s *TicketStore) Create(ctx context.Context, rec *model.TicketRecord) error {
	return conn(s.db, ctx).Create(rec).Error
}

func (s *TicketStore) ByOrderItem(ctx context.Context, itemID uint) (*model.TicketRecord, error) {
	return s.first(ctx, "order_item_id = ?", itemID)
}

func (s *TicketStore) ByCode(ctx context.Context, code string) (*model.TicketRecord, error) {
	return s.first(ctx, "code = ?", code)
}

func (s *TicketStore) first(ctx context.Context, query string, arg any) (*model.TicketRecord, error) {
	var rec model.TicketRecord
	err := conn(s.db, ctx).Where(query, arg).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *TicketStore) ByOrder(ctx context.Context, orderID uint) ([]model.TicketRecord, error) {
	var recs []model.TicketRecord
	err := conn(s.db, ctx).Where("order_id = ?", orderID).Order("id").Find(&recs).Error
	return recs, err
}

// Redeem is the one-time flip: a guarded UPDATE that only matches an
// ISSUED row, so of two racing validations exactly one gets RowsAffected.
func (s *TicketStore) Redeem(ctx context.Context, code string, at time.Time) (bool, error) {
	res := conn(s.db, ctx).Model(&model.TicketRecord{}).
		Where("code = ? AND status = ?", code, model.TicketIssued).
		Updates(map[string]any{"status": model.TicketUsed, "used_at": at})
	return res.RowsAffected > 0, res.Error
}

func (s *TicketStore) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	res := conn(s.db, ctx).Model(&model.TicketRecord{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", model.TicketIssued, now).
		Update("status", model.TicketExpired)
	return res.RowsAffected, res.Error
}

func (s *TicketStore) CancelByOrder(ctx context.Context, orderID uint, at time.Time) error {
	return conn(s.db, ctx).Model(&model.TicketRecord{}).
		Where("order_id = ? AND status IN ?", orderID, []string{model.TicketIssued, model.TicketExpired}).
		Updates(map[string]any{"status": model.TicketCancelled, "updated_at": at}).Error
}
