package database

import (
	"club_manager/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Create(ctx context.Context, order *model.Order) error {
	return conn(s.db, ctx).Create(order).Error
}

func (s *OrderStore) ByPublicCode(ctx context.Context, code string) (*model.Order, error) {
	return s.first(ctx, "public_code = ?", code)
}

func (s *OrderStore) ByPaymentRef(ctx context.Context, ref string) (*model.Order, error) {
	return s.first(ctx, "payment_ref = ?", ref)
}

func (s *OrderStore) first(ctx context.Context, query string, arg any) (*model.Order, error) {
	var order model.Order
	err := conn(s.db, ctx).Preload("Items").Where(query, arg).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderStore) Save(ctx context.Context, order *model.Order) error {
	return conn(s.db, ctx).Save(order).Error
}

func (s *OrderStore) StaleProcessing(ctx context.Context, before time.Time) ([]string, error) {
	var codes []string
	err := conn(s.db, ctx).Model(&model.Order{}).
		Where("state = ? AND created_at < ?", model.StateProcessing, before).
		Order("id").
		Pluck("public_code", &codes).Error
	return codes, err
}
