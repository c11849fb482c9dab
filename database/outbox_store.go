package database

import (
	"club_manager/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type OutboxStore struct {
	db *gorm.DB
}

func NewOutboxStore(db *gorm.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

func (s *OutboxStore) Append(ctx context.Context, ev *model.OutboxEvent) error {
	return conn(s.db, ctx).Create(ev).Error
}

func (s *OutboxStore) Pending(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	var events []model.OutboxEvent
	err := conn(s.db, ctx).
		Where("status = ?", model.OutboxPending).
		Order("id").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (s *OutboxStore) MarkPublished(ctx context.Context, id uint, at time.Time) error {
	return conn(s.db, ctx).Model(&model.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxPublished, "published_at": at}).Error
}

func (s *OutboxStore) IncrementAttempts(ctx context.Context, id uint) error {
	return conn(s.db, ctx).Model(&model.OutboxEvent{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}
