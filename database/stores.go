package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// withTx runs fn inside a transaction and makes the transactional handle
// visible to store calls through the context.
func withTx(db *gorm.DB, ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transactional handle when inside withTx, the plain
// connection otherwise.
func conn(db *gorm.DB, ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
