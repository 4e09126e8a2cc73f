package database

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TxFunc runs inside a transaction. ctx carries the transaction so repositories
// that resolve their handle with Conn join it.
type TxFunc func(ctx context.Context, tx *gorm.DB) error

type txKey struct{}

// Transaction executes fn within a database transaction
func (db *DB) Transaction(ctx context.Context, fn TxFunc) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(ContextWithTransaction(ctx, tx), tx); err != nil {
			db.logger.WithContext(ctx).Warn("transaction rolled back", zap.Error(err))
			return err
		}
		return nil
	})
}

// ContextWithTransaction stores tx in ctx
func ContextWithTransaction(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TransactionFromContext extracts the transaction stored by ContextWithTransaction
func TransactionFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok
}

// Conn returns the transaction in ctx if any, otherwise the pool bound to ctx
func (db *DB) Conn(ctx context.Context) *gorm.DB {
	if tx, ok := TransactionFromContext(ctx); ok {
		return tx
	}
	return db.DB.WithContext(ctx)
}
