package data

import (
	"context"

	"gorm.io/gorm"

	"github.com/lk2023060901/dealer-backend/internal/pkg/database"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

// Transactor runs biz work in one catalog transaction. Repositories resolve
// their handle through database.DB.Conn, so they join it automatically.
type Transactor struct {
	db *database.DB
}

func NewTransactor(db *database.DB) *Transactor {
	return &Transactor{db: db}
}

var _ biz.Transactor = (*Transactor)(nil)

func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.db.Transaction(ctx, func(ctx context.Context, _ *gorm.DB) error {
		return fn(ctx)
	})
}
