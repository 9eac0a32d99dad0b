package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Base carries the connection shared by gorm-backed stores.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx returns the raw connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// TakeBy loads the single row whose column equals value into dest.
// gorm.ErrRecordNotFound is returned unwrapped.
func (b Base) TakeBy(ctx context.Context, dest any, column string, value any) error {
	return b.DB(ctx).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).Take(dest).Error
}

// Upsert inserts value, or overwrites columns when a row with the same keys
// exists.
func (b Base) Upsert(ctx context.Context, value any, keys, columns []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("upsert needs conflict keys")
	}
	conflict := make([]clause.Column, len(keys))
	for i, k := range keys {
		conflict[i] = clause.Column{Name: k}
	}
	return b.DB(ctx).Clauses(clause.OnConflict{
		Columns:   conflict,
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(value).Error
}
