package cart

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// SQLStorage keeps carts in the cart_snapshots table, one row per key.
type SQLStorage struct {
	repo.Base
}

func NewSQLStorage(conn *gorm.DB) (*SQLStorage, error) {
	if conn == nil {
		return nil, fmt.Errorf("database connection required")
	}
	return &SQLStorage{Base: repo.NewBase(conn)}, nil
}

func (s *SQLStorage) Get(ctx context.Context, key string) (string, error) {
	var snap models.CartSnapshot
	if err := s.TakeBy(ctx, &snap, "cart_key", key); err != nil {
		if db.IsRecordNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("db: load cart: %w", err)
	}
	return snap.Payload, nil
}

// Set upserts the row in a single statement.
func (s *SQLStorage) Set(ctx context.Context, key, value string) error {
	snap := models.CartSnapshot{CartKey: key, Payload: value}
	if err := s.Upsert(ctx, &snap, []string{"cart_key"}, []string{"payload", "updated_at"}); err != nil {
		return fmt.Errorf("db: save cart: %w", err)
	}
	return nil
}
