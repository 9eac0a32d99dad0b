package cart

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(cartID string) string
}

// RedisStorage keeps each cart as a single string value. A SET replaces the
// value atomically; ttl > 0 expires idle carts.
type RedisStorage struct {
	client redisKV
	ttl    time.Duration
}

func NewRedisStorage(client *redisclient.Client, ttl time.Duration) (*RedisStorage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStorage{client: client, ttl: ttl}, nil
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.client.CartKey(key))
	if err != nil {
		if redisclient.IsNil(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get cart: %w", err)
	}
	return value, nil
}

func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.client.CartKey(key), value, r.ttl); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}
