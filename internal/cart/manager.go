package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	DefaultMaxOpen = 10000
	DefaultIdleTTL = 30 * time.Minute
)

// ManagerOptions bounds the set of carts kept in memory. Evicted carts stay
// in storage and are reloaded on the next Open.
type ManagerOptions struct {
	MaxOpen int
	IdleTTL time.Duration
}

// Manager hands out one Store per cart key over a shared Storage, so that
// concurrent requests for the same cart mutate the same in-memory state.
type Manager struct {
	storage Storage
	logg    *logger.Logger

	stores *expirable.LRU[string, *Store]
	loads  singleflight.Group
}

func NewManager(storage Storage, logg *logger.Logger, opts ManagerOptions) (*Manager, error) {
	if storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.MaxOpen <= 0 {
		opts.MaxOpen = DefaultMaxOpen
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	return &Manager{
		storage: storage,
		logg:    logg,
		stores:  expirable.NewLRU[string, *Store](opts.MaxOpen, nil, opts.IdleTTL),
	}, nil
}

// Open returns the store for key, loading it on first use. Loads of
// different keys run in parallel; concurrent opens of one key share a load.
func (m *Manager) Open(ctx context.Context, key string) (*Store, error) {
	if err := ValidateKey(key); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart key")
	}
	if store, ok := m.touch(key); ok {
		return store, nil
	}

	v, err, _ := m.loads.Do(key, func() (any, error) {
		if store, ok := m.touch(key); ok {
			return store, nil
		}
		// A cancelled caller must not leave an empty cart cached for others.
		store, err := NewStore(context.WithoutCancel(ctx), key, m.storage, m.logg)
		if err != nil {
			return nil, err
		}
		m.stores.Add(key, store)
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// touch returns a cached store and restarts its idle timer.
func (m *Manager) touch(key string) (*Store, bool) {
	store, ok := m.stores.Get(key)
	if ok {
		m.stores.Add(key, store)
	}
	return store, ok
}

// Forget drops the cached store for key. The persisted cart is kept.
func (m *Manager) Forget(key string) {
	m.stores.Remove(key)
}

// Len reports how many carts are currently loaded.
func (m *Manager) Len() int {
	return m.stores.Len()
}
