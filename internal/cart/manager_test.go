package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func TestManagerSharesStorePerKey(t *testing.T) {
	ctx := context.Background()
	manager, err := NewManager(newMemStorage(), logger.Nop(), ManagerOptions{})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	a, err := manager.Open(ctx, "alpha")
	if err != nil {
		t.Fatalf("open alpha: %v", err)
	}
	again, _ := manager.Open(ctx, "alpha")
	b, _ := manager.Open(ctx, "beta")

	if a != again {
		t.Fatalf("expected the same store for the same key")
	}
	if a == b {
		t.Fatalf("expected distinct stores for distinct keys")
	}
	if manager.Len() != 2 {
		t.Fatalf("expected 2 loaded carts, got %d", manager.Len())
	}

	if _, err := manager.Open(ctx, "bad key"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestManagerForgetReloadsFromStorage(t *testing.T) {
	ctx := context.Background()
	manager, _ := NewManager(newMemStorage(), logger.Nop(), ManagerOptions{})

	store, _ := manager.Open(ctx, "alpha")
	mustAdd(t, store, backpack(), "")
	manager.Forget("alpha")

	reopened, err := manager.Open(ctx, "alpha")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened == store {
		t.Fatalf("expected a fresh store after forget")
	}
	if reopened.TotalItems() != 1 {
		t.Fatalf("expected persisted item, got %d", reopened.TotalItems())
	}
}

func TestConcurrentAddsOnSharedStore(t *testing.T) {
	ctx := context.Background()
	manager, _ := NewManager(newMemStorage(), logger.Nop(), ManagerOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store, err := manager.Open(ctx, "shared")
			if err != nil {
				t.Errorf("open: %v", err)
				return
			}
			if _, err := store.AddToCart(ctx, backpack(), ""); err != nil {
				t.Errorf("add: %v", err)
			}
		}()
	}
	wg.Wait()

	store, _ := manager.Open(ctx, "shared")
	if got := store.TotalItems(); got != 20 {
		t.Fatalf("expected 20 items, got %d", got)
	}
}

func TestManagerEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	manager, _ := NewManager(storage, logger.Nop(), ManagerOptions{MaxOpen: 10})

	first, _ := manager.Open(ctx, "cart-0")
	mustAdd(t, first, backpack(), "")
	for i := 1; i < 100; i++ {
		if _, err := manager.Open(ctx, fmt.Sprintf("cart-%d", i)); err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
	}
	if got := manager.Len(); got > 10 {
		t.Fatalf("expected at most 10 loaded carts, got %d", got)
	}

	reopened, err := manager.Open(ctx, "cart-0")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened == first {
		t.Fatalf("expected cart-0 to have been evicted")
	}
	if reopened.TotalItems() != 1 {
		t.Fatalf("expected evicted cart to reload its item, got %d", reopened.TotalItems())
	}
}

func TestManagerExpiresIdleCarts(t *testing.T) {
	ctx := context.Background()
	manager, _ := NewManager(newMemStorage(), logger.Nop(), ManagerOptions{IdleTTL: 50 * time.Millisecond})

	store, _ := manager.Open(ctx, "alpha")
	mustAdd(t, store, shirt(), "M")
	time.Sleep(120 * time.Millisecond)

	reopened, _ := manager.Open(ctx, "alpha")
	if reopened == store {
		t.Fatalf("expected idle cart to be dropped")
	}
	if reopened.TotalItems() != 1 {
		t.Fatalf("expected persisted item, got %d", reopened.TotalItems())
	}
}

type gatedStorage struct {
	*memStorage
	gateKey string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStorage) Get(ctx context.Context, key string) (string, error) {
	if key == g.gateKey {
		close(g.entered)
		<-g.release
	}
	return g.memStorage.Get(ctx, key)
}

func TestManagerLoadsDoNotBlockOtherKeys(t *testing.T) {
	ctx := context.Background()
	storage := &gatedStorage{
		memStorage: newMemStorage(),
		gateKey:    "slow",
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	manager, _ := NewManager(storage, logger.Nop(), ManagerOptions{})

	done := make(chan error, 1)
	go func() {
		_, err := manager.Open(ctx, "slow")
		done <- err
	}()
	<-storage.entered

	opened := make(chan error, 1)
	go func() {
		_, err := manager.Open(ctx, "fast")
		opened <- err
	}()
	select {
	case err := <-opened:
		if err != nil {
			t.Fatalf("open fast: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("open of another key blocked behind a pending load")
	}

	close(storage.release)
	if err := <-done; err != nil {
		t.Fatalf("open slow: %v", err)
	}
}

type ctxStorage struct {
	*memStorage
}

func (c ctxStorage) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.memStorage.Get(ctx, key)
}

func TestManagerLoadSurvivesCancelledCaller(t *testing.T) {
	storage := ctxStorage{newMemStorage()}
	seed := newTestStore(t, storage)
	mustAdd(t, seed, backpack(), "")

	manager, _ := NewManager(storage, logger.Nop(), ManagerOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store, err := manager.Open(ctx, "cart-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.TotalItems() != 1 {
		t.Fatalf("expected persisted item despite cancelled caller, got %d", store.TotalItems())
	}
}
