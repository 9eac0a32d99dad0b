package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/observer"
	"github.com/shopspring/decimal"
)

// Store owns the line items of one cart and keeps them persisted.
type Store struct {
	key     string
	storage Storage
	logg    *logger.Logger

	// commitMu serializes mutations including their storage write. mu only
	// guards lines, so readers never wait on storage.
	commitMu sync.Mutex
	mu       sync.Mutex
	lines    []LineItem

	changes observer.Hub[Snapshot]
	notices observer.Hub[Notice]
}

// NewStore loads the cart stored under key. Missing or unreadable data
// starts an empty cart; only invalid arguments return an error.
func NewStore(ctx context.Context, key string, storage Storage, logg *logger.Logger) (*Store, error) {
	if storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateKey(key); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart key")
	}

	s := &Store{key: key, storage: storage, logg: logg}
	s.lines = s.load(ctx)
	return s, nil
}

func (s *Store) load(ctx context.Context) []LineItem {
	ctx = s.logg.WithCartKey(ctx, s.key)

	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logg.Error(ctx, "cart load failed, starting empty", err)
		}
		return []LineItem{}
	}

	lines, dropped, err := decodeLines(raw)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "stored cart unreadable, starting empty")
		return []LineItem{}
	}
	if dropped > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "dropped_lines", dropped), "stored cart had invalid lines")
	}
	return lines
}

// Key returns the storage key of this cart.
func (s *Store) Key() string {
	return s.key
}

// AddToCart adds one unit of product in the given size. Sized products
// require a size from their offered list; unsized products ignore size.
func (s *Store) AddToCart(ctx context.Context, product Product, size string) (LineItem, error) {
	productID := strings.TrimSpace(product.ID)
	if productID == "" {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if product.Price.IsNegative() {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "product price must not be negative")
	}

	size = strings.TrimSpace(size)
	if len(product.Sizes) == 0 {
		size = ""
	} else {
		if size == "" {
			return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "size selection is required").
				WithDetails(map[string]any{"sizes": product.Sizes})
		}
		if !offersSize(product.Sizes, size) {
			return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "size is not offered for this product").
				WithDetails(map[string]any{"size": size, "sizes": product.Sizes})
		}
	}

	key := LineKey(productID, size)

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	next := s.Lines()
	kind := enums.CartNoticeItemAdded
	idx := indexOf(next, key)
	if idx >= 0 {
		next[idx].Quantity++
		kind = enums.CartNoticeQuantityUpdated
	} else {
		next = append(next, LineItem{
			Key:       key,
			ProductID: productID,
			Name:      product.Name,
			Price:     product.Price,
			ImageURL:  product.ImageURL,
			Category:  product.Category,
			Quantity:  1,
			Size:      size,
		})
		idx = len(next) - 1
	}
	line := next[idx]
	snap, err := s.commit(ctx, next)
	if err != nil {
		return LineItem{}, err
	}

	s.changes.Publish(snap)
	s.notices.Publish(Notice{Kind: kind, Line: &line})
	return line, nil
}

// RemoveFromCart deletes the line with the given key. Removing an absent
// line changes nothing but still raises the removed notice.
func (s *Store) RemoveFromCart(ctx context.Context, key string) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	current := s.Lines()
	idx := indexOf(current, key)
	if idx < 0 {
		s.notices.Publish(Notice{Kind: enums.CartNoticeRemoved})
		return nil
	}
	removed := current[idx]
	next := append(current[:idx:idx], current[idx+1:]...)
	snap, err := s.commit(ctx, next)
	if err != nil {
		return err
	}

	s.changes.Publish(snap)
	s.notices.Publish(Notice{Kind: enums.CartNoticeRemoved, Line: &removed})
	return nil
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
// Setting a quantity raises no notice.
func (s *Store) UpdateQuantity(ctx context.Context, key string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, key)
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	next := s.Lines()
	idx := indexOf(next, key)
	if idx < 0 || next[idx].Quantity == quantity {
		return nil
	}
	next[idx].Quantity = quantity
	snap, err := s.commit(ctx, next)
	if err != nil {
		return err
	}

	s.changes.Publish(snap)
	return nil
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	snap, err := s.commit(ctx, []LineItem{})
	if err != nil {
		return err
	}

	s.changes.Publish(snap)
	s.notices.Publish(Notice{Kind: enums.CartNoticeCleared})
	return nil
}

// TotalItems sums quantities across lines.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, _ := totals(s.lines)
	return items
}

// TotalPrice sums price times quantity across lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, price := totals(s.lines)
	return price
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

// Snapshot returns the current state with totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every state change, including silent quantity
// updates. Callbacks run in commit order and must not mutate the cart.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	return s.changes.Subscribe(fn)
}

// OnNotice registers fn for user-visible notifications. Like Subscribe, fn
// must not mutate the cart.
func (s *Store) OnNotice(fn func(Notice)) (cancel func()) {
	return s.notices.Subscribe(fn)
}

// commit persists next and swaps it in. Callers hold commitMu. On failure
// the in-memory state is untouched.
func (s *Store) commit(ctx context.Context, next []LineItem) (Snapshot, error) {
	payload, err := encodeLines(next)
	if err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.storage.Set(ctx, s.key, payload); err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = next
	return s.snapshotLocked(), nil
}

func (s *Store) snapshotLocked() Snapshot {
	items, price := totals(s.lines)
	return Snapshot{
		Lines:      cloneLines(s.lines),
		TotalItems: items,
		TotalPrice: price,
	}
}

func offersSize(sizes []string, size string) bool {
	for _, candidate := range sizes {
		if candidate == size {
			return true
		}
	}
	return false
}
