package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/observer"
	"github.com/google/uuid"
)

// MemoryRemote is an in-process Remote with live listeners.
type MemoryRemote struct {
	mu       sync.Mutex
	docs     map[string]Product
	seeded   bool
	lastTime time.Time
	now      func() time.Time

	version   uint64
	listeners observer.Hub[memorySnapshot]
}

type memorySnapshot struct {
	version  uint64
	products []Product
}

func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{docs: map[string]Product{}, now: time.Now}
}

func (m *MemoryRemote) List(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orderedLocked(), nil
}

func (m *MemoryRemote) Get(ctx context.Context, id string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p.clone(), nil
}

func (m *MemoryRemote) Watch(ctx context.Context, deliver func([]Product), fail func(error)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		deliverMu sync.Mutex
		last      uint64
		started   bool
		stopped   atomic.Bool
	)
	push := func(snap memorySnapshot) {
		deliverMu.Lock()
		defer deliverMu.Unlock()
		if stopped.Load() || (started && snap.version <= last) {
			return
		}
		started, last = true, snap.version
		deliver(cloneProducts(snap.products))
	}

	m.mu.Lock()
	cancel := m.listeners.Subscribe(push)
	initial := memorySnapshot{version: m.version, products: m.orderedLocked()}
	m.mu.Unlock()
	push(initial)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			stopped.Store(true)
			cancel()
		})
	}
	stopOnDone := context.AfterFunc(ctx, stop)
	return func() {
		stopOnDone()
		stop()
	}, nil
}

func (m *MemoryRemote) Create(ctx context.Context, draft Draft) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	m.mu.Lock()
	now := m.tickLocked()
	p := productFromDraft(uuid.NewString(), draft, now, now)
	m.docs[p.ID] = p
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.listeners.Publish(snapshot)
	return p.clone(), nil
}

func (m *MemoryRemote) Update(ctx context.Context, id string, draft Draft) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	m.mu.Lock()
	existing, ok := m.docs[id]
	if !ok {
		m.mu.Unlock()
		return Product{}, ErrNotFound
	}
	p := productFromDraft(id, draft, existing.CreatedAt, m.tickLocked())
	m.docs[id] = p
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.listeners.Publish(snapshot)
	return p.clone(), nil
}

// Delete of a missing document succeeds, as it does on Firestore.
func (m *MemoryRemote) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if _, ok := m.docs[id]; !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.docs, id)
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.listeners.Publish(snapshot)
	return nil
}

func (m *MemoryRemote) Seed(ctx context.Context, drafts []Draft, recordMarker bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	if recordMarker && m.seeded {
		m.mu.Unlock()
		return false, nil
	}
	now := m.tickLocked()
	for _, draft := range drafts {
		p := productFromDraft(uuid.NewString(), draft, now, now)
		m.docs[p.ID] = p
	}
	if recordMarker {
		m.seeded = true
	}
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.listeners.Publish(snapshot)
	return true, nil
}

func (m *MemoryRemote) SeedRecorded(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seeded, nil
}

// tickLocked returns a strictly increasing timestamp.
func (m *MemoryRemote) tickLocked() time.Time {
	now := m.now().UTC()
	if !now.After(m.lastTime) {
		now = m.lastTime.Add(time.Microsecond)
	}
	m.lastTime = now
	return now
}

func (m *MemoryRemote) snapshotLocked() memorySnapshot {
	m.version++
	return memorySnapshot{version: m.version, products: m.orderedLocked()}
}

func (m *MemoryRemote) orderedLocked() []Product {
	out := make([]Product, 0, len(m.docs))
	for _, p := range m.docs {
		out = append(out, p.clone())
	}
	// Map order is random; break creation-time ties by id.
	sortByID(out)
	sortNewestFirst(out)
	return out
}

func productFromDraft(id string, draft Draft, createdAt, updatedAt time.Time) Product {
	p := Product{
		ID:          id,
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		Category:    draft.Category,
		Type:        draft.Type,
		Stock:       draft.Stock,
		ImageURL:    draft.ImageURL,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	if draft.Sizes != nil {
		p.Sizes = append([]string(nil), draft.Sizes...)
	}
	return p
}
