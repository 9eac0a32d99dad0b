package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/observer"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds a shared catalog read once no single caller
// owns it.
const DefaultFetchTimeout = 30 * time.Second

// DefaultPlaceholderImageURL is used when a product is created without an image.
const DefaultPlaceholderImageURL = "https://images.unsplash.com/photo-1579952363873-27f3bade9f55?w=400&h=400&fit=crop"

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"

	sourceFetch        = "fetch"
	sourceSubscription = "subscription"
)

// Options configures optional collaborators of a Store.
type Options struct {
	SeedMode            SeedMode
	PlaceholderImageURL string
	// Blobs hosts uploaded images. Without it image uploads are refused.
	Blobs   BlobStore
	Events  EventPublisher
	Metrics *metrics.CatalogMetrics
	// FetchTimeout bounds a shared remote read. Zero means DefaultFetchTimeout.
	FetchTimeout time.Duration
}

// Store holds the local copy of the catalog and performs admin mutations
// against the remote store.
type Store struct {
	remote      Remote
	blobs       BlobStore
	events      EventPublisher
	metrics     *metrics.CatalogMetrics
	logg        *logger.Logger
	seedMode    SeedMode
	placeholder string

	fetchTimeout time.Duration
	fetches      singleflight.Group
	submitting atomic.Int32

	mu        sync.RWMutex
	products  []Product
	populated bool

	changes observer.Hub[[]Product]
}

func NewStore(remote Remote, logg *logger.Logger, opts Options) (*Store, error) {
	if remote == nil {
		return nil, fmt.Errorf("catalog remote required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	mode := opts.SeedMode
	switch mode {
	case "":
		mode = SeedAuto
	case SeedAuto, SeedOnce, SeedOff:
	default:
		return nil, fmt.Errorf("unsupported seed mode %q", mode)
	}
	placeholder := strings.TrimSpace(opts.PlaceholderImageURL)
	if placeholder == "" {
		placeholder = DefaultPlaceholderImageURL
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Store{
		remote:      remote,
		blobs:       opts.Blobs,
		events:      opts.Events,
		metrics:     opts.Metrics,
		logg:        logg,
		seedMode:    mode,
		placeholder: placeholder,

		fetchTimeout: fetchTimeout,
		products:     []Product{},
	}, nil
}

// FetchAll reads the whole catalog once and replaces the local copy.
// Concurrent callers share a single remote read. The shared read does not
// inherit any caller's cancellation; each caller stops waiting when its own
// ctx is done.
func (s *Store) FetchAll(ctx context.Context) ([]Product, error) {
	ch := s.fetches.DoChan("all", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return s.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "fetch catalog")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneProducts(res.Val.([]Product)), nil
	}
}

func (s *Store) fetch(ctx context.Context) ([]Product, error) {
	products, err := s.remote.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch catalog")
	}

	if len(products) == 0 {
		seeded, err := s.seedIfPristine(ctx)
		if err != nil {
			return nil, err
		}
		if seeded {
			products, err = s.remote.List(ctx)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch seeded catalog")
			}
		}
	}

	s.apply(products, sourceFetch)
	return products, nil
}

// seedIfPristine writes the baseline catalog when the remote is empty and
// this store has never held a product.
func (s *Store) seedIfPristine(ctx context.Context) (bool, error) {
	if s.seedMode == SeedOff {
		return false, nil
	}
	s.mu.RLock()
	populated := s.populated
	s.mu.RUnlock()
	if populated {
		return false, nil
	}

	recordMarker := s.seedMode == SeedOnce
	if recordMarker {
		recorded, err := s.remote.SeedRecorded(ctx)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check catalog seed marker")
		}
		if recorded {
			return false, nil
		}
	}

	drafts := BaselineProducts()
	seeded, err := s.remote.Seed(ctx, drafts, recordMarker)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed catalog")
	}
	if seeded {
		s.metrics.IncSeed()
		s.logg.Info(s.logg.WithField(ctx, "products", len(drafts)), "baseline catalog seeded")
		s.publish(ctx, ChangeEvent{Type: enums.CatalogEventSeeded, Count: len(drafts)})
	}
	return seeded, nil
}

// Subscribe keeps the local copy in sync with every remote change until the
// returned cancel is called or ctx ends. fn receives each full snapshot.
func (s *Store) Subscribe(ctx context.Context, fn func([]Product)) (cancel func(), err error) {
	stop, err := s.remote.Watch(ctx, func(products []Product) {
		s.apply(products, sourceSubscription)
		if fn != nil {
			fn(cloneProducts(products))
		}
	}, func(err error) {
		s.metrics.IncSubscriptionError()
		s.logg.Error(ctx, "catalog subscription ended", err)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to catalog")
	}
	return stop, nil
}

// OnChange registers fn for every change of the local copy.
func (s *Store) OnChange(fn func([]Product)) (cancel func()) {
	return s.changes.Subscribe(fn)
}

// Products returns the local copy, newest first.
func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products)
}

// ProductByID looks up a product in the local copy.
func (s *Store) ProductByID(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p.clone(), true
		}
	}
	return Product{}, false
}

// Submitting reports whether a create, update or delete is in flight.
func (s *Store) Submitting() bool {
	return s.submitting.Load() > 0
}

// CreateProduct validates input, stores the image if one was uploaded and
// writes the new product remotely before adding it to the local copy.
func (s *Store) CreateProduct(ctx context.Context, input ProductInput) (product Product, err error) {
	done := s.begin(opCreate)
	defer func() { done(err) }()

	draft, err := draftFromInput(input)
	if err != nil {
		return Product{}, err
	}

	uploaded := ""
	switch {
	case input.Image != nil:
		uploaded, err = s.upload(ctx, *input.Image)
		if err != nil {
			return Product{}, err
		}
		draft.ImageURL = uploaded
	case draft.ImageURL == "":
		draft.ImageURL = s.placeholder
	}

	created, err := s.remote.Create(ctx, draft)
	if err != nil {
		s.discardUpload(ctx, uploaded)
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	s.upsertLocal(created)
	ctx = s.logg.WithProductID(ctx, created.ID)
	s.logg.Info(ctx, "product created")
	s.publish(ctx, ChangeEvent{Type: enums.CatalogEventProductCreated, ProductID: created.ID, Product: &created})
	return created.clone(), nil
}

// UpdateProduct rewrites a product. A new image replaces the stored one;
// otherwise the caller URL or the current image is kept.
func (s *Store) UpdateProduct(ctx context.Context, id string, input ProductInput) (product Product, err error) {
	done := s.begin(opUpdate)
	defer func() { done(err) }()

	ctx = s.logg.WithProductID(ctx, id)
	draft, err := draftFromInput(input)
	if err != nil {
		return Product{}, err
	}

	existing, err := s.lookup(ctx, id)
	if err != nil {
		return Product{}, err
	}

	uploaded := ""
	switch {
	case input.Image != nil:
		uploaded, err = s.upload(ctx, *input.Image)
		if err != nil {
			return Product{}, err
		}
		draft.ImageURL = uploaded
	case draft.ImageURL == "":
		draft.ImageURL = existing.ImageURL
	}

	updated, err := s.remote.Update(ctx, id, draft)
	if err != nil {
		s.discardUpload(ctx, uploaded)
		if errors.Is(err, ErrNotFound) {
			return Product{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	if uploaded != "" && existing.ImageURL != uploaded {
		if warning := s.deleteImage(ctx, existing.ImageURL); warning != "" {
			s.logg.Warn(s.logg.WithField(ctx, "image", existing.ImageURL), warning)
		}
	}

	s.upsertLocal(updated)
	s.logg.Info(ctx, "product updated")
	s.publish(ctx, ChangeEvent{Type: enums.CatalogEventProductUpdated, ProductID: updated.ID, Product: &updated})
	return updated.clone(), nil
}

// DeleteProduct removes the product image, when hosted by the blob store, and
// then the product. Image failures only produce a warning.
func (s *Store) DeleteProduct(ctx context.Context, id string) (result DeleteResult, err error) {
	done := s.begin(opDelete)
	defer func() { done(err) }()

	ctx = s.logg.WithProductID(ctx, id)
	existing, err := s.lookup(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	if warning := s.deleteImage(ctx, existing.ImageURL); warning != "" {
		result.Warning = warning
		s.logg.Warn(s.logg.WithField(ctx, "image", existing.ImageURL), warning)
	}

	if err := s.remote.Delete(ctx, id); err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}

	s.removeLocal(id)
	s.logg.Info(ctx, "product deleted")
	s.publish(ctx, ChangeEvent{Type: enums.CatalogEventProductDeleted, ProductID: id})
	return result, nil
}

// begin marks a mutation as in flight and returns its completion callback.
func (s *Store) begin(op string) func(error) {
	start := time.Now()
	s.submitting.Add(1)
	return func(err error) {
		s.submitting.Add(-1)
		s.metrics.ObserveMutation(op, time.Since(start), err)
	}
}

func (s *Store) lookup(ctx context.Context, id string) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if p, ok := s.ProductByID(id); ok {
		return p, nil
	}
	p, err := s.remote.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return p, nil
}

func (s *Store) upload(ctx context.Context, image ImageUpload) (string, error) {
	if s.blobs == nil {
		return "", pkgerrors.New(pkgerrors.CodeUpload, "image uploads are not configured")
	}
	ref, err := s.blobs.Upload(ctx, image)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return "", err
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeUpload, err, "upload image")
	}
	return ref, nil
}

// discardUpload removes an image whose product write failed.
func (s *Store) discardUpload(ctx context.Context, ref string) {
	if ref == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, ref); err != nil && !errors.Is(err, ErrBlobNotFound) {
		s.logg.Error(s.logg.WithField(ctx, "image", ref), "orphaned image not removed", err)
	}
}

// deleteImage removes a managed image and returns a warning when that fails.
// Missing objects and unmanaged references are not an error.
func (s *Store) deleteImage(ctx context.Context, ref string) string {
	if ref == "" || s.blobs == nil || !s.blobs.Manages(ref) {
		return ""
	}
	err := s.blobs.Delete(ctx, ref)
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrBlobNotFound) {
		s.logg.Debug(s.logg.WithField(ctx, "image", ref), "product image already gone")
		return ""
	}
	s.metrics.IncBlobWarning()
	return fmt.Sprintf("product image could not be removed: %v", err)
}

func (s *Store) publish(ctx context.Context, event ChangeEvent) {
	if s.events == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := s.events.PublishChange(ctx, event); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "event_type", event.Type.String()), "catalog event not published", err)
	}
}

// apply replaces the local copy with a full snapshot.
func (s *Store) apply(products []Product, source string) {
	next := cloneProducts(products)
	sortNewestFirst(next)

	s.mu.Lock()
	s.products = next
	if len(next) > 0 {
		s.populated = true
	}
	s.mu.Unlock()

	s.metrics.IncSnapshot(source)
	s.changes.Publish(cloneProducts(next))
}

func (s *Store) upsertLocal(p Product) {
	s.mu.Lock()
	next := cloneProducts(s.products)
	replaced := false
	for i := range next {
		if next[i].ID == p.ID {
			next[i] = p.clone()
			replaced = true
			break
		}
	}
	if !replaced {
		next = append([]Product{p.clone()}, next...)
	}
	sortNewestFirst(next)
	s.products = next
	s.populated = true
	snapshot := cloneProducts(next)
	s.mu.Unlock()

	s.changes.Publish(snapshot)
}

func (s *Store) removeLocal(id string) {
	s.mu.Lock()
	next := make([]Product, 0, len(s.products))
	removed := false
	for _, existing := range s.products {
		if existing.ID == id {
			removed = true
			continue
		}
		next = append(next, existing)
	}
	s.products = next
	snapshot := cloneProducts(next)
	s.mu.Unlock()

	if removed {
		s.changes.Publish(snapshot)
	}
}
