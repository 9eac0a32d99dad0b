package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Remote when the product document is missing.
var ErrNotFound = errors.New("product not found")

// ErrBlobNotFound is wrapped by a BlobStore when the object is already gone.
var ErrBlobNotFound = errors.New("image not found")

// Remote is the shared document store holding the authoritative catalog.
// List and Watch order products by creation time, newest first.
type Remote interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	// Watch delivers the full ordered catalog on every change, starting with
	// the current state. It stops when stop is called or ctx ends; fail is
	// called at most once if the listener breaks.
	Watch(ctx context.Context, deliver func([]Product), fail func(error)) (stop func(), err error)
	// Create assigns the identity and both timestamps.
	Create(ctx context.Context, draft Draft) (Product, error)
	// Update rewrites the fields and the update timestamp only.
	Update(ctx context.Context, id string, draft Draft) (Product, error)
	Delete(ctx context.Context, id string) error
	// Seed writes drafts in one atomic batch. With recordMarker the batch also
	// writes the seed marker and is skipped when the marker already exists.
	Seed(ctx context.Context, drafts []Draft, recordMarker bool) (seeded bool, err error)
	SeedRecorded(ctx context.Context) (bool, error)
}

// BlobStore hosts product images.
type BlobStore interface {
	Upload(ctx context.Context, image ImageUpload) (string, error)
	// Delete removes the object behind ref, wrapping ErrBlobNotFound when it
	// does not exist.
	Delete(ctx context.Context, ref string) error
	// Manages reports whether ref points into this store.
	Manages(ref string) bool
}

// SeedMode controls the first-run baseline seed.
type SeedMode string

const (
	// SeedAuto seeds an empty remote while this process has never held products.
	SeedAuto SeedMode = "auto"
	// SeedOnce also requires that no seed was ever recorded remotely.
	SeedOnce SeedMode = "once"
	SeedOff  SeedMode = "off"
)
