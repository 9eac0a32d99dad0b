package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/storage/gcs"
	"github.com/google/uuid"
)

const (
	firebaseTokenKey  = "firebaseStorageDownloadTokens"
	imageCacheControl = "public, max-age=31536000"
)

type objectStore interface {
	Upload(ctx context.Context, bucket, object string, data []byte, attrs gcs.ObjectAttrs) error
	Delete(ctx context.Context, bucket, object string) error
}

// Options configures where and how product images are stored.
type Options struct {
	Bucket   string
	Prefix   string
	URLStyle string
	MaxBytes int64
}

// Store keeps product images in a GCS bucket.
type Store struct {
	objects  objectStore
	bucket   string
	prefix   string
	urlStyle string
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

var _ catalog.BlobStore = (*Store)(nil)

func NewStore(objects objectStore, opts Options, logg *logger.Logger) (*Store, error) {
	if objects == nil {
		return nil, fmt.Errorf("object store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	style := opts.URLStyle
	switch style {
	case "":
		style = config.URLStyleFirebase
	case config.URLStyleFirebase, config.URLStylePublic:
	default:
		return nil, fmt.Errorf("unsupported url style %q", style)
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = config.MediaConfig{}.MaxUploadBytes()
	}
	return &Store{
		objects:  objects,
		bucket:   bucket,
		prefix:   strings.Trim(strings.TrimSpace(opts.Prefix), "/"),
		urlStyle: style,
		maxBytes: maxBytes,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Upload validates the image and writes it under <prefix>/<unix-ms>_<name>.
// Size and format problems are validation errors raised before any write.
func (s *Store) Upload(ctx context.Context, image catalog.ImageUpload) (string, error) {
	if len(image.Data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image is empty")
	}
	if int64(len(image.Data)) > s.maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image is too large").
			WithDetails(map[string]any{"max_bytes": s.maxBytes, "size_bytes": len(image.Data)})
	}
	detected, ok := detectImageType(image.Data)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image must be "+humanReadableList(allowedImageNames)).
			WithDetails(map[string]any{"detected": detected.String()})
	}

	name := sanitizeFileName(image.Filename)
	if name == "" {
		name = "image" + detected.Extension()
	}
	object := s.objectName(name)

	attrs := gcs.ObjectAttrs{
		ContentType:  detected.String(),
		CacheControl: imageCacheControl,
	}
	token := ""
	if s.urlStyle == config.URLStyleFirebase {
		token = uuid.NewString()
		attrs.Metadata = map[string]string{firebaseTokenKey: token}
	}

	if err := s.objects.Upload(ctx, s.bucket, object, image.Data, attrs); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUpload, err, "upload image")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"object": object, "content_type": attrs.ContentType}), "product image uploaded")
	if s.urlStyle == config.URLStyleFirebase {
		return gcs.FirebaseDownloadURL(s.bucket, object, token), nil
	}
	return gcs.PublicURL(s.bucket, object), nil
}

// Delete removes the object referenced by ref. Missing objects wrap
// catalog.ErrBlobNotFound.
func (s *Store) Delete(ctx context.Context, ref string) error {
	bucket, object, ok := gcs.ParseObjectURL(ref)
	if !ok || bucket != s.bucket {
		return fmt.Errorf("image %q is not stored in bucket %s", ref, s.bucket)
	}
	if err := s.objects.Delete(ctx, bucket, object); err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return fmt.Errorf("%w: %s", catalog.ErrBlobNotFound, object)
		}
		return fmt.Errorf("delete image %s: %w", object, err)
	}
	return nil
}

// Manages reports whether ref points into the configured bucket, in either
// URL style.
func (s *Store) Manages(ref string) bool {
	bucket, _, ok := gcs.ParseObjectURL(ref)
	return ok && bucket == s.bucket
}

func (s *Store) objectName(name string) string {
	key := fmt.Sprintf("%d_%s", s.now().UnixMilli(), name)
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}
