package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/gcp"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

// ErrObjectNotFound is returned when the addressed object does not exist.
var ErrObjectNotFound = storage.ErrObjectNotExist

type Client struct {
	client        *storage.Client
	defaultBucket string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// ObjectAttrs describes an object being written.
type ObjectAttrs struct {
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcpCfg config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	raw, err := storage.NewClient(ctx, gcp.ClientOptions(gcpCfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	client := &Client{
		client:        raw,
		defaultBucket: cfg.BucketName,
	}

	if err := client.Ping(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}

	return client, nil
}

// BucketHandle returns a handle for name, or for the default bucket when name is empty.
func (c *Client) BucketHandle(name string) *storage.BucketHandle {
	if c == nil || c.client == nil {
		return nil
	}
	if name == "" {
		name = c.defaultBucket
	}
	return c.client.Bucket(name)
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// Upload writes data to bucket/object in a single request.
func (c *Client) Upload(ctx context.Context, bucket, object string, data []byte, attrs ObjectAttrs) error {
	handle := c.BucketHandle(bucket)
	if handle == nil {
		return errors.New("gcs client not initialized")
	}
	if strings.TrimSpace(object) == "" {
		return errors.New("object name is required")
	}

	w := handle.Object(object).NewWriter(ctx)
	w.ContentType = attrs.ContentType
	w.CacheControl = attrs.CacheControl
	w.Metadata = attrs.Metadata
	// single-shot upload; images are small
	w.ChunkSize = 0

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing object %s: %w", object, err)
	}
	return nil
}

// Delete removes bucket/object. A missing object yields an error wrapping ErrObjectNotFound.
func (c *Client) Delete(ctx context.Context, bucket, object string) error {
	handle := c.BucketHandle(bucket)
	if handle == nil {
		return errors.New("gcs client not initialized")
	}
	if err := handle.Object(object).Delete(ctx); err != nil {
		return fmt.Errorf("deleting object %s: %w", object, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Ping reads the default bucket attributes.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("gcs client not initialized")
	}
	if c.defaultBucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.client.Bucket(c.defaultBucket).Attrs(ctx); err != nil {
		return fmt.Errorf("reading bucket attrs: %w", err)
	}
	return nil
}
