package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/gcp"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"google.golang.org/api/iterator"
)

// Client wraps the Firestore connection shared by the catalog.
type Client struct {
	client    *firestore.Client
	projectID string
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New opens a Firestore client for the configured project and database.
// FIRESTORE_EMULATOR_HOST is honored by the underlying SDK.
func New(ctx context.Context, gcpCfg config.GCPConfig, cfg config.CatalogConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcpCfg.ProjectID)
	if projectID == "" {
		return nil, errors.New("gcp project id is required")
	}

	var (
		fs  *firestore.Client
		err error
	)
	opts := gcp.ClientOptions(gcpCfg)
	if databaseID := strings.TrimSpace(cfg.DatabaseID); databaseID != "" {
		fs, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	} else {
		fs, err = firestore.NewClient(ctx, projectID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "project_id", projectID), "firestore client initialized")
	}

	return &Client{client: fs, projectID: projectID}, nil
}

// Firestore returns the raw SDK client.
func (c *Client) Firestore() *firestore.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// ProjectID returns the project the client is bound to.
func (c *Client) ProjectID() string {
	if c == nil {
		return ""
	}
	return c.projectID
}

// Ping lists at most one root collection. Firestore has no dedicated ping RPC.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("firestore client not initialized")
	}
	it := c.client.Collections(ctx)
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
