// Package bootstrap wires the storefront's clients and stores from config.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/identity"
	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/firestore"
	"github.com/angelmondragon/storefront-backend/pkg/gcp"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/storage/gcs"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// Pinger is the readiness surface of a backing client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options adjusts what Build wires beyond the config.
type Options struct {
	// Registerer receives the catalog metrics. Nil disables them.
	Registerer prometheus.Registerer
}

// Container owns every client opened for one process.
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	Firestore *firestore.Client
	GCS       *gcs.Client
	PubSub    *pubsub.Client
	Redis     *redis.Client
	DB        *db.Client

	Metrics  *metrics.CatalogMetrics
	Catalog  *catalog.Store
	Media    *media.Store
	Carts    *cart.Manager
	Provider *identity.FirebaseProvider
	Gate     *identity.Gate

	pingers map[string]Pinger
	closers []func() error
}

// Build opens the configured clients and assembles the stores. On error
// everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts Options) (c *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	c = &Container{Config: cfg, Logger: logg, pingers: map[string]Pinger{}}
	defer func() {
		if err != nil {
			err = multierr.Append(err, c.Close())
			c = nil
		}
	}()

	if cfg.Redis.Enabled() {
		if c.Redis, err = redis.New(ctx, cfg.Redis, logg); err != nil {
			return c, fmt.Errorf("bootstrap redis: %w", err)
		}
		c.track("redis", c.Redis, c.Redis.Close)
	}

	if err = c.buildCatalog(ctx, opts); err != nil {
		return c, err
	}
	if err = c.buildCarts(ctx); err != nil {
		return c, err
	}
	if err = c.buildIdentity(ctx); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Container) buildCatalog(ctx context.Context, opts Options) error {
	cfg, logg := c.Config, c.Logger

	var remote catalog.Remote
	switch cfg.Catalog.Backend {
	case config.BackendFirestore:
		client, err := firestore.New(ctx, cfg.GCP, cfg.Catalog, logg)
		if err != nil {
			return fmt.Errorf("bootstrap firestore: %w", err)
		}
		c.Firestore = client
		c.track("firestore", client, client.Close)
		if remote, err = catalog.NewFirestoreRemote(client.Firestore(), cfg.Catalog.Collection); err != nil {
			return err
		}
	default:
		remote = catalog.NewMemoryRemote()
	}

	c.Metrics = metrics.NewCatalogMetrics(opts.Registerer)
	catalogOpts := catalog.Options{
		SeedMode:            catalog.SeedMode(cfg.Catalog.SeedMode),
		PlaceholderImageURL: cfg.Catalog.PlaceholderImageURL,
		Metrics:             c.Metrics,
		FetchTimeout:        cfg.Catalog.FetchTimeout,
	}

	if strings.TrimSpace(cfg.GCS.BucketName) != "" {
		client, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return fmt.Errorf("bootstrap gcs: %w", err)
		}
		c.GCS = client
		c.track("gcs", client, client.Close)

		c.Media, err = media.NewStore(client, media.Options{
			Bucket:   client.DefaultBucket(),
			Prefix:   cfg.GCS.UploadPrefix,
			URLStyle: cfg.GCS.URLStyle,
			MaxBytes: cfg.Media.MaxUploadBytes(),
		}, logg)
		if err != nil {
			return err
		}
		catalogOpts.Blobs = c.Media
	} else {
		logg.Warn(ctx, "gcs bucket not configured, product image uploads disabled")
	}

	if strings.TrimSpace(cfg.PubSub.CatalogTopic) != "" {
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return fmt.Errorf("bootstrap pubsub: %w", err)
		}
		c.PubSub = client
		c.track("pubsub", client, client.Close)

		publisher, err := catalog.NewPubSubPublisher(client)
		if err != nil {
			return err
		}
		catalogOpts.Events = publisher
	}

	store, err := catalog.NewStore(remote, logg, catalogOpts)
	if err != nil {
		return err
	}
	c.Catalog = store
	return nil
}

func (c *Container) buildCarts(ctx context.Context) error {
	cfg := c.Config

	var (
		storage cart.Storage
		err     error
	)
	switch cfg.Cart.Backend {
	case config.BackendRedis:
		storage, err = cart.NewRedisStorage(c.Redis, cfg.Cart.TTL)
	case config.BackendSQL:
		if c.DB, err = db.New(ctx, cfg.DB, c.Logger); err != nil {
			return fmt.Errorf("bootstrap database: %w", err)
		}
		c.track("db", c.DB, c.DB.Close)
		if err = c.DB.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		storage, err = cart.NewSQLStorage(c.DB.DB())
	default:
		storage, err = cart.NewFileStorage(cfg.Cart.Dir)
	}
	if err != nil {
		return fmt.Errorf("cart storage: %w", err)
	}

	c.Carts, err = cart.NewManager(storage, c.Logger, cart.ManagerOptions{
		MaxOpen: cfg.Cart.MaxOpen,
		IdleTTL: cfg.Cart.IdleTTL,
	})
	return err
}

func (c *Container) buildIdentity(ctx context.Context) error {
	cfg, logg := c.Config, c.Logger

	projectID := strings.TrimSpace(cfg.GCP.ProjectID)
	if projectID == "" {
		logg.Warn(ctx, "gcp project not configured, admin sign-in disabled")
		return nil
	}

	if host := strings.TrimSpace(cfg.Firebase.AuthEmulatorHost); host != "" {
		if err := os.Setenv("FIREBASE_AUTH_EMULATOR_HOST", host); err != nil {
			return err
		}
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, gcp.ClientOptions(cfg.GCP)...)
	if err != nil {
		return fmt.Errorf("firebase app: %w", err)
	}
	verifier, err := app.Auth(ctx)
	if err != nil {
		return fmt.Errorf("firebase auth: %w", err)
	}

	var signer identity.PasswordSigner = identity.UnconfiguredSigner{}
	if strings.TrimSpace(cfg.Firebase.APIKey) != "" {
		if signer, err = identity.NewToolkitSigner(ctx, cfg.Firebase.APIKey, cfg.Firebase.AuthEmulatorHost); err != nil {
			return err
		}
	}

	sessions, err := c.sessionStore()
	if err != nil {
		return err
	}
	if c.Provider, err = identity.NewFirebaseProvider(signer, verifier, sessions, logg); err != nil {
		return err
	}

	gateOpts := identity.GateOptions{}
	if c.Redis != nil && cfg.AuthRateLimit.LoginEmailLimit > 0 && cfg.AuthRateLimit.LoginWindow > 0 {
		gateOpts.Limiter = c.Redis
		gateOpts.LoginLimit = int64(cfg.AuthRateLimit.LoginEmailLimit)
		gateOpts.LoginWindow = cfg.AuthRateLimit.LoginWindow
	}
	c.Gate, err = identity.NewGate(c.Provider, logg, gateOpts)
	return err
}

func (c *Container) sessionStore() (session.Store, error) {
	cfg := c.Config.Session
	if cfg.Backend == config.BackendRedis {
		return session.NewManager(c.Redis, cfg)
	}
	path := cfg.Path
	if profile := strings.TrimSpace(cfg.Profile); profile != "" && profile != "default" {
		path = filepath.Join(filepath.Dir(path), profile+"-"+filepath.Base(path))
	}
	return session.NewFileStore(path)
}

func (c *Container) track(name string, p Pinger, closeFn func() error) {
	c.pingers[name] = p
	c.closers = append(c.closers, closeFn)
}

// Pingers returns the readiness checks of the opened clients by name.
func (c *Container) Pingers() map[string]Pinger {
	out := make(map[string]Pinger, len(c.pingers))
	for name, p := range c.pingers {
		out[name] = p
	}
	return out
}

// Close releases clients in reverse order of opening.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, c.closers[i]())
	}
	c.closers = nil
	return err
}
