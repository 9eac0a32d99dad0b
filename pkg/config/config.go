package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	GCP           GCPConfig
	Firebase      FirebaseConfig
	Catalog       CatalogConfig
	GCS           GCSConfig
	Media         MediaConfig
	Cart          CartConfig
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	AuthRateLimit AuthRateLimitConfig
	PubSub        PubSubConfig
	Checkout      CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Cart.Backend == BackendSQL {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	// LogFormat is "json" or "console"; dev defaults to console when unset.
	LogFormat string `envconfig:"STOREFRONT_LOG_FORMAT"`

	// AllowedOrigins feeds the CORS middleware. Comma separated.
	AllowedOrigins []string `envconfig:"STOREFRONT_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

// LogOutputFormat resolves the logger format for this environment.
func (a AppConfig) LogOutputFormat() string {
	if format := strings.TrimSpace(a.LogFormat); format != "" {
		return format
	}
	if a.IsDev() {
		return "console"
	}
	return "json"
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type FirebaseConfig struct {
	// APIKey is the web API key used for password sign-in.
	APIKey string `envconfig:"STOREFRONT_FIREBASE_API_KEY"`
	// AuthEmulatorHost points both sign-in and token checks at a local emulator.
	AuthEmulatorHost string `envconfig:"STOREFRONT_FIREBASE_AUTH_EMULATOR_HOST"`
}

type CatalogConfig struct {
	Backend             string `envconfig:"STOREFRONT_CATALOG_BACKEND" default:"firestore"`
	Collection          string `envconfig:"STOREFRONT_CATALOG_COLLECTION" default:"products"`
	DatabaseID          string `envconfig:"STOREFRONT_FIRESTORE_DATABASE_ID"`
	SeedMode            string `envconfig:"STOREFRONT_CATALOG_SEED_MODE" default:"auto"`
	PlaceholderImageURL string `envconfig:"STOREFRONT_CATALOG_PLACEHOLDER_IMAGE_URL" default:"https://images.unsplash.com/photo-1579952363873-27f3bade9f55?w=400&h=400&fit=crop"`

	// FetchTimeout bounds one shared read of the whole catalog.
	FetchTimeout time.Duration `envconfig:"STOREFRONT_CATALOG_FETCH_TIMEOUT" default:"30s"`
}

type GCSConfig struct {
	BucketName   string `envconfig:"STOREFRONT_GCS_BUCKET_NAME"`
	UploadPrefix string `envconfig:"STOREFRONT_GCS_UPLOAD_PREFIX" default:"products"`
	// URLStyle selects the reference handed back after upload: "firebase" or "public".
	URLStyle string `envconfig:"STOREFRONT_GCS_URL_STYLE" default:"firebase"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"STOREFRONT_MAX_UPLOAD_MB" default:"2"`
}

// MaxUploadBytes converts the configured limit to bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 2 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type CartConfig struct {
	Backend   string        `envconfig:"STOREFRONT_CART_BACKEND" default:"file"`
	Dir       string        `envconfig:"STOREFRONT_CART_DIR" default:".storefront/carts"`
	DefaultID string        `envconfig:"STOREFRONT_CART_DEFAULT_ID" default:"cart"`
	TTL       time.Duration `envconfig:"STOREFRONT_CART_TTL" default:"720h"`

	// MaxOpen and IdleTTL bound the carts the server keeps in memory.
	MaxOpen int           `envconfig:"STOREFRONT_CART_MAX_OPEN" default:"10000"`
	IdleTTL time.Duration `envconfig:"STOREFRONT_CART_IDLE_TTL" default:"30m"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"sqlite"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery is the threshold above which statements are logged at warn.
	SlowQuery time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`

	// KeyPrefix namespaces every key so several shops can share one instance.
	KeyPrefix string `envconfig:"STOREFRONT_REDIS_KEY_PREFIX" default:"sf"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SessionConfig struct {
	Backend string        `envconfig:"STOREFRONT_SESSION_BACKEND" default:"file"`
	Path    string        `envconfig:"STOREFRONT_SESSION_PATH" default:".storefront/session.json"`
	Profile string        `envconfig:"STOREFRONT_SESSION_PROFILE" default:"default"`
	TTL     time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"720h"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type PubSubConfig struct {
	// CatalogTopic receives product change events. Publishing is off when empty.
	CatalogTopic string `envconfig:"STOREFRONT_PUBSUB_CATALOG_TOPIC"`
}

type CheckoutConfig struct {
	Phone string `envconfig:"STOREFRONT_CHECKOUT_PHONE" default:"5511999999999"`
}

func (c *Config) validate() error {
	switch c.Catalog.Backend {
	case BackendFirestore:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s is required for the firestore catalog backend", EnvGCPProjectID)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported catalog backend %q", c.Catalog.Backend)
	}

	switch c.Catalog.SeedMode {
	case SeedModeAuto, SeedModeOnce, SeedModeOff:
	default:
		return fmt.Errorf("unsupported catalog seed mode %q", c.Catalog.SeedMode)
	}

	switch c.GCS.URLStyle {
	case URLStyleFirebase, URLStylePublic:
	default:
		return fmt.Errorf("unsupported gcs url style %q", c.GCS.URLStyle)
	}

	switch c.Cart.Backend {
	case BackendFile, BackendSQL:
	case BackendRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s is required for the redis cart backend", EnvRedisURL)
		}
	default:
		return fmt.Errorf("unsupported cart backend %q", c.Cart.Backend)
	}

	switch c.Session.Backend {
	case BackendFile:
	case BackendRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s is required for the redis session backend", EnvRedisURL)
		}
	default:
		return fmt.Errorf("unsupported session backend %q", c.Session.Backend)
	}

	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DriverSQLite) {
		db.DSN = "file:storefront.db?cache=shared"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range []string{EnvDBHost, EnvDBUser, EnvDBName} {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
