package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendRedis     = "redis"
	BackendSQL       = "sql"
)

const (
	SeedModeAuto = "auto"
	SeedModeOnce = "once"
	SeedModeOff  = "off"
)

const (
	URLStyleFirebase = "firebase"
	URLStylePublic   = "public"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvGCPProjectID   = "STOREFRONT_GCP_PROJECT_ID"
	EnvCatalogBackend = "STOREFRONT_CATALOG_BACKEND"
	EnvSeedMode       = "STOREFRONT_CATALOG_SEED_MODE"
	EnvGCSBucket      = "STOREFRONT_GCS_BUCKET_NAME"
	EnvGCSURLStyle    = "STOREFRONT_GCS_URL_STYLE"
	EnvCartBackend    = "STOREFRONT_CART_BACKEND"
	EnvSessionBackend = "STOREFRONT_SESSION_BACKEND"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvDBDriver       = "STOREFRONT_DB_DRIVER"
	EnvDBDSN          = "STOREFRONT_DB_DSN"
	EnvDBHost         = "STOREFRONT_DB_HOST"
	EnvDBUser         = "STOREFRONT_DB_USER"
	EnvDBName         = "STOREFRONT_DB_NAME"
	EnvMaxUploadMB    = "STOREFRONT_MAX_UPLOAD_MB"
	EnvCatalogTopic   = "STOREFRONT_PUBSUB_CATALOG_TOPIC"
)
