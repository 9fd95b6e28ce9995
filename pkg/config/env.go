package config

// EnvPrefix is the envconfig prefix shared by every service variable.
const EnvPrefix = "CHECKOUT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "CHECKOUT_APP_ENV"
	EnvPort     = "CHECKOUT_APP_PORT"
	EnvLogLevel = "CHECKOUT_LOG_LEVEL"

	EnvDBDSN    = "CHECKOUT_DB_DSN"
	EnvDBDriver = "CHECKOUT_DB_DRIVER"
	EnvDBHost   = "CHECKOUT_DB_HOST"
	EnvDBUser   = "CHECKOUT_DB_USER"
	EnvDBName   = "CHECKOUT_DB_NAME"

	EnvRedisURL = "CHECKOUT_REDIS_URL"

	EnvResolverURL     = "CHECKOUT_SHIPPING_RESOLVER_URL"
	EnvResolverTimeout = "CHECKOUT_SHIPPING_RESOLVER_TIMEOUT"
	EnvOrdersURL       = "CHECKOUT_ORDERS_API_URL"
	EnvSessionTTL      = "CHECKOUT_SESSION_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
