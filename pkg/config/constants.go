package config

// EnvPrefix is empty because every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv            = "UFSC_APP_ENV"
	EnvPort              = "UFSC_APP_PORT"
	EnvDBDSN             = "UFSC_DB_DSN"
	EnvDBDriver          = "UFSC_DB_DRIVER"
	EnvDBHost            = "UFSC_DB_HOST"
	EnvDBUser            = "UFSC_DB_USER"
	EnvDBName            = "UFSC_DB_NAME"
	EnvRedisURL          = "UFSC_REDIS_URL"
	EnvJWTSecret         = "UFSC_JWT_SECRET"
	EnvCommerceUnitPrice = "UFSC_COMMERCE_LICENCE_UNIT_PRICE"
	EnvCommerceSecret    = "UFSC_COMMERCE_WEBHOOK_SECRET"
	EnvAffiliationIDs    = "UFSC_COMMERCE_AFFILIATION_PRODUCT_IDS"
	EnvStatsCacheTTL     = "UFSC_STATS_CACHE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
