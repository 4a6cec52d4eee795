package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Season       SeasonConfig
	Commerce     CommerceConfig
	Export       ExportConfig
	Uploads      UploadsConfig
	Stats        StatsConfig
	Audit        AuditConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Commerce.UnitPrice(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"UFSC_APP_ENV" required:"true"`
	Port         string `envconfig:"UFSC_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"UFSC_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"UFSC_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"UFSC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"UFSC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"UFSC_DB_DSN"`
	Driver string `envconfig:"UFSC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"UFSC_DB_HOST"`
	LegacyPort     int    `envconfig:"UFSC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"UFSC_DB_USER"`
	LegacyPassword string `envconfig:"UFSC_DB_PASSWORD"`
	LegacyName     string `envconfig:"UFSC_DB_NAME"`
	LegacySSLMode  string `envconfig:"UFSC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"UFSC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"UFSC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"UFSC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"UFSC_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"UFSC_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// IsSQLite reports whether the configured driver targets SQLite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"UFSC_REDIS_URL"`
	Address      string        `envconfig:"UFSC_REDIS_ADDR"`
	Password     string        `envconfig:"UFSC_REDIS_PASSWORD"`
	DB           int           `envconfig:"UFSC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"UFSC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"UFSC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"UFSC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"UFSC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"UFSC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"UFSC_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"UFSC_JWT_ISSUER" default:"ufsc-gestion"`
	ExpirationMinutes int    `envconfig:"UFSC_JWT_EXPIRATION_MINUTES" default:"120"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"UFSC_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"UFSC_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"UFSC_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"UFSC_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"UFSC_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"UFSC_AUTO_MIGRATE" default:"false"`
	XLSXExport  bool `envconfig:"UFSC_FEATURE_XLSX_EXPORT" default:"true"`
}

// SeasonConfig seeds the season calculator. Admin overrides stored in the
// settings table take precedence at runtime.
type SeasonConfig struct {
	RenewalDay    int    `envconfig:"UFSC_SEASON_RENEWAL_DAY" default:"30"`
	RenewalMonth  int    `envconfig:"UFSC_SEASON_RENEWAL_MONTH" default:"7"`
	CurrentSeason string `envconfig:"UFSC_SEASON_CURRENT"`
	NextSeason    string `envconfig:"UFSC_SEASON_NEXT"`
	DefaultTZ     string `envconfig:"UFSC_SEASON_TIMEZONE" default:"Europe/Paris"`
}

// Location resolves the configured season timezone, falling back to UTC.
func (s SeasonConfig) Location() *time.Location {
	if strings.TrimSpace(s.DefaultTZ) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.DefaultTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

type CommerceConfig struct {
	AffiliationProductIDs   []string      `envconfig:"UFSC_COMMERCE_AFFILIATION_PRODUCT_IDS" default:"ufsc-affiliation-pack"`
	LicenceProductIDs       []string      `envconfig:"UFSC_COMMERCE_LICENCE_PRODUCT_IDS" default:"ufsc-licence"`
	IncludedLicencesPerPack int           `envconfig:"UFSC_COMMERCE_INCLUDED_LICENCES_PER_PACK" default:"10"`
	LicenceUnitPrice        string        `envconfig:"UFSC_COMMERCE_LICENCE_UNIT_PRICE" default:"35.00"`
	Currency                string        `envconfig:"UFSC_COMMERCE_CURRENCY" default:"EUR"`
	WebhookSecret           string        `envconfig:"UFSC_COMMERCE_WEBHOOK_SECRET"`
	IdempotencyTTL          time.Duration `envconfig:"UFSC_COMMERCE_IDEMPOTENCY_TTL" default:"720h"`
}

// UnitPrice parses the configured licence price.
func (c CommerceConfig) UnitPrice() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.LicenceUnitPrice)
	if raw == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", EnvCommerceUnitPrice, raw, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", EnvCommerceUnitPrice)
	}
	return price, nil
}

type ExportConfig struct {
	TempDir string        `envconfig:"UFSC_EXPORT_TEMP_DIR" default:"/tmp/ufsc-exports"`
	MaxAge  time.Duration `envconfig:"UFSC_EXPORT_MAX_AGE" default:"1h"`
}

type UploadsConfig struct {
	Dir       string `envconfig:"UFSC_UPLOADS_DIR" default:"/var/lib/ufsc/uploads"`
	PublicURL string `envconfig:"UFSC_UPLOADS_PUBLIC_URL" default:"/uploads"`
	MaxLogoKB int    `envconfig:"UFSC_UPLOADS_MAX_LOGO_KB" default:"2048"`
}

type StatsConfig struct {
	CacheTTL time.Duration `envconfig:"UFSC_STATS_CACHE_TTL" default:"1h"`
}

type AuditConfig struct {
	RetentionDays int `envconfig:"UFSC_AUDIT_RETENTION_DAYS" default:"365"`
}

// Retention returns the retention window as a duration.
func (a AuditConfig) Retention() time.Duration {
	if a.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

// RateLimitConfig bounds login attempts per client IP and per email.
type RateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"UFSC_RATE_LIMIT_LOGIN_WINDOW" default:"15m"`
	LoginIPLimit    int           `envconfig:"UFSC_RATE_LIMIT_LOGIN_IP" default:"20"`
	LoginEmailLimit int           `envconfig:"UFSC_RATE_LIMIT_LOGIN_EMAIL" default:"5"`
}

// CORSConfig lists the browser origins allowed to call the API. An empty
// list disables the CORS middleware.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"UFSC_CORS_ALLOWED_ORIGINS"`
	MaxAge         int      `envconfig:"UFSC_CORS_MAX_AGE" default:"300"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:ufsc.db?_foreign_keys=on"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
