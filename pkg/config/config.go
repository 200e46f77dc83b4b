package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
	CORS         CORSConfig
	Proxy        ProxyConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EXCOMMERCE_APP_ENV" required:"true"`
	Port         string `envconfig:"EXCOMMERCE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EXCOMMERCE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"EXCOMMERCE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"EXCOMMERCE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EXCOMMERCE_DB_DSN"`
	Driver string `envconfig:"EXCOMMERCE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EXCOMMERCE_DB_HOST"`
	LegacyPort     int    `envconfig:"EXCOMMERCE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EXCOMMERCE_DB_USER"`
	LegacyPassword string `envconfig:"EXCOMMERCE_DB_PASSWORD"`
	LegacyName     string `envconfig:"EXCOMMERCE_DB_NAME"`
	LegacySSLMode  string `envconfig:"EXCOMMERCE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"EXCOMMERCE_SQLITE_PATH" default:"excommerce.db"`

	MaxOpenConns    int           `envconfig:"EXCOMMERCE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EXCOMMERCE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EXCOMMERCE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EXCOMMERCE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"EXCOMMERCE_DB_SLOW_QUERY" default:"250ms"`
	ConnectTimeout  time.Duration `envconfig:"EXCOMMERCE_DB_CONNECT_TIMEOUT" default:"5s"`
}

// IsSQLite reports whether the sqlite dialector should be used.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"EXCOMMERCE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EXCOMMERCE_REDIS_ADDR"`
	Password     string        `envconfig:"EXCOMMERCE_REDIS_PASSWORD"`
	DB           int           `envconfig:"EXCOMMERCE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EXCOMMERCE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EXCOMMERCE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EXCOMMERCE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EXCOMMERCE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EXCOMMERCE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"EXCOMMERCE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"EXCOMMERCE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"EXCOMMERCE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"EXCOMMERCE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"EXCOMMERCE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"EXCOMMERCE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"EXCOMMERCE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"EXCOMMERCE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"EXCOMMERCE_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	Window          time.Duration `envconfig:"EXCOMMERCE_RATE_LIMIT_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"EXCOMMERCE_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"EXCOMMERCE_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LookupIPLimit   int           `envconfig:"EXCOMMERCE_RATE_LIMIT_LOOKUP_IP_LIMIT" default:"30"`
	OrderIPLimit    int           `envconfig:"EXCOMMERCE_RATE_LIMIT_ORDER_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"EXCOMMERCE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"EXCOMMERCE_AUTO_MIGRATE" default:"false"`
}

type CartConfig struct {
	GuestTTL   time.Duration `envconfig:"EXCOMMERCE_CART_GUEST_TTL" default:"1h"`
	SessionTTL time.Duration `envconfig:"EXCOMMERCE_CART_SESSION_TTL" default:"720h"`
	LockTTL    time.Duration `envconfig:"EXCOMMERCE_CART_LOCK_TTL" default:"5s"`
	LockWait   time.Duration `envconfig:"EXCOMMERCE_CART_LOCK_WAIT" default:"250ms"`
}

type CheckoutConfig struct {
	Company              string `envconfig:"EXCOMMERCE_CHECKOUT_COMPANY" default:"Ex Commerce"`
	Currency             string `envconfig:"EXCOMMERCE_CHECKOUT_CURRENCY" default:"GHS"`
	PriceList            string `envconfig:"EXCOMMERCE_CHECKOUT_PRICE_LIST" default:"Standard Selling"`
	Warehouse            string `envconfig:"EXCOMMERCE_CHECKOUT_WAREHOUSE" default:"Stores"`
	NamingSeries         string `envconfig:"EXCOMMERCE_CHECKOUT_NAMING_SERIES" default:"EXC-ORD-.YYYY.-"`
	DeliveryLeadDays     int    `envconfig:"EXCOMMERCE_CHECKOUT_DELIVERY_LEAD_DAYS" default:"7"`
	DefaultCountry       string `envconfig:"EXCOMMERCE_CHECKOUT_DEFAULT_COUNTRY" default:"Ghana"`
	DefaultTerritory     string `envconfig:"EXCOMMERCE_CHECKOUT_DEFAULT_TERRITORY" default:"All Territories"`
	DefaultCustomerGroup string `envconfig:"EXCOMMERCE_CHECKOUT_DEFAULT_CUSTOMER_GROUP" default:"Individual"`
}

type CronConfig struct {
	Interval      time.Duration `envconfig:"EXCOMMERCE_CRON_INTERVAL" default:"5m"`
	JobTimeout    time.Duration `envconfig:"EXCOMMERCE_CRON_JOB_TIMEOUT" default:"2m"`
	LockTTL       time.Duration `envconfig:"EXCOMMERCE_CRON_LOCK_TTL" default:"10m"`
	BackfillLimit int           `envconfig:"EXCOMMERCE_CRON_BACKFILL_LIMIT" default:"50"`
	// MetricsAddr serves /metrics for the worker; empty disables the listener.
	MetricsAddr string `envconfig:"EXCOMMERCE_CRON_METRICS_ADDR" default:":9091"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"EXCOMMERCE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
	}
	if db.IsSQLite() {
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
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
