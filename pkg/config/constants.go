package config

const EnvPrefix = "EXCOMMERCE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv                 = "EXCOMMERCE_APP_ENV"
	EnvPort                   = "EXCOMMERCE_APP_PORT"
	EnvDBDSN                  = "EXCOMMERCE_DB_DSN"
	EnvDBHost                 = "EXCOMMERCE_DB_HOST"
	EnvDBUser                 = "EXCOMMERCE_DB_USER"
	EnvDBName                 = "EXCOMMERCE_DB_NAME"
	EnvRedisURL               = "EXCOMMERCE_REDIS_URL"
	EnvJWTSecret              = "EXCOMMERCE_JWT_SECRET"
	EnvJWTIssuer              = "EXCOMMERCE_JWT_ISSUER"
	EnvJWTExpMins             = "EXCOMMERCE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "EXCOMMERCE_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "EXCOMMERCE_USE_SQLITE"
	EnvCartGuestTTL           = "EXCOMMERCE_CART_GUEST_TTL"
	EnvCheckoutCurrency       = "EXCOMMERCE_CHECKOUT_CURRENCY"
	EnvTrustedProxies         = "EXCOMMERCE_TRUSTED_PROXIES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
