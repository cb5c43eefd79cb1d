package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "MINIMART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv    = "MINIMART_APP_ENV"
	EnvPort      = "MINIMART_APP_PORT"
	EnvDBDSN     = "MINIMART_DB_DSN"
	EnvDBHost    = "MINIMART_DB_HOST"
	EnvDBUser    = "MINIMART_DB_USER"
	EnvDBName    = "MINIMART_DB_NAME"
	EnvRedisURL  = "MINIMART_REDIS_URL"
	EnvJWTSecret = "MINIMART_JWT_SECRET"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
