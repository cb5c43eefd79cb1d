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
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MINIMART_APP_ENV" required:"true"`
	Port         string `envconfig:"MINIMART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MINIMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MINIMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MINIMART_DB_DSN"`

	Host     string `envconfig:"MINIMART_DB_HOST"`
	Port     int    `envconfig:"MINIMART_DB_PORT" default:"5432"`
	User     string `envconfig:"MINIMART_DB_USER"`
	Password string `envconfig:"MINIMART_DB_PASSWORD"`
	Name     string `envconfig:"MINIMART_DB_NAME"`
	SSLMode  string `envconfig:"MINIMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MINIMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MINIMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MINIMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MINIMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MINIMART_REDIS_URL"`
	Address      string        `envconfig:"MINIMART_REDIS_ADDR"`
	Password     string        `envconfig:"MINIMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"MINIMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MINIMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MINIMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MINIMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MINIMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MINIMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MINIMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MINIMART_JWT_ISSUER" default:"minimart"`
	ExpirationMinutes int    `envconfig:"MINIMART_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MINIMART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MINIMART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MINIMART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MINIMART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MINIMART_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MINIMART_AUTO_MIGRATE" default:"false"`
	SeedOnBoot  bool `envconfig:"MINIMART_SEED_ON_BOOT" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	discrete := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, name := range requiredDBEnvVars {
		if discrete[name] == "" {
			missing = append(missing, name)
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
