package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by the service.
const EnvPrefix = "FLOWERPOS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "FLOWERPOS_APP_ENV"
	EnvDBDSN  = "FLOWERPOS_DB_DSN"
	EnvDBHost = "FLOWERPOS_DB_HOST"
	EnvDBUser = "FLOWERPOS_DB_USER"
	EnvDBName = "FLOWERPOS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Journal      JournalConfig
	Inventory    InventoryConfig
	Shift        ShiftConfig
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
	Env          string `envconfig:"FLOWERPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"FLOWERPOS_APP_PORT" required:"true"`
	TerminalID   string `envconfig:"FLOWERPOS_TERMINAL_ID" default:"terminal-1"`
	LogLevel     string `envconfig:"FLOWERPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLOWERPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"FLOWERPOS_DB_DSN"`

	LegacyHost     string `envconfig:"FLOWERPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"FLOWERPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLOWERPOS_DB_USER"`
	LegacyPassword string `envconfig:"FLOWERPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLOWERPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLOWERPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLOWERPOS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"FLOWERPOS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"FLOWERPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLOWERPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLOWERPOS_REDIS_URL"`
	Address      string        `envconfig:"FLOWERPOS_REDIS_ADDR"`
	Password     string        `envconfig:"FLOWERPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLOWERPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLOWERPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLOWERPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLOWERPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLOWERPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLOWERPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JournalConfig bounds the terminal-local activity journal.
type JournalConfig struct {
	MaxEntries int `envconfig:"FLOWERPOS_JOURNAL_MAX_ENTRIES" default:"500"`
}

// InventoryConfig controls the cached item list.
type InventoryConfig struct {
	CacheTTL time.Duration `envconfig:"FLOWERPOS_INVENTORY_CACHE_TTL" default:"5m"`
}

// ShiftConfig controls shift-close reconciliation.
type ShiftConfig struct {
	CloseLockTTL time.Duration `envconfig:"FLOWERPOS_SHIFT_CLOSE_LOCK_TTL" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FLOWERPOS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
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
