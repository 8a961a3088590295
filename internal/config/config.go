package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// MaxSuspensionDays caps the length of an admin suspension.
const MaxSuspensionDays = 3650

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Lifecycle LifecycleConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
	Worker    WorkerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" env-default:"storefront-identity"`
	Env                   string `env:"APP_ENV" env-default:"development"`
	Host                  string `env:"APP_HOST" env-default:"0.0.0.0"`
	Port                  string `env:"APP_PORT" env-default:"8080"`
	Version               string `env:"APP_VERSION" env-default:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" env-default:"30"`
}

// PostgresConfig holds DB connection values. An empty DSN runs the service on
// the in-memory store.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" env-default:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" env-default:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" env-default:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" env-default:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" env-default:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

// AuthConfig defines authentication parameters. OwnerEmail identifies the
// single MAIN_ADMIN account.
type AuthConfig struct {
	JWTSecret              string `env:"AUTH_JWT_SECRET" env-default:"dev-secret"`
	AccessTokenTTLMinutes  int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" env-default:"60"`
	BcryptCost             int    `env:"AUTH_BCRYPT_COST" env-default:"12"`
	OwnerEmail             string `env:"OWNER_EMAIL" env-required:"true"`
	OwnerName              string `env:"OWNER_NAME" env-default:"Owner"`
	OwnerBootstrapPassword string `env:"OWNER_BOOTSTRAP_PASSWORD"`
}

// LifecycleConfig tunes customer lockout, suspension and inactivity rules.
type LifecycleConfig struct {
	MaxFailedAttempts     int           `env:"LIFECYCLE_MAX_FAILED_ATTEMPTS" env-default:"5"`
	LockoutDuration       time.Duration `env:"LIFECYCLE_LOCKOUT_DURATION" env-default:"24h"`
	InactivityDays        int           `env:"LIFECYCLE_INACTIVITY_DAYS" env-default:"60"`
	DefaultSuspensionDays int           `env:"LIFECYCLE_DEFAULT_SUSPENSION_DAYS" env-default:"7"`
}

// RateLimitConfig bounds login attempts per client IP.
type RateLimitConfig struct {
	LoginPerSecond float64       `env:"RATE_LIMIT_LOGIN_PER_SECOND" env-default:"5"`
	LoginBurst     int           `env:"RATE_LIMIT_LOGIN_BURST" env-default:"10"`
	IdleTTL        time.Duration `env:"RATE_LIMIT_IDLE_TTL" env-default:"10m"`
}

// EventsConfig points lifecycle events at a broker. Empty URL keeps them in-process.
type EventsConfig struct {
	AMQPURL  string `env:"EVENTS_AMQP_URL"`
	Exchange string `env:"EVENTS_EXCHANGE" env-default:"storefront.identity"`
}

// WorkerConfig controls the optional suspension reconciliation sweep.
type WorkerConfig struct {
	ReconcileEnabled   bool          `env:"WORKER_RECONCILE_ENABLED" env-default:"false"`
	ReconcileInterval  time.Duration `env:"WORKER_RECONCILE_INTERVAL" env-default:"15m"`
	ReconcileBatchSize int           `env:"WORKER_RECONCILE_BATCH_SIZE" env-default:"100"`
}

// Load reads configuration from a .env file (if present) and the environment,
// applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that defaults cannot fix.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.OwnerEmail) == "" {
		return errors.New("OWNER_EMAIL must be set")
	}
	if !strings.Contains(c.Auth.OwnerEmail, "@") {
		return fmt.Errorf("invalid OWNER_EMAIL: %q", c.Auth.OwnerEmail)
	}
	if c.Lifecycle.MaxFailedAttempts <= 0 {
		return fmt.Errorf("invalid LIFECYCLE_MAX_FAILED_ATTEMPTS: %d", c.Lifecycle.MaxFailedAttempts)
	}
	if c.Lifecycle.LockoutDuration <= 0 {
		return fmt.Errorf("invalid LIFECYCLE_LOCKOUT_DURATION: %s", c.Lifecycle.LockoutDuration)
	}
	if c.Lifecycle.DefaultSuspensionDays <= 0 || c.Lifecycle.DefaultSuspensionDays > MaxSuspensionDays {
		return fmt.Errorf("invalid LIFECYCLE_DEFAULT_SUSPENSION_DAYS: %d", c.Lifecycle.DefaultSuspensionDays)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}
