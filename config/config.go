package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config is parsed from WARDROBE_ prefixed environment variables,
// e.g. WARDROBE_HTTP_PORT, WARDROBE_DB_HOST.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	HTTPPort    int         `envconfig:"HTTP_PORT" default:"3000"`
	Release     string      `envconfig:"RELEASE" default:"wardrobeapi@1.0.0"`

	// Postgres. DatabaseURL wins over the split fields when set.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USERNAME" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:""`
	DBName      string `envconfig:"DB_NAME" default:"wardrobe"`

	StoreTimeout         time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	BreakerMaxRequests   uint32        `envconfig:"BREAKER_MAX_REQUESTS" default:"3"`
	BreakerInterval      time.Duration `envconfig:"BREAKER_INTERVAL" default:"1m"`
	BreakerOpenTimeout   time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" default:"30s"`
	BreakerMinRequests   uint32        `envconfig:"BREAKER_MIN_REQUESTS" default:"10"`
	BreakerFailureRatio  float64       `envconfig:"BREAKER_FAILURE_RATIO" default:"0.6"`
	SearchCandidateLimit int           `envconfig:"SEARCH_CANDIDATE_LIMIT" default:"500"`

	// S3 compatible object storage (Supabase Storage, R2, MinIO).
	StorageEndpoint   string `envconfig:"STORAGE_ENDPOINT" default:""`
	StorageRegion     string `envconfig:"STORAGE_REGION" default:"auto"`
	StorageAccessKey  string `envconfig:"STORAGE_ACCESS_KEY_ID" default:""`
	StorageSecretKey  string `envconfig:"STORAGE_ACCESS_KEY_SECRET" default:""`
	StorageBucket     string `envconfig:"STORAGE_BUCKET" default:"clothing-images"`
	StoragePublicBase string `envconfig:"STORAGE_PUBLIC_URL" default:""`
	MaxUploadBytes    int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	AsyncBrokerAddress string `envconfig:"ASYNC_BROKER_ADDRESS" default:""`
	WorkerConcurrency  int    `envconfig:"WORKER_CONCURRENCY" default:"5"`

	JWTSecret    string `envconfig:"JWT_SECRET" default:""`
	SentryDSN    string `envconfig:"SENTRY_DSN" default:""`
	CacheEnabled bool   `envconfig:"CACHE_ENABLED" default:"true"`
	RateLimit    int    `envconfig:"RATE_LIMIT" default:"20"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) DatabaseDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func (c *Config) validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.SearchCandidateLimit < 1 {
		return fmt.Errorf("SEARCH_CANDIDATE_LIMIT must be at least 1")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1]")
	}
	return nil
}

// New parses the environment. Missing optional services (storage,
// broker, sentry, jwt) leave their features disabled rather than failing.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("WARDROBE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("db_host", cfg.DBHost).
		Bool("database_url_present", cfg.DatabaseURL != "").
		Bool("storage_configured", cfg.StorageEndpoint != "").
		Bool("broker_configured", cfg.AsyncBrokerAddress != "").
		Bool("auth_enabled", cfg.JWTSecret != "").
		Dur("store_timeout", cfg.StoreTimeout).
		Msg("Configuration loaded")

	return &cfg, nil
}

// SetupLogger configures the global zerolog logger.
func SetupLogger(cfg *Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "wardrobeapi").Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}
