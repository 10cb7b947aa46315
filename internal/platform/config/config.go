// Package config loads the service configuration from PDP_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	envPrefix          = "PDP_"
	defaultEnvFile     = ".env"
	defaultEnvironment = "local"
)

// Storage backends accepted by PDP_STORAGE_BACKEND.
const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
)

// Config is the whole runtime configuration, grouped by concern.
type Config struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Server        ServerConfig
	Observability ObservabilityConfig
	Session       SessionConfig
	Storage       StorageConfig
	Catalog       CatalogConfig
	Page          PageConfig
}

type ServerConfig struct {
	Port         string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
}

type ObservabilityConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	ProjectID string `env:"GCP_PROJECT_ID"`
}

// SessionConfig configures the signed shopper cookie. Secure defaults to true outside local.
type SessionConfig struct {
	CookieName string        `env:"COOKIE_NAME" envDefault:"pdp_shopper"`
	HashKey    string        `env:"HASH_KEY"`
	BlockKey   string        `env:"BLOCK_KEY"`
	Secure     bool          `env:"SECURE"`
	MaxAge     time.Duration `env:"MAX_AGE" envDefault:"720h"`
}

// StorageConfig selects and parameterises the preference store.
type StorageConfig struct {
	Backend   string          `env:"STORAGE_BACKEND" envDefault:"memory"`
	KeyPrefix string          `env:"STORAGE_KEY_PREFIX" envDefault:"pdp"`
	FilePath  string          `env:"STORAGE_FILE" envDefault:"data/preferences.json"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Firestore FirestoreConfig `envPrefix:"FIRESTORE_"`
}

type RedisConfig struct {
	Addr           string        `env:"ADDR" envDefault:"localhost:6379"`
	Username       string        `env:"USERNAME"`
	Password       string        `env:"PASSWORD"`
	DB             int           `env:"DB" envDefault:"0"`
	ConnectRetries int           `env:"CONNECT_RETRIES" envDefault:"5"`
	RetryDelay     time.Duration `env:"RETRY_DELAY" envDefault:"2s"`
	// TTL expires preference records a shopper has not rewritten. Zero keeps them.
	TTL            time.Duration `env:"TTL" envDefault:"0s"`
}

// FirestoreConfig holds the Firestore project; ProjectID falls back to PDP_GCP_PROJECT_ID.
type FirestoreConfig struct {
	ProjectID       string `env:"PROJECT_ID"`
	EmulatorHost    string `env:"EMULATOR_HOST"`
	CredentialsFile string `env:"CREDENTIALS_FILE"`
	Collection      string `env:"COLLECTION" envDefault:"shopperPreferences"`
}

// CatalogConfig points at the product definitions. An empty path serves the embedded sample product.
type CatalogConfig struct {
	Path string `env:"CATALOG_PATH"`
}

// PageConfig controls live page sessions.
type PageConfig struct {
	IdleTimeout     time.Duration `env:"PAGE_IDLE_TIMEOUT" envDefault:"30m"`
	SweepInterval   time.Duration `env:"PAGE_SWEEP_INTERVAL" envDefault:"1m"`
	StreamHeartbeat time.Duration `env:"STREAM_HEARTBEAT" envDefault:"20s"`
}

// ValidationError lists the fields that are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return "config: missing or invalid " + strings.Join(e.fields, ", ")
}

// Fields returns the offending field paths.
func (e *ValidationError) Fields() []string {
	return append([]string(nil), e.fields...)
}

// Option customises Load.
type Option func(*sources)

type sources struct {
	envFile   string
	systemEnv bool
	overrides map[string]string
}

// WithEnvFile reads dotenv overrides from path instead of ./.env. An empty path skips the file.
func WithEnvFile(path string) Option {
	return func(s *sources) { s.envFile = path }
}

// WithEnvMap layers values over every other source.
func WithEnvMap(values map[string]string) Option {
	return func(s *sources) { s.overrides = values }
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(s *sources) { s.systemEnv = false }
}

// Load resolves the configuration. Later sources win: defaults, the dotenv file, the process
// environment, then WithEnvMap values.
func Load(_ context.Context, opts ...Option) (Config, error) {
	src := sources{envFile: defaultEnvFile, systemEnv: true}
	for _, opt := range opts {
		opt(&src)
	}

	vars, err := src.collect()
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars, Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	// Platform-provided fallbacks for the unprefixed names.
	if _, ok := vars[envPrefix+"SERVER_PORT"]; !ok && vars["PORT"] != "" {
		cfg.Server.Port = vars["PORT"]
	}
	if _, ok := vars[envPrefix+"LOG_LEVEL"]; !ok && vars["LOG_LEVEL"] != "" {
		cfg.Observability.LogLevel = vars["LOG_LEVEL"]
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if _, ok := vars[envPrefix+"SESSION_SECURE"]; !ok {
		cfg.Session.Secure = !cfg.IsLocal()
	}
	if cfg.Storage.Firestore.ProjectID == "" {
		cfg.Storage.Firestore.ProjectID = cfg.Observability.ProjectID
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (s sources) collect() (map[string]string, error) {
	vars := make(map[string]string)
	if s.envFile != "" {
		values, err := godotenv.Read(s.envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", s.envFile, err)
		default:
			for k, v := range values {
				vars[k] = v
			}
		}
	}
	if s.systemEnv {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				vars[k] = v
			}
		}
	}
	for k, v := range s.overrides {
		vars[k] = v
	}
	return vars, nil
}

// IsLocal reports whether the service runs in the local development environment.
func (c Config) IsLocal() bool {
	return c.Environment == defaultEnvironment
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Page.IdleTimeout <= 0 {
		missing = append(missing, "Page.IdleTimeout")
	}
	if cfg.Page.SweepInterval <= 0 {
		missing = append(missing, "Page.SweepInterval")
	}
	if !cfg.IsLocal() && cfg.Session.HashKey == "" {
		missing = append(missing, "Session.HashKey")
	}
	if n := len(cfg.Session.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		missing = append(missing, "Session.BlockKey")
	}

	switch cfg.Storage.Backend {
	case BackendMemory:
	case BackendFile:
		if strings.TrimSpace(cfg.Storage.FilePath) == "" {
			missing = append(missing, "Storage.FilePath")
		}
	case BackendRedis:
		if strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
			missing = append(missing, "Storage.Redis.Addr")
		}
		if cfg.Storage.Redis.TTL < 0 {
			missing = append(missing, "Storage.Redis.TTL")
		}
	case BackendFirestore:
		if cfg.Storage.Firestore.ProjectID == "" {
			missing = append(missing, "Storage.Firestore.ProjectID")
		}
		if cfg.Storage.Firestore.Collection == "" {
			missing = append(missing, "Storage.Firestore.Collection")
		}
	default:
		missing = append(missing, "Storage.Backend")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

