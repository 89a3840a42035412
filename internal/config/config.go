// Package config loads techdoc's configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then an
// optional .env file, then environment variables named
// TECHDOC_<SECTION>_<FIELD>, e.g. TECHDOC_STORE_PATH, TECHDOC_SERVER_PORT or
// TECHDOC_AUTH_JWT_SECRET. The logging section reads TECHDOC_LOG_LEVEL and
// TECHDOC_LOG_FORMAT.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TECHDOC"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Config represents the complete application configuration
type Config struct {
	App     AppConfig     `yaml:"app"`
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOG"`
	Geocode GeocodeConfig `yaml:"geocode"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name string `yaml:"name"`
	// Seed fills an empty store with sample data on start.
	Seed bool `yaml:"seed"`
}

// StoreConfig selects the durable medium.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// QuotaBytes caps the estimated size of stored data. Zero is unlimited.
	QuotaBytes int64 `yaml:"quota_bytes" split_words:"true"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	// StaticPath is served at / when set.
	StaticPath string `yaml:"static_path" split_words:"true"`
}

// AuthConfig configures the login gate.
type AuthConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Username     string        `yaml:"username"`
	PasswordHash string        `yaml:"password_hash" split_words:"true"`
	JWTSecret    string        `yaml:"jwt_secret" split_words:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" split_words:"true"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GeocodeConfig configures address lookups.
type GeocodeConfig struct {
	BaseURL   string        `yaml:"base_url" split_words:"true"`
	UserAgent string        `yaml:"user_agent" split_words:"true"`
	Region    string        `yaml:"region"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheTTL  time.Duration `yaml:"cache_ttl" split_words:"true"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "techdoc", Seed: true},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "./data/techdoc.db",
			// 5 MiB, the budget of a browser's local storage.
			QuotaBytes: 5 << 20,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Username: "tech",
			TokenTTL: 12 * time.Hour,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Geocode: GeocodeConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "TechDoc/1.0",
			Region:    "Western Australia, Australia",
			Timeout:   10 * time.Second,
			CacheTTL:  24 * time.Hour,
		},
	}
}

// Load builds the configuration. configPath and envPath may be empty; a
// missing .env file is not an error.
func Load(configPath, envPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverBolt:
	default:
		return fmt.Errorf("invalid store driver: %q (must be %s or %s)", c.Store.Driver, DriverSQLite, DriverBolt)
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}

	if c.Store.QuotaBytes < 0 {
		return fmt.Errorf("store quota_bytes must not be negative")
	}

	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Geocode.CacheTTL <= 0 {
		return fmt.Errorf("geocode cache_ttl must be greater than 0")
	}

	if c.Auth.Enabled {
		if c.Auth.Username == "" {
			return fmt.Errorf("auth username is required")
		}
		if c.Auth.PasswordHash == "" {
			return fmt.Errorf("auth password_hash is required")
		}
		if len(c.Auth.JWTSecret) < 16 {
			return fmt.Errorf("auth jwt_secret must be at least 16 characters")
		}
		if c.Auth.TokenTTL <= 0 {
			return fmt.Errorf("auth token_ttl must be greater than 0")
		}
	}

	return nil
}
