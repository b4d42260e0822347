package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token       string        `envconfig:"BOT_TOKEN" required:"true"`
	Admins      []string      `envconfig:"BOT_ADMINS"` // numeric ids or usernames, comma separated
	PollTimeout time.Duration `envconfig:"BOT_POLL_TIMEOUT" default:"30s"`
	Debug       bool          `envconfig:"BOT_DEBUG" default:"false"`
}

// Validate validates the bot configuration.
func (c *BotConfig) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if c.PollTimeout < time.Second {
		return fmt.Errorf("poll timeout must be at least 1s, got %s", c.PollTimeout)
	}
	return nil
}

// StorageConfig selects and configures the document store.
type StorageConfig struct {
	Backend        string `envconfig:"STORAGE_BACKEND" default:"file"`
	Dir            string `envconfig:"STORAGE_DIR" default:"."`
	LinksDocument  string `envconfig:"STORAGE_LINKS_DOCUMENT" default:"tweets.json"`
	QuotasDocument string `envconfig:"STORAGE_QUOTAS_DOCUMENT" default:"user_tweet_count.json"`

	SQLitePath string `envconfig:"SQLITE_PATH" default:"engagebot.db"`

	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	RedisKeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"engagebot:"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Dir == "" {
			return fmt.Errorf("storage dir cannot be empty for the file backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty for the sqlite backend")
		}
	case BackendPostgres:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty for the redis backend")
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("redis db must not be negative")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be one of: file, sqlite, postgres, redis)", c.Backend)
	}

	if c.LinksDocument == "" || c.QuotasDocument == "" {
		return fmt.Errorf("document names cannot be empty")
	}
	if c.LinksDocument == c.QuotasDocument {
		return fmt.Errorf("links and quotas documents must differ, both are %q", c.LinksDocument)
	}
	return nil
}

// DatabaseConfig holds database connection configuration.
// It is only loaded when the storage backend is postgres.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" required:"true"`
	Port     string `envconfig:"DB_PORT" required:"true"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	Name     string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSLMODE" required:"true"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" required:"true"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" required:"true"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.MinConns <= 0 {
		return fmt.Errorf("min connections must be positive")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.MinConns, c.MaxConns)
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s (must be one of: disable, require, verify-ca, verify-full)", c.SSLMode)
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// ServerConfig holds the health endpoint's HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" default:"8080"`
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" required:"true"`   // development, staging, production, test
	LogLevel    string `envconfig:"LOG_LEVEL" required:"true"` // debug, info, warn, error
	Timezone    string `envconfig:"APP_TIMEZONE"`              // IANA name; empty uses the process zone
	QuotaPolicy string `envconfig:"QUOTA_POLICY" default:"lifetime"`
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	switch c.QuotaPolicy {
	case "lifetime", "daily":
	default:
		return fmt.Errorf("invalid quota policy: %s (must be one of: lifetime, daily)", c.QuotaPolicy)
	}
	return nil
}

// Location resolves Timezone. An empty value means time.Local.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load loads configuration from environment variables only.
// (Do .env loading in cmd/bot/main.go for dev, not here.)
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process("", &cfg.Bot); err != nil {
		return nil, fmt.Errorf("failed to load Bot config: %w", err)
	}
	if err := cfg.Bot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Bot config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Storage); err != nil {
		return nil, fmt.Errorf("failed to load Storage config: %w", err)
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Storage config: %w", err)
	}

	if cfg.Storage.Backend == BackendPostgres {
		if err := envconfig.Process("", &cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to load Database config: %w", err)
		}
		if err := cfg.Database.Validate(); err != nil {
			return nil, fmt.Errorf("invalid Database config: %w", err)
		}
	}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load Server config: %w", err)
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.App); err != nil {
		return nil, fmt.Errorf("failed to load App config: %w", err)
	}
	if err := cfg.App.Validate(); err != nil {
		return nil, fmt.Errorf("invalid App config: %w", err)
	}

	return cfg, nil
}
