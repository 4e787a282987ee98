package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

// minJWTSecretLength is the shortest accepted signing secret.
const minJWTSecretLength = 32

// Config is the root configuration structure for Topic Lab.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Session   SessionConfig   `yaml:"session"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Audit     AuditConfig     `yaml:"audit"`
}

// StorageConfig selects where connection profiles are kept.
type StorageConfig struct {
	// Backend is "json" (data.json in DataDir) or "sqlite".
	Backend string         `yaml:"backend"`
	DataDir string         `yaml:"data_dir"`
	SQLite  DatabaseConfig `yaml:"sqlite"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// AuditConfig controls the API command audit log. Entries are kept in the
// database at storage.sqlite.path whatever the storage backend.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`

	// RetentionDays prunes older entries at startup; 0 keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

// SessionConfig tunes the MQTT session supervisor. Durations are in
// milliseconds.
type SessionConfig struct {
	SettleDelay          int `yaml:"settle_delay_ms"`
	Backoff              int `yaml:"backoff_ms"`
	MaxConsecutiveErrors int `yaml:"max_consecutive_errors"`
	BufferCapacity       int `yaml:"buffer_capacity"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for the message archive.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT       JWTConfig       `yaml:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Users may log in through POST /api/v1/auth/login. Tokens can also be
	// minted offline with `topiclab token`.
	Users []UserConfig `yaml:"users"`
}

// UserConfig is one API account. PasswordHash is an Argon2id PHC string as
// printed by `topiclab hash-password`.
type UserConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

// JWTConfig contains API token settings. An empty secret disables API
// authentication.
type JWTConfig struct {
	Secret string `yaml:"secret"`

	// AccessTokenTTL is in minutes.
	AccessTokenTTL int `yaml:"access_token_ttl"`
}

// RateLimitConfig contains rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults); skipped when path is empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TOPICLAB_SECTION_KEY
// For example: TOPICLAB_STORAGE_DATA_DIR, TOPICLAB_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: StorageJSON,
			DataDir: "./data",
			SQLite: DatabaseConfig{
				Path:        "./data/topiclab.db",
				WALMode:     true,
				BusyTimeout: 5,
			},
		},
		Session: SessionConfig{
			SettleDelay:          500,
			Backoff:              500,
			MaxConsecutiveErrors: 5,
			BufferCapacity:       100,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8484,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Bucket:        "topiclab",
			BatchSize:     100,
			FlushInterval: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 60,
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 600,
				Burst:             50,
			},
		},
		Audit: AuditConfig{
			RetentionDays: 30,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TOPICLAB_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Storage
	if v := os.Getenv("TOPICLAB_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("TOPICLAB_STORAGE_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("TOPICLAB_DATABASE_PATH"); v != "" {
		cfg.Storage.SQLite.Path = v
	}

	// API
	if v := os.Getenv("TOPICLAB_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("TOPICLAB_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing TOPICLAB_API_PORT: %w", err)
		}
		cfg.API.Port = port
	}

	// InfluxDB
	if v := os.Getenv("TOPICLAB_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("TOPICLAB_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("TOPICLAB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Audit
	if v := os.Getenv("TOPICLAB_AUDIT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing TOPICLAB_AUDIT_ENABLED: %w", err)
		}
		cfg.Audit.Enabled = enabled
	}

	// Security
	if v := os.Getenv("TOPICLAB_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}

	return nil
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	switch c.Storage.Backend {
	case StorageJSON:
		if c.Storage.DataDir == "" {
			errs = append(errs, "storage.data_dir is required for the json backend")
		}
	case StorageSQLite:
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, "storage.sqlite.path is required for the sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be %q or %q", StorageJSON, StorageSQLite))
	}

	if c.Session.MaxConsecutiveErrors < 1 {
		errs = append(errs, "session.max_consecutive_errors must be at least 1")
	}
	if c.Session.BufferCapacity < 1 {
		errs = append(errs, "session.buffer_capacity must be at least 1")
	}
	if c.Session.SettleDelay < 0 || c.Session.Backoff < 0 {
		errs = append(errs, "session delays must not be negative")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	// An empty secret disables API auth; a short one is a mistake.
	if s := c.Security.JWT.Secret; s != "" && len(s) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if len(c.Security.Users) > 0 && c.Security.JWT.Secret == "" {
		errs = append(errs, "security.users requires security.jwt.secret")
	}
	for i, u := range c.Security.Users {
		if u.Username == "" || u.PasswordHash == "" {
			errs = append(errs, fmt.Sprintf("security.users[%d] needs a username and password_hash", i))
		}
	}

	if c.Audit.Enabled && c.Storage.SQLite.Path == "" {
		errs = append(errs, "storage.sqlite.path is required when audit is enabled")
	}
	if c.Audit.RetentionDays < 0 {
		errs = append(errs, "audit.retention_days must not be negative")
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RequestsPerMinute < 1 {
		errs = append(errs, "security.rate_limit.requests_per_minute must be positive when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// AuthEnabled reports whether API requests must carry a token.
func (c *Config) AuthEnabled() bool {
	return c.Security.JWT.Secret != ""
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetSettleDelay returns the post-connect settle delay.
func (c *Config) GetSettleDelay() time.Duration {
	return time.Duration(c.Session.SettleDelay) * time.Millisecond
}

// GetBackoff returns the pause between failed polls.
func (c *Config) GetBackoff() time.Duration {
	return time.Duration(c.Session.Backoff) * time.Millisecond
}

// GetAuditRetention returns how long audit entries are kept, or 0 for ever.
func (c *Config) GetAuditRetention() time.Duration {
	return time.Duration(c.Audit.RetentionDays) * 24 * time.Hour
}

// GetAccessTokenTTL returns the API token lifetime.
func (c *Config) GetAccessTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.AccessTokenTTL) * time.Minute
}
