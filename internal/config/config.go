// Package config loads the server and CLI configuration.
//
// Precedence, lowest first: struct defaults, an optional YAML file, then
// environment variables. A .env file in the working directory is read into the
// environment before loading.
package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Development defaults that must be overridden in production.
const (
	DefaultAdminPassword = "church123"
	DefaultSessionSecret = "dev-secret-key-change-in-production"
)

// Config is the full application configuration.
type Config struct {
	Env      string         `koanf:"env"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Uploads  UploadsConfig  `koanf:"uploads"`
	Church   ChurchConfig   `koanf:"church"`
	Logging  LoggingConfig  `koanf:"logging"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	StaticDir       string        `koanf:"static_dir"`
	SlowRequest     time.Duration `koanf:"slow_request"`
	RateLimit       int           `koanf:"rate_limit"` // requests per minute per IP, 0 disables
	TrustedOrigins  []string      `koanf:"trusted_origins"`
	SecureCookies   bool          `koanf:"secure_cookies"`
}

// DatabaseConfig configures sqlite.
type DatabaseConfig struct {
	Path      string        `koanf:"path"`
	URL       string        `koanf:"url"` // sqlite:///path form, overrides Path when set
	SlowQuery time.Duration `koanf:"slow_query"`
}

// AuthConfig configures the shared admin login.
type AuthConfig struct {
	AdminPassword     string        `koanf:"admin_password"`
	AdminPasswordHash string        `koanf:"admin_password_hash"` // bcrypt, preferred over AdminPassword
	SessionSecret     string        `koanf:"session_secret"`
	SessionTTL        time.Duration `koanf:"session_ttl"`
}

// UploadsConfig configures profile picture storage.
type UploadsConfig struct {
	Backend   string   `koanf:"backend"` // local or s3
	Dir       string   `koanf:"dir"`
	URLPrefix string   `koanf:"url_prefix"`
	MaxBytes  int64    `koanf:"max_bytes"`
	S3        S3Config `koanf:"s3"`
}

// S3Config configures the S3 upload backend.
type S3Config struct {
	Endpoint     string `koanf:"endpoint"`
	Region       string `koanf:"region"`
	Bucket       string `koanf:"bucket"`
	AccessKey    string `koanf:"access_key"`
	SecretKey    string `koanf:"secret_key"`
	Prefix       string `koanf:"prefix"`
	PublicURL    string `koanf:"public_url"`
	UsePathStyle bool   `koanf:"use_path_style"`
}

// ChurchConfig holds the static zone and meeting-day lists.
type ChurchConfig struct {
	Zones    []string `koanf:"zones"`
	CellDays []string `koanf:"cell_days"`
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text or json; empty picks by environment
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

func defaultConfig() *Config {
	return &Config{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Addr:            ":5000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			StaticDir:       "static",
			SlowRequest:     200 * time.Millisecond,
			RateLimit:       300,
		},
		Database: DatabaseConfig{
			Path:      "cell_tracker.db",
			SlowQuery: 50 * time.Millisecond,
		},
		Auth: AuthConfig{
			AdminPassword: DefaultAdminPassword,
			SessionSecret: DefaultSessionSecret,
			SessionTTL:    24 * time.Hour,
		},
		Uploads: UploadsConfig{
			Backend:   "local",
			Dir:       "static/uploads/profile_pictures",
			URLPrefix: "/static/uploads/profile_pictures/",
			MaxBytes:  2 * 1024 * 1024,
			S3:        S3Config{Region: "us-east-1", Prefix: "profile_pictures/"},
		},
		Church: ChurchConfig{
			Zones:    []string{"Chestnut", "KB South", "KB North"},
			CellDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		},
		Logging: LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// IsProduction reports whether the production environment is selected.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// DatabasePath resolves the sqlite file, preferring Database.URL.
func (c *Config) DatabasePath() string {
	if c.Database.URL != "" {
		if p, ok := strings.CutPrefix(c.Database.URL, "sqlite:///"); ok {
			return p
		}
	}
	return c.Database.Path
}

// CSRFKey derives the 32-byte CSRF authentication key from the session secret.
func (c *Config) CSRFKey() []byte {
	sum := sha256.Sum256([]byte(c.Auth.SessionSecret))
	return sum[:]
}

// LogFormat returns the effective log handler format.
func (c *Config) LogFormat() string {
	if c.Logging.Format != "" {
		return c.Logging.Format
	}
	if c.IsProduction() {
		return "json"
	}
	return "text"
}

// Validate checks the configuration for values the server cannot run with.
// PRE: c was produced by Load or defaultConfig
// POST: Returns the first problem found, nil otherwise
func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	if c.Database.URL != "" && !strings.HasPrefix(c.Database.URL, "sqlite:///") {
		return fmt.Errorf("database url must use the sqlite:/// scheme, got %q", c.Database.URL)
	}
	if c.DatabasePath() == "" {
		return errors.New("database path is required")
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateUploads(); err != nil {
		return err
	}
	if len(c.Church.Zones) == 0 {
		return errors.New("at least one zone is required")
	}
	if c.Server.RateLimit < 0 {
		return errors.New("server rate_limit cannot be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateAuth() error {
	if c.Auth.AdminPassword == "" && c.Auth.AdminPasswordHash == "" {
		return errors.New("admin password or admin password hash is required")
	}
	if c.Auth.SessionSecret == "" {
		return errors.New("session secret is required")
	}
	if !c.IsProduction() {
		return nil
	}
	if c.Auth.AdminPasswordHash == "" && c.Auth.AdminPassword == DefaultAdminPassword {
		return errors.New("ADMIN_PASSWORD must be changed in production")
	}
	if c.Auth.SessionSecret == DefaultSessionSecret {
		return errors.New("SESSION_SECRET must be changed in production")
	}
	return nil
}

func (c *Config) validateUploads() error {
	if c.Uploads.MaxBytes <= 0 {
		return errors.New("uploads max_bytes must be positive")
	}
	switch c.Uploads.Backend {
	case "local":
		if c.Uploads.Dir == "" {
			return errors.New("uploads dir is required for the local backend")
		}
	case "s3":
		s3 := c.Uploads.S3
		if s3.Bucket == "" || s3.AccessKey == "" || s3.SecretKey == "" || s3.PublicURL == "" {
			return errors.New("uploads s3 requires bucket, access_key, secret_key and public_url")
		}
	default:
		return fmt.Errorf("unknown uploads backend %q", c.Uploads.Backend)
	}
	return nil
}
