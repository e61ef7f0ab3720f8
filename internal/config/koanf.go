package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the variable pointing at a YAML config file.
const ConfigPathEnvVar = "CELLTRACK_CONFIG"

// DefaultConfigPaths are searched when ConfigPathEnvVar is unset.
var DefaultConfigPaths = []string{"config.yaml", "celltrack.yaml"}

// Load reads .env, then layers defaults, the config file and the environment.
// PRE: none
// POST: Returns a validated Config or the first loading/validation error
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return LoadFrom(findConfigFile())
}

// LoadFrom layers defaults, the YAML file at path (when non-empty) and the environment.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated environment values.
var sliceConfigPaths = []string{
	"church.zones",
	"church.cell_days",
	"server.trusted_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// legacyEnv maps the variable names the application has always read.
var legacyEnv = map[string]string{
	"admin_password": "auth.admin_password",
	"session_secret": "auth.session_secret",
	"database_url":   "database.url",
}

// envMappings maps CELLTRACK_-prefixed names (prefix stripped, lower-cased) to koanf paths.
var envMappings = map[string]string{
	"env": "env",

	"server_addr":             "server.addr",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",
	"server_static_dir":       "server.static_dir",
	"server_slow_request":     "server.slow_request",
	"server_rate_limit":       "server.rate_limit",
	"server_trusted_origins":  "server.trusted_origins",
	"server_secure_cookies":   "server.secure_cookies",

	"database_path":       "database.path",
	"database_url":        "database.url",
	"database_slow_query": "database.slow_query",

	"auth_admin_password":      "auth.admin_password",
	"auth_admin_password_hash": "auth.admin_password_hash",
	"auth_session_secret":      "auth.session_secret",
	"auth_session_ttl":         "auth.session_ttl",

	"uploads_backend":           "uploads.backend",
	"uploads_dir":               "uploads.dir",
	"uploads_url_prefix":        "uploads.url_prefix",
	"uploads_max_bytes":         "uploads.max_bytes",
	"uploads_s3_endpoint":       "uploads.s3.endpoint",
	"uploads_s3_region":         "uploads.s3.region",
	"uploads_s3_bucket":         "uploads.s3.bucket",
	"uploads_s3_access_key":     "uploads.s3.access_key",
	"uploads_s3_secret_key":     "uploads.s3.secret_key",
	"uploads_s3_prefix":         "uploads.s3.prefix",
	"uploads_s3_public_url":     "uploads.s3.public_url",
	"uploads_s3_use_path_style": "uploads.s3.use_path_style",

	"church_zones":     "church.zones",
	"church_cell_days": "church.cell_days",

	"logging_level":  "logging.level",
	"logging_format": "logging.format",

	"metrics_enabled": "metrics.enabled",
}

// envTransformFunc maps an environment variable name to a koanf path.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if rest, ok := strings.CutPrefix(key, "celltrack_"); ok {
		return envMappings[rest]
	}
	return legacyEnv[key]
}
