package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies the defaults validate and match the documented values.
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Server.Addr != ":5000" {
		t.Errorf("Server.Addr = %q, want :5000", cfg.Server.Addr)
	}
	if cfg.Uploads.MaxBytes != 2*1024*1024 {
		t.Errorf("Uploads.MaxBytes = %d, want 2MB", cfg.Uploads.MaxBytes)
	}
	if !reflect.DeepEqual(cfg.Church.Zones, []string{"Chestnut", "KB South", "KB North"}) {
		t.Errorf("Church.Zones = %v", cfg.Church.Zones)
	}
	if cfg.LogFormat() != "text" {
		t.Errorf("LogFormat() = %q, want text", cfg.LogFormat())
	}
}

// TestLoadFrom_EnvOverrides verifies prefixed, legacy and slice variables.
func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("CELLTRACK_SERVER_ADDR", ":8080")
	t.Setenv("CELLTRACK_SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("CELLTRACK_CHURCH_ZONES", "North, South ,")
	t.Setenv("CELLTRACK_METRICS_ENABLED", "false")
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("DATABASE_URL", "sqlite:///data/church.db")

	cfg, err := LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if !reflect.DeepEqual(cfg.Church.Zones, []string{"North", "South"}) {
		t.Errorf("Zones = %v", cfg.Church.Zones)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Auth.AdminPassword != "s3cret" {
		t.Errorf("AdminPassword = %q", cfg.Auth.AdminPassword)
	}
	if cfg.DatabasePath() != "data/church.db" {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
}

// TestLoadFrom_YAMLFile verifies the file layer sits between defaults and env.
func TestLoadFrom_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  addr: ":9000"
  rate_limit: 60
uploads:
  backend: s3
  s3:
    bucket: church
    access_key: a
    secret_key: b
    public_url: https://cdn.example.org
church:
  cell_days: [Tuesday, Thursday]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CELLTRACK_SERVER_RATE_LIMIT", "10")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want file value", cfg.Server.Addr)
	}
	if cfg.Server.RateLimit != 10 {
		t.Errorf("RateLimit = %d, want env value", cfg.Server.RateLimit)
	}
	if cfg.Uploads.Backend != "s3" || cfg.Uploads.S3.Bucket != "church" {
		t.Errorf("Uploads = %+v", cfg.Uploads)
	}
	if cfg.Uploads.S3.Region != "us-east-1" {
		t.Errorf("S3.Region = %q, want default kept", cfg.Uploads.S3.Region)
	}
	if !reflect.DeepEqual(cfg.Church.CellDays, []string{"Tuesday", "Thursday"}) {
		t.Errorf("CellDays = %v", cfg.Church.CellDays)
	}
}

// TestValidate_Rejections verifies each invalid configuration is refused.
func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown env", func(c *Config) { c.Env = "staging" }, "env must be"},
		{"production default password", func(c *Config) {
			c.Env = EnvProduction
			c.Auth.SessionSecret = "x"
		}, "ADMIN_PASSWORD"},
		{"production default secret", func(c *Config) {
			c.Env = EnvProduction
			c.Auth.AdminPassword = "x"
		}, "SESSION_SECRET"},
		{"postgres url", func(c *Config) { c.Database.URL = "postgres://x" }, "sqlite:///"},
		{"unknown backend", func(c *Config) { c.Uploads.Backend = "ftp" }, "unknown uploads backend"},
		{"incomplete s3", func(c *Config) { c.Uploads.Backend = "s3" }, "uploads s3 requires"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging level"},
		{"no zones", func(c *Config) { c.Church.Zones = nil }, "zone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

// TestValidate_ProductionWithHash verifies a bcrypt hash satisfies production.
func TestValidate_ProductionWithHash(t *testing.T) {
	cfg := defaultConfig()
	cfg.Env = EnvProduction
	cfg.Auth.AdminPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	cfg.Auth.SessionSecret = "long random value"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if cfg.LogFormat() != "json" {
		t.Errorf("LogFormat() = %q, want json", cfg.LogFormat())
	}
	if len(cfg.CSRFKey()) != 32 {
		t.Errorf("CSRFKey len = %d, want 32", len(cfg.CSRFKey()))
	}
}

// TestEnvTransformFunc verifies unmapped variables are skipped.
func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"CELLTRACK_UPLOADS_S3_BUCKET": "uploads.s3.bucket",
		"SESSION_SECRET":              "auth.session_secret",
		"PATH":                        "",
		"CELLTRACK_UNKNOWN":           "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestNewLogger verifies the handler format and level follow the config.
func TestNewLogger(t *testing.T) {
	cfg := defaultConfig()
	cfg.Env = EnvProduction
	cfg.Logging.Level = "warn"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info logged at warn level: %s", out)
	}
	if !strings.HasPrefix(out, `{"time":`) || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON output, got %s", out)
	}
	if cfg.LogLevel() != slog.LevelWarn {
		t.Errorf("level = %v", cfg.LogLevel())
	}
}
