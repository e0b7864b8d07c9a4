// Package config defines the top-level configuration for marketview and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MARKETVIEW_* environment variables.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Views    ViewsConfig    `toml:"views"`
	Orders   OrdersConfig   `toml:"orders"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// BackendConfig points at the market backend REST API.
type BackendConfig struct {
	BaseURL       string   `toml:"base_url"`
	Timeout       duration `toml:"timeout"`
	SessionCookie string   `toml:"session_cookie"`
}

// ViewsConfig tunes view assembly.
type ViewsConfig struct {
	// MaxFanout bounds concurrent per-market reads; 0 is unbounded.
	MaxFanout int `toml:"max_fanout"`
}

// OrdersConfig holds the per-user order command rate limit. A zero
// RateLimit disables limiting.
type OrdersConfig struct {
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// RedisConfig holds Redis connection parameters. An empty Addr disables
// every Redis-backed component.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	KeyPrefix  string   `toml:"key_prefix"`
	SessionTTL duration `toml:"session_ttl"`
}

// Enabled reports whether Redis is configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

// PostgresConfig holds PostgreSQL connection parameters. Leaving both DSN
// and Host empty disables the audit log.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// Enabled reports whether PostgreSQL is configured.
func (p PostgresConfig) Enabled() bool {
	return strings.TrimSpace(p.DSN) != "" || strings.TrimSpace(p.Host) != ""
}

// S3Config holds S3-compatible object storage parameters. An empty Bucket
// disables the snapshot archive.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// Enabled reports whether object storage is configured.
func (s S3Config) Enabled() bool { return strings.TrimSpace(s.Bucket) != "" }

// ArchiveConfig controls periodic view snapshots.
type ArchiveConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval duration `toml:"interval"`
	Prefix   string   `toml:"prefix"`
	LockTTL  duration `toml:"lock_ttl"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey grants access to the admin routes; admin users always have it.
	APIKey string `toml:"api_key"`
	// RateLimit caps requests per client IP per RateWindow; 0 disables it.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL:       "http://localhost:8080",
			Timeout:       duration{15 * time.Second},
			SessionCookie: "sessionId",
		},
		Views: ViewsConfig{
			MaxFanout: 0,
		},
		Orders: OrdersConfig{
			RateLimit:  10,
			RateWindow: duration{time.Minute},
		},
		Redis: RedisConfig{
			PoolSize:   20,
			MaxRetries: 3,
			KeyPrefix:  "marketview",
			SessionTTL: duration{time.Minute},
		},
		Postgres: PostgresConfig{
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Region:         "us-east-1",
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:  false,
			Interval: duration{15 * time.Minute},
			Prefix:   "snapshots",
			LockTTL:  duration{5 * time.Minute},
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   300,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"order_backend_error", "archive_failed", "startup"},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"archive": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, archive, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Backend
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		errs = append(errs, fmt.Sprintf("backend: base_url must be an http(s) URL, got %q", c.Backend.BaseURL))
	}
	if c.Backend.Timeout.Duration <= 0 {
		errs = append(errs, "backend: timeout must be > 0")
	}

	// Views
	if c.Views.MaxFanout < 0 {
		errs = append(errs, "views: max_fanout must be >= 0")
	}

	// Orders
	if c.Orders.RateLimit < 0 {
		errs = append(errs, "orders: rate_limit must be >= 0")
	}
	if c.Orders.RateLimit > 0 && c.Orders.RateWindow.Duration <= 0 {
		errs = append(errs, "orders: rate_window must be > 0 when rate_limit is set")
	}

	// Redis
	if c.Redis.Enabled() {
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.SessionTTL.Duration < 0 {
			errs = append(errs, "redis: session_ttl must be >= 0")
		}
	}

	// Postgres
	if c.Postgres.Enabled() {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// S3
	if c.S3.Enabled() && c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty")
	}

	// Archive
	archiving := c.Mode == "archive" || (c.Mode == "full" && c.Archive.Enabled)
	if archiving {
		if !c.S3.Enabled() {
			errs = append(errs, "archive: s3.bucket is required to archive snapshots")
		}
		if c.Archive.Interval.Duration < time.Second {
			errs = append(errs, "archive: interval must be >= 1s")
		}
		if strings.Trim(c.Archive.Prefix, "/") == "" {
			errs = append(errs, "archive: prefix must not be empty")
		}
		if c.Archive.LockTTL.Duration <= 0 {
			errs = append(errs, "archive: lock_ttl must be > 0")
		}
	}

	// Server
	if c.Mode != "archive" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
