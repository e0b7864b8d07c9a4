package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETVIEW_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned
// Config has NOT been validated; the caller should invoke Config.Validate()
// after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETVIEW_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Backend ──
	setStr(&cfg.Backend.BaseURL, "MARKETVIEW_BACKEND_BASE_URL")
	setDuration(&cfg.Backend.Timeout, "MARKETVIEW_BACKEND_TIMEOUT")
	setStr(&cfg.Backend.SessionCookie, "MARKETVIEW_BACKEND_SESSION_COOKIE")

	// ── Views / orders ──
	setInt(&cfg.Views.MaxFanout, "MARKETVIEW_VIEWS_MAX_FANOUT")
	setInt(&cfg.Orders.RateLimit, "MARKETVIEW_ORDERS_RATE_LIMIT")
	setDuration(&cfg.Orders.RateWindow, "MARKETVIEW_ORDERS_RATE_WINDOW")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "MARKETVIEW_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETVIEW_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETVIEW_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETVIEW_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MARKETVIEW_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MARKETVIEW_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "MARKETVIEW_REDIS_KEY_PREFIX")
	setDuration(&cfg.Redis.SessionTTL, "MARKETVIEW_REDIS_SESSION_TTL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "MARKETVIEW_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "MARKETVIEW_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MARKETVIEW_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MARKETVIEW_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MARKETVIEW_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MARKETVIEW_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MARKETVIEW_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MARKETVIEW_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MARKETVIEW_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MARKETVIEW_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "MARKETVIEW_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETVIEW_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETVIEW_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MARKETVIEW_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETVIEW_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MARKETVIEW_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MARKETVIEW_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "MARKETVIEW_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "MARKETVIEW_ARCHIVE_INTERVAL")
	setStr(&cfg.Archive.Prefix, "MARKETVIEW_ARCHIVE_PREFIX")
	setDuration(&cfg.Archive.LockTTL, "MARKETVIEW_ARCHIVE_LOCK_TTL")

	// ── Server ──
	setInt(&cfg.Server.Port, "MARKETVIEW_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETVIEW_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "MARKETVIEW_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "MARKETVIEW_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "MARKETVIEW_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MARKETVIEW_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MARKETVIEW_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MARKETVIEW_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MARKETVIEW_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MARKETVIEW_MODE")
	setStr(&cfg.LogLevel, "MARKETVIEW_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
