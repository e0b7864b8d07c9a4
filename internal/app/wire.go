package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/marketview/internal/blob/s3"
	"github.com/alanyoungcy/marketview/internal/cache/redis"
	"github.com/alanyoungcy/marketview/internal/config"
	"github.com/alanyoungcy/marketview/internal/domain"
	"github.com/alanyoungcy/marketview/internal/notify"
	"github.com/alanyoungcy/marketview/internal/platform/exchange"
	"github.com/alanyoungcy/marketview/internal/server/handler"
	"github.com/alanyoungcy/marketview/internal/store/postgres"
)

// Dependencies bundles every concrete dependency the application modes need.
// Only Backend and Notifier are always present; the Redis, PostgreSQL and S3
// backed fields stay nil when their section is not configured.
type Dependencies struct {
	Backend *exchange.Client

	// Redis
	UserCache   domain.UserCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// PostgreSQL
	AuditStore domain.AuditStore

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader

	// Notifications
	Notifier *notify.Notifier

	// Pingers are reported by the health endpoint.
	Pingers map[string]handler.Pinger
}

// s3Pinger adapts the S3 client's HeadBucket check to handler.Pinger.
type s3Pinger struct{ c *s3blob.Client }

func (p s3Pinger) Ping(ctx context.Context) error { return p.c.Health(ctx) }

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Backend: exchange.NewClient(cfg.Backend.BaseURL,
			exchange.WithTimeout(cfg.Backend.Timeout.Duration),
			exchange.WithSessionCookie(cfg.Backend.SessionCookie),
		),
		Pingers: make(map[string]handler.Pinger),
	}

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.AuditStore = postgres.NewAuditStore(pgClient.Pool())
		deps.Pingers["postgres"] = pgClient
	} else {
		logger.InfoContext(ctx, "postgres not configured, audit log disabled")
	}

	// --- Redis ---
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		if ttl := cfg.Redis.SessionTTL.Duration; ttl > 0 {
			deps.UserCache = redis.NewUserCache(redisClient, ttl)
		}
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.Pingers["redis"] = redisClient
	} else {
		logger.InfoContext(ctx, "redis not configured, session cache, rate limits and push disabled")
	}

	// --- S3 blob storage ---
	if cfg.S3.Enabled() {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Pingers["s3"] = s3Pinger{c: s3Client}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
