package domain

import (
	"context"
	"time"
)

// UserCache remembers which user a session belongs to so the backend is not
// asked on every request.
type UserCache interface {
	Set(ctx context.Context, sessionID string, user User) error
	Get(ctx context.Context, sessionID string) (User, error)
	Invalidate(ctx context.Context, sessionID string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub between instances.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
