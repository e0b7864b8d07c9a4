package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// UserCache implements domain.UserCache. Session ids are hashed before use
// as keys so a Redis dump does not leak live sessions.
//
// Key schema:
//
//	session:{sha256(sessionID)} - JSON encoded domain.User
type UserCache struct {
	c   *Client
	ttl time.Duration
}

// NewUserCache creates a UserCache whose entries expire after ttl.
func NewUserCache(c *Client, ttl time.Duration) *UserCache {
	return &UserCache{c: c, ttl: ttl}
}

func (uc *UserCache) sessionKey(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return uc.c.key("session:" + hex.EncodeToString(sum[:]))
}

// Set stores the user a session resolved to.
func (uc *UserCache) Set(ctx context.Context, sessionID string, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("redis: marshal user %s: %w", user.ID, err)
	}
	if err := uc.c.rdb.Set(ctx, uc.sessionKey(sessionID), data, uc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set session user: %w", err)
	}
	return nil
}

// Get returns the cached user of a session, or domain.ErrNotFound.
func (uc *UserCache) Get(ctx context.Context, sessionID string) (domain.User, error) {
	data, err := uc.c.rdb.Get(ctx, uc.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("redis: get session user: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return domain.User{}, fmt.Errorf("redis: unmarshal session user: %w", err)
	}
	return user, nil
}

// Invalidate forgets a session.
func (uc *UserCache) Invalidate(ctx context.Context, sessionID string) error {
	if err := uc.c.rdb.Del(ctx, uc.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate session: %w", err)
	}
	return nil
}

var _ domain.UserCache = (*UserCache)(nil)
