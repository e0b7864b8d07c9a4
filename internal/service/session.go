package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// UserSource resolves the session carried by ctx to a user.
type UserSource interface {
	CurrentUser(ctx context.Context) (domain.User, error)
}

// SessionService maps session ids to users, consulting the cache first.
type SessionService struct {
	users  UserSource
	cache  domain.UserCache
	logger *slog.Logger
}

// NewSessionService creates a SessionService without a cache.
func NewSessionService(users UserSource, logger *slog.Logger) *SessionService {
	return &SessionService{
		users:  users,
		logger: logger.With(slog.String("component", "session")),
	}
}

// WithCache remembers resolved users in cache.
func (s *SessionService) WithCache(cache domain.UserCache) *SessionService {
	s.cache = cache
	return s
}

// Resolve returns the user of sessionID, or nil when the session is empty,
// unknown or cannot be checked. ctx must already carry the session for the
// backend call.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) *domain.User {
	if sessionID == "" {
		return nil
	}

	if s.cache != nil {
		u, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return &u
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "session cache read failed", slog.String("error", err.Error()))
		}
	}

	u, err := s.users.CurrentUser(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			s.logger.WarnContext(ctx, "session lookup failed", slog.String("error", err.Error()))
		}
		return nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, sessionID, u); err != nil {
			s.logger.WarnContext(ctx, "session cache write failed", slog.String("error", err.Error()))
		}
	}
	return &u
}

// Forget drops a cached session, e.g. after the backend rejected it.
func (s *SessionService) Forget(ctx context.Context, sessionID string) {
	if s.cache == nil || sessionID == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "session cache invalidate failed", slog.String("error", err.Error()))
	}
}
