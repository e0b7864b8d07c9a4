package service

import (
	"context"
	"testing"

	"github.com/alanyoungcy/marketview/internal/domain"
)

type fakeUsers struct {
	user  domain.User
	err   error
	calls int
}

func (f *fakeUsers) CurrentUser(ctx context.Context) (domain.User, error) {
	f.calls++
	return f.user, f.err
}

type mapUserCache struct {
	m map[string]domain.User
}

func (c *mapUserCache) Set(ctx context.Context, sessionID string, user domain.User) error {
	c.m[sessionID] = user
	return nil
}

func (c *mapUserCache) Get(ctx context.Context, sessionID string) (domain.User, error) {
	u, ok := c.m[sessionID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (c *mapUserCache) Invalidate(ctx context.Context, sessionID string) error {
	delete(c.m, sessionID)
	return nil
}

func TestSessionResolve(t *testing.T) {
	users := &fakeUsers{user: domain.User{ID: "u1", Username: "ana"}}
	cache := &mapUserCache{m: map[string]domain.User{}}
	svc := NewSessionService(users, discardLogger()).WithCache(cache)

	if u := svc.Resolve(t.Context(), ""); u != nil || users.calls != 0 {
		t.Fatal("empty session must be anonymous without a lookup")
	}

	u := svc.Resolve(t.Context(), "s1")
	if u == nil || u.ID != "u1" {
		t.Fatalf("expected u1, got %v", u)
	}
	if u = svc.Resolve(t.Context(), "s1"); u == nil || users.calls != 1 {
		t.Fatalf("second resolve must hit the cache, calls=%d", users.calls)
	}

	svc.Forget(t.Context(), "s1")
	users.err = domain.ErrUnauthorized
	if u = svc.Resolve(t.Context(), "s1"); u != nil {
		t.Fatalf("expired session must be anonymous, got %v", u)
	}
	if _, ok := cache.m["s1"]; ok {
		t.Fatal("failed lookups must not be cached")
	}
}
