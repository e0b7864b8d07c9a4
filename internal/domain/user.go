package domain

import (
	"context"
	"time"
)

// User is an authenticated account as reported by the backend session
// service.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

type userCtxKey struct{}

// WithUser returns a copy of ctx carrying the resolved user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the user stored by WithUser, or nil for an
// anonymous request.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// AirdropStatus describes when the user may next claim free balance.
type AirdropStatus struct {
	LastAirdrop           *time.Time `json:"lastAirdrop"`
	SecondsUntilAvailable int64      `json:"secondsUntilAvailable"`
	Available             bool       `json:"available"`
}

// LeaderboardEntry ranks a user by realized profit.
type LeaderboardEntry struct {
	UserID              string `json:"userId"`
	Username            string `json:"username"`
	RealizedProfitCents int64  `json:"realizedProfitCents"`
}
