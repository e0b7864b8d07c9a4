package middleware

import (
	"context"
	"net/http"

	"github.com/alanyoungcy/marketview/internal/domain"
	"github.com/alanyoungcy/marketview/internal/platform/exchange"
)

// UserResolver turns a session id into a user, nil meaning anonymous, and
// drops sessions the backend no longer accepts.
type UserResolver interface {
	Resolve(ctx context.Context, sessionID string) *domain.User
	Forget(ctx context.Context, sessionID string)
}

// Session reads the session cookie, forwards it to backend calls made while
// serving the request, and stores the resolved user in the request context.
// Requests without a valid session continue anonymously. A signed-in request
// answered with 401 means the backend rejected the session, so it is
// forgotten.
func Session(resolver UserResolver, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = exchange.DefaultSessionCookie
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ck, err := r.Cookie(cookieName)
			if err != nil || ck.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := exchange.WithSession(r.Context(), ck.Value)
			u := resolver.Resolve(ctx, ck.Value)
			if u == nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx = domain.WithUser(ctx, u)
			noteUser(ctx, u)
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))
			if rw.statusCode == http.StatusUnauthorized {
				resolver.Forget(ctx, ck.Value)
			}
		})
	}
}
