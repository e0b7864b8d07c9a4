package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// AdminOnly admits signed-in admin users, or callers presenting apiKey as a
// Bearer token or X-API-Key header. An empty apiKey disables key access.
func AdminOnly(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u := domain.UserFromContext(r.Context()); u != nil && u.IsAdmin {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if apiKey != "" && token != "" &&
				subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			if token == "" && domain.UserFromContext(r.Context()) == nil {
				writeError(w, http.StatusUnauthorized, "missing authentication")
				return
			}
			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}

// extractToken looks for a Bearer token or an X-API-Key header.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
