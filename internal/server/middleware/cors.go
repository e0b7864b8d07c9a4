package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// CORS sets CORS headers for the allowed origins; an empty list allows all.
// Credentials are allowed because the session travels in a cookie.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				allowed := len(allowedOrigins) == 0 || slices.ContainsFunc(allowedOrigins, func(o string) bool {
					return o == "*" || strings.EqualFold(o, origin)
				})
				if allowed {
					h := w.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID, Idempotency-Key")
					h.Set("Access-Control-Expose-Headers", "X-Request-ID")
					h.Set("Access-Control-Max-Age", "86400")
					h.Add("Vary", "Origin")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
