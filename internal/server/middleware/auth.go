// Package middleware provides the HTTP middleware chain for the monitor
// API: static-key auth, CORS for the dashboard origins, and request
// logging.
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// Auth guards the API with the static key from the server configuration
// (server.api_key / ARBMON_SERVER_API_KEY). Clients present the key as
// "Authorization: Bearer <key>" or in the X-API-Key header. An empty
// configured key disables the check, the default for local use.
func Auth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		want := []byte(apiKey)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := requestKey(r)
			if got == "" {
				unauthorized(w, "missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				unauthorized(w, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestKey pulls the presented key out of the Authorization Bearer
// scheme, falling back to X-API-Key.
func requestKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, key, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(key)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
