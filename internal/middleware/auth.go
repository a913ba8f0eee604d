package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyMiddleware admits requests carrying the terminal API key in the
// x-api-key header or, for browser websockets, the key query parameter.
// /healthz stays open for the supervisor.
func APIKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get("x-api-key")
		if key == "" {
			key = r.URL.Query().Get("key")
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
