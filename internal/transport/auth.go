package transport

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware enforces static bearer token authentication for the request
// layer. Caller authentication proper is out of scope here; this guards the
// orchestration API itself.
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			presented := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if presented == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
