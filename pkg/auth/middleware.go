package auth

import (
	"crypto/hmac"
	"net/http"
	"strings"

	"newsrelay/pkg/logger"
	"newsrelay/pkg/utils"
)

// RequireAPIKey guards mutating endpoints with a shared-secret header.
// An empty configured key means the deployment runs open, typically
// local development; the middleware then passes every request through.
func RequireAPIKey(key string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if got == "" {
			logger.Warn("missing_api_key", "path", r.URL.Path, "remote", r.RemoteAddr)
			utils.JSONError(w, http.StatusUnauthorized, "missing api key")
			return
		}
		if !hmac.Equal([]byte(got), []byte(key)) {
			logger.Warn("invalid_api_key", "path", r.URL.Path, "remote", r.RemoteAddr)
			utils.JSONError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
