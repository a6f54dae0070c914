package httpx

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/devsentry/devsentry/pkg/config"
	"github.com/devsentry/devsentry/pkg/server/api"
)

// Auth returns a middleware that enforces the configured auth mode.
//
// Behavior:
//   - Health endpoints (/healthz, /readyz) are always open
//   - "none" lets every request through
//   - "token" requires Authorization: Bearer <token>
//   - Failures answer 401 with the standard JSON error body
func Auth(cfg config.ServerConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			switch cfg.Auth.Mode {
			case "none":
				next.ServeHTTP(w, r)

			case "token":
				token := extractBearerToken(r)
				if token == "" {
					rejectRequest(w, r, "Missing authorization header")
					return
				}
				if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Auth.Token)) != 1 {
					rejectRequest(w, r, "Invalid token")
					return
				}
				next.ServeHTTP(w, r)

			default:
				// config validation rejects other modes
				log.Error().
					Str("component", "auth").
					Str("mode", cfg.Auth.Mode).
					Msg("Unknown auth mode")
				api.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication configuration error")
			}
		})
	}
}

func rejectRequest(w http.ResponseWriter, r *http.Request, message string) {
	log.Warn().
		Str("component", "auth").
		Str("path", r.URL.Path).
		Msg(message)
	api.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized", message)
}

func isHealthEndpoint(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when the header is absent or uses another scheme.
func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
