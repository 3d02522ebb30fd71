package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// Authenticator resolves an access token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// Authenticate resolves the bearer token, when present, and stores the
// principal in the request context. Requests without a valid token continue
// anonymously; services decide what anonymous callers may do.
func Authenticate(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			p, err := auth.Authenticate(ctx, token)
			if err != nil {
				logger.DebugContext(ctx, "bearer token rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, p)))
		})
	}
}

// bearerToken returns the Bearer token of the request, or "" if missing or malformed.
func bearerToken(r *http.Request) string {
	const prefix = "bearer "
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(v[len(prefix):])
}
