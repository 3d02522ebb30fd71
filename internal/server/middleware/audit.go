package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/estevao-reis/juntos-por-mais/internal/audit"
)

// Audit records an audit log entry after each mutating request that succeeded
// for an authenticated caller. Action and resource come from the matched chi
// route pattern.
func Audit(logger audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				return
			}
			if ww.Status() >= http.StatusBadRequest {
				return
			}
			p := PrincipalFrom(r.Context())
			if p == nil {
				return
			}
			pattern := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if rp := rctx.RoutePattern(); rp != "" {
					pattern = rp
				}
			}
			ar := audit.ParseRoute(r.Method, pattern)
			target := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				target = rctx.URLParam("id")
			}
			logger.LogEvent(r.Context(), p.PersonID, ar.Action, ar.Resource, target)
		})
	}
}
