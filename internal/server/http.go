// Package server assembles the HTTP API: middleware chain, route table and the
// handler of each feature.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	adminhandler "github.com/estevao-reis/juntos-por-mais/internal/admin/handler"
	announcementhandler "github.com/estevao-reis/juntos-por-mais/internal/announcement/handler"
	"github.com/estevao-reis/juntos-por-mais/internal/audit"
	eventhandler "github.com/estevao-reis/juntos-por-mais/internal/event/handler"
	healthhandler "github.com/estevao-reis/juntos-por-mais/internal/health/handler"
	identityhandler "github.com/estevao-reis/juntos-por-mais/internal/identity/handler"
	personhandler "github.com/estevao-reis/juntos-por-mais/internal/person/handler"
	profilehandler "github.com/estevao-reis/juntos-por-mais/internal/profile/handler"
	"github.com/estevao-reis/juntos-por-mais/internal/server/middleware"
	signuphandler "github.com/estevao-reis/juntos-por-mais/internal/signup/handler"
)

// Deps holds the feature handlers and cross-cutting collaborators.
type Deps struct {
	Logger *slog.Logger
	// Auth resolves bearer tokens. If nil, every request is anonymous.
	Auth middleware.Authenticator
	// Audit records successful admin mutations. If nil, nothing is audited.
	Audit audit.AuditLogger

	Health        *healthhandler.Handler
	Identity      *identityhandler.Handler
	Signup        *signuphandler.Handler
	Regions       *personhandler.Handler
	Events        *eventhandler.Handler
	Profile       *profilehandler.Handler
	Announcements *announcementhandler.Handler
	Admin         *adminhandler.Handler
}

// NewHandler returns the route table wrapped in OpenTelemetry HTTP instrumentation.
func NewHandler(d Deps) http.Handler {
	return otelhttp.NewHandler(Routes(d), "juntos.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Routes builds the chi router.
//
// Route → handler mapping:
//   - /healthz              → internal/health/handler
//   - /api/auth             → internal/identity/handler
//   - /api/signup           → internal/signup/handler
//   - /api/regions          → internal/person/handler
//   - /api/events           → internal/event/handler
//   - /api/me, /api/profiles → internal/profile/handler
//   - /api/announcements    → internal/announcement/handler
//   - /api/admin            → internal/admin/handler (plus admin routes of events and announcements)
func Routes(d Deps) chi.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger))
	if d.Auth != nil {
		r.Use(middleware.Authenticate(d.Auth, logger))
	}

	r.Get("/healthz", d.Health.Check)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", d.Identity.Login)
		r.Post("/auth/logout", d.Identity.Logout)
		r.Post("/auth/confirm", d.Identity.Confirm)

		r.Post("/signup/leader", d.Signup.Leader)
		r.Post("/signup/supporter", d.Signup.Supporter)

		r.Get("/regions", d.Regions.Regions)

		r.Get("/events", d.Events.ListUpcoming)
		r.Get("/events/{slug}", d.Events.Page)
		r.Post("/events/{id}/registrations", d.Events.Register)

		r.Get("/me", d.Profile.Me)
		r.Get("/me/referrals", d.Profile.Referrals)
		r.Put("/me/avatar", d.Profile.SetAvatar)
		r.Delete("/me/avatar", d.Profile.RemoveAvatar)
		r.Put("/profiles/{id}", d.Profile.Update)

		r.Get("/announcements", d.Announcements.List)

		r.Route("/admin", func(r chi.Router) {
			if d.Audit != nil {
				r.Use(middleware.Audit(d.Audit))
			}
			r.Post("/announcements", d.Announcements.Create)
			r.Put("/announcements/{id}", d.Announcements.Update)
			r.Delete("/announcements/{id}", d.Announcements.Delete)

			r.Get("/events", d.Events.ListAll)
			r.Post("/events", d.Events.Create)

			r.Get("/users", d.Admin.ListUsers)
			r.Put("/users/{id}/role", d.Admin.UpdateRole)
			r.Put("/users/{id}/core", d.Admin.UpdateCore)
			r.Delete("/users/{id}", d.Admin.DeleteUser)
			r.Get("/dashboard", d.Admin.Dashboard)
			r.Get("/audit-logs", d.Admin.AuditLogs)
		})
	})
	return r
}
