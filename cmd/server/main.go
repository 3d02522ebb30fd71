// server runs the HTTP API. Configuration comes from the environment and an
// optional .env file (see internal/config).
package main

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminhandler "github.com/estevao-reis/juntos-por-mais/internal/admin/handler"
	adminservice "github.com/estevao-reis/juntos-por-mais/internal/admin/service"
	announcementhandler "github.com/estevao-reis/juntos-por-mais/internal/announcement/handler"
	announcementservice "github.com/estevao-reis/juntos-por-mais/internal/announcement/service"
	"github.com/estevao-reis/juntos-por-mais/internal/app"
	"github.com/estevao-reis/juntos-por-mais/internal/audit"
	"github.com/estevao-reis/juntos-por-mais/internal/config"
	eventhandler "github.com/estevao-reis/juntos-por-mais/internal/event/handler"
	eventservice "github.com/estevao-reis/juntos-por-mais/internal/event/service"
	healthhandler "github.com/estevao-reis/juntos-por-mais/internal/health/handler"
	identityhandler "github.com/estevao-reis/juntos-por-mais/internal/identity/handler"
	identityservice "github.com/estevao-reis/juntos-por-mais/internal/identity/service"
	"github.com/estevao-reis/juntos-por-mais/internal/logger"
	personhandler "github.com/estevao-reis/juntos-por-mais/internal/person/handler"
	"github.com/estevao-reis/juntos-por-mais/internal/policy/engine"
	profilehandler "github.com/estevao-reis/juntos-por-mais/internal/profile/handler"
	profileservice "github.com/estevao-reis/juntos-por-mais/internal/profile/service"
	"github.com/estevao-reis/juntos-por-mais/internal/security"
	"github.com/estevao-reis/juntos-por-mais/internal/server"
	"github.com/estevao-reis/juntos-por-mais/internal/server/middleware"
	"github.com/estevao-reis/juntos-por-mais/internal/signup"
	signuphandler "github.com/estevao-reis/juntos-por-mais/internal/signup/handler"
	telemetryotel "github.com/estevao-reis/juntos-por-mais/internal/telemetry/otel"
)

const serviceName = "juntos-api"

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()
	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	providers.SetGlobal()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(sctx)
	}()

	logOpts := logger.Options{Service: serviceName, Level: cfg.LogLevel}
	if providers.Exporting {
		logOpts.LoggerProvider = providers.LoggerProvider
	}
	lg := logger.New(logOpts)

	stores, err := app.OpenStores(cfg, lg)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer stores.Close()

	tokens, err := tokenProvider(cfg, lg)
	if err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	authz, err := engine.NewOPAAuthorizer(ctx, nil)
	if err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	prov := app.NewProvider(cfg, stores, lg)
	orphans := app.NewOrphanPublisher(cfg, lg)
	defer orphans.Close()

	auditLogger := audit.NewLogger(stores.Audit, middleware.ClientIP, lg)
	auth := identityservice.NewAuthService(prov, stores.Persons, stores.Sessions, tokens, auditLogger)

	var pinger healthhandler.Pinger
	if stores.DB != nil {
		pinger = stores.DB
	}

	handler := server.NewHandler(server.Deps{
		Logger:   lg,
		Auth:     auth,
		Audit:    auditLogger,
		Health:   healthhandler.NewHandler(pinger, authz, lg),
		Identity: identityhandler.NewHandler(auth, lg),
		Signup:   signuphandler.NewHandler(signup.NewService(stores.Persons, prov, orphans, lg), lg),
		Regions:  personhandler.NewHandler(stores.Persons, lg),
		Events:   eventhandler.NewHandler(eventservice.NewService(stores.Events, stores.Persons, authz, lg), lg),
		Profile:  profilehandler.NewHandler(profileservice.NewService(stores.Persons, prov, authz, cfg.SiteURL), lg),
		Announcements: announcementhandler.NewHandler(
			announcementservice.NewService(stores.Announcements, authz), lg),
		Admin: adminhandler.NewHandler(adminservice.NewService(adminservice.Deps{
			Persons:    stores.Persons,
			Identities: prov,
			Sessions:   stores.Sessions,
			Events:     stores.Events,
			Audit:      stores.Audit,
			Authz:      authz,
			Logger:     lg,
		}), lg),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("http server listening", "addr", cfg.HTTPAddr, "auth_provider", cfg.AuthProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	lg.Info("shutting down http server")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	lg.Info("http server stopped")
	return nil
}

// tokenProvider loads the configured signing keys. Outside production a
// missing key pair is replaced by an ephemeral one.
func tokenProvider(cfg *config.Config, lg *slog.Logger) (*security.TokenProvider, error) {
	var (
		signer crypto.Signer
		pub    crypto.PublicKey
		err    error
	)
	switch {
	case cfg.JWTPrivateKey != "" && cfg.JWTPublicKey != "":
		signer, pub, err = security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	case cfg.IsProduction():
		return nil, errors.New("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required in production")
	default:
		lg.Warn("JWT keys not configured; using an ephemeral key pair")
		signer, pub, err = security.EphemeralKeyPair()
	}
	if err != nil {
		return nil, err
	}
	return security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL()), nil
}
