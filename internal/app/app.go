// Package app builds the collaborators shared by the commands: storage, the
// authentication provider and the orphan event publisher.
package app

import (
	"database/sql"
	"errors"
	"log/slog"

	announcementrepo "github.com/estevao-reis/juntos-por-mais/internal/announcement/repository"
	auditrepo "github.com/estevao-reis/juntos-por-mais/internal/audit/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/config"
	"github.com/estevao-reis/juntos-por-mais/internal/db"
	eventrepo "github.com/estevao-reis/juntos-por-mais/internal/event/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider/gotrue"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider/local"
	identityrepo "github.com/estevao-reis/juntos-por-mais/internal/identity/repository"
	persondomain "github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	personrepo "github.com/estevao-reis/juntos-por-mais/internal/person/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/security"
	sessionrepo "github.com/estevao-reis/juntos-por-mais/internal/session/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/signup"
	"github.com/estevao-reis/juntos-por-mais/internal/signup/orphan"
)

// Stores groups the repositories. DB is nil for in-memory stores.
type Stores struct {
	DB            *sql.DB
	Persons       personrepo.Repository
	Identities    identityrepo.Repository
	Sessions      sessionrepo.Repository
	Events        eventrepo.Repository
	Announcements announcementrepo.Repository
	Audit         auditrepo.Repository
}

// OpenStores connects to DATABASE_URL. Without one it falls back to in-memory
// stores outside production and fails in production.
func OpenStores(cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction() {
			return nil, errors.New("DATABASE_URL is required in production")
		}
		logger.Warn("DATABASE_URL not set; using in-memory stores")
		return MemoryStores(persondomain.DefaultRegions()...), nil
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return PostgresStores(conn), nil
}

// PostgresStores returns repositories over conn.
func PostgresStores(conn *sql.DB) *Stores {
	return &Stores{
		DB:            conn,
		Persons:       personrepo.NewPostgresRepository(conn),
		Identities:    identityrepo.NewPostgresRepository(conn),
		Sessions:      sessionrepo.NewPostgresRepository(conn),
		Events:        eventrepo.NewPostgresRepository(conn),
		Announcements: announcementrepo.NewPostgresRepository(conn),
		Audit:         auditrepo.NewPostgresRepository(conn),
	}
}

// MemoryStores returns empty in-process repositories seeded with regions.
func MemoryStores(regions ...persondomain.Region) *Stores {
	return &Stores{
		Persons:       personrepo.NewMemoryRepository(regions...),
		Identities:    identityrepo.NewMemoryRepository(),
		Sessions:      sessionrepo.NewMemoryRepository(),
		Events:        eventrepo.NewMemoryRepository(),
		Announcements: announcementrepo.NewMemoryRepository(),
		Audit:         auditrepo.NewMemoryRepository(),
	}
}

// Close closes the database connection, if any.
func (s *Stores) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// NewProvider returns the authentication provider selected by AUTH_PROVIDER.
// The local provider materializes leader records into s.Persons and logs
// confirmation links in place of sending mail.
func NewProvider(cfg *config.Config, s *Stores, logger *slog.Logger) provider.Provider {
	if cfg.AuthProvider == config.AuthProviderGoTrue {
		return gotrue.NewClient(cfg.GoTrueURL, cfg.GoTrueServiceKey, cfg.GoTrueAnonKey)
	}
	return local.New(
		s.Identities,
		security.NewHasher(cfg.BcryptCost),
		signup.NewMaterializer(s.Persons),
		local.LogSender{Logger: logger, SiteURL: cfg.SiteURL},
		logger,
	)
}

// NewOrphanPublisher returns a Kafka publisher when brokers are configured and
// a log-only publisher otherwise.
func NewOrphanPublisher(cfg *config.Config, logger *slog.Logger) orphan.Publisher {
	if p := orphan.NewKafkaPublisher(cfg.KafkaBrokersList(), cfg.OrphanKafkaTopic); p != nil {
		return p
	}
	return orphan.LogPublisher{Logger: logger}
}
