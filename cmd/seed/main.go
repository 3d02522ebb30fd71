// seed loads the administrative regions and creates the first admin. Run with
// go run ./cmd/seed. Idempotent: existing regions are skipped and the admin is
// only created when no person holds SEED_ADMIN_EMAIL.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/estevao-reis/juntos-por-mais/internal/app"
	"github.com/estevao-reis/juntos-por-mais/internal/config"
	"github.com/estevao-reis/juntos-por-mais/internal/cpf"
	"github.com/estevao-reis/juntos-por-mais/internal/db"
	identitydomain "github.com/estevao-reis/juntos-por-mais/internal/identity/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider"
	"github.com/estevao-reis/juntos-por-mais/internal/logger"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
)

func main() {
	email := flag.String("admin-email", envOr("SEED_ADMIN_EMAIL", "admin@example.com"), "Admin email")
	name := flag.String("admin-name", envOr("SEED_ADMIN_NAME", "Administrador"), "Admin name")
	cpfFlag := flag.String("admin-cpf", envOr("SEED_ADMIN_CPF", "52998224725"), "Admin CPF")
	password := flag.String("admin-password", envOr("SEED_ADMIN_PASSWORD", "password123"), "Admin password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; export it or add it to .env")
	}
	if !cpf.Valid(*cpfFlag) {
		log.Fatalf("invalid admin CPF %q", *cpfFlag)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	stores := app.PostgresStores(conn)
	defer stores.Close()

	lg := logger.New(logger.Options{Service: "juntos-seed", Level: cfg.LogLevel})
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, r := range domain.DefaultRegions() {
		if err := stores.Persons.AddRegion(ctx, r); err != nil {
			log.Fatalf("add region %s: %v", r.ID, err)
		}
	}

	existing, err := stores.Persons.GetByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("lookup admin: %v", err)
	}
	if existing != nil {
		log.Printf("Admin %s already exists; skipping.", *email)
		return
	}

	prov := app.NewProvider(cfg, stores, lg)
	ident, err := prov.CreateIdentity(ctx, *email, *password, true, identitydomain.Metadata{
		identitydomain.MetaName: *name,
		identitydomain.MetaCPF:  cpf.Clean(*cpfFlag),
	})
	if errors.Is(err, provider.ErrIdentityExists) {
		log.Fatalf("identity for %s exists without a person record; remove it or pick another email", *email)
	}
	if err != nil {
		log.Fatalf("create identity: %v", err)
	}

	now := time.Now().UTC()
	admin := &domain.Person{
		ID:        uuid.New().String(),
		AuthID:    ident.ID,
		Role:      domain.RoleAdmin,
		Name:      *name,
		Email:     *email,
		CPF:       cpf.Clean(*cpfFlag),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := stores.Persons.Create(ctx, admin); err != nil {
		if delErr := prov.DeleteIdentity(ctx, ident.ID); delErr != nil {
			lg.Error("rollback admin identity failed", "auth_id", ident.ID, "error", delErr)
		}
		log.Fatalf("create admin: %v", err)
	}

	log.Println("Seed completed successfully.")
	log.Printf("Admin login: %s / %s", *email, *password)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
