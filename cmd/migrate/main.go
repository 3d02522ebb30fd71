// migrate applies or rolls back the embedded SQL migrations and reports the
// resulting schema version. Run with go run ./cmd/migrate -direction up.
package main

import (
	"flag"
	"os"

	"github.com/estevao-reis/juntos-por-mais/internal/config"
	"github.com/estevao-reis/juntos-por-mais/internal/db/migrate"
	"github.com/estevao-reis/juntos-por-mais/internal/logger"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	lg := logger.New(logger.Options{Service: "juntos-migrate"})

	cfg, err := config.Load()
	if err != nil {
		lg.Error("config", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		lg.Error("DATABASE_URL is not set; export it or add it to .env")
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		lg.Error("migrate", "direction", *direction, "error", err)
		os.Exit(1)
	}

	version, dirty, err := migrate.Version(cfg.DatabaseURL)
	if err != nil {
		lg.Warn("read schema version", "error", err)
		return
	}
	lg.Info("schema version", "version", version, "dirty", dirty)
}
