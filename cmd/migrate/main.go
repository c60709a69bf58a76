// migrate applies the embedded schema migrations; use with ./scripts/migrate.sh or go run ./cmd/migrate.
package main

import (
	"flag"
	"os"

	"devspaces/internal/config"
	"devspaces/internal/db/migrate"
	"devspaces/internal/platform/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "", "info").Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.Env, cfg.LogLevel)
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		logger.Error("migrate", "direction", *direction, "error", err)
		os.Exit(1)
	}
	logger.Info("migrations complete", "direction", *direction)
}
