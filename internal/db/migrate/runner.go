// Package migrate applies the embedded schema migrations with golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/xo/dburl"

	"devspaces/internal/db"
)

// ErrNoChange is returned when Up/Down has nothing to do (already at target version).
var ErrNoChange = migrate.ErrNoChange

// Run applies migrations in the given direction ("up" or "down") against databaseURL.
// Already being at the target version is not an error.
func Run(databaseURL string, direction string) error {
	if strings.TrimSpace(databaseURL) == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}
	target, err := migrationURL(databaseURL)
	if err != nil {
		return err
	}

	sourceDriver, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, target)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if direction == "up" {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// migrationURL normalizes postgres aliases (pg:, pgsql:, postgresql:) to the postgres:// scheme
// that the golang-migrate driver registers under.
func migrationURL(databaseURL string) (string, error) {
	u, err := dburl.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("migrate: parse database url: %w", err)
	}
	if u.Driver != "postgres" {
		return "", fmt.Errorf("migrate: unsupported database driver %q", u.Driver)
	}
	normalized := u.URL
	normalized.Scheme = "postgres"
	normalized.Opaque = ""
	return normalized.String(), nil
}
