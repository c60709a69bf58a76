// Package dbtest provides migrated Postgres schemas for repository integration tests.
package dbtest

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/url"
	"os"
	"testing"
	"time"

	"devspaces/internal/db"
	"devspaces/internal/db/migrate"
)

// Open returns a connection to a fresh schema in the DATABASE_URL database with every
// migration applied. The schema is dropped when the test ends. Without DATABASE_URL the
// test is skipped.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	base := os.Getenv("DATABASE_URL")
	if base == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}
	admin, err := db.Open(base)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = admin.Close() })

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		t.Fatal(err)
	}
	schema := "test_" + hex.EncodeToString(suffix)
	if _, err := admin.Exec(`CREATE SCHEMA ` + schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { _, _ = admin.Exec(`DROP SCHEMA ` + schema + ` CASCADE`) })

	u, err := url.Parse(base)
	if err != nil {
		t.Fatalf("parse DATABASE_URL: %v", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	scoped := u.String()

	if err := migrate.Run(scoped, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	conn, err := db.Open(scoped)
	if err != nil {
		t.Fatalf("open schema %s: %v", schema, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// InsertUser adds a plain user row with the given id.
func InsertUser(t testing.TB, conn *sql.DB, id string) {
	t.Helper()
	now := time.Now().UTC()
	if _, err := conn.ExecContext(context.Background(),
		`INSERT INTO users (id, username, email, role, subscription, notify_announcements, created_at, updated_at)
		 VALUES ($1, $1, $1 || '@example.com', 'user', 'none', TRUE, $2, $2)`,
		id, now,
	); err != nil {
		t.Fatalf("insert user %s: %v", id, err)
	}
}

// InsertWorkspace adds a workspace row named after its id.
func InsertWorkspace(t testing.TB, conn *sql.DB, id, createdBy string) {
	t.Helper()
	if _, err := conn.ExecContext(context.Background(),
		`INSERT INTO workspaces (id, name, created_by, created_at) VALUES ($1, $1, $2, $3)`,
		id, createdBy, time.Now().UTC(),
	); err != nil {
		t.Fatalf("insert workspace %s: %v", id, err)
	}
}
