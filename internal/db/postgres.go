package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/xo/dburl"
)

// Open opens a Postgres pool from a database URL. Any postgres alias understood by dburl
// (postgres://, postgresql://, pg:, pgsql:) is accepted. Caller must call Close when done.
func Open(rawURL string) (*sql.DB, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("db: database url is empty")
	}
	u, err := dburl.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Driver != "postgres" {
		return nil, errors.New("db: only postgres is supported, got " + u.Driver)
	}
	db, err := sql.Open("pgx", u.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// InTx runs fn inside a transaction, committing when fn returns nil and rolling back otherwise.
func InTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// IsUniqueViolation reports whether err is a Postgres unique_violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
