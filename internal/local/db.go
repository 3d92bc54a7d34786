// Package local wires up the embedded SQLite store: opening the database,
// applying migrations, and bundling the repositories used by the sync engine.
package local

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/EllowDigital/DhanDiary-sub000/internal/local/entries"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local/meta"
	"github.com/EllowDigital/DhanDiary-sub000/internal/local/migrations"
	"github.com/pressly/goose/v3"
)

// Repositories bundles the local-store repositories plus the owning handle,
// which callers need for cross-repository transactions.
type Repositories struct {
	DB      *sql.DB
	Entries entries.Repository
	Meta    meta.Repository
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the local database at dsn, migrates it,
// and returns the repository bundle. SQLite handles one writer at a time, so
// the pool is capped at a single connection.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:      db,
		Entries: entries.NewSQLiteRepository(db),
		Meta:    meta.NewSQLiteRepository(db),
	}, nil
}
