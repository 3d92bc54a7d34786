package remote

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/EllowDigital/DhanDiary-sub000/internal/remote/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded schema migrations to the remote store
// behind dsn. Intended for self-hosted deployments; managed deployments
// usually apply the schema out-of-band.
func RunMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open remote store: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}
