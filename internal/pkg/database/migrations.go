package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/Pesokrava/park_reviewer/migrations"
)

// RunMigrations applies all pending goose migrations embedded in the binary
func RunMigrations(ctx context.Context, db *sqlx.DB) (int, error) {
	return runMigrations(ctx, db, migrations.FS)
}

func runMigrations(ctx context.Context, db *sqlx.DB, fsys fs.FS) (int, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db.DB, fsys)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return len(results), nil
}
