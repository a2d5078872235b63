package postgres

import (
	"context"
	"database/sql"
	"embed"

	"authgate/internal/errors"

	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// Migration commands accepted by RunMigrations.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// RunMigrations applies a goose command using the embedded SQL migrations.
func RunMigrations(ctx context.Context, db *sql.DB, command string) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}

	if err := goose.RunContext(ctx, command, db, migrationsDir); err != nil {
		return errors.Wrapf(err, "goose %s", command)
	}

	return nil
}
