package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"authgate/config"
	logs "authgate/internal/infra/log"
	"authgate/internal/infra/persistence/postgres"

	"github.com/pkg/errors"
	pgLib "github.com/slighter12/go-lib/database/postgres"
)

func main() {
	command := flag.String("command", postgres.MigrateUp, "goose command: up, down, status or version")
	flag.Parse()

	if err := run(context.Background(), *command); err != nil {
		log.Fatalf("migrate %s: %v", *command, err)
	}
}

func run(ctx context.Context, command string) error {
	cfg, err := config.New()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	logger, err := logs.New(logs.Params{Config: cfg})
	if err != nil {
		return errors.Wrap(err, "create logger")
	}

	if cfg.Postgres == nil {
		return errors.New("postgres config is required to run migrations")
	}

	db, err := pgLib.New(cfg.Postgres)
	if err != nil {
		return errors.Wrap(err, "failed to connect to PostgreSQL")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}
	defer sqlDB.Close()

	if err := postgres.RunMigrations(ctx, sqlDB, command); err != nil {
		return err
	}

	logger.Info("Migration finished", slog.String("command", command))

	return nil
}
