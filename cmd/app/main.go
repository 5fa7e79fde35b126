// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"

	"codeberg.org/kisanbazaar/marketplace/internal/config"
	"codeberg.org/kisanbazaar/marketplace/internal/database"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"codeberg.org/kisanbazaar/marketplace/internal/seed"
	"codeberg.org/kisanbazaar/marketplace/internal/server"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// Version is set via ldflags during build.
var Version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Kisan Bazaar marketplace",
		Version: Version,
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web application (default)",
				Action: server.Run,
			},
			{
				Name:  "migrate",
				Usage: "Manage the database schema",
				Commands: []*cli.Command{
					{Name: "up", Usage: "Apply pending migrations", Action: migrate(database.RunMigrations)},
					{Name: "down", Usage: "Roll back the last migration", Action: migrate(database.MigrateDown)},
					{Name: "reset", Usage: "Roll back all migrations", Action: migrate(database.MigrateReset)},
					{Name: "status", Usage: "Print the schema version", Action: migrateStatus},
				},
			},
			{
				Name:   "seed",
				Usage:  "Load the reference crop catalogue",
				Action: seedCrops,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func connect(cmd *cli.Command) (*sqlx.DB, error) {
	cfg := config.NewFromCLI(cmd)
	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func migrate(step func(db *sql.DB) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		db, err := connect(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := step(db.DB); err != nil {
			return fmt.Errorf("migrate %s: %w", cmd.Name, err)
		}
		return migrateStatus(ctx, cmd)
	}
}

func migrateStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := connect(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := database.MigrationVersion(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	slog.Info("schema version", "version", version)
	return nil
}

func seedCrops(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	_, err = seed.Run(ctx, repository.New(db))
	return err
}
