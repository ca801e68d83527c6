package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	"github.com/sam-maryland/sleeper-sync/internal/config"
	"github.com/sam-maryland/sleeper-sync/internal/retry"
	"github.com/sam-maryland/sleeper-sync/internal/store"
	"github.com/sam-maryland/sleeper-sync/internal/store/migrations"
)

func migrateCommand(cfg *config.Config, logger *logrus.Logger) *cli.Command {
	// withMigrator opens the database for the duration of one subcommand
	withMigrator := func(fn func(c *cli.Context, m *migrate.Migrator) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			db, err := store.Connect(c.Context, cfg.DatabaseURL, retry.DefaultConfig(), logger)
			if err != nil {
				return err
			}
			defer db.Close()
			return fn(c, migrations.NewMigrator(db))
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					return m.Init(c.Context)
				}),
			},
			{
				Name:  "up",
				Usage: "migrate database",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					if err := m.Init(c.Context); err != nil {
						return err
					}
					group, err := m.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No new migrations to run")
					} else {
						fmt.Printf("Migrated to %s\n", group)
					}
					return nil
				}),
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					group, err := m.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No groups to roll back")
					} else {
						fmt.Printf("Rolled back %s\n", group)
					}
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					ms, err := m.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("Migrations: %s\n", ms)
					fmt.Printf("  Applied: %s\n", ms.Applied())
					fmt.Printf("  Unapplied: %s\n", ms.Unapplied())
					return nil
				}),
			},
		},
	}
}
