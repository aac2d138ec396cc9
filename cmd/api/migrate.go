package main

import (
	"github.com/safar/storefront/internal/database"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply or revert the database schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(c *cli.Context) error {
					return runMigrate(database.MigrateUp)
				},
			},
			{
				Name:  "down",
				Usage: "revert all migrations",
				Action: func(c *cli.Context) error {
					return runMigrate(database.MigrateDown)
				},
			},
		},
	}
}

func runMigrate(direction database.MigrateDirection) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	changed, err := database.Migrate(db, direction)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"direction": direction,
		"changed":   changed,
	}).Info("migrations complete")

	return nil
}
