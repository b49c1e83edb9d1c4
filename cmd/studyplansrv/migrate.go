package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/studyplan/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Apply or roll back the database schema",
	Long: `Apply the embedded schema migrations (up, the default) or roll all of
them back (down). Rolling back drops every table.

Examples:
  studyplansrv migrate
  studyplansrv migrate down --config ./studyplan.yaml`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"up", "down"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("unknown direction %q (want up or down)", direction)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck

	db, err := sqlite.Open(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	if direction == "down" {
		err = db.Rollback()
	} else {
		err = db.Migrate()
	}
	if err != nil {
		logger.Error("migration failed", "direction", direction, "error", err)
		return err
	}
	logger.Info("migration complete", "direction", direction, "url", cfg.Database.URL)
	return nil
}
