package main

import (
	"Socialbot/internal/db/migrations"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or inspect database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := openDB(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}

	switch direction {
	case "down":
		err = migrations.Down(db)
	case "status":
		err = migrations.Status(db)
	default:
		err = migrations.Up(db)
	}
	if err != nil {
		return err
	}
	log.Infow("migrate finished", "direction", direction)
	return nil
}
