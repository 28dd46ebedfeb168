// Package migrations embeds the goose SQL migrations so the binary can
// manage its own schema.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/cockroachdb/errors"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var files embed.FS

func setup() error {
	goose.SetBaseFS(files)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "failed to set goose dialect")
	}
	return nil
}

// Up applies every pending migration
func Up(db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	if err := goose.Up(db, "."); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}
	return nil
}

// Down rolls back the most recent migration
func Down(db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	if err := goose.Down(db, "."); err != nil {
		return errors.Wrap(err, "failed to roll back migration")
	}
	return nil
}

// Status prints the applied state of every migration through goose's logger
func Status(db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	if err := goose.Status(db, "."); err != nil {
		return errors.Wrap(err, "failed to read migration status")
	}
	return nil
}
