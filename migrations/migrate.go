package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed local/*.sql remote/*.sql
var embedMigrations embed.FS

var errNilDB = errors.New("db is nil")

// MigrateLocal brings the on-device SQLite schema (records and tombstones)
// up to date.
func MigrateLocal(db *sql.DB) error {
	return migrate(db, "sqlite3", "local")
}

// MigrateRemote brings the remote Postgres schema (one table per
// collection) up to date.
func MigrateRemote(db *sql.DB) error {
	return migrate(db, "pgx", "remote")
}

func migrate(db *sql.DB, dialect, dir string) error {
	if db == nil {
		return fmt.Errorf("migration error: %w", errNilDB)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
