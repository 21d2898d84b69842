package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/migrations"
)

// ErrorClassificator decides how a failed database call should be treated.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// MigrateLocal applies the embedded SQLite migrations.
func (db *DB) MigrateLocal() error {
	return migrations.MigrateLocal(db.DB)
}

// MigrateRemote applies the embedded Postgres migrations.
func (db *DB) MigrateRemote() error {
	return migrations.MigrateRemote(db.DB)
}

// classify wraps err with [ErrUnauthorized] or [ErrTransient] when the
// failure belongs to one of those classes. Other errors are returned as is.
func (db *DB) classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}

	if db.errorClassificator == nil {
		return err
	}

	switch db.errorClassificator.Classify(err) {
	case Unauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case Retryable:
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}
