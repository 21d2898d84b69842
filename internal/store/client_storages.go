package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/notifier"
)

// LocalStorages groups the on-device repositories. Records and tombstones
// live in the same SQLite file so that a local delete and its tombstone
// commit together.
type LocalStorages struct {
	// Records is the typed record store that feeds the change notifier.
	Records RecordStore
	// Tombstones is the durable ledger of locally deleted ids.
	Tombstones TombstoneLedger

	db *DB
}

// NewLocalStorages initialises the local storage layer. It performs the
// following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.MigrateLocal].
//  3. Wires the record store to n and the ledger to the same connection.
func NewLocalStorages(ctx context.Context, cfg config.LocalDB, n *notifier.Notifier, logger *logger.Logger) (*LocalStorages, error) {
	logger.Info().Msg("creating local storages...")

	db, err := NewConnectSQLite(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.MigrateLocal(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &LocalStorages{
		Records:    NewLocalRecordStore(db, n, logger),
		Tombstones: NewTombstoneLedger(db, logger),
		db:         db,
	}, nil
}

// Close releases the database connection.
func (s *LocalStorages) Close() error {
	return s.db.Close()
}

// RemoteStorage owns the remote Postgres connection.
type RemoteStorage struct {
	Store RemoteStore

	db *DB
}

// NewRemoteStorage connects to the remote store and applies its migrations.
func NewRemoteStorage(ctx context.Context, cfg config.RemoteDB, logger *logger.Logger) (*RemoteStorage, error) {
	logger.Info().Msg("creating remote storage...")

	db, err := NewConnectPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.MigrateRemote(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &RemoteStorage{
		Store: NewRemoteStore(db, logger),
		db:    db,
	}, nil
}

// Close releases the database connection.
func (s *RemoteStorage) Close() error {
	return s.db.Close()
}
