package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/models"
)

// tombstoneLedger is the SQLite-backed [TombstoneLedger]. The table is
// append-only: rows are never updated or removed, so concurrent readers
// and writers need no locking beyond SQLite's own.
type tombstoneLedger struct {
	*DB
	logger *logger.Logger
}

// NewTombstoneLedger constructs a [TombstoneLedger] in the local database.
func NewTombstoneLedger(db *DB, logger *logger.Logger) TombstoneLedger {
	return &tombstoneLedger{
		DB:     db,
		logger: logger,
	}
}

func (t *tombstoneLedger) RecordDeletion(ctx context.Context, collection models.Collection, id string) error {
	_, err := t.DB.ExecContext(ctx, insertTombstone, id, collection, time.Now().UnixMilli())
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "tombstoneLedger.RecordDeletion").
			Str("collection", collection.String()).
			Str("record_id", id).
			Msg("failed to record tombstone")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (t *tombstoneLedger) IsTombstoned(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := t.DB.QueryRowContext(ctx, isTombstoned, id).Scan(&exists); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "tombstoneLedger.IsTombstoned").
			Str("record_id", id).
			Msg("failed to query tombstone")
		return false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return exists, nil
}

func (t *tombstoneLedger) List(ctx context.Context) ([]models.Tombstone, error) {
	rows, err := t.DB.QueryContext(ctx, listTombstones)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var tombstones []models.Tombstone
	for rows.Next() {
		var (
			item      models.Tombstone
			deletedAt int64
		)
		if err := rows.Scan(&item.ID, &item.Collection, &deletedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		item.DeletedAt = time.UnixMilli(deletedAt).UTC()
		tombstones = append(tombstones, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return tombstones, nil
}

func (t *tombstoneLedger) Count(ctx context.Context) (int, error) {
	var n int
	if err := t.DB.QueryRowContext(ctx, countTombstones).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return n, nil
}
