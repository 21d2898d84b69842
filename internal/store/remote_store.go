// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/models"
)

// remoteStore is the Postgres implementation of [RemoteStore]. Every
// statement is scoped to the owner passed by the caller; the session that
// produced the owner is the caller's concern.
//
// Failures are classified through [DB.classify] so that the engine can tell
// a lost connection ([ErrTransient]) from a rejected session
// ([ErrUnauthorized]).
type remoteStore struct {
	*DB
	logger *logger.Logger
}

// NewRemoteStore constructs a [RemoteStore] backed by db.
func NewRemoteStore(db *DB, logger *logger.Logger) RemoteStore {
	return &remoteStore{
		DB:     db,
		logger: logger,
	}
}

func (r *remoteStore) Upsert(ctx context.Context, table, owner string, row models.RemoteRow) error {
	log := logger.FromContext(ctx)

	if owner == "" {
		return ErrUnauthorized
	}

	query, args, err := buildUpsertQuery(table, owner, row)
	if err != nil {
		log.Err(err).
			Str("func", "remoteStore.Upsert").
			Str("table", table).
			Str("record_id", row.ID()).
			Msg("failed to create query")
		return err
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "remoteStore.Upsert").
			Str("table", table).
			Str("record_id", row.ID()).
			Msg("failed to execute upsert")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, r.classify(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, r.classify(err))
	}
	if affected == 0 {
		log.Warn().
			Str("func", "remoteStore.Upsert").
			Str("table", table).
			Str("record_id", row.ID()).
			Msg("row with the same id belongs to another owner")
		return fmt.Errorf("%w: %s/%s", ErrForeignRow, table, row.ID())
	}

	return nil
}

func (r *remoteStore) SelectAll(ctx context.Context, table, owner string) ([]models.RemoteRow, error) {
	log := logger.FromContext(ctx)

	if owner == "" {
		return nil, ErrUnauthorized
	}

	query, args, err := buildSelectAllQuery(table, owner)
	if err != nil {
		log.Err(err).Str("func", "remoteStore.SelectAll").Str("table", table).Msg("failed to create query")
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "remoteStore.SelectAll").
			Str("table", table).
			Msg("failed to execute query for getting all rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, r.classify(err))
	}
	defer rows.Close()

	results := make([]models.RemoteRow, 0, 64)
	for rows.Next() {
		var (
			id, rowOwner string
			createdAt    time.Time
			payload      []byte
		)
		if scanErr := rows.Scan(&id, &rowOwner, &createdAt, &payload); scanErr != nil {
			log.Err(scanErr).
				Str("func", "remoteStore.SelectAll").
				Str("table", table).
				Msg("failed to scan row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, r.classify(scanErr))
		}

		row := make(models.RemoteRow)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &row); err != nil {
				log.Err(err).
					Str("func", "remoteStore.SelectAll").
					Str("table", table).
					Str("record_id", id).
					Msg("failed to decode payload")
				return nil, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
			}
		}
		row[models.ColumnID] = id
		row[models.ColumnOwner] = rowOwner
		row[models.ColumnTimestamp] = createdAt.UTC().Format(models.TimestampLayout)

		results = append(results, row)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "remoteStore.SelectAll").
			Str("table", table).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, r.classify(rowsErr))
	}

	return results, nil
}

func (r *remoteStore) Delete(ctx context.Context, table, id, owner string) error {
	log := logger.FromContext(ctx)

	if owner == "" {
		return ErrUnauthorized
	}

	query, args, err := buildDeleteQuery(table, id, owner)
	if err != nil {
		log.Err(err).Str("func", "remoteStore.Delete").Str("table", table).Msg("failed to create query")
		return err
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "remoteStore.Delete").
			Str("table", table).
			Str("record_id", id).
			Msg("failed to execute delete")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, r.classify(err))
	}

	return nil
}
