// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/notifier"
	"github.com/MKhiriev/go-studio-sync/models"
)

// recordBody is the JSON document stored in records.body.
type recordBody struct {
	Fields map[string]any `json:"fields"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// localRecordStore is the SQLite-backed implementation of [RecordStore].
// Records are normalized against their collection schema on every write and
// read, so callers always see canonical value types.
type localRecordStore struct {
	*DB
	notifier *notifier.Notifier
	logger   *logger.Logger
}

// NewLocalRecordStore constructs a [RecordStore] that publishes its
// mutations to n.
func NewLocalRecordStore(db *DB, n *notifier.Notifier, logger *logger.Logger) RecordStore {
	return &localRecordStore{
		DB:       db,
		notifier: n,
		logger:   logger,
	}
}

func (s *localRecordStore) GetAll(ctx context.Context, collection models.Collection) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	schema, err := models.SchemaFor(collection)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, getAllLocalRecords, collection)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordStore.GetAll").
			Str("collection", collection.String()).
			Msg("failed to execute query for getting all records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.Record, 0, 64)
	for rows.Next() {
		var (
			id        string
			timestamp int64
			body      []byte
		)
		if scanErr := rows.Scan(&id, &timestamp, &body); scanErr != nil {
			log.Err(scanErr).
				Str("func", "localRecordStore.GetAll").
				Str("collection", collection.String()).
				Msg("failed to scan record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		record, decodeErr := decodeRecord(schema, id, timestamp, body)
		if decodeErr != nil {
			log.Err(decodeErr).
				Str("func", "localRecordStore.GetAll").
				Str("collection", collection.String()).
				Str("record_id", id).
				Msg("failed to decode record body")
			return nil, decodeErr
		}
		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "localRecordStore.GetAll").
			Str("collection", collection.String()).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return records, nil
}

func (s *localRecordStore) Get(ctx context.Context, collection models.Collection, id string) (models.Record, error) {
	schema, err := models.SchemaFor(collection)
	if err != nil {
		return models.Record{}, err
	}

	var (
		rowID     string
		timestamp int64
		body      []byte
	)
	err = s.DB.QueryRowContext(ctx, getLocalRecord, collection, id).Scan(&rowID, &timestamp, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, collection, id)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localRecordStore.Get").
			Str("collection", collection.String()).
			Str("record_id", id).
			Msg("failed to query record")
		return models.Record{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return decodeRecord(schema, rowID, timestamp, body)
}

func (s *localRecordStore) ListIDs(ctx context.Context, collection models.Collection) ([]string, error) {
	if !collection.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownCollection, collection)
	}

	rows, err := s.DB.QueryContext(ctx, listLocalRecordIDs, collection)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localRecordStore.ListIDs").
			Str("collection", collection.String()).
			Msg("failed to execute query for listing ids")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	ids := make([]string, 0, 64)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return ids, nil
}

func (s *localRecordStore) Put(ctx context.Context, record models.Record) error {
	log := logger.FromContext(ctx)

	normalized, body, err := encodeRecord(record)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "localRecordStore.Put").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	op := models.OpUpdate
	var exists int
	err = tx.QueryRowContext(ctx, localRecordExists, normalized.Collection, normalized.ID).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		op = models.OpInsert
	case err != nil:
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if _, err = tx.ExecContext(ctx, upsertLocalRecord,
		normalized.Collection,
		normalized.ID,
		normalized.Timestamp,
		body,
	); err != nil {
		log.Err(err).
			Str("func", "localRecordStore.Put").
			Str("collection", normalized.Collection.String()).
			Str("record_id", normalized.ID).
			Msg("failed to execute upsert for record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	s.publish(ctx, models.ChangeEvent{
		Collection: normalized.Collection,
		Op:         op,
		ID:         normalized.ID,
		Record:     normalized,
		Origin:     models.OriginLocal,
	})
	return nil
}

func (s *localRecordStore) Import(ctx context.Context, record models.Record) (bool, error) {
	normalized, body, err := encodeRecord(record)
	if err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx, importLocalRecord,
		normalized.Collection,
		normalized.ID,
		normalized.Timestamp,
		body,
		normalized.ID,
	)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localRecordStore.Import").
			Str("collection", normalized.Collection.String()).
			Str("record_id", normalized.ID).
			Msg("failed to execute import for record")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return false, nil
	}

	s.publish(ctx, models.ChangeEvent{
		Collection: normalized.Collection,
		Op:         models.OpInsert,
		ID:         normalized.ID,
		Record:     normalized,
		Origin:     models.OriginRemote,
	})
	return true, nil
}

func (s *localRecordStore) Delete(ctx context.Context, collection models.Collection, id string) error {
	log := logger.FromContext(ctx)

	if !collection.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownCollection, collection)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "localRecordStore.Delete").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, insertTombstone, id, collection, time.Now().UnixMilli()); err != nil {
		log.Err(err).
			Str("func", "localRecordStore.Delete").
			Str("collection", collection.String()).
			Str("record_id", id).
			Msg("failed to record tombstone")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if _, err = tx.ExecContext(ctx, deleteLocalRecord, collection, id); err != nil {
		log.Err(err).
			Str("func", "localRecordStore.Delete").
			Str("collection", collection.String()).
			Str("record_id", id).
			Msg("failed to delete record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	s.publish(ctx, models.ChangeEvent{
		Collection: collection,
		Op:         models.OpDelete,
		ID:         id,
		Origin:     models.OriginLocal,
	})
	return nil
}

func (s *localRecordStore) Subscribe(ctx context.Context) <-chan models.ChangeEvent {
	return s.notifier.Subscribe(ctx)
}

// publish never fails the mutation: the row is already committed and the
// next full sync closes any gap left by a lost event.
func (s *localRecordStore) publish(ctx context.Context, ev models.ChangeEvent) {
	if err := s.notifier.Publish(ctx, ev); err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "localRecordStore.publish").
			Str("collection", ev.Collection.String()).
			Str("record_id", ev.ID).
			Msg("change event was not delivered")
	}
}

func encodeRecord(record models.Record) (models.Record, []byte, error) {
	if record.ID == "" {
		return models.Record{}, nil, ErrInvalidRecord
	}

	schema, err := models.SchemaFor(record.Collection)
	if err != nil {
		return models.Record{}, nil, err
	}

	normalized, err := schema.Normalize(record)
	if err != nil {
		return models.Record{}, nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if normalized.Timestamp == 0 {
		normalized.Timestamp = time.Now().UnixMilli()
	}

	body, err := json.Marshal(recordBody{Fields: normalized.Fields, Extra: normalized.Extra})
	if err != nil {
		return models.Record{}, nil, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
	}

	return normalized, body, nil
}

func decodeRecord(schema models.Schema, id string, timestamp int64, body []byte) (models.Record, error) {
	var decoded recordBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
	}

	record := models.Record{
		ID:         id,
		Collection: schema.Collection,
		Timestamp:  timestamp,
		Fields:     decoded.Fields,
	}
	if record.Fields == nil {
		record.Fields = make(map[string]any)
	}

	normalized, err := schema.Normalize(record)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
	}
	// extras are kept verbatim
	for k, v := range decoded.Extra {
		if normalized.Extra == nil {
			normalized.Extra = make(map[string]any, len(decoded.Extra))
		}
		normalized.Extra[k] = v
	}

	return normalized, nil
}
