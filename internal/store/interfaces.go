// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MKhiriev/go-studio-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// RecordStore is the typed local datastore. Every committed mutation is
// published to subscribers as a [models.ChangeEvent].
type RecordStore interface {
	// GetAll returns every record of the collection ordered by timestamp.
	GetAll(ctx context.Context, collection models.Collection) ([]models.Record, error)
	// Get returns one record or [ErrRecordNotFound].
	Get(ctx context.Context, collection models.Collection, id string) (models.Record, error)
	// Put inserts or replaces a record made by the application.
	Put(ctx context.Context, record models.Record) error
	// Delete removes a record and durably tombstones its id in the same
	// transaction.
	Delete(ctx context.Context, collection models.Collection, id string) error
	// ListIDs returns the ids of every record of the collection.
	ListIDs(ctx context.Context, collection models.Collection) ([]string, error)
	// Import stores a record pulled from the remote store. It is a no-op
	// (false) when the id is tombstoned or already present locally. The
	// published event carries [models.OriginRemote].
	Import(ctx context.Context, record models.Record) (bool, error)
	// Subscribe returns the change feed. It ends when ctx is done.
	Subscribe(ctx context.Context) <-chan models.ChangeEvent
}

// TombstoneLedger durably remembers locally deleted ids.
type TombstoneLedger interface {
	// RecordDeletion is idempotent and durable on return.
	RecordDeletion(ctx context.Context, collection models.Collection, id string) error
	IsTombstoned(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]models.Tombstone, error)
	Count(ctx context.Context) (int, error)
}

// RemoteStore is the owner-scoped remote datastore.
type RemoteStore interface {
	// Upsert inserts or replaces the row keyed by its id column.
	Upsert(ctx context.Context, table, owner string, row models.RemoteRow) error
	// SelectAll returns every row of table owned by owner.
	SelectAll(ctx context.Context, table, owner string) ([]models.RemoteRow, error)
	// Delete removes the row; deleting a missing row is not an error.
	Delete(ctx context.Context, table, id, owner string) error
}
