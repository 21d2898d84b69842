// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service implements the synchronization engine: the incremental
// push driven by the local change feed, the full reconciliation pass, the
// one-shot bulk migration and the periodic sync job.
package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-studio-sync/models"
)

// SyncEngine keeps the local store and the remote store consistent.
type SyncEngine interface {
	// Run consumes the local change feed and pushes every local mutation
	// until ctx is done. Events of one record id are handled in order.
	Run(ctx context.Context) error

	// Push migrates the blobs of the latest local copy of the record, maps
	// it and upserts it remotely. A record that is tombstoned or no longer
	// exists locally is skipped without error. A returned [*blob.PartialError]
	// means the record was upserted without some of its binary values.
	Push(ctx context.Context, collection models.Collection, id string) error

	// PushRecord is Push that also reports whether the remote row was
	// upserted. False with a nil error means the record was skipped.
	PushRecord(ctx context.Context, collection models.Collection, id string) (bool, error)

	// Delete tombstones the id and then deletes the remote row. A failed
	// remote delete is not retried; the tombstone keeps the id from being
	// pulled back.
	Delete(ctx context.Context, collection models.Collection, id string) error

	// FullSync runs one reconciliation pass over every collection in
	// dependency order. Record-level failures are listed in the report and
	// do not fail the pass; an authorization failure aborts it and is
	// returned together with the partial report. A pass started while
	// another one runs returns [ErrSyncInProgress].
	FullSync(ctx context.Context) (*models.SyncReport, error)

	// InFlight reports whether a full pass is running.
	InFlight() bool

	// State compares the local copy of the record with its remote row.
	// A record missing locally yields [store.ErrRecordNotFound].
	State(ctx context.Context, collection models.Collection, id string) (models.RecordState, error)
}

// BulkMigrator pushes the whole local store to a freshly linked account.
type BulkMigrator interface {
	// Run pushes every local record of every collection unconditionally,
	// calling progress after each record. Record failures are collected in
	// the summary; only an authorization failure stops the job early.
	Run(ctx context.Context, progress func(models.Progress)) (*models.MigrationSummary, error)
}

// SyncJob runs FullSync in the background.
type SyncJob interface {
	// Start runs one pass right away and then one every interval, defaulting
	// to 5 minutes if interval is zero or negative. Any previously running
	// job is stopped before the new one begins.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it has
	// fully terminated.
	Stop()
}

// Reporter receives the events emitted by a pass. Implementations must be
// safe for concurrent use; Progress and RecordFailed are called from many
// goroutines.
type Reporter interface {
	PassStarted(passID, trigger string)
	Progress(p models.Progress)
	RecordFailed(f models.RecordFailure)
	CollectionCompleted(r models.CollectionReport)
	PassCompleted(r *models.SyncReport)
}

// OwnerProvider returns the account id of the current session.
// [*auth.Session] implements it.
type OwnerProvider interface {
	Owner() (string, error)
}

// SessionManager is the account session edited through the control API.
// [*auth.Session] implements it.
type SessionManager interface {
	OwnerProvider
	SetToken(token string) error
	Clear()
	Status() models.SessionStatus
	OnChange(fn func(valid bool))
}

// BlobMigrator converts binary fields between inline and hosted form.
// [*blob.Migrator] implements it.
type BlobMigrator interface {
	MigrateOutbound(ctx context.Context, record models.Record) (models.Record, error)
	MigrateInbound(ctx context.Context, record models.Record) (models.Record, error)
}

// RecordMapper translates records to and from remote rows.
// [*mapper.Mapper] implements it.
type RecordMapper interface {
	ToRemote(record models.Record) (models.RemoteRow, error)
	FromRemote(collection models.Collection, row models.RemoteRow) (models.Record, error)
}

// AppInfoService reports the version of the running daemon.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) models.VersionResponse
}
