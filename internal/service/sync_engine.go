// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/blob"
	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/store"
	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/MKhiriev/go-studio-sync/models"
)

// shardBuffer is the capacity of every consumer queue of the incremental push.
const shardBuffer = 64

// SyncEngineDeps are the collaborators of the engine.
type SyncEngineDeps struct {
	Records    store.RecordStore
	Tombstones store.TombstoneLedger
	Remote     store.RemoteStore
	Mapper     RecordMapper
	Blobs      BlobMigrator
	Session    OwnerProvider
	// Reporter is optional; events are dropped when nil.
	Reporter Reporter
}

type syncEngine struct {
	records    store.RecordStore
	tombstones store.TombstoneLedger
	remote     store.RemoteStore
	mapper     RecordMapper
	blobs      BlobMigrator
	session    OwnerProvider
	reporter   Reporter

	concurrency    int
	shards         int
	requestTimeout time.Duration

	locks    *keyedMutex
	inFlight atomic.Bool
	ids      *utils.UUIDGenerator

	logger *logger.Logger
}

// NewSyncEngine constructs the engine. Non-positive concurrency and shard
// counts fall back to 1.
func NewSyncEngine(deps SyncEngineDeps, cfg config.Sync, logger *logger.Logger) SyncEngine {
	reporter := deps.Reporter
	if reporter == nil {
		reporter = NewMultiReporter()
	}

	return &syncEngine{
		records:        deps.Records,
		tombstones:     deps.Tombstones,
		remote:         deps.Remote,
		mapper:         deps.Mapper,
		blobs:          deps.Blobs,
		session:        deps.Session,
		reporter:       reporter,
		concurrency:    max(cfg.Concurrency, 1),
		shards:         max(cfg.Shards, 1),
		requestTimeout: cfg.RequestTimeout,
		locks:          newKeyedMutex(),
		ids:            utils.NewUUIDGenerator(),
		logger:         logger,
	}
}

// Run implements [SyncEngine].
//
// Events are dispatched to a fixed set of consumer goroutines by a hash of
// the record id, so events of one id are never handled concurrently and keep
// their order. Events produced by pulls are ignored. Events still queued when
// ctx is done are dropped; the next full pass closes the gap for inserts.
func (e *syncEngine) Run(ctx context.Context) error {
	ctx = e.logger.WithContext(ctx)
	events := e.records.Subscribe(ctx)

	queues := make([]chan models.ChangeEvent, e.shards)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan models.ChangeEvent, shardBuffer)
		wg.Add(1)
		go func(queue <-chan models.ChangeEvent) {
			defer wg.Done()
			e.consume(ctx, queue)
		}(queues[i])
	}

	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	e.logger.Info().
		Str("func", "syncEngine.Run").
		Int("shards", e.shards).
		Msg("incremental push started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if ev.Origin == models.OriginRemote {
				continue
			}
			select {
			case queues[shardOf(ev.ID, e.shards)] <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (e *syncEngine) consume(ctx context.Context, queue <-chan models.ChangeEvent) {
	for ev := range queue {
		if ctx.Err() != nil {
			continue
		}
		if err := e.handleEvent(ctx, ev); err != nil {
			direction := models.DirectionPush
			if ev.Op == models.OpDelete {
				direction = models.DirectionDelete
			}
			e.reporter.RecordFailed(newFailure(ev.Collection, ev.ID, direction, err))
		}
	}
}

func (e *syncEngine) handleEvent(ctx context.Context, ev models.ChangeEvent) error {
	switch ev.Op {
	case models.OpInsert, models.OpUpdate:
		return e.Push(ctx, ev.Collection, ev.ID)
	case models.OpDelete:
		return e.Delete(ctx, ev.Collection, ev.ID)
	}
	return fmt.Errorf("%w: %q", ErrUnknownOperation, ev.Op)
}

func shardOf(id string, shards int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % uint32(shards))
}

// Push implements [SyncEngine].
func (e *syncEngine) Push(ctx context.Context, collection models.Collection, id string) error {
	_, err := e.push(ctx, collection, id)
	return err
}

// PushRecord implements [SyncEngine].
func (e *syncEngine) PushRecord(ctx context.Context, collection models.Collection, id string) (bool, error) {
	result, err := e.push(ctx, collection, id)
	return result == outcomeWritten, err
}

// outcome tells what a push or a pull did with one record.
type outcome int

const (
	// outcomeNone means the record failed before anything was written.
	outcomeNone outcome = iota
	// outcomeWritten means the remote row was upserted or the local record
	// imported, possibly without some binary values.
	outcomeWritten
	// outcomeTombstoned means the id is in the ledger.
	outcomeTombstoned
	// outcomeSkipped means there was nothing to write: the local record is
	// gone, or a pulled id already exists locally.
	outcomeSkipped
)

func (e *syncEngine) push(ctx context.Context, collection models.Collection, id string) (outcome, error) {
	log := logger.FromContext(ctx)

	unlock := e.locks.Lock(models.RecordKey(collection, id))
	defer unlock()

	if tombstoned, err := e.tombstones.IsTombstoned(ctx, id); err != nil {
		return outcomeNone, fmt.Errorf("check tombstone of %s/%s: %w", collection, id, err)
	} else if tombstoned {
		return outcomeTombstoned, nil
	}

	record, err := e.records.Get(ctx, collection, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeNone, fmt.Errorf("load %s/%s: %w", collection, id, err)
	}

	owner, err := e.session.Owner()
	if err != nil {
		return outcomeNone, err
	}

	migrated, blobErr := e.blobs.MigrateOutbound(ctx, record)
	var partial *blob.PartialError
	if blobErr != nil && !errors.As(blobErr, &partial) {
		return outcomeNone, fmt.Errorf("migrate blobs of %s/%s: %w", collection, id, blobErr)
	}

	row, err := e.mapper.ToRemote(migrated)
	if err != nil {
		return outcomeNone, err
	}

	// a delete may have landed while blobs were uploading
	if tombstoned, err := e.tombstones.IsTombstoned(ctx, id); err != nil {
		return outcomeNone, fmt.Errorf("check tombstone of %s/%s: %w", collection, id, err)
	} else if tombstoned {
		return outcomeTombstoned, nil
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	if err := e.remote.Upsert(callCtx, collection.Table(), owner, row); err != nil {
		return outcomeNone, fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}

	log.Debug().
		Str("func", "syncEngine.Push").
		Str("collection", collection.String()).
		Str("record_id", id).
		Bool("partial", blobErr != nil).
		Msg("record pushed")

	return outcomeWritten, blobErr
}

// Delete implements [SyncEngine].
func (e *syncEngine) Delete(ctx context.Context, collection models.Collection, id string) error {
	unlock := e.locks.Lock(models.RecordKey(collection, id))
	defer unlock()

	if err := e.tombstones.RecordDeletion(ctx, collection, id); err != nil {
		return fmt.Errorf("tombstone %s/%s: %w", collection, id, err)
	}

	owner, err := e.session.Owner()
	if err != nil {
		return err
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	if err := e.remote.Delete(callCtx, collection.Table(), id, owner); err != nil {
		return fmt.Errorf("remote delete %s/%s: %w", collection, id, err)
	}

	logger.FromContext(ctx).Debug().
		Str("func", "syncEngine.Delete").
		Str("collection", collection.String()).
		Str("record_id", id).
		Msg("record deleted remotely")
	return nil
}

// pull brings one remote-only row into the local store.
func (e *syncEngine) pull(ctx context.Context, collection models.Collection, row models.RemoteRow) (outcome, error) {
	id := row.ID()

	unlock := e.locks.Lock(models.RecordKey(collection, id))
	defer unlock()

	if tombstoned, err := e.tombstones.IsTombstoned(ctx, id); err != nil {
		return outcomeNone, fmt.Errorf("check tombstone of %s/%s: %w", collection, id, err)
	} else if tombstoned {
		return outcomeTombstoned, nil
	}

	record, err := e.mapper.FromRemote(collection, row)
	if err != nil {
		return outcomeNone, err
	}

	inlined, blobErr := e.blobs.MigrateInbound(ctx, record)
	var partial *blob.PartialError
	if blobErr != nil && !errors.As(blobErr, &partial) {
		return outcomeNone, fmt.Errorf("inline blobs of %s/%s: %w", collection, id, blobErr)
	}

	imported, err := e.records.Import(ctx, inlined)
	if err != nil {
		return outcomeNone, fmt.Errorf("import %s/%s: %w", collection, id, err)
	}
	if imported {
		return outcomeWritten, blobErr
	}

	// Import refuses both tombstoned ids and ids created locally after the
	// id sets were fetched
	tombstoned, err := e.tombstones.IsTombstoned(ctx, id)
	if err != nil {
		return outcomeNone, fmt.Errorf("check tombstone of %s/%s: %w", collection, id, err)
	}
	if tombstoned {
		return outcomeTombstoned, nil
	}
	return outcomeSkipped, nil
}

// callContext bounds a single network call and detaches it from the
// caller's cancellation; a started call always runs to completion or
// timeout.
func (e *syncEngine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if e.requestTimeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, e.requestTimeout)
}

// InFlight implements [SyncEngine].
func (e *syncEngine) InFlight() bool {
	return e.inFlight.Load()
}
