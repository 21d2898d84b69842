package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/store"
	"github.com/MKhiriev/go-studio-sync/models"
)

type bulkMigrator struct {
	records store.RecordStore
	engine  SyncEngine

	concurrency int
	running     atomic.Bool

	logger *logger.Logger
}

// NewBulkMigrator builds the one-shot migration on top of engine's push
// primitive, so blobs are routed exactly as an incremental push routes them.
func NewBulkMigrator(records store.RecordStore, engine SyncEngine, cfg config.Sync, logger *logger.Logger) BulkMigrator {
	return &bulkMigrator{
		records:     records,
		engine:      engine,
		concurrency: max(cfg.Concurrency, 1),
		logger:      logger,
	}
}

// Run implements [BulkMigrator].
func (b *bulkMigrator) Run(ctx context.Context, progress func(models.Progress)) (*models.MigrationSummary, error) {
	if !b.running.CompareAndSwap(false, true) {
		return nil, ErrMigrationInProgress
	}
	defer b.running.Store(false)

	if progress == nil {
		progress = func(models.Progress) {}
	}
	ctx = b.logger.WithContext(ctx)

	summary := &models.MigrationSummary{StartedAt: time.Now()}
	var mu sync.Mutex

	for _, collection := range models.SyncOrder {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		ids, err := b.records.ListIDs(ctx, collection)
		if err != nil {
			summary.Failures = append(summary.Failures, newFailure(collection, "", models.DirectionPush, fmt.Errorf("list local ids: %w", err)))
			continue
		}
		summary.Total += len(ids)

		processed := 0
		err = forEach(ctx, b.concurrency, ids, func(ctx context.Context, id string) error {
			pushed, pushErr := b.engine.PushRecord(ctx, collection, id)

			mu.Lock()
			defer mu.Unlock()

			processed++
			if pushed {
				summary.Uploaded++
			}
			switch {
			case pushErr == nil:
				if !pushed {
					summary.Skipped++
				}
			case isUnauthorized(pushErr):
				return pushErr
			case errors.Is(pushErr, context.Canceled):
			default:
				summary.Failures = append(summary.Failures, newFailure(collection, id, models.DirectionPush, pushErr))
				b.logger.Warn().Err(pushErr).
					Str("func", "bulkMigrator.Run").
					Str("collection", collection.String()).
					Str("record_id", id).
					Msg("record could not be migrated")
			}
			progress(models.Progress{Collection: collection, Processed: processed, Total: len(ids)})
			return nil
		})
		if err != nil {
			summary.FinishedAt = time.Now()
			b.logger.Error().Err(err).
				Str("func", "bulkMigrator.Run").
				Str("collection", collection.String()).
				Msg("migration aborted")
			return summary, err
		}
	}

	if ctx.Err() != nil {
		summary.Cancelled = true
	}
	summary.FinishedAt = time.Now()

	b.logger.Info().
		Int("total", summary.Total).
		Int("uploaded", summary.Uploaded).
		Int("skipped", summary.Skipped).
		Int("failed", len(summary.Failures)).
		Bool("cancelled", summary.Cancelled).
		Msg("bulk migration completed")

	return summary, nil
}
