package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/MKhiriev/go-studio-sync/models"
	"golang.org/x/sync/errgroup"
)

// passState collects the results of one pass from concurrent workers.
type passState struct {
	mu     sync.Mutex
	report *models.SyncReport
}

func (p *passState) fail(cr *models.CollectionReport, f models.RecordFailure) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report.Failures = append(p.report.Failures, f)
	cr.Failed++
}

// countOutcome adds one record to the counter matching result. written is
// Pushed or Pulled depending on the direction.
func (p *passState) countOutcome(cr *models.CollectionReport, result outcome, written *int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch result {
	case outcomeWritten:
		*written++
	case outcomeTombstoned:
		cr.Tombstoned++
	case outcomeSkipped:
		cr.Skipped++
	}
}

// FullSync implements [SyncEngine].
func (e *syncEngine) FullSync(ctx context.Context) (*models.SyncReport, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer e.inFlight.Store(false)

	trigger, ok := utils.GetTriggerFromContext(ctx)
	if !ok {
		trigger = "manual"
	}

	passID := e.ids.Generate()
	log := e.logger.With().Str("pass_id", passID).Logger()
	ctx = log.WithContext(ctx)

	report := &models.SyncReport{
		PassID:    passID,
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
	e.reporter.PassStarted(passID, trigger)

	finish := func(err error) (*models.SyncReport, error) {
		report.FinishedAt = time.Now()
		e.reporter.PassCompleted(report)
		return report, err
	}

	owner, err := e.session.Owner()
	if err != nil {
		log.Warn().Err(err).Str("func", "syncEngine.FullSync").Msg("no session, pass aborted")
		return finish(err)
	}

	state := &passState{report: report}
	for _, collection := range models.SyncOrder {
		if ctx.Err() != nil {
			report.Cancelled = true
			return finish(nil)
		}

		cr, err := e.syncCollection(ctx, state, owner, collection)
		report.Collections = append(report.Collections, cr)
		e.reporter.CollectionCompleted(cr)

		if err != nil {
			log.Error().Err(err).
				Str("func", "syncEngine.FullSync").
				Str("collection", collection.String()).
				Msg("pass aborted")
			return finish(err)
		}
	}

	report.Cancelled = ctx.Err() != nil
	return finish(nil)
}

// syncCollection closes the gaps of one collection. It returns an error only
// for failures that abort the pass.
func (e *syncEngine) syncCollection(ctx context.Context, state *passState, owner string, collection models.Collection) (models.CollectionReport, error) {
	cr := models.CollectionReport{Collection: collection}

	localIDs, err := e.records.ListIDs(ctx, collection)
	if err != nil {
		failure := newFailure(collection, "", models.DirectionPush, fmt.Errorf("list local ids: %w", err))
		state.fail(&cr, failure)
		e.reporter.RecordFailed(failure)
		return cr, nil
	}

	callCtx, cancel := e.callContext(ctx)
	rows, err := e.remote.SelectAll(callCtx, collection.Table(), owner)
	cancel()
	if err != nil {
		if isUnauthorized(err) {
			return cr, err
		}
		failure := newFailure(collection, "", models.DirectionPull, fmt.Errorf("select remote rows: %w", err))
		state.fail(&cr, failure)
		e.reporter.RecordFailed(failure)
		return cr, nil
	}

	local := make(map[string]struct{}, len(localIDs))
	for _, id := range localIDs {
		local[id] = struct{}{}
	}
	remote := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		remote[row.ID()] = struct{}{}
	}

	var localOnly []string
	for _, id := range localIDs {
		if _, ok := remote[id]; !ok {
			localOnly = append(localOnly, id)
		}
	}
	var remoteOnly []models.RemoteRow
	for _, row := range rows {
		if _, ok := local[row.ID()]; !ok {
			remoteOnly = append(remoteOnly, row)
		}
	}

	cr.LocalOnly = len(localOnly)
	cr.RemoteOnly = len(remoteOnly)

	total := len(localOnly) + len(remoteOnly)
	var processed atomic.Int64
	progress := func() {
		e.reporter.Progress(models.Progress{
			Collection: collection,
			Processed:  int(processed.Add(1)),
			Total:      total,
		})
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return forEach(gctx, e.concurrency, localOnly, func(ctx context.Context, id string) error {
			defer progress()

			result, err := e.push(ctx, collection, id)
			state.countOutcome(&cr, result, &cr.Pushed)
			return e.settle(state, &cr, collection, id, models.DirectionPush, err)
		})
	})

	g.Go(func() error {
		return forEach(gctx, e.concurrency, remoteOnly, func(ctx context.Context, row models.RemoteRow) error {
			defer progress()

			result, err := e.pull(ctx, collection, row)
			state.countOutcome(&cr, result, &cr.Pulled)
			return e.settle(state, &cr, collection, row.ID(), models.DirectionPull, err)
		})
	})

	if err := g.Wait(); err != nil {
		return cr, err
	}
	return cr, nil
}

// settle records a record-level failure. Only authorization failures are
// returned, which stops the whole pass.
func (e *syncEngine) settle(state *passState, cr *models.CollectionReport, collection models.Collection, id string, direction models.Direction, err error) error {
	if err == nil {
		return nil
	}
	if isUnauthorized(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}

	failure := newFailure(collection, id, direction, err)
	state.fail(cr, failure)
	e.reporter.RecordFailed(failure)
	return nil
}

// forEach runs fn for every item with at most limit calls in flight.
// It stops starting new items once ctx is done or fn returned an error, and
// waits for the started ones.
func forEach[T any](ctx context.Context, limit int, items []T, fn func(context.Context, T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return fn(gctx, item)
		})
	}
	return g.Wait()
}
