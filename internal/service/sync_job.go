package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/utils"
)

// Trigger values attached to the pass context.
const (
	TriggerStartup  = "startup"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
)

// DefaultSyncInterval is used when Start gets a non-positive interval.
const DefaultSyncInterval = 5 * time.Minute

type syncJob struct {
	engine SyncEngine

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

// NewSyncJob creates a syncJob that calls engine.FullSync on a ticker. The
// job is idle until Start is called.
func NewSyncJob(engine SyncEngine, logger *logger.Logger) SyncJob {
	return &syncJob{engine: engine, logger: logger}
}

// Start implements [SyncJob]. The goroutine exits when ctx is cancelled or
// Stop is called.
func (j *syncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		j.runOnce(utils.WithTrigger(jobCtx, TriggerStartup))

		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.runOnce(utils.WithTrigger(jobCtx, TriggerInterval))
			}
		}
	}()
}

func (j *syncJob) runOnce(ctx context.Context) {
	_, err := j.engine.FullSync(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInProgress):
		j.logger.Debug().Str("func", "syncJob.runOnce").Msg("pass skipped, another one is running")
	case isUnauthorized(err):
		j.logger.Warn().Err(err).Str("func", "syncJob.runOnce").Msg("pass aborted, session is not valid")
	default:
		j.logger.Err(err).Str("func", "syncJob.runOnce").Msg("pass failed")
	}
}

// Stop implements [SyncJob]. Safe to call when the job is not running.
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
