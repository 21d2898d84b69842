package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/service"
)

type Workers struct {
	workers []Worker
}

// NewWorkers returns the background workers of the daemon: the incremental
// push consuming the local change feed and the full pass every interval.
func NewWorkers(services *service.Services, interval time.Duration, logger *logger.Logger) *Workers {
	return &Workers{workers: []Worker{
		&changeFeedWorker{engine: services.Engine, logger: logger},
		&syncJobWorker{job: services.Job, interval: interval},
	}}
}

func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Run(ctx)
	}
}

// Wait blocks until every worker has stopped. Workers stop when the context
// given to Run is done.
func (w *Workers) Wait() {
	for _, worker := range w.workers {
		worker.Wait()
	}
}

// changeFeedWorker runs the incremental push.
type changeFeedWorker struct {
	engine service.SyncEngine
	wg     sync.WaitGroup
	logger *logger.Logger
}

func (c *changeFeedWorker) Run(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Err(err).Str("func", "changeFeedWorker.Run").Msg("change feed consumer stopped")
		}
	}()
}

func (c *changeFeedWorker) Wait() {
	c.wg.Wait()
}

// syncJobWorker runs the periodic full pass.
type syncJobWorker struct {
	job      service.SyncJob
	interval time.Duration
}

func (s *syncJobWorker) Run(ctx context.Context) {
	s.job.Start(ctx, s.interval)
}

func (s *syncJobWorker) Wait() {
	s.job.Stop()
}
