package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/store"
	"github.com/MKhiriev/go-studio-sync/models"
)

// Services groups everything the transport layer and the workers need.
type Services struct {
	Engine     SyncEngine
	Migration  BulkMigrator
	Job        SyncJob
	Status     *StatusTracker
	AppInfo    AppInfoService
	Session    SessionManager
	Tombstones store.TombstoneLedger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

// NewServices wires the engine, the bulk migration, the periodic job and the
// version service around session. deps.Reporter, when set, receives events
// next to the status tracker and the log reporter.
func NewServices(deps SyncEngineDeps, session SessionManager, cfg *config.StructuredConfig, build models.AppBuildInfo, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, build, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating app info service: %w", err)
	}

	status := NewStatusTracker()
	deps.Reporter = NewMultiReporter(NewLogReporter(logger), status, deps.Reporter)
	deps.Session = session

	engine := NewSyncEngine(deps, cfg.Sync, logger)

	ctx, cancel := context.WithCancel(context.Background())
	return &Services{
		Engine:     engine,
		Migration:  NewBulkMigrator(deps.Records, engine, cfg.Sync, logger),
		Job:        NewSyncJob(engine, logger),
		Status:     status,
		AppInfo:    appInfo,
		Session:    session,
		Tombstones: deps.Tombstones,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}, nil
}

// StartMigration runs the bulk migration in the background and reports its
// progress to Status. It returns [ErrMigrationInProgress] right away when a
// migration is already running. The job outlives the caller's request and
// stops on Close.
func (s *Services) StartMigration() error {
	if !s.Status.MigrationStarted() {
		return ErrMigrationInProgress
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		summary, err := s.Migration.Run(s.ctx, s.Status.MigrationProgress)
		if err != nil && !errors.Is(err, ErrMigrationInProgress) {
			s.logger.Err(err).Str("func", "Services.StartMigration").Msg("bulk migration failed")
		}
		s.Status.MigrationCompleted(summary)
	}()
	return nil
}

// Close stops the periodic job and cancels a running migration, waiting for
// both to return.
func (s *Services) Close() {
	s.Job.Stop()
	s.cancel()
	s.wg.Wait()
}
