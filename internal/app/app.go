package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-studio-sync/internal/adapter"
	"github.com/MKhiriev/go-studio-sync/internal/auth"
	"github.com/MKhiriev/go-studio-sync/internal/blob"
	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/handler"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/mapper"
	"github.com/MKhiriev/go-studio-sync/internal/notifier"
	"github.com/MKhiriev/go-studio-sync/internal/server"
	"github.com/MKhiriev/go-studio-sync/internal/service"
	"github.com/MKhiriev/go-studio-sync/internal/store"
	"github.com/MKhiriev/go-studio-sync/internal/workers"
	"github.com/MKhiriev/go-studio-sync/models"
)

// notifierBuffer is the per-subscriber queue of the change feed.
const notifierBuffer = 256

// App owns every long-lived resource of the daemon.
type App struct {
	cfg *config.StructuredConfig

	notifier *notifier.Notifier
	local    *store.LocalStorages
	remote   *store.RemoteStorage
	services *service.Services
	workers  *workers.Workers
	server   server.Server

	logger *logger.Logger
}

// NewApp builds the daemon from cfg. Resources opened before a failing
// step are released.
func NewApp(ctx context.Context, cfg *config.StructuredConfig, build models.AppBuildInfo, logger *logger.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.notifier = notifier.New(notifierBuffer)

	a.local, err = store.NewLocalStorages(ctx, cfg.Storage.Local, a.notifier, logger)
	if err != nil {
		return nil, fmt.Errorf("create local storages: %w", err)
	}

	a.remote, err = store.NewRemoteStorage(ctx, cfg.Storage.Remote, logger)
	if err != nil {
		return nil, fmt.Errorf("create remote storage: %w", err)
	}

	objects, err := adapter.NewS3ObjectStorage(ctx, cfg.Storage.Objects, cfg.Sync.RequestTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("create object storage: %w", err)
	}

	recordMapper, err := mapper.New()
	if err != nil {
		return nil, fmt.Errorf("create mapper: %w", err)
	}

	router := blob.NewTypeRouter(
		cfg.Storage.Objects.MediaBucket,
		cfg.Storage.Objects.RestrictedBucket,
		cfg.Storage.Objects.RestrictedAssetTypes,
	)

	session := auth.NewSession(cfg.App.TokenSignKey)
	if cfg.App.SessionToken != "" {
		if err := session.SetToken(cfg.App.SessionToken); err != nil {
			// the daemon still starts; a token can be supplied via PUT /api/session
			logger.Warn().Err(err).Msg("configured session token rejected")
		}
	}

	a.services, err = service.NewServices(service.SyncEngineDeps{
		Records:    a.local.Records,
		Tombstones: a.local.Tombstones,
		Remote:     a.remote.Store,
		Mapper:     recordMapper,
		Blobs:      blob.NewMigrator(objects, router, cfg.Sync.RequestTimeout, logger),
	}, session, cfg, build, logger)
	if err != nil {
		return nil, fmt.Errorf("create services: %w", err)
	}

	handlers, err := handler.NewHandlers(a.services, cfg.Server, logger)
	if err != nil {
		return nil, fmt.Errorf("create handlers: %w", err)
	}

	a.server, err = server.NewServer(handlers, cfg.Server, logger)
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	a.workers = workers.NewWorkers(a.services, cfg.Sync.Interval, logger)

	return a, nil
}

// Run starts the workers and serves the control API until a termination
// signal arrives. Everything is shut down before Run returns.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())

	a.workers.Run(ctx)
	a.logger.Info().
		Dur("interval", a.cfg.Sync.Interval).
		Int("shards", a.cfg.Sync.Shards).
		Msg("sync workers started")

	err := a.server.RunServer()

	cancel()
	a.workers.Wait()

	return errors.Join(err, a.close())
}

func (a *App) close() error {
	var errs []error

	if a.services != nil {
		a.services.Close()
	}
	if a.notifier != nil {
		a.notifier.Close()
	}
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close remote storage: %w", err))
		}
	}
	if a.local != nil {
		if err := a.local.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close local storages: %w", err))
		}
	}

	a.logger.Info().Msg("app closed")
	return errors.Join(errs...)
}
