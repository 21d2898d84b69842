package service

import (
	"context"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/adapter"
	"github.com/MKhiriev/go-studio-sync/internal/auth"
	"github.com/MKhiriev/go-studio-sync/internal/blob"
	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/mapper"
	"github.com/MKhiriev/go-studio-sync/internal/notifier"
	"github.com/MKhiriev/go-studio-sync/internal/store"
	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/MKhiriev/go-studio-sync/models"
	"github.com/stretchr/testify/require"
)

const (
	testOwner   = "user-1"
	testObjects = "https://objects.test"
)

// fakeRemote — удалённое хранилище в памяти: table → id → row
type fakeRemote struct {
	mu      sync.Mutex
	tables  map[string]map[string]models.RemoteRow
	upserts int
	deletes int
	selects int

	upsertErr func(table string, row models.RemoteRow) error
	selectErr func(table string) error
	deleteErr error

	// selectGate, when set, blocks SelectAll until it is closed.
	selectGate  chan struct{}
	upsertDelay time.Duration
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{tables: make(map[string]map[string]models.RemoteRow)}
}

func (f *fakeRemote) Upsert(_ context.Context, table, owner string, row models.RemoteRow) error {
	if f.upsertDelay > 0 {
		time.Sleep(f.upsertDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if owner == "" {
		return store.ErrUnauthorized
	}
	if f.upsertErr != nil {
		if err := f.upsertErr(table, row); err != nil {
			return err
		}
	}

	rows := f.tables[table]
	if rows == nil {
		rows = make(map[string]models.RemoteRow)
		f.tables[table] = rows
	}
	if existing, ok := rows[row.ID()]; ok && existing[models.ColumnOwner] != owner {
		return store.ErrForeignRow
	}

	stored := maps.Clone(row)
	stored[models.ColumnOwner] = owner
	rows[row.ID()] = stored
	f.upserts++
	return nil
}

func (f *fakeRemote) SelectAll(_ context.Context, table, owner string) ([]models.RemoteRow, error) {
	f.mu.Lock()
	f.selects++
	gate := f.selectGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.selectErr != nil {
		if err := f.selectErr(table); err != nil {
			return nil, err
		}
	}

	ids := slices.Sorted(maps.Keys(f.tables[table]))
	out := make([]models.RemoteRow, 0, len(ids))
	for _, id := range ids {
		row := f.tables[table][id]
		if row[models.ColumnOwner] == owner {
			out = append(out, maps.Clone(row))
		}
	}
	return out, nil
}

func (f *fakeRemote) Delete(_ context.Context, table, id, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	if row, ok := f.tables[table][id]; ok && row[models.ColumnOwner] == owner {
		delete(f.tables[table], id)
	}
	f.deletes++
	return nil
}

func (f *fakeRemote) seed(table string, row models.RemoteRow) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tables[table] == nil {
		f.tables[table] = make(map[string]models.RemoteRow)
	}
	f.tables[table][row.ID()] = maps.Clone(row)
}

func (f *fakeRemote) row(table, id string) (models.RemoteRow, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.tables[table][id]
	if !ok {
		return nil, false
	}
	return maps.Clone(row), true
}

func (f *fakeRemote) count(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

func (f *fakeRemote) stats() (upserts, deletes, selects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts, f.deletes, f.selects
}

// fakeObjects — объектное хранилище в памяти
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string]adapter.Object
	uploads int
	failOn  func(obj adapter.Object) error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string]adapter.Object)}
}

func (f *fakeObjects) Upload(_ context.Context, obj adapter.Object) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failOn != nil {
		if err := f.failOn(obj); err != nil {
			return "", err
		}
	}
	f.uploads++
	url := testObjects + "/" + obj.Bucket + "/" + obj.Path
	f.objects[url] = obj
	return url, nil
}

func (f *fakeObjects) Download(_ context.Context, url string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj, ok := f.objects[url]
	if !ok {
		return nil, "", adapter.ErrNotFound
	}
	return obj.Data, obj.ContentType, nil
}

func (f *fakeObjects) put(url string, obj adapter.Object) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[url] = obj
}

func (f *fakeObjects) uploaded() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

// captureReporter запоминает все события прохода
type captureReporter struct {
	mu        sync.Mutex
	started   []string
	progress  []models.Progress
	failures  []models.RecordFailure
	completed []models.CollectionReport
	passes    []*models.SyncReport
}

func (c *captureReporter) PassStarted(passID, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = append(c.started, passID)
}

func (c *captureReporter) Progress(p models.Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = append(c.progress, p)
}

func (c *captureReporter) RecordFailed(f models.RecordFailure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, f)
}

func (c *captureReporter) CollectionCompleted(r models.CollectionReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = append(c.completed, r)
}

func (c *captureReporter) PassCompleted(r *models.SyncReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passes = append(c.passes, r)
}

func (c *captureReporter) failed() []models.RecordFailure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.failures)
}

type engineFixture struct {
	engine   SyncEngine
	local    *store.LocalStorages
	notifier *notifier.Notifier
	remote   *fakeRemote
	objects  *fakeObjects
	session  *auth.Session
	reporter *captureReporter
}

type fixtureOption func(*config.Sync)

func withShards(n int) fixtureOption {
	return func(cfg *config.Sync) { cfg.Shards = n }
}

func newEngineFixture(t *testing.T, opts ...fixtureOption) *engineFixture {
	t.Helper()

	ctx := context.Background()
	log := logger.Nop()

	n := notifier.New(16)
	local, err := store.NewLocalStorages(ctx, config.LocalDB{DSN: filepath.Join(t.TempDir(), "studio.db")}, n, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	token, err := utils.GenerateSessionToken(testOwner, time.Hour, "test-key")
	require.NoError(t, err)
	session := auth.NewSession("")
	require.NoError(t, session.SetToken(token))

	objects := newFakeObjects()
	router := blob.NewTypeRouter("media", "private-assets", []string{"avatar"})

	cfg := config.Sync{Concurrency: 4, Shards: 4, RequestTimeout: time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &engineFixture{
		local:    local,
		notifier: n,
		remote:   newFakeRemote(),
		objects:  objects,
		session:  session,
		reporter: &captureReporter{},
	}
	f.engine = NewSyncEngine(SyncEngineDeps{
		Records:    local.Records,
		Tombstones: local.Tombstones,
		Remote:     f.remote,
		Mapper:     mapper.MustNew(),
		Blobs:      blob.NewMigrator(objects, router, time.Second, log),
		Session:    session,
		Reporter:   f.reporter,
	}, cfg, log)

	return f
}

func (f *engineFixture) put(t *testing.T, collection models.Collection, id string, fields map[string]any) {
	t.Helper()
	rec := models.NewRecord(collection, id)
	rec.Fields = fields
	require.NoError(t, f.local.Records.Put(context.Background(), rec))
}

func collectionReport(t *testing.T, report *models.SyncReport, collection models.Collection) models.CollectionReport {
	t.Helper()
	for _, cr := range report.Collections {
		if cr.Collection == collection {
			return cr
		}
	}
	t.Fatalf("no report for collection %s", collection)
	return models.CollectionReport{}
}
