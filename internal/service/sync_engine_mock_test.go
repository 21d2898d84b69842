package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/auth"
	"github.com/MKhiriev/go-studio-sync/internal/blob"
	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/mapper"
	"github.com/MKhiriev/go-studio-sync/internal/mock"
	"github.com/MKhiriev/go-studio-sync/internal/store"
	"github.com/MKhiriev/go-studio-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type staticOwner struct {
	owner string
	err   error
}

func (s staticOwner) Owner() (string, error) { return s.owner, s.err }

type mockedEngine struct {
	engine     *syncEngine
	records    *mock.MockRecordStore
	tombstones *mock.MockTombstoneLedger
	remote     *mock.MockRemoteStore
	objects    *mock.MockObjectStorage
}

func newMockedEngine(t *testing.T, owner OwnerProvider) *mockedEngine {
	ctrl := gomock.NewController(t)

	m := &mockedEngine{
		records:    mock.NewMockRecordStore(ctrl),
		tombstones: mock.NewMockTombstoneLedger(ctrl),
		remote:     mock.NewMockRemoteStore(ctrl),
		objects:    mock.NewMockObjectStorage(ctrl),
	}
	m.engine = NewSyncEngine(SyncEngineDeps{
		Records:    m.records,
		Tombstones: m.tombstones,
		Remote:     m.remote,
		Mapper:     mapper.MustNew(),
		Blobs:      blob.NewMigrator(m.objects, blob.NewTypeRouter("media", "", nil), time.Second, logger.Nop()),
		Session:    owner,
	}, config.Sync{RequestTimeout: time.Second}, logger.Nop()).(*syncEngine)
	return m
}

func folder(id, name string) models.Record {
	return models.Record{
		ID:         id,
		Collection: models.Folders,
		Timestamp:  1_700_000_000_000,
		Fields:     map[string]any{"name": name},
	}
}

func TestPush_TombstoneRecheckedBeforeUpsert(t *testing.T) {
	m := newMockedEngine(t, staticOwner{owner: testOwner})
	ctx := context.Background()

	gomock.InOrder(
		m.tombstones.EXPECT().IsTombstoned(gomock.Any(), "f1").Return(false, nil),
		m.records.EXPECT().Get(gomock.Any(), models.Folders, "f1").Return(folder("f1", "Trips"), nil),
		// удаление пришло во время загрузки blob'ов
		m.tombstones.EXPECT().IsTombstoned(gomock.Any(), "f1").Return(true, nil),
	)
	m.remote.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	require.NoError(t, m.engine.Push(ctx, models.Folders, "f1"))
}

func TestPush_UpsertsMappedRow(t *testing.T) {
	m := newMockedEngine(t, staticOwner{owner: testOwner})
	ctx := context.Background()

	m.tombstones.EXPECT().IsTombstoned(gomock.Any(), "f1").Return(false, nil).Times(2)
	m.records.EXPECT().Get(gomock.Any(), models.Folders, "f1").Return(folder("f1", "Trips"), nil)
	m.remote.EXPECT().
		Upsert(gomock.Any(), "folders", testOwner, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string, row models.RemoteRow) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline, "сетевой вызов должен быть ограничен по времени")
			assert.Equal(t, "f1", row.ID())
			assert.Equal(t, "2023-11-14T22:13:20.000Z", row[models.ColumnTimestamp])
			assert.Equal(t, "Trips", row["name"])
			return nil
		})

	require.NoError(t, m.engine.Push(ctx, models.Folders, "f1"))
}

func TestPush_NoSession(t *testing.T) {
	m := newMockedEngine(t, staticOwner{err: auth.ErrUnauthorized})

	m.tombstones.EXPECT().IsTombstoned(gomock.Any(), "f1").Return(false, nil)
	m.records.EXPECT().Get(gomock.Any(), models.Folders, "f1").Return(folder("f1", "Trips"), nil)

	err := m.engine.Push(context.Background(), models.Folders, "f1")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.Equal(t, models.ErrorUnauthorized, classifyError(err))
}

func TestPush_LedgerFailure(t *testing.T) {
	m := newMockedEngine(t, staticOwner{owner: testOwner})
	boom := errors.New("disk I/O error")

	m.tombstones.EXPECT().IsTombstoned(gomock.Any(), "f1").Return(false, boom)

	err := m.engine.Push(context.Background(), models.Folders, "f1")
	assert.ErrorIs(t, err, boom)
}

func TestPush_UpsertFailureWrapped(t *testing.T) {
	m := newMockedEngine(t, staticOwner{owner: testOwner})

	m.tombstones.EXPECT().IsTombstoned(gomock.Any(), "f1").Return(false, nil).Times(2)
	m.records.EXPECT().Get(gomock.Any(), models.Folders, "f1").Return(folder("f1", "Trips"), nil)
	m.remote.EXPECT().Upsert(gomock.Any(), "folders", testOwner, gomock.Any()).Return(store.ErrForeignRow)

	err := m.engine.Push(context.Background(), models.Folders, "f1")
	require.ErrorIs(t, err, store.ErrForeignRow)
	assert.Equal(t, models.ErrorOther, classifyError(err))
}

func TestPush_UploadsThroughObjectStorage(t *testing.T) {
	m := newMockedEngine(t, staticOwner{owner: testOwner})
	rec := models.Record{
		ID:         "pr1",
		Collection: models.Presets,
		Timestamp:  1,
		Fields:     map[string]any{"thumbnail": "data:image/png;base64,AAAA"},
	}

	m.tombstones.EXPECT().IsTombstoned(gomock.Any(), "pr1").Return(false, nil).Times(2)
	m.records.EXPECT().Get(gomock.Any(), models.Presets, "pr1").Return(rec, nil)
	m.objects.EXPECT().Upload(gomock.Any(), gomock.Any()).Return("https://objects.test/media/presets/pr1/x.png", nil)
	m.remote.EXPECT().
		Upsert(gomock.Any(), "presets", testOwner, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, row models.RemoteRow) error {
			assert.Equal(t, "https://objects.test/media/presets/pr1/x.png", row["thumbnail_url"])
			return nil
		})

	require.NoError(t, m.engine.Push(context.Background(), models.Presets, "pr1"))
}

func TestDelete_TombstoneBeforeRemoteDelete(t *testing.T) {
	m := newMockedEngine(t, staticOwner{owner: testOwner})

	gomock.InOrder(
		m.tombstones.EXPECT().RecordDeletion(gomock.Any(), models.Posts, "p1").Return(nil),
		m.remote.EXPECT().Delete(gomock.Any(), "posts", "p1", testOwner).Return(nil),
	)

	require.NoError(t, m.engine.Delete(context.Background(), models.Posts, "p1"))
}

func TestDelete_LedgerFailureSkipsRemote(t *testing.T) {
	m := newMockedEngine(t, staticOwner{owner: testOwner})
	boom := errors.New("readonly database")

	m.tombstones.EXPECT().RecordDeletion(gomock.Any(), models.Posts, "p1").Return(boom)
	m.remote.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	assert.ErrorIs(t, m.engine.Delete(context.Background(), models.Posts, "p1"), boom)
}

func TestFullSync_ListIDsFailureRecorded(t *testing.T) {
	m := newMockedEngine(t, staticOwner{owner: testOwner})
	boom := errors.New("database is locked")

	m.records.EXPECT().ListIDs(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c models.Collection) ([]string, error) {
			if c == models.Folders {
				return nil, boom
			}
			return nil, nil
		}).Times(len(models.SyncOrder))
	m.remote.EXPECT().SelectAll(gomock.Any(), gomock.Any(), testOwner).Return(nil, nil).Times(len(models.SyncOrder) - 1)

	report, err := m.engine.FullSync(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, models.Folders, report.Failures[0].Collection)
	assert.Empty(t, report.Failures[0].ID)
}
