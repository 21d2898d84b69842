// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/notifier"
	"github.com/MKhiriev/go-studio-sync/models"
)

func newTestLocalStorages(t *testing.T) (*LocalStorages, *notifier.Notifier) {
	t.Helper()
	n := notifier.New(16)
	cfg := config.LocalDB{DSN: filepath.Join(t.TempDir(), "studio.db")}

	s, err := NewLocalStorages(context.Background(), cfg, n, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, n
}

func nextEvent(t *testing.T, ch <-chan models.ChangeEvent) models.ChangeEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
		return models.ChangeEvent{}
	}
}

func TestLocalRecordStore_PutGet(t *testing.T) {
	s, _ := newTestLocalStorages(t)
	ctx := context.Background()

	r := models.NewRecord(models.History, "h1")
	r.Timestamp = 1718000000123
	r.Fields["prompt"] = "a cat"
	r.Fields["durationMs"] = 1500
	r.Fields["outputs"] = []string{"https://cdn/x.png"}
	r.Fields["seed"] = "42"

	require.NoError(t, s.Records.Put(ctx, r))

	got, err := s.Records.Get(ctx, models.History, "h1")
	require.NoError(t, err)

	assert.Equal(t, int64(1718000000123), got.Timestamp)
	assert.Equal(t, "a cat", got.Fields["prompt"])
	assert.Equal(t, float64(1500), got.Fields["durationMs"])
	assert.Equal(t, []string{"https://cdn/x.png"}, got.Fields["outputs"])
	assert.Equal(t, map[string]any{"seed": "42"}, got.Extra)
}

func TestLocalRecordStore_GetMissing(t *testing.T) {
	s, _ := newTestLocalStorages(t)

	_, err := s.Records.Get(context.Background(), models.Folders, "nope")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestLocalRecordStore_PutRejectsInvalid(t *testing.T) {
	s, _ := newTestLocalStorages(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Records.Put(ctx, models.Record{Collection: models.Folders}), ErrInvalidRecord)

	bad := models.NewRecord(models.Configuration, "c1")
	bad.Fields["encrypted"] = "yes"
	assert.ErrorIs(t, s.Records.Put(ctx, bad), ErrInvalidRecord)

	assert.ErrorIs(t, s.Records.Put(ctx, models.NewRecord("users", "u1")), models.ErrUnknownCollection)
}

func TestLocalRecordStore_PublishesEvents(t *testing.T) {
	s, _ := newTestLocalStorages(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := s.Records.Subscribe(ctx)

	r := models.NewRecord(models.Folders, "f1")
	r.Fields["name"] = "Trips"
	require.NoError(t, s.Records.Put(ctx, r))
	r.Fields["name"] = "Trips 2024"
	require.NoError(t, s.Records.Put(ctx, r))
	require.NoError(t, s.Records.Delete(ctx, models.Folders, "f1"))

	ev := nextEvent(t, events)
	assert.Equal(t, models.OpInsert, ev.Op)
	assert.Equal(t, models.OriginLocal, ev.Origin)
	assert.Equal(t, "Trips", ev.Record.Fields["name"])

	ev = nextEvent(t, events)
	assert.Equal(t, models.OpUpdate, ev.Op)
	assert.Equal(t, "Trips 2024", ev.Record.Fields["name"])

	ev = nextEvent(t, events)
	assert.Equal(t, models.OpDelete, ev.Op)
	assert.Equal(t, "f1", ev.ID)
}

func TestLocalRecordStore_DeleteWritesTombstone(t *testing.T) {
	s, _ := newTestLocalStorages(t)
	ctx := context.Background()

	r := models.NewRecord(models.Posts, "p1")
	require.NoError(t, s.Records.Put(ctx, r))
	require.NoError(t, s.Records.Delete(ctx, models.Posts, "p1"))

	_, err := s.Records.Get(ctx, models.Posts, "p1")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	tombstoned, err := s.Tombstones.IsTombstoned(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, tombstoned)
}

func TestLocalRecordStore_Import(t *testing.T) {
	s, _ := newTestLocalStorages(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := s.Records.Subscribe(ctx)

	pulled := models.NewRecord(models.Presets, "pr1")
	pulled.Fields["name"] = "remote"

	imported, err := s.Records.Import(ctx, pulled)
	require.NoError(t, err)
	assert.True(t, imported)

	ev := nextEvent(t, events)
	assert.Equal(t, models.OriginRemote, ev.Origin)

	// локальная версия не перезаписывается
	pulled.Fields["name"] = "newer remote"
	imported, err = s.Records.Import(ctx, pulled)
	require.NoError(t, err)
	assert.False(t, imported)

	got, err := s.Records.Get(ctx, models.Presets, "pr1")
	require.NoError(t, err)
	assert.Equal(t, "remote", got.Fields["name"])
}

func TestLocalRecordStore_ImportSkipsTombstoned(t *testing.T) {
	s, _ := newTestLocalStorages(t)
	ctx := context.Background()

	require.NoError(t, s.Tombstones.RecordDeletion(ctx, models.Posts, "p9"))

	imported, err := s.Records.Import(ctx, models.NewRecord(models.Posts, "p9"))
	require.NoError(t, err)
	assert.False(t, imported)

	ids, err := s.Records.ListIDs(ctx, models.Posts)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLocalRecordStore_GetAllAndListIDsOrdered(t *testing.T) {
	s, _ := newTestLocalStorages(t)
	ctx := context.Background()

	for i, id := range []string{"b", "a", "c"} {
		r := models.NewRecord(models.Assets, id)
		r.Timestamp = int64(100 - i)
		require.NoError(t, s.Records.Put(ctx, r))
	}
	require.NoError(t, s.Records.Put(ctx, models.NewRecord(models.Folders, "f1")))

	ids, err := s.Records.ListIDs(ctx, models.Assets)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	all, err := s.Records.GetAll(ctx, models.Assets)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, models.Assets, all[0].Collection)
}

func TestTombstoneLedger(t *testing.T) {
	s, _ := newTestLocalStorages(t)
	ctx := context.Background()

	require.NoError(t, s.Tombstones.RecordDeletion(ctx, models.Assets, "a1"))
	require.NoError(t, s.Tombstones.RecordDeletion(ctx, models.Assets, "a1"))

	ok, err := s.Tombstones.IsTombstoned(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Tombstones.IsTombstoned(ctx, "a2")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Tombstones.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := s.Tombstones.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.Assets, list[0].Collection)
}

func TestTombstoneLedger_ConcurrentWrites(t *testing.T) {
	s, _ := newTestLocalStorages(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := []string{"x", "y", "z", "w"}[i%4]
			assert.NoError(t, s.Tombstones.RecordDeletion(ctx, models.Posts, id))
			_, err := s.Tombstones.IsTombstoned(ctx, id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := s.Tombstones.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
