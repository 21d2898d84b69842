package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/auth"
	"github.com/MKhiriev/go-studio-sync/internal/blob"
	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/mapper"
	"github.com/MKhiriev/go-studio-sync/internal/mock"
	"github.com/MKhiriev/go-studio-sync/internal/notifier"
	"github.com/MKhiriev/go-studio-sync/internal/service"
	"github.com/MKhiriev/go-studio-sync/internal/store"
	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/MKhiriev/go-studio-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testAPI struct {
	router   http.Handler
	services *service.Services
	session  *auth.Session
	local    *store.LocalStorages
	remote   *mock.MockRemoteStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	ctx := context.Background()
	log := logger.Nop()
	ctrl := gomock.NewController(t)

	local, err := store.NewLocalStorages(ctx, config.LocalDB{DSN: filepath.Join(t.TempDir(), "studio.db")}, notifier.New(8), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	remote := mock.NewMockRemoteStore(ctrl)
	session := auth.NewSession("")

	services, err := service.NewServices(service.SyncEngineDeps{
		Records:    local.Records,
		Tombstones: local.Tombstones,
		Remote:     remote,
		Mapper:     mapper.MustNew(),
		Blobs:      blob.NewMigrator(mock.NewMockObjectStorage(ctrl), blob.NewTypeRouter("media", "", nil), time.Second, log),
	}, session, &config.StructuredConfig{App: config.App{Version: "1.0.0"}}, models.NewAppBuildInfo("", "2026-10-01", "abc123"), log)
	require.NoError(t, err)
	t.Cleanup(services.Close)

	return &testAPI{
		router:   NewHandler(services, log).Init(),
		services: services,
		session:  session,
		local:    local,
		remote:   remote,
	}
}

func (a *testAPI) login(t *testing.T) {
	t.Helper()
	token, err := utils.GenerateSessionToken("user-1", time.Hour, "k")
	require.NoError(t, err)
	require.NoError(t, a.session.SetToken(token))
}

func (a *testAPI) do(method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

// ─────────────────────────────────────────────
// NewHandler
// ─────────────────────────────────────────────

func TestNewHandler_StoresDependencies(t *testing.T) {
	svc := &service.Services{}
	log := logger.Nop()
	h := NewHandler(svc, log)

	require.NotNil(t, h)
	assert.Same(t, svc, h.services)
	assert.Same(t, log, h.logger)
}

// ─────────────────────────────────────────────
// GET /api/version
// ─────────────────────────────────────────────

func TestGetVersion(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(http.MethodGet, "/api/version", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, models.VersionResponse{Version: "1.0.0", Commit: "abc123", Date: "2026-10-01"}, decodeBody[models.VersionResponse](t, rr))
}

// ─────────────────────────────────────────────
// GET /api/status
// ─────────────────────────────────────────────

func TestGetStatus(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)
	ctx := context.Background()
	require.NoError(t, api.local.Tombstones.RecordDeletion(ctx, models.Posts, "p1"))
	require.NoError(t, api.local.Tombstones.RecordDeletion(ctx, models.Assets, "a1"))

	rr := api.do(http.MethodGet, "/api/status", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	status := decodeBody[models.Status](t, rr)
	assert.Equal(t, 2, status.Tombstones)
	assert.True(t, status.Session.Valid)
	assert.Equal(t, "user-1", status.Session.Owner)
	assert.False(t, status.Syncing)
	assert.Nil(t, status.LastReport)
}

func TestGetStatus_Gzip(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	var status models.Status
	require.NoError(t, json.NewDecoder(gz).Decode(&status))
	assert.False(t, status.Session.Valid)
}

// ─────────────────────────────────────────────
// PUT /api/session
// ─────────────────────────────────────────────

func TestPutSession(t *testing.T) {
	valid, err := utils.GenerateSessionToken("user-7", time.Hour, "k")
	require.NoError(t, err)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantValid  bool
		wantOwner  string
		wantError  bool
	}{
		{name: "valid token", body: `{"token":"` + valid + `"}`, wantStatus: http.StatusOK, wantValid: true, wantOwner: "user-7"},
		{name: "empty token logs out", body: `{"token":""}`, wantStatus: http.StatusOK},
		{name: "garbage token", body: `{"token":"not-a-jwt"}`, wantStatus: http.StatusBadRequest, wantError: true},
		{name: "invalid json", body: `{"token":`, wantStatus: http.StatusBadRequest, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)

			rr := api.do(http.MethodPut, "/api/session", strings.NewReader(tt.body))
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())

			if tt.wantError {
				assert.NotEmpty(t, decodeBody[utils.ErrorResponse](t, rr).Error)
				return
			}
			session := decodeBody[models.SessionStatus](t, rr)
			assert.Equal(t, tt.wantValid, session.Valid)
			assert.Equal(t, tt.wantOwner, session.Owner)
			assert.Equal(t, tt.wantValid, api.session.Valid())
		})
	}
}

func TestPutSession_BearerHeader(t *testing.T) {
	api := newTestAPI(t)
	token, err := utils.GenerateSessionToken("user-9", time.Hour, "k")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "user-9", decodeBody[models.SessionStatus](t, rr).Owner)

	req = httptest.NewRequest(http.MethodPut, "/api/session", nil)
	req.Header.Set("Authorization", "Basic abc")
	rr = httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.True(t, api.session.Valid())
}

func TestPutSession_InvalidTokenKeepsSession(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	rr := api.do(http.MethodPut, "/api/session", strings.NewReader(`{"token":"broken"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.True(t, api.session.Valid())
}

// ─────────────────────────────────────────────
// POST /api/sync
// ─────────────────────────────────────────────

func TestFullSync_NoSession(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(http.MethodPost, "/api/sync", nil)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, ErrNoSession.Error(), decodeBody[utils.ErrorResponse](t, rr).Error)
}

func TestFullSync_ReturnsReport(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)
	api.remote.EXPECT().SelectAll(gomock.Any(), gomock.Any(), "user-1").Return(nil, nil).Times(len(models.SyncOrder))

	rr := api.do(http.MethodPost, "/api/sync", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	report := decodeBody[models.SyncReport](t, rr)
	assert.NotEmpty(t, report.PassID)
	assert.Equal(t, service.TriggerManual, report.Trigger)
	assert.Len(t, report.Collections, len(models.SyncOrder))

	assert.Equal(t, report.PassID, api.services.Status.Snapshot().LastReport.PassID)
}

func TestFullSync_RemoteRejectsSession(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)
	api.remote.EXPECT().SelectAll(gomock.Any(), "folders", "user-1").Return(nil, store.ErrUnauthorized)

	rr := api.do(http.MethodPost, "/api/sync", nil)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	report := decodeBody[models.SyncReport](t, rr)
	assert.Len(t, report.Collections, 1)
}

func TestFullSync_AlreadyRunning(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	gate := make(chan struct{})
	api.remote.EXPECT().SelectAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string) ([]models.RemoteRow, error) {
			<-gate
			return nil, nil
		}).AnyTimes()

	done := make(chan int, 1)
	go func() { done <- api.do(http.MethodPost, "/api/sync", nil).Code }()
	require.Eventually(t, api.services.Engine.InFlight, time.Second, time.Millisecond)

	rr := api.do(http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	close(gate)
	assert.Equal(t, http.StatusOK, <-done)
}

// ─────────────────────────────────────────────
// POST /api/migrate
// ─────────────────────────────────────────────

func TestStartMigration(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)
	rec := models.NewRecord(models.Folders, "f1")
	rec.Fields["name"] = "Trips"
	require.NoError(t, api.local.Records.Put(context.Background(), rec))
	api.remote.EXPECT().Upsert(gomock.Any(), "folders", "user-1", gomock.Any()).Return(nil)

	rr := api.do(http.MethodPost, "/api/migrate", nil)
	require.Equal(t, http.StatusAccepted, rr.Code)

	require.Eventually(t, func() bool {
		return api.services.Status.Snapshot().LastMigration != nil
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, api.services.Status.Snapshot().LastMigration.Uploaded)
}

func TestStartMigration_AlreadyRunning(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)
	require.True(t, api.services.Status.MigrationStarted())

	rr := api.do(http.MethodPost, "/api/migrate", nil)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

// ─────────────────────────────────────────────
// Routing
// ─────────────────────────────────────────────

func TestRoutes_UnknownMethodIsNotFound(t *testing.T) {
	api := newTestAPI(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/sync"},
		{http.MethodDelete, "/api/session"},
		{http.MethodPost, "/api/version"},
	} {
		rr := api.do(tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRoutes_EchoTraceID(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(traceIDHeader, "cli-42")
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)

	assert.Equal(t, "cli-42", rr.Header().Get(traceIDHeader))
}

func TestGetRecordState(t *testing.T) {
	api := newTestAPI(t)
	api.login(t)

	rec := models.NewRecord(models.Folders, "f1")
	rec.Fields = map[string]any{"name": "Trips"}
	require.NoError(t, api.local.Records.Put(context.Background(), rec))

	t.Run("local only", func(t *testing.T) {
		api.remote.EXPECT().SelectAll(gomock.Any(), "folders", "user-1").Return(nil, nil)

		rr := api.do(http.MethodGet, "/api/records/folders/f1/state", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		got := decodeBody[models.RecordStateResponse](t, rr)
		assert.Equal(t, models.RecordStateResponse{Collection: models.Folders, ID: "f1", State: models.StateLocalOnly}, got)
	})

	t.Run("unknown collection", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/records/albums/f1/state", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing record", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/records/folders/nope/state", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGetTombstones(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(http.MethodGet, "/api/tombstones", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	require.NoError(t, api.local.Tombstones.RecordDeletion(context.Background(), models.Posts, "p9"))

	rr = api.do(http.MethodGet, "/api/tombstones", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	tombstones := decodeBody[[]models.Tombstone](t, rr)
	require.Len(t, tombstones, 1)
	assert.Equal(t, "p9", tombstones[0].ID)
	assert.Equal(t, models.Posts, tombstones[0].Collection)
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrSyncInProgress, http.StatusConflict},
		{service.ErrMigrationInProgress, http.StatusConflict},
		{auth.ErrUnauthorized, http.StatusUnauthorized},
		{auth.ErrInvalidToken, http.StatusBadRequest},
		{store.ErrTransient, http.StatusBadGateway},
		{store.ErrRecordNotFound, http.StatusNotFound},
		{models.ErrUnknownCollection, http.StatusBadRequest},
		{bytes.ErrTooLarge, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFromError(tt.err), tt.err.Error())
	}
}
