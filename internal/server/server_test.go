package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/auth"
	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/handler"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/service"
	"github.com/MKhiriev/go-studio-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func newTestHandlers(t *testing.T, cfg config.Server) *handler.Handlers {
	t.Helper()

	appInfo, err := service.NewAppInfoService(config.App{Version: "1.2.3"}, models.AppBuildInfo{}, logger.Nop())
	require.NoError(t, err)

	services := &service.Services{Session: auth.NewSession(""), AppInfo: appInfo}
	handlers, err := handler.NewHandlers(services, cfg, logger.Nop())
	require.NoError(t, err)
	return handlers
}

func TestNewServer_NoHandlers(t *testing.T) {
	srv, err := NewServer(&handler.Handlers{}, config.Server{}, logger.Nop())

	assert.ErrorIs(t, err, errNoServersAreCreated)
	assert.Nil(t, srv)
}

func TestNewServer_BusyPort(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := config.Server{HTTPAddress: busy.Addr().String()}
	_, err = NewServer(newTestHandlers(t, cfg), cfg, logger.Nop())

	assert.Error(t, err)
}

func TestServer_ServesUntilCancelled(t *testing.T) {
	cfg := config.Server{HTTPAddress: "127.0.0.1:0", GRPCAddress: "127.0.0.1:0"}
	created, err := NewServer(newTestHandlers(t, cfg), cfg, logger.Nop())
	require.NoError(t, err)
	srv := created.(*server)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.run(ctx) }()

	// control API
	resp, err := http.Get("http://" + srv.httpServer.listener.Addr().String() + "/api/version")
	require.NoError(t, err)
	var version models.VersionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&version))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1.2.3", version.Version)

	// health
	conn, err := grpc.NewClient(srv.gRPCServer.gRPCNetListener.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	checkCtx, checkCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer checkCancel()
	health, err := healthpb.NewHealthClient(conn).Check(checkCtx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.GetStatus())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ShutdownIsIdempotent(t *testing.T) {
	cfg := config.Server{HTTPAddress: "127.0.0.1:0"}
	srv, err := NewServer(newTestHandlers(t, cfg), cfg, logger.Nop())
	require.NoError(t, err)
	defer srv.(*server).httpServer.listener.Close()

	assert.NotPanics(t, func() {
		srv.Shutdown()
		srv.Shutdown()
	})
}

func TestServer_RunWithoutTransports(t *testing.T) {
	s := &server{logger: logger.Nop()}
	assert.ErrorIs(t, s.run(context.Background()), errNoServersAreCreated)
}
