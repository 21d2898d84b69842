package grpc

import (
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-checked service of the sync daemon. It reports
// SERVING while the daemon holds a valid session; the empty service name
// reports the liveness of the process itself.
const ServiceName = "studio.sync.SyncDaemon"

// Handler is the root gRPC transport handler.
//
// It exposes the standard grpc.health.v1 service. The serving status of
// [ServiceName] follows the account session: a daemon without a valid
// token cannot push or pull anything, so orchestrators see it as not ready.
type Handler struct {
	// services provides access to the session of the daemon.
	services *service.Services

	health *health.Server

	// logger is used for diagnostic log output.
	logger *logger.Logger
}

// NewHandler constructs a [Handler] and subscribes it to session changes.
func NewHandler(services *service.Services, logger *logger.Logger) *Handler {
	h := &Handler{
		services: services,
		health:   health.NewServer(),
		logger:   logger,
	}

	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.setSessionStatus(services.Session.Status().Valid)
	services.Session.OnChange(h.setSessionStatus)

	logger.Debug().Msg("gRPC handler created")
	return h
}

// Register attaches the health service to server.
func (h *Handler) Register(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, h.health)
}

// Shutdown marks every service NOT_SERVING and ends open Watch streams.
func (h *Handler) Shutdown() {
	h.health.Shutdown()
}

func (h *Handler) setSessionStatus(valid bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if valid {
		status = healthpb.HealthCheckResponse_SERVING
	}

	h.health.SetServingStatus(ServiceName, status)
	h.logger.Info().
		Str("func", "*Handler.setSessionStatus").
		Str("status", status.String()).
		Msg("session health changed")
}
