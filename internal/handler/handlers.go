package handler

import (
	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/handler/grpc"
	"github.com/MKhiriev/go-studio-sync/internal/handler/http"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/service"
)

// Handlers holds the transport handlers enabled by the server configuration:
// the control API over HTTP and the health service over gRPC.
type Handlers struct {
	HTTP *http.Handler
	GRPC *grpc.Handler
}

func NewHandlers(services *service.Services, cfg config.Server, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	handlers := &Handlers{}

	if cfg.HTTPAddress != "" {
		handlers.HTTP = http.NewHandler(services, logger)
	}
	if cfg.GRPCAddress != "" {
		handlers.GRPC = grpc.NewHandler(services, logger)
	}

	if handlers.HTTP == nil && handlers.GRPC == nil {
		return nil, errNoHandlersAreCreated
	}

	return handlers, nil
}
