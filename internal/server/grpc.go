package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/MKhiriev/go-studio-sync/internal/config"
	myGRPC "github.com/MKhiriev/go-studio-sync/internal/handler/grpc"
	"github.com/MKhiriev/go-studio-sync/internal/logger"

	"google.golang.org/grpc"
)

type grpcServer struct {
	handler *myGRPC.Handler

	server          *grpc.Server
	gRPCNetListener net.Listener

	logger *logger.Logger
}

func newGRPCServer(handler *myGRPC.Handler, cfg config.Server, logger *logger.Logger) (*grpcServer, error) {
	listener, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return nil, fmt.Errorf("error listening on %s: %w", cfg.GRPCAddress, err)
	}

	g := &grpcServer{
		handler:         handler,
		gRPCNetListener: listener,
		logger:          logger,
	}
	g.server = grpc.NewServer(grpc.ChainUnaryInterceptor(g.loggingInterceptor))
	handler.Register(g.server)

	return g, nil
}

func (g *grpcServer) RunServer() error {
	g.logger.Info().Str("address", g.gRPCNetListener.Addr().String()).Msg("gRPC server listening")
	if err := g.server.Serve(g.gRPCNetListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server Serve: %w", err)
	}
	return nil
}

func (g *grpcServer) Shutdown() {
	g.logger.Info().Msg("GRPC server Shutdown")
	g.handler.Shutdown()
	g.server.GracefulStop()
}

func (g *grpcServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	event := g.logger.Debug()
	if err != nil {
		event = g.logger.Warn().Err(err)
	}
	event.Str("method", info.FullMethod).Msg("gRPC call")
	return resp, err
}
