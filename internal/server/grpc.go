package server

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthService is the name reported for the pipeline's own readiness.
const HealthService = "docintake.Pipeline"

// NewGRPCServer returns a gRPC server exposing the standard health service,
// with reflection for grpcurl.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(srv)
	return srv, hs
}

// ServeGRPC listens on addr until ctx is cancelled, then drains and stops.
func ServeGRPC(ctx context.Context, addr string, srv *grpc.Server, hs *health.Server, logger *slog.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen", "addr", addr, "error", err)
		return err
	}
	go func() {
		<-ctx.Done()
		hs.Shutdown()
		srv.GracefulStop()
	}()
	logger.Info("grpc listening", "addr", addr)
	return srv.Serve(lis)
}
