package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// NewServer builds a gRPC server exposing the catalog, the standard health
// service and reflection.
func NewServer(catalog CatalogServer, logger *logrus.Logger) (*grpc.Server, *health.Server) {
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))

	RegisterCatalogServer(server, catalog)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(CatalogServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	reflection.Register(server)
	logger.Info("gRPC reflection service registered")

	return server, healthServer
}

func loggingInterceptor(logger *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := logger.WithFields(logrus.Fields{
			"method":     info.FullMethod,
			"code":       status.Code(err).String(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.Warn("gRPC request failed")
		} else {
			entry.Debug("gRPC request completed")
		}
		return resp, err
	}
}
