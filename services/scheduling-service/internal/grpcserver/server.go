// Package grpcserver exposes the standard gRPC health service, with its serving status
// driven by the same dependency checks as /readyz.
package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/grpcx"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Server struct {
	grpc       *grpc.Server
	health     *health.Server
	logger     *slog.Logger
	service    string
	checks     []runtime.ReadyCheck
	checkEvery time.Duration
}

func New(logger *slog.Logger, service string, checkEvery time.Duration, checks ...runtime.ReadyCheck) *Server {
	if checkEvery <= 0 {
		checkEvery = 10 * time.Second
	}
	s := &Server{
		grpc:       grpcx.NewServer(logger),
		health:     health.NewServer(),
		logger:     logger,
		service:    service,
		checks:     checks,
		checkEvery: checkEvery,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	return s
}

// Refresh runs the checks once and publishes the result for both the overall ("") and
// the named service.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if failures := runtime.RunChecks(ctx, 2*time.Second, s.checks...); len(failures) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("readiness check failed", "failures", failures)
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
	return status
}

// Serve blocks until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Refresh(ctx)
	go func() {
		ticker := time.NewTicker(s.checkEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.grpc.GracefulStop()
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()
	s.logger.Info("grpc server starting", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}
