package grpc

import (
	"context"
	"time"

	"fleetrent-backend/internal/api/grpc/interceptor"
	"fleetrent-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name the booking backend reports under in the health service.
const ServiceName = "fleetrent.booking"

// Server is the gRPC listener carrying the standard health service and reflection.
type Server struct {
	*grpc.Server
	health *health.Server
}

func NewServer() *Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(interceptor.Unary()))
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)

	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return &Server{Server: s, health: h}
}

// SetServing flips both the overall and the booking service status.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if !serving {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Watch runs check every interval until ctx ends and reports the result as the serving status.
func (s *Server) Watch(ctx context.Context, check func(ctx context.Context) error, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, interval)
			err := check(checkCtx)
			cancel()
			if (err == nil) != healthy {
				healthy = err == nil
				if healthy {
					logger.Info("Health check recovered")
				} else {
					logger.Warn("Health check failed", "error", err)
				}
				s.SetServing(healthy)
			}
		}
	}
}

// Shutdown marks the server as not serving and stops it gracefully.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.GracefulStop()
}
