package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"channel-relay/utils"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Service names reported by the health endpoint.
const (
	ServiceIngest     = "ingest"
	ServiceModeration = "moderation"
)

// HealthServer serves the standard gRPC health protocol for the relay's two
// listeners. Both start NOT_SERVING until their listener reports in.
type HealthServer struct {
	addr   string
	server *grpc.Server
	health *health.Server
	log    *utils.Logger
}

// NewHealthServer registers the health and reflection services.
func NewHealthServer(addr string, log *utils.Logger) *HealthServer {
	s := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)
	for _, name := range []string{ServiceIngest, ServiceModeration} {
		h.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return &HealthServer{addr: addr, server: s, health: h, log: log}
}

// SetServing flips the status of one service.
func (h *HealthServer) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(service, status)
}

// Check returns the current status of service.
func (h *HealthServer) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Serve listens on the configured address until Stop is called.
func (h *HealthServer) Serve() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.addr, err)
	}
	h.log.Info("gRPC", "Serve", "health endpoint listening on "+lis.Addr().String())
	if err := h.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop marks everything NOT_SERVING and stops the server.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
