// Package server provides the station's admin surfaces: a Prometheus
// metrics endpoint over HTTP and a gRPC health endpoint for line
// supervision probes. Both are optional and disabled by an empty listen
// address.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 30 * time.Second

// AdminServer serves /metrics and /healthz.
type AdminServer struct {
	server *http.Server
}

// NewAdminServer builds the admin HTTP server over the given registry.
func NewAdminServer(addr string, registry *prometheus.Registry) *AdminServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return &AdminServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until Shutdown.
func (s *AdminServer) Start(ctx context.Context) error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("admin server: %w", err)
	}
	return nil
}

// Shutdown drains connections with a bounded timeout.
func (s *AdminServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// HealthServer exposes the standard gRPC health service so line
// supervision can probe terminals with the same checks it uses for the
// backend services.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	addr   string
}

// NewHealthServer builds the health endpoint.
func NewHealthServer(addr string) *HealthServer {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	return &HealthServer{
		server: grpcServer,
		health: healthServer,
		addr:   addr,
	}
}

// SetServing flips the reported status, e.g. while the backend store is
// unreachable.
func (s *HealthServer) SetServing(ok bool) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if !ok {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Supervise polls the backend probe and mirrors the result into the
// reported health status until ctx ends. Intended to run on its own
// goroutine with the database ping as the probe, so line supervision sees
// NOT_SERVING while the store is unreachable.
func (s *HealthServer) Supervise(ctx context.Context, interval time.Duration, probe func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SetServing(probe(ctx) == nil)
		}
	}
}

// Start binds the listener and serves until Shutdown.
func (s *HealthServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.addr, err)
	}
	return s.server.Serve(listener)
}

// Shutdown gracefully stops the server with a bounded timeout.
func (s *HealthServer) Shutdown(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(shutdownTimeout):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}
