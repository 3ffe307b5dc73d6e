package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server represents the gRPC health server
type Server struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	logger   *zap.Logger
}

// Config holds gRPC server configuration
type Config struct {
	Port int
	// ServiceName is reported SERVING alongside the overall "" service
	ServiceName string
	// Listener overrides Port when set
	Listener net.Listener
	Logger   *zap.Logger
}

// NewServer creates a new gRPC server exposing grpc.health.v1.Health
func NewServer(cfg *Config) (*Server, error) {
	listener := cfg.Listener
	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
		if err != nil {
			return nil, fmt.Errorf("failed to create listener: %w", err)
		}
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	if cfg.ServiceName != "" {
		healthServer.SetServingStatus(cfg.ServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	return &Server{
		server:   grpcServer,
		health:   healthServer,
		listener: listener,
		logger:   cfg.Logger,
	}, nil
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start starts the gRPC server
func (s *Server) Start() error {
	s.logger.Info("starting gRPC server", zap.String("addr", s.Addr()))

	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}

	return nil
}

// Shutdown marks every service NOT_SERVING and stops the server,
// forcing it closed when ctx expires first
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down gRPC server")

	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.server.Stop()
		s.logger.Warn("gRPC server forced to stop", zap.Error(ctx.Err()))
	}

	s.logger.Info("gRPC server shut down complete")
	return nil
}
