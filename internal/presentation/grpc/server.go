package grpc

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/bibbank/claimrisk/pkg/auth"
)

// ServerConfig configures the gRPC listener.
type ServerConfig struct {
	// Credentials enables TLS when set.
	Credentials credentials.TransportCredentials
	// Validator enables bearer-token auth when set.
	Validator  auth.TokenValidator
	Address    string
	Reflection bool
}

// Server wraps the gRPC server with the claim risk handlers.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
	address    string
}

// NewServer creates a new gRPC server exposing ClaimRiskService and the
// standard health service.
func NewServer(handler ClaimRiskServiceServer, cfg ServerConfig, logger *slog.Logger) *Server {
	var serverOpts []grpc.ServerOption

	if cfg.Validator != nil {
		serverOpts = append(serverOpts, grpc.ChainUnaryInterceptor(auth.UnaryAuthInterceptor(cfg.Validator,
			[]string{
				"/grpc.health.v1.Health/Check",
				"/grpc.health.v1.Health/Watch",
			},
			map[string][]string{
				ScoreClaimMethod:    auth.ScoringRoles,
				GetAssessmentMethod: auth.ReadingRoles,
			},
		)))
	} else {
		logger.Warn("gRPC auth disabled")
	}

	if cfg.Credentials != nil {
		serverOpts = append(serverOpts, grpc.Creds(cfg.Credentials))
		logger.Info("gRPC TLS enabled")
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}

	grpcServer := grpc.NewServer(serverOpts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	RegisterClaimRiskServiceServer(grpcServer, handler)

	if cfg.Reflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
		address:    cfg.Address,
	}
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("gRPC server starting", slog.String("address", listener.Addr().String()))
	return s.grpcServer.Serve(listener)
}

// Stop marks the service as not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
