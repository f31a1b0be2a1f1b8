package cli

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/credentials"

	"github.com/bibbank/claimrisk/internal/infrastructure/config"
	grpcpresentation "github.com/bibbank/claimrisk/internal/presentation/grpc"
	"github.com/bibbank/claimrisk/internal/presentation/rest"
	"github.com/bibbank/claimrisk/internal/presentation/stream"
	"github.com/bibbank/claimrisk/pkg/auth"
	pkgkafka "github.com/bibbank/claimrisk/pkg/kafka"
	"github.com/bibbank/claimrisk/pkg/observability"
	pgpkg "github.com/bibbank/claimrisk/pkg/postgres"
	"github.com/bibbank/claimrisk/pkg/tlsutil"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC and HTTP scoring service",
		Long: `Run the claim risk service: the ClaimRiskService gRPC API, the HTTP API
with health probes and /metrics, and, when kafka.intake_topic is set, the
claim intake consumer.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, opts.version)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, version string) error {
	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: cfg.Telemetry.ServiceName,
	})

	logger.Info("starting claimrisk",
		"version", version,
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
	)

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(ctx, observability.MetricsConfig{
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	dbCtx, dbCancel := context.WithTimeout(ctx, 30*time.Second)
	app, err := buildComponents(dbCtx, cfg, logger, meterProvider.Meter("github.com/bibbank/claimrisk"))
	dbCancel()
	if err != nil {
		return err
	}
	defer app.Close()

	var validator auth.TokenValidator
	if cfg.Auth.Enabled {
		jwtCfg, err := cfg.Auth.JWTConfig()
		if err != nil {
			return err
		}
		jwtService, err := auth.NewJWTService(jwtCfg)
		if err != nil {
			return err
		}
		validator = jwtService
	}

	var (
		serverTLS *tls.Config
		grpcCreds credentials.TransportCredentials
	)
	if cfg.TLS.Enabled() {
		if serverTLS, err = tlsutil.ServerConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
			return err
		}
		if grpcCreds, err = tlsutil.ServerCredentials(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
			return err
		}
	}

	grpcServer := grpcpresentation.NewServer(
		grpcpresentation.NewClaimRiskHandler(app.scoreClaim, app.getAssessment, logger),
		grpcpresentation.ServerConfig{
			Credentials: grpcCreds,
			Validator:   validator,
			Address:     cfg.GRPCAddress(),
			Reflection:  cfg.Server.Reflection,
		},
		logger,
	)

	router := rest.NewRouter(rest.RouterConfig{
		Claims: rest.NewClaimHandler(app.scoreClaim, app.getAssessment, logger),
		Health: rest.NewHealthHandler(map[string]rest.ReadinessCheck{
			"database": func(ctx context.Context) error { return pgpkg.HealthCheck(ctx, app.pool) },
		}, logger),
		Metrics:        metricsHandler,
		Validator:      validator,
		Logger:         logger,
		RequestTimeout: cfg.Scoring.ProbabilityTimeout + cfg.Scoring.CheckTimeout + 5*time.Second,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      router,
		TLSConfig:    serverTLS,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress(), "tls", serverTLS != nil)
		var err error
		if serverTLS != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	intakeCtx, stopIntake := context.WithCancel(ctx)
	defer stopIntake()
	intakeDone := make(chan struct{})
	if cfg.KafkaEnabled() && cfg.Kafka.IntakeTopic != "" {
		consumer, err := pkgkafka.NewConsumer(kafkaConfig(cfg.Kafka), cfg.Kafka.IntakeTopic,
			stream.NewIntakeHandler(app.scoreClaim, logger).Handle, logger)
		if err != nil {
			return err
		}
		go func() {
			defer close(intakeDone)
			defer func() { _ = consumer.Close() }()
			if err := consumer.Start(intakeCtx); err != nil {
				errCh <- fmt.Errorf("intake consumer error: %w", err)
			}
		}()
	} else {
		close(intakeDone)
	}

	logger.Info("claimrisk started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Server.Environment,
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	logger.Info("shutting down claimrisk")

	stopIntake()
	<-intakeDone

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("claimrisk stopped", slog.String("version", version))
	return runErr
}
