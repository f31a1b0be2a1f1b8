package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/claimrisk/internal/application/usecase"
	"github.com/bibbank/claimrisk/internal/domain/port"
	"github.com/bibbank/claimrisk/internal/domain/service"
	"github.com/bibbank/claimrisk/internal/infrastructure/config"
	"github.com/bibbank/claimrisk/internal/infrastructure/external"
	infrakafka "github.com/bibbank/claimrisk/internal/infrastructure/kafka"
	"github.com/bibbank/claimrisk/internal/infrastructure/messaging"
	"github.com/bibbank/claimrisk/internal/infrastructure/ml"
	"github.com/bibbank/claimrisk/internal/infrastructure/postgres"
	"github.com/bibbank/claimrisk/pkg/httpclient"
	pkgkafka "github.com/bibbank/claimrisk/pkg/kafka"
	pgpkg "github.com/bibbank/claimrisk/pkg/postgres"
)

var errNoDatabase = errors.New("database.url is required")

// components is the wired scoring pipeline shared by serve and score.
type components struct {
	pool          *pgxpool.Pool
	producer      *pkgkafka.Producer
	scoreClaim    *usecase.ScoreClaim
	getAssessment *usecase.GetAssessment
	logger        *slog.Logger
}

// buildComponents connects to Postgres (migrating if configured) and wires
// the checks, probability source and use cases. meter may be nil.
func buildComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger, meter metric.Meter) (_ *components, err error) {
	if cfg.Database.URL == "" {
		return nil, errNoDatabase
	}

	if cfg.Database.AutoMigrate {
		if err := pgpkg.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return nil, err
		}
		logger.Info("database migrations applied", "path", cfg.Database.MigrationsPath)
	}

	pool, err := pgpkg.NewPool(ctx, pgpkg.Config{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, err
	}
	c := &components{pool: pool, logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()
	logger.Info("connected to database")

	refs := postgres.NewReferenceRepository(pool, service.NewMarkerNetwork(cfg.Rules.OutOfNetworkMarkers))
	assessments := postgres.NewAssessmentRepository(pool)

	average := cfg.Scoring.AverageAmount
	if avg, ok, err := refs.AverageClaimAmount(ctx); err != nil {
		logger.Warn("could not compute average claim amount, using configured baseline", "error", err)
	} else if ok {
		average = avg
	}

	probability, err := newProbabilitySource(cfg.Model, cfg.Signals.UserAgent, logger)
	if err != nil {
		return nil, err
	}

	deps := newSignalProviders(cfg.Signals, logger)
	deps.References = refs
	deps.Network = refs

	orchestrator := service.NewOrchestrator(
		service.DefaultChecks(deps, cfg.Rules),
		logger,
		service.WithCheckTimeout(cfg.Scoring.CheckTimeout),
		service.WithConcurrency(cfg.Scoring.Concurrency),
	)

	policy, err := service.NewDecisionPolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	publisher, producer, err := newPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.producer = producer

	opts := []usecase.ScoreClaimOption{
		usecase.WithRecorder(assessments),
		usecase.WithPublisher(publisher),
		usecase.WithProbabilityTimeout(cfg.Scoring.ProbabilityTimeout),
	}
	if meter != nil {
		m, err := usecase.NewMetrics(meter)
		if err != nil {
			return nil, err
		}
		opts = append(opts, usecase.WithMetrics(m))
	}

	c.scoreClaim = usecase.NewScoreClaim(orchestrator, service.NewFeatureExtractor(average), policy, probability, logger, opts...)
	c.getAssessment = usecase.NewGetAssessment(assessments)

	logger.Info("scoring pipeline ready",
		"checks", len(orchestrator.Checks()),
		"average_amount", average,
		"model_url", cfg.Model.URL,
	)
	return c, nil
}

// Close releases the producer and the pool.
func (c *components) Close() {
	if c.producer != nil {
		if err := c.producer.Close(); err != nil {
			c.logger.Error("failed to close kafka producer", "error", err)
		}
	}
	if c.pool != nil {
		c.pool.Close()
	}
}

func newProbabilitySource(cfg config.ModelConfig, userAgent string, logger *slog.Logger) (port.ProbabilitySource, error) {
	if cfg.URL != "" {
		client := httpclient.New(httpclient.Options{
			UserAgent:  userAgent,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
		return ml.NewHTTPModelClient(cfg.URL, client, logger), nil
	}

	coefficients := ml.DefaultCoefficients()
	if cfg.CoefficientsPath != "" {
		var err error
		if coefficients, err = ml.LoadCoefficients(cfg.CoefficientsPath); err != nil {
			return nil, err
		}
	}
	return ml.NewLogisticModel(coefficients, logger), nil
}

// newSignalProviders builds the configured external clients. Unconfigured
// providers stay nil interfaces so their checks take the fallback path.
func newSignalProviders(cfg config.SignalsConfig, logger *slog.Logger) service.CheckDeps {
	client := httpclient.New(httpclient.Options{
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.Timeout,
		RequestsPerSec: cfg.RequestsPerSecond,
		MaxRetries:     cfg.MaxRetries,
	})

	var deps service.CheckDeps
	var geocoder *external.NominatimGeocoder
	if cfg.GeocoderURL != "" {
		geocoder = external.NewNominatimGeocoder(cfg.GeocoderURL, client, logger)
		deps.Geocoder = geocoder
	}
	if cfg.VendorURL != "" {
		deps.Vendors = external.NewVendorClient(cfg.VendorURL, cfg.VendorAPIKey, client, logger)
	}
	if cfg.WeatherURL != "" {
		var weatherGeocoder port.Geocoder
		if geocoder != nil {
			weatherGeocoder = geocoder
		}
		deps.Weather = external.NewWeatherClient(cfg.WeatherURL, cfg.WeatherAPIKey, weatherGeocoder, client, logger)
	}

	logger.Info("signal providers",
		"geocoder", deps.Geocoder != nil,
		"vendor_risk", deps.Vendors != nil,
		"weather", deps.Weather != nil,
	)
	return deps
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (port.EventPublisher, *pkgkafka.Producer, error) {
	if !cfg.KafkaEnabled() {
		return messaging.NewLogPublisher(logger), nil, nil
	}

	producer, err := pkgkafka.NewProducer(kafkaConfig(cfg.Kafka))
	if err != nil {
		return nil, nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	return infrakafka.NewPublisher(producer, cfg.Kafka.EventsTopic, logger), producer, nil
}

func kafkaConfig(k config.KafkaConfig) pkgkafka.Config {
	return pkgkafka.Config{
		ConsumerGroup: k.ConsumerGroup,
		SASLMechanism: k.SASLMechanism,
		SASLUsername:  k.SASLUsername,
		SASLPassword:  k.SASLPassword,
		Brokers:       k.Brokers,
		TLS:           k.TLS,
		SASLEnabled:   k.SASLEnabled,
	}
}
