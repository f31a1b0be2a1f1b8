package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bibbank/claimrisk/pkg/auth"
)

// RouterConfig collects the handlers mounted by NewRouter.
type RouterConfig struct {
	Claims  *ClaimHandler
	Health  *HealthHandler
	Metrics http.Handler
	// Validator enables bearer-token auth on /v1 when set.
	Validator      auth.TokenValidator
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP API. Probes and /metrics are unauthenticated.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		if cfg.Validator != nil {
			r.Use(auth.HTTPMiddleware(cfg.Validator))
		}

		r.Group(func(r chi.Router) {
			if cfg.Validator != nil {
				r.Use(auth.RequireAnyRole(auth.ScoringRoles...))
			}
			r.Post("/claims/score", cfg.Claims.ScoreClaim)
		})
		r.Group(func(r chi.Router) {
			if cfg.Validator != nil {
				r.Use(auth.RequireAnyRole(auth.ReadingRoles...))
			}
			r.Get("/assessments/{id}", cfg.Claims.GetAssessment)
		})
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
