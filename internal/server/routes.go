package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRoutes configures all API routes. gatherer backs /metrics; nil
// uses the default Prometheus registry.
func SetupRoutes(h *Handlers, allowedOrigins []string, gatherer prometheus.Gatherer) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Get("/health", h.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/stakeholders", h.ListStakeholders)
		r.Get("/stakeholders/{id}", h.GetStakeholder)
		r.Get("/stakeholders/{id}/variants", h.ListVariants)
		r.Get("/contexts", h.ListContexts)

		r.Post("/responses", h.GenerateResponses)
		r.Post("/responses/compare", h.CompareVariants)
		r.Post("/metrics/value", h.MetricValue)
		r.Post("/derived", h.DeriveMetrics)
		r.Post("/sentiment", h.SentimentChanges)

		if h.store != nil {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Post("/", h.CreateScenario)
				r.Get("/{id}", h.GetScenario)
				r.Put("/{id}", h.UpdateScenario)
				r.Delete("/{id}", h.DeleteScenario)
				r.Get("/{id}/derived", h.ScenarioDerived)
				r.Post("/{id}/responses", h.ScenarioResponses)
				r.Post("/{id}/sentiment", h.ScenarioSentiment)
			})
		}
	})

	return r
}

// requestLogger logs one line per request at debug level, errors at warn
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			if ww.Status() >= http.StatusInternalServerError {
				logger.Warn("request", fields...)
				return
			}
			logger.Debug("request", fields...)
		})
	}
}
