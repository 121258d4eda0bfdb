package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/PaintCatalog/internal/service"
	"github.com/utafrali/PaintCatalog/pkg/health"
	"github.com/utafrali/PaintCatalog/pkg/middleware"
)

// RouterConfig carries the HTTP-layer settings.
type RouterConfig struct {
	ServiceName    string
	DefaultOwner   string
	AllowedOrigins []string
	FacetsMaxAge   int
	RequestTimeout time.Duration
	PprofCIDRs     []string

	// Per-caller limit on like and vote submissions; zero disables it.
	EngagementRPS   float64
	EngagementBurst int
}

// Services groups the services the API exposes.
type Services struct {
	Catalog    *service.CatalogService
	Sessions   *service.SessionService
	Engagement *service.EngagementService
}

// NewRouter creates a chi router with all catalog service routes registered.
func NewRouter(
	cfg RouterConfig,
	svcs Services,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	cors := middleware.DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		cors.AllowedOrigins = cfg.AllowedOrigins
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Global middleware
	r.Use(middleware.CORS(cors))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(timeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	catalogHandler := NewCatalogHandler(svcs.Catalog, logger)
	sessionHandler := NewSessionHandler(svcs.Sessions, logger)
	engagementHandler := NewEngagementHandler(svcs.Engagement, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.DefaultOwner))
		r.Use(middleware.RequestLogger(logger))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", catalogHandler.Search)
			r.Get("/products/{id}", catalogHandler.GetProduct)
			r.With(middleware.CacheControl(cfg.FacetsMaxAge)).Get("/facets", catalogHandler.Facets)
			r.Get("/suggest", catalogHandler.Suggest)

			r.Post("/products", catalogHandler.UpsertProduct)
			r.Post("/products/bulk", catalogHandler.BulkUpsert)
			r.Delete("/products/{id}", catalogHandler.DeleteProduct)
			r.Post("/refresh", catalogHandler.Refresh)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Route("/{sid}", func(r chi.Router) {
				r.Use(sessionLogger(logger))
				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.Close)
				r.Put("/query", sessionHandler.UpdateQuery)
				r.Put("/filters", sessionHandler.UpdateFilters)
				r.Delete("/filters", sessionHandler.ClearFilters)
				r.Put("/page", sessionHandler.SetPage)
				r.Put("/sort", sessionHandler.SetSort)
				r.Get("/suggestions", sessionHandler.Suggestions)
				r.Get("/history", sessionHandler.History)
				r.Delete("/history", sessionHandler.ClearHistory)
				r.Get("/saved", sessionHandler.SavedSearches)
				r.Post("/saved", sessionHandler.SaveSearch)
				r.Post("/saved/{searchID}/load", sessionHandler.LoadSavedSearch)
				r.Delete("/saved/{searchID}", sessionHandler.DeleteSavedSearch)
			})
		})

		r.Route("/engagement", func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.EngagementRPS, cfg.EngagementBurst, logger))
			r.Post("/products/{id}/like", engagementHandler.LikeProduct)
			r.Post("/votes/{entityID}", engagementHandler.Vote)
			r.Get("/votes/{entityID}", engagementHandler.Votes)
		})
	})

	return r
}
