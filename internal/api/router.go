// Package api provides the HTTP API for the air quality forecast service.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/datashowme-me/air-is-matter/internal/api/handler"
	"github.com/datashowme-me/air-is-matter/internal/api/middleware"
	"github.com/datashowme-me/air-is-matter/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	ForecastService handler.ForecastService
	Registry        *resilience.Registry

	// CalendarHost appears in iCalendar event UIDs.
	CalendarHost string
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "air-is-matter-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)
	forecastHandler := handler.NewForecastHandler(cfg.ForecastService)
	calendarHandler := handler.NewCalendarHandler(cfg.ForecastService, cfg.CalendarHost)

	// Forecast builds fan out to upstream providers, so they are limited
	// harder than the ops surface.
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		r.With(expensiveRateLimit, middleware.ContentTypeJSON).
			Get("/forecast", forecastHandler.GetForecast)

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Use(middleware.ContentTypeJSON)
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})
	})

	// Calendar subscription feed. Calendar clients poll this URL, so it
	// lives outside /v1 at a stable path.
	r.With(expensiveRateLimit).Get("/api/ics", calendarHandler.GetCalendar)

	return r
}
