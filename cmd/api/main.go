// Package main provides the entrypoint for the air quality forecast API
// server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/datashowme-me/air-is-matter/internal/api"
	"github.com/datashowme-me/air-is-matter/internal/api/middleware"
	"github.com/datashowme-me/air-is-matter/internal/config"
	"github.com/datashowme-me/air-is-matter/internal/forecast"
	"github.com/datashowme-me/air-is-matter/internal/provider/aqicn"
	"github.com/datashowme-me/air-is-matter/internal/provider/gemini"
	"github.com/datashowme-me/air-is-matter/internal/provider/openmeteo"
	"github.com/datashowme-me/air-is-matter/internal/provider/resilience"
	"github.com/datashowme-me/air-is-matter/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	serviceName := cfg.Observability.ServiceName

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	log := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting air quality forecast API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Observability.OTLPEndpoint,
		Enabled:        cfg.Observability.TracingEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Build resilient HTTP clients and register them for the ops surface.
	registry := resilience.NewRegistry()

	aqicnHTTP := newProviderClient(aqicn.ProviderName, cfg.Providers.Timeout, registry)
	stationClient := aqicn.NewClient(aqicn.ClientConfig{
		Token:      cfg.Providers.AQICNToken,
		BaseURL:    cfg.Providers.AQICNBaseURL,
		HTTPClient: aqicnHTTP,
	})

	openmeteoHTTP := newProviderClient(openmeteo.ProviderName, cfg.Providers.Timeout, registry)
	secondaryClient := openmeteo.NewClient(openmeteo.ClientConfig{
		BaseURL:    cfg.Providers.OpenMeteoBaseURL,
		HTTPClient: openmeteoHTTP,
	})

	serviceConfig := forecast.ServiceConfig{
		Stations:             stationClient,
		StationProvider:      aqicn.ProviderName,
		StationAttribution:   aqicn.Attribution,
		Secondary:            secondaryClient,
		SecondaryProvider:    openmeteo.ProviderName,
		SecondaryAttribution: openmeteo.Attribution,
		Registry:             registry,
		Logger:               log,
		HorizonDays:          cfg.Forecast.HorizonDays,
		CacheTTL:             cfg.Forecast.CacheTTL,
	}

	if cfg.Providers.GeminiAPIKey != "" {
		geminiHTTP := newProviderClient(gemini.ProviderName, cfg.Providers.Timeout, registry)
		serviceConfig.Estimator = gemini.NewClient(gemini.ClientConfig{
			APIKey:     cfg.Providers.GeminiAPIKey,
			BaseURL:    cfg.Providers.GeminiBaseURL,
			HTTPClient: geminiHTTP,
			Logger:     log,
		})
		serviceConfig.EstimatorProvider = gemini.ProviderName
		log.Info().Msg("estimation fallback enabled")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set - cities without station coverage will return 404")
	}

	forecastService, err := forecast.NewService(serviceConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize forecast service")
	}
	log.Info().
		Int("horizon_days", cfg.Forecast.HorizonDays).
		Dur("cache_ttl", cfg.Forecast.CacheTTL).
		Msg("forecast service initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		ForecastService: forecastService,
		Registry:        registry,
		CalendarHost:    cfg.Calendar.Host,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// newProviderClient builds a resilient HTTP client for one upstream
// provider and registers it for health reporting.
func newProviderClient(name string, timeout time.Duration, registry *resilience.Registry) *resilience.Client {
	clientConfig := resilience.DefaultClientConfig(name)
	if timeout != 0 {
		clientConfig.Timeout = timeout
	}
	client := resilience.NewClient(clientConfig)
	registry.Register(client)
	return client
}
