// Package config defines the service configuration, loaded once at
// startup from the environment (optionally seeded from a .env file) and
// immutable thereafter. A missing required value or invalid format fails
// startup immediately.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the top-level configuration for the service.
type Config struct {
	// System metadata.
	Environment string `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`

	Server        ServerConfig
	Providers     ProviderConfig
	Forecast      ForecastConfig
	Calendar      CalendarConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
}

// ProviderConfig holds upstream provider credentials and endpoints.
// Credentials are injected here and passed to clients at construction;
// nothing reads the environment past startup.
type ProviderConfig struct {
	// AQICNToken is the WAQI API token (required).
	AQICNToken string `envconfig:"AQICN_TOKEN" validate:"required"`

	// AQICNBaseURL overrides the WAQI API base URL.
	AQICNBaseURL string `envconfig:"AQICN_BASE_URL" default:""`

	// OpenMeteoBaseURL overrides the Open-Meteo air quality API base URL.
	OpenMeteoBaseURL string `envconfig:"OPEN_METEO_BASE_URL" default:""`

	// GeminiAPIKey enables the AI estimation fallback when set.
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" default:""`

	// GeminiBaseURL overrides the Gemini API base URL.
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL" default:""`

	// Timeout bounds individual upstream requests.
	Timeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`
}

// ForecastConfig tunes the forecast pipeline.
type ForecastConfig struct {
	// HorizonDays is the target forecast length.
	HorizonDays int `envconfig:"FORECAST_HORIZON_DAYS" default:"14" validate:"min=1,max=30"`

	// CacheTTL bounds how long built forecasts are reused.
	CacheTTL time.Duration `envconfig:"FORECAST_CACHE_TTL" default:"1h"`
}

// CalendarConfig tunes the iCalendar output.
type CalendarConfig struct {
	// Host is the domain used in event UIDs.
	Host string `envconfig:"CALENDAR_HOST" default:"breathe-is-matter.com" validate:"hostname"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	ServiceName    string `envconfig:"OTEL_SERVICE_NAME" default:"air-is-matter"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"dev"`
	OTLPEndpoint   string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	TracingEnabled bool   `envconfig:"TRACING_ENABLED" default:"false"`
}

// Load reads configuration from the environment. A .env file in the
// working directory seeds missing variables but never overrides set ones.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}
