// Package openmeteo provides a client for the Open-Meteo air quality API.
// It supplies an hourly US-EPA combined index by coordinates and needs no
// credentials; the facade uses it as an optional secondary source.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/datashowme-me/air-is-matter/internal/aqi"
	"github.com/datashowme-me/air-is-matter/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "open-meteo"

	// DefaultBaseURL is the Open-Meteo air quality API base URL.
	DefaultBaseURL = "https://air-quality-api.open-meteo.com"
)

// Attribution is the source entry attached to forecasts that used this
// provider's data.
var Attribution = aqi.Source{
	Title: "Open-Meteo Air Quality API",
	URI:   "https://open-meteo.com/en/docs/air-quality-api",
}

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use. If nil, a default resilient
	// client is created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an Open-Meteo air quality client implementing
// forecast.SecondarySource.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout != 0 {
			rc.Timeout = cfg.Timeout
		}
		httpClient = resilience.NewClient(rc)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

type airQualityResponse struct {
	Hourly hourlyBlock `json:"hourly"`
}

type hourlyBlock struct {
	Time  []string   `json:"time"`
	USAQI []*float64 `json:"us_aqi"`
}

// FetchIndexSamples returns the hourly combined index as dated samples
// covering up to the requested number of forecast days. Hours without a
// value are skipped; the aggregator reduces the remaining sub-day samples
// to daily maxima.
func (c *Client) FetchIndexSamples(ctx context.Context, lat, lon float64, days int) ([]aqi.Sample, error) {
	u := fmt.Sprintf("%s/v1/air-quality?latitude=%.6f&longitude=%.6f&hourly=us_aqi&forecast_days=%d&timezone=UTC",
		c.baseURL, lat, lon, days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch air quality: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from air quality endpoint", resp.StatusCode)
	}

	var result airQualityResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode air quality response: %w", err)
	}

	if len(result.Hourly.Time) != len(result.Hourly.USAQI) {
		return nil, fmt.Errorf("mismatched hourly arrays: %d times, %d values",
			len(result.Hourly.Time), len(result.Hourly.USAQI))
	}

	samples := make([]aqi.Sample, 0, len(result.Hourly.Time))
	for i, stamp := range result.Hourly.Time {
		value := result.Hourly.USAQI[i]
		if value == nil {
			continue
		}
		// Hour stamps look like 2024-06-01T13:00; the civil date prefix
		// is all we need.
		if len(stamp) < 10 {
			continue
		}
		date, err := aqi.ParseDate(stamp[:10])
		if err != nil {
			continue
		}
		samples = append(samples, aqi.Sample{Date: date, Value: *value})
	}

	return samples, nil
}
