// Package aqicn provides a client for the World Air Quality Index (WAQI)
// API: station search for location resolution and station feeds carrying
// per-pollutant daily forecasts plus the real-time reading.
package aqicn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/datashowme-me/air-is-matter/internal/aqi"
	"github.com/datashowme-me/air-is-matter/internal/forecast"
	"github.com/datashowme-me/air-is-matter/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "aqicn"

	// DefaultBaseURL is the WAQI API base URL.
	DefaultBaseURL = "https://api.waqi.info"
)

// Attribution is the source entry attached to forecasts built from this
// provider's data.
var Attribution = aqi.Source{
	Title: "World Air Quality Index Project (AQICN)",
	URI:   "https://aqicn.org/",
}

// ClientConfig holds configuration for the WAQI client.
type ClientConfig struct {
	// Token is the WAQI API token (required).
	Token string

	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client is created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a WAQI API client implementing forecast.StationSource.
type Client struct {
	token      string
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new WAQI client.
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
		token:      cfg.Token,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// API response types (from the WAQI API).

type searchResponse struct {
	Status string         `json:"status"`
	Data   []searchResult `json:"data"`
}

type searchResult struct {
	UID     int         `json:"uid"`
	Station stationInfo `json:"station"`
}

type stationInfo struct {
	Name string    `json:"name"`
	Geo  []float64 `json:"geo"`
}

type feedResponse struct {
	Status string   `json:"status"`
	Data   feedData `json:"data"`
}

type feedData struct {
	// AQI is normally a number but the API reports "-" for stations
	// without a current reading, hence the raw message.
	AQI      json.RawMessage           `json:"aqi"`
	IAQI     map[string]instantReading `json:"iaqi"`
	City     stationInfo               `json:"city"`
	Forecast feedForecast              `json:"forecast"`
}

type instantReading struct {
	V float64 `json:"v"`
}

type feedForecast struct {
	Daily map[string][]dailyEntry `json:"daily"`
}

type dailyEntry struct {
	Day string  `json:"day"`
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// ResolveStation resolves a free-text city query to the most relevant
// monitoring station. Returns forecast.ErrNotFound when no station
// matches.
func (c *Client) ResolveStation(ctx context.Context, query string) (*forecast.Station, error) {
	u := fmt.Sprintf("%s/search/?token=%s&keyword=%s", c.baseURL, url.QueryEscape(c.token), url.QueryEscape(query))

	var result searchResponse
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, fmt.Errorf("search stations: %w", err)
	}

	if result.Status != "ok" {
		return nil, fmt.Errorf("search returned status %q", result.Status)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("no station matches %q: %w", query, forecast.ErrNotFound)
	}

	// The first result is the most relevant station.
	best := result.Data[0]
	station := &forecast.Station{
		UID:  strconv.Itoa(best.UID),
		Name: best.Station.Name,
	}
	if len(best.Station.Geo) == 2 {
		station.Lat = best.Station.Geo[0]
		station.Lon = best.Station.Geo[1]
	}
	return station, nil
}

// FetchFeed retrieves the station's detailed feed: per-pollutant daily
// forecast series and the real-time reading.
func (c *Client) FetchFeed(ctx context.Context, station *forecast.Station) (*forecast.StationFeed, error) {
	u := fmt.Sprintf("%s/feed/@%s/?token=%s", c.baseURL, station.UID, url.QueryEscape(c.token))

	var result feedResponse
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	if result.Status != "ok" {
		return nil, fmt.Errorf("feed returned status %q", result.Status)
	}

	feed := &forecast.StationFeed{
		Series:  c.toSeries(result.Data.Forecast.Daily),
		Current: c.toOverride(&result.Data),
	}
	return feed, nil
}

// toSeries converts the feed's daily pollutant arrays into per-pollutant
// sample series. Unknown pollutant keys (e.g. uvi) are skipped.
func (c *Client) toSeries(daily map[string][]dailyEntry) aqi.SeriesSet {
	set := aqi.SeriesSet{PerPollutant: make(map[aqi.Pollutant][]aqi.Sample)}

	for key, entries := range daily {
		pollutant := toPollutant(key)
		if pollutant == "" {
			continue
		}

		samples := make([]aqi.Sample, 0, len(entries))
		for _, entry := range entries {
			date, err := aqi.ParseDate(entry.Day)
			if err != nil {
				continue
			}
			samples = append(samples, aqi.Sample{Date: date, Value: entry.Avg})
		}
		if len(samples) > 0 {
			set.PerPollutant[pollutant] = samples
		}
	}
	return set
}

// toOverride builds the real-time override from the feed's combined AQI
// and per-pollutant instantaneous values. Returns nil when the station
// has no current combined reading.
func (c *Client) toOverride(data *feedData) *aqi.Override {
	var current float64
	if err := json.Unmarshal(data.AQI, &current); err != nil {
		return nil // "-" or absent
	}

	override := &aqi.Override{AQI: int(current + 0.5)}
	for key, reading := range data.IAQI {
		if pollutant := toPollutant(key); pollutant != "" {
			override.Pollutants.Set(pollutant, reading.V)
		}
	}
	return override
}

func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// toPollutant converts a WAQI pollutant key to our Pollutant type.
func toPollutant(key string) aqi.Pollutant {
	switch strings.ToLower(key) {
	case "pm25":
		return aqi.PollutantPM25
	case "pm10":
		return aqi.PollutantPM10
	case "o3":
		return aqi.PollutantO3
	case "no2":
		return aqi.PollutantNO2
	case "co":
		return aqi.PollutantCO
	default:
		return ""
	}
}
