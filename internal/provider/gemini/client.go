// Package gemini provides an estimation client backed by the Gemini
// generateContent API. It synthesizes a full forecast with grounding
// sources when no measured sensor coverage exists for a location.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/datashowme-me/air-is-matter/internal/aqi"
	"github.com/datashowme-me/air-is-matter/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "gemini"

	// DefaultBaseURL is the Generative Language API base URL.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the model used for forecast estimation.
	DefaultModel = "gemini-2.5-flash"
)

// ClientConfig holds configuration for the Gemini client.
type ClientConfig struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// Model overrides the default model name.
	Model string

	// HTTPClient is the HTTP client to use (optional). If nil, uses a
	// resilient client with defaults.
	HTTPClient HTTPDoer

	// Logger for client operations.
	Logger zerolog.Logger
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Gemini estimation client implementing forecast.Estimator.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Gemini client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Request/response types for the generateContent API.

type generateRequest struct {
	Contents         []content         `json:"contents"`
	Tools            []tool            `json:"tools,omitempty"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content           content            `json:"content"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata"`
}

type groundingMetadata struct {
	GroundingChunks []groundingChunk `json:"groundingChunks"`
}

type groundingChunk struct {
	Web *webChunk `json:"web"`
}

type webChunk struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// estimatePayload is the structured JSON the model is asked to produce.
type estimatePayload struct {
	City     string          `json:"city"`
	Country  string          `json:"country"`
	Forecast []estimateEntry `json:"forecast"`
}

type estimateEntry struct {
	Date        aqi.Date              `json:"date"`
	AQI         float64               `json:"aqi"`
	Description string                `json:"description"`
	Pollutants  *aqi.PollutantReading `json:"pollutants"`
}

// Estimate synthesizes a forecast for the city over the given horizon.
// The model is asked for strict JSON and allowed to ground itself with
// web search; grounding sources are carried into the forecast.
func (c *Client) Estimate(ctx context.Context, city string, days int) (*aqi.Forecast, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: estimatePrompt(city, days)}}}},
		Tools:    []tool{{GoogleSearch: &struct{}{}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty model response")
	}

	cand := genResp.Candidates[0]

	var payload estimatePayload
	if err := json.Unmarshal([]byte(cand.Content.Parts[0].Text), &payload); err != nil {
		return nil, fmt.Errorf("decoding model payload: %w", err)
	}

	f := c.toForecast(city, &payload, cand.GroundingMetadata)
	c.logger.Debug().
		Str("city", f.City).
		Int("days", len(f.Days)).
		Int("sources", len(f.Sources)).
		Msg("estimated forecast")

	return f, nil
}

// toForecast converts the model payload into a canonical forecast. The
// model's own status strings are discarded; severity always derives from
// the index so records stay internally consistent.
func (c *Client) toForecast(query string, payload *estimatePayload, grounding *groundingMetadata) *aqi.Forecast {
	city := payload.City
	if city == "" {
		city = query
	}

	days := make([]aqi.DailyRecord, 0, len(payload.Forecast))
	seen := make(map[aqi.Date]bool)
	for _, entry := range payload.Forecast {
		if entry.Date.IsZero() || seen[entry.Date] {
			continue
		}
		seen[entry.Date] = true

		index := int(entry.AQI + 0.5)
		days = append(days, aqi.DailyRecord{
			Date:        entry.Date,
			AQI:         index,
			Severity:    aqi.Classify(index),
			Description: entry.Description,
			Pollutants:  entry.Pollutants,
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	return &aqi.Forecast{
		City:    city,
		Country: payload.Country,
		Days:    days,
		Sources: toSources(grounding),
		Origin:  aqi.OriginFullyEstimated,
	}
}

// toSources extracts unique web grounding sources.
func toSources(grounding *groundingMetadata) []aqi.Source {
	if grounding == nil {
		return nil
	}

	var sources []aqi.Source
	seen := make(map[string]bool)
	for _, chunk := range grounding.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" || chunk.Web.Title == "" {
			continue
		}
		if seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		sources = append(sources, aqi.Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return sources
}

func estimatePrompt(city string, days int) string {
	return fmt.Sprintf(`I need the Air Quality Index (AQI) forecast for %s for the next %d days starting from today.

Perform a web search to find the most accurate weather and air quality forecast. Estimate the AQI (US EPA standard) and key pollutant concentrations (PM2.5, PM10, O3, NO2, CO in μg/m³) from weather conditions when direct AQI data is not available, preferring real sources.

Return strict JSON only, shaped as:
{"city": string, "country": string, "forecast": [{"date": "YYYY-MM-DD", "aqi": number, "description": string, "pollutants": {"pm2_5": number, "pm10": number, "o3": number, "no2": number, "co": number}}]}

Omit pollutant fields you cannot estimate rather than writing zero.`, city, days)
}
