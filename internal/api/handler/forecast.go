// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/datashowme-me/air-is-matter/internal/api/models"
	"github.com/datashowme-me/air-is-matter/internal/api/response"
	"github.com/datashowme-me/air-is-matter/internal/aqi"
	"github.com/datashowme-me/air-is-matter/internal/forecast"
)

// ForecastService builds forecasts for free-text city queries.
type ForecastService interface {
	Forecast(ctx context.Context, city string) (*aqi.Forecast, error)
}

// ForecastHandler serves forecast data as JSON.
type ForecastHandler struct {
	service ForecastService
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(service ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// GetForecast handles GET /v1/forecast?city=<query>.
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		response.BadRequest(w, r, "city query parameter is required", []models.FieldError{
			{Field: "city", Message: "must not be empty", Code: "REQUIRED"},
		})
		return
	}

	f, err := h.service.Forecast(r.Context(), city)
	if err != nil {
		writeForecastError(w, r, city, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewForecastResponse(f))
}

// writeForecastError maps facade errors to problem responses. Shared with
// the calendar handler.
func writeForecastError(w http.ResponseWriter, r *http.Request, city string, err error) {
	switch {
	case errors.Is(err, forecast.ErrNotFound):
		response.NotFound(w, r, "no air quality data found for "+city)
	case errors.Is(err, forecast.ErrUpstreamUnavailable):
		response.BadGateway(w, r, "upstream air quality providers are unavailable")
	case errors.Is(err, forecast.ErrConfiguration):
		response.InternalError(w, r, "service is not configured for this request")
	default:
		response.InternalError(w, r, "failed to build forecast")
	}
}
