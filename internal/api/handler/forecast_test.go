package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datashowme-me/air-is-matter/internal/api/handler"
	"github.com/datashowme-me/air-is-matter/internal/api/models"
	"github.com/datashowme-me/air-is-matter/internal/aqi"
	"github.com/datashowme-me/air-is-matter/internal/forecast"
)

type fakeService struct {
	forecast *aqi.Forecast
	err      error
	lastCity string
}

func (f *fakeService) Forecast(_ context.Context, city string) (*aqi.Forecast, error) {
	f.lastCity = city
	if f.err != nil {
		return nil, f.err
	}
	return f.forecast, nil
}

func sampleForecast(t *testing.T) *aqi.Forecast {
	t.Helper()

	d1, err := aqi.ParseDate("2024-06-01")
	require.NoError(t, err)
	d2 := d1.Next()

	pm := 22.5
	return &aqi.Forecast{
		City: "Amsterdam-Vondelpark",
		Days: []aqi.DailyRecord{
			{Date: d1, AQI: 55, Severity: aqi.SeverityModerate, Description: "Hazy.", Pollutants: &aqi.PollutantReading{PM25: &pm}},
			{Date: d2, AQI: 42, Severity: aqi.SeverityGood, Description: "Clearing."},
		},
		Sources: []aqi.Source{{Title: "Station Net", URI: "https://stations.example"}},
		Origin:  aqi.OriginMeasured,
	}
}

func TestGetForecast(t *testing.T) {
	svc := &fakeService{forecast: sampleForecast(t)}
	h := handler.NewForecastHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/forecast?city=Amsterdam", http.NoBody)
	rec := httptest.NewRecorder()
	h.GetForecast(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Amsterdam", svc.lastCity)

	var body models.ForecastResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Amsterdam-Vondelpark", body.City)
	assert.Equal(t, "MEASURED", body.Origin)
	require.Len(t, body.Days, 2)
	assert.Equal(t, "2024-06-01", body.Days[0].Date)
	assert.Equal(t, 55, body.Days[0].AQI)
	assert.Equal(t, "Moderate", body.Days[0].Status)
	require.NotNil(t, body.Days[0].Pollutants)
	assert.Nil(t, body.Days[1].Pollutants)
	require.Len(t, body.Sources, 1)
}

func TestGetForecast_MissingCity(t *testing.T) {
	h := handler.NewForecastHandler(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/forecast", http.NoBody)
	rec := httptest.NewRecorder()
	h.GetForecast(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "city")
}

func TestGetForecast_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", fmt.Errorf("resolve: %w", forecast.ErrNotFound), http.StatusNotFound},
		{"upstream down", fmt.Errorf("feed: %w", forecast.ErrUpstreamUnavailable), http.StatusBadGateway},
		{"misconfigured", fmt.Errorf("token: %w", forecast.ErrConfiguration), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewForecastHandler(&fakeService{err: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/v1/forecast?city=x", http.NoBody)
			rec := httptest.NewRecorder()
			h.GetForecast(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}
