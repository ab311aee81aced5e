package models

import "github.com/datashowme-me/air-is-matter/internal/aqi"

// ForecastResponse is the JSON shape of a multi-day forecast.
type ForecastResponse struct {
	City    string        `json:"city"`
	Country string        `json:"country,omitempty"`
	Days    []ForecastDay `json:"days"`
	Sources []aqi.Source  `json:"sources,omitempty"`
	Origin  string        `json:"origin"`
}

// ForecastDay is one calendar day of air quality.
type ForecastDay struct {
	Date        string                `json:"date"`
	AQI         int                   `json:"aqi"`
	Status      string                `json:"status"`
	Description string                `json:"description,omitempty"`
	Pollutants  *aqi.PollutantReading `json:"pollutants,omitempty"`
}

// NewForecastResponse converts a canonical forecast into its JSON shape.
func NewForecastResponse(f *aqi.Forecast) ForecastResponse {
	days := make([]ForecastDay, 0, len(f.Days))
	for _, day := range f.Days {
		days = append(days, ForecastDay{
			Date:        day.Date.String(),
			AQI:         day.AQI,
			Status:      day.Severity.Label(),
			Description: day.Description,
			Pollutants:  day.Pollutants,
		})
	}
	return ForecastResponse{
		City:    f.City,
		Country: f.Country,
		Days:    days,
		Sources: f.Sources,
		Origin:  string(f.Origin),
	}
}
