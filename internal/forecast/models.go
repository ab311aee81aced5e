// Package forecast orchestrates the forecast pipeline: resolve a location,
// fetch provider data, aggregate and extend it into a canonical forecast.
package forecast

import (
	"errors"

	"github.com/datashowme-me/air-is-matter/internal/aqi"
)

// Facade errors. The HTTP layer maps these to response statuses.
var (
	// ErrNotFound means the location query could not be resolved to any
	// data source.
	ErrNotFound = errors.New("location not found")

	// ErrUpstreamUnavailable means a provider could not be reached, timed
	// out, or returned malformed or empty data for a resolved location.
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")

	// ErrConfiguration means required provider credentials are absent.
	ErrConfiguration = errors.New("provider credentials not configured")
)

// Station is a resolved air quality monitoring station.
type Station struct {
	UID  string
	Name string
	Lat  float64
	Lon  float64
}

// StationFeed is the measured data a station provider returns: the
// forecast series plus the real-time reading used as the same-day
// override.
type StationFeed struct {
	// Series holds the station's forecast streams.
	Series aqi.SeriesSet

	// Current is the instantaneous reading for the caller's current
	// civil date, nil when the station reports none.
	Current *aqi.Override
}
