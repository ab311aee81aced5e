// Package aqi provides the canonical air quality forecast model and the
// normalization pipeline that produces it: severity classification, daily
// aggregation of provider series, and trend-based extension.
package aqi

import (
	"fmt"
	"time"
)

// Pollutant identifies a pollutant kind tracked in daily records.
type Pollutant string

const (
	PollutantPM25 Pollutant = "PM25"
	PollutantPM10 Pollutant = "PM10"
	PollutantO3   Pollutant = "O3"
	PollutantNO2  Pollutant = "NO2"
	PollutantCO   Pollutant = "CO"
)

// Pollutants lists all kinds in the fixed reporting order
// (fine particulate first, as in published summaries).
var Pollutants = []Pollutant{PollutantPM25, PollutantPM10, PollutantO3, PollutantNO2, PollutantCO}

// Label returns the human-readable name used in rendered summaries.
func (p Pollutant) Label() string {
	switch p {
	case PollutantPM25:
		return "PM2.5"
	case PollutantPM10:
		return "PM10"
	case PollutantO3:
		return "O3"
	case PollutantNO2:
		return "NO2"
	case PollutantCO:
		return "CO"
	default:
		return string(p)
	}
}

// Date is a civil calendar date with no time component or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf truncates an instant to its civil date in the instant's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Compact returns the date in YYYYMMDD form as used in calendar documents.
func (d Date) Compact() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, time.UTC))
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("date must be a JSON string, got %s", b)
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PollutantReading holds per-pollutant concentrations in µg/m³.
// Fields are pointers: a nil field means the pollutant was not reported,
// which is distinct from a measured zero.
type PollutantReading struct {
	PM25 *float64 `json:"pm2_5,omitempty"`
	PM10 *float64 `json:"pm10,omitempty"`
	O3   *float64 `json:"o3,omitempty"`
	NO2  *float64 `json:"no2,omitempty"`
	CO   *float64 `json:"co,omitempty"`
}

// Get returns the value for a pollutant kind and whether it was reported.
func (r *PollutantReading) Get(p Pollutant) (float64, bool) {
	if r == nil {
		return 0, false
	}
	var v *float64
	switch p {
	case PollutantPM25:
		v = r.PM25
	case PollutantPM10:
		v = r.PM10
	case PollutantO3:
		v = r.O3
	case PollutantNO2:
		v = r.NO2
	case PollutantCO:
		v = r.CO
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Set records a value for a pollutant kind.
func (r *PollutantReading) Set(p Pollutant, value float64) {
	v := value
	switch p {
	case PollutantPM25:
		r.PM25 = &v
	case PollutantPM10:
		r.PM10 = &v
	case PollutantO3:
		r.O3 = &v
	case PollutantNO2:
		r.NO2 = &v
	case PollutantCO:
		r.CO = &v
	}
}

// IsEmpty reports whether no pollutant was reported at all.
func (r *PollutantReading) IsEmpty() bool {
	if r == nil {
		return true
	}
	for _, p := range Pollutants {
		if _, ok := r.Get(p); ok {
			return false
		}
	}
	return true
}

// DailyRecord is the canonical unit of a forecast: one calendar day of
// air quality. AQI and Severity are always consistent
// (Severity == Classify(AQI)).
type DailyRecord struct {
	Date        Date
	AQI         int
	Severity    Severity
	Description string
	Pollutants  *PollutantReading
}

// Origin describes how a forecast's data came to be.
type Origin string

const (
	// OriginMeasured means every record derives from sensor measurements.
	OriginMeasured Origin = "MEASURED"

	// OriginPartiallyEstimated means measured records were extended with
	// synthetic trend-continuation records to reach the target horizon.
	OriginPartiallyEstimated Origin = "PARTIALLY_ESTIMATED"

	// OriginFullyEstimated means the whole forecast was synthesized
	// (AI estimation) without direct sensor coverage.
	OriginFullyEstimated Origin = "FULLY_ESTIMATED"
)

// Source attributes a forecast to an upstream data source.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Forecast is the canonical multi-day air quality forecast for one
// resolved location. It is immutable after construction: days are sorted
// ascending by date with no duplicates.
type Forecast struct {
	City    string
	Country string
	Days    []DailyRecord
	Sources []Source
	Origin  Origin
}
