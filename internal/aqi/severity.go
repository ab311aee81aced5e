package aqi

// Severity is the health severity tier of an air quality index value,
// following the US EPA breakpoints.
type Severity int

const (
	SeverityGood Severity = iota
	SeverityModerate
	SeverityUnhealthySensitive
	SeverityUnhealthy
	SeverityVeryUnhealthy
	SeverityHazardous
)

// Classify maps an AQI value to its severity tier. Bounds are inclusive
// upper bounds per the US EPA convention. The function is total: values
// below zero classify as Good and values above 300 as Hazardous, without
// clamping the index itself.
func Classify(aqi int) Severity {
	switch {
	case aqi <= 50:
		return SeverityGood
	case aqi <= 100:
		return SeverityModerate
	case aqi <= 150:
		return SeverityUnhealthySensitive
	case aqi <= 200:
		return SeverityUnhealthy
	case aqi <= 300:
		return SeverityVeryUnhealthy
	default:
		return SeverityHazardous
	}
}

// Label returns the health status label for the tier.
func (s Severity) Label() string {
	switch s {
	case SeverityGood:
		return "Good"
	case SeverityModerate:
		return "Moderate"
	case SeverityUnhealthySensitive:
		return "Unhealthy for Sensitive Groups"
	case SeverityUnhealthy:
		return "Unhealthy"
	case SeverityVeryUnhealthy:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// Marker returns the visual severity marker used in calendar event titles.
func (s Severity) Marker() string {
	switch s {
	case SeverityGood:
		return "🟢"
	case SeverityModerate:
		return "🟡"
	case SeverityUnhealthySensitive:
		return "🟠"
	case SeverityUnhealthy:
		return "🔴"
	case SeverityVeryUnhealthy:
		return "🟣"
	default:
		return "🟤"
	}
}
