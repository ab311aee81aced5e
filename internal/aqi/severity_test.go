package aqi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datashowme-me/air-is-matter/internal/aqi"
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		aqi  int
		want aqi.Severity
	}{
		{"zero", 0, aqi.SeverityGood},
		{"upper good", 50, aqi.SeverityGood},
		{"lower moderate", 51, aqi.SeverityModerate},
		{"upper moderate", 100, aqi.SeverityModerate},
		{"lower sensitive", 101, aqi.SeverityUnhealthySensitive},
		{"upper sensitive", 150, aqi.SeverityUnhealthySensitive},
		{"lower unhealthy", 151, aqi.SeverityUnhealthy},
		{"upper unhealthy", 200, aqi.SeverityUnhealthy},
		{"lower very unhealthy", 201, aqi.SeverityVeryUnhealthy},
		{"upper very unhealthy", 300, aqi.SeverityVeryUnhealthy},
		{"lower hazardous", 301, aqi.SeverityHazardous},
		{"extreme", 999, aqi.SeverityHazardous},
		{"negative classifies without clamping", -10, aqi.SeverityGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, aqi.Classify(tt.aqi))
		})
	}
}

func TestSeverity_Labels(t *testing.T) {
	assert.Equal(t, "Good", aqi.SeverityGood.Label())
	assert.Equal(t, "Moderate", aqi.SeverityModerate.Label())
	assert.Equal(t, "Unhealthy for Sensitive Groups", aqi.SeverityUnhealthySensitive.Label())
	assert.Equal(t, "Unhealthy", aqi.SeverityUnhealthy.Label())
	assert.Equal(t, "Very Unhealthy", aqi.SeverityVeryUnhealthy.Label())
	assert.Equal(t, "Hazardous", aqi.SeverityHazardous.Label())
}

func TestSeverity_MarkersAreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for s := aqi.SeverityGood; s <= aqi.SeverityHazardous; s++ {
		marker := s.Marker()
		assert.NotEmpty(t, marker)
		assert.False(t, seen[marker], "marker %s reused", marker)
		seen[marker] = true
	}
}
