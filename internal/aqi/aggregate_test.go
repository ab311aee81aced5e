package aqi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datashowme-me/air-is-matter/internal/aqi"
)

func mustDate(t *testing.T, s string) aqi.Date {
	t.Helper()
	d, err := aqi.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestAggregate_EmptyInputYieldsEmptySequence(t *testing.T) {
	records := aqi.Aggregate(aqi.SeriesSet{}, aqi.AggregateOptions{})
	assert.Empty(t, records)
}

func TestAggregate_CombinedSeriesPassesThrough(t *testing.T) {
	set := aqi.SeriesSet{
		Combined: []aqi.Sample{
			{Date: mustDate(t, "2024-06-01"), Value: 42},
			{Date: mustDate(t, "2024-06-02"), Value: 88},
			{Date: mustDate(t, "2024-06-03"), Value: 130},
		},
	}

	records := aqi.Aggregate(set, aqi.AggregateOptions{StationName: "Shenzhen"})
	require.Len(t, records, 3)

	assert.Equal(t, 42, records[0].AQI)
	assert.Equal(t, aqi.SeverityGood, records[0].Severity)
	assert.Equal(t, 88, records[1].AQI)
	assert.Equal(t, aqi.SeverityModerate, records[1].Severity)
	assert.Equal(t, 130, records[2].AQI)
	assert.Equal(t, aqi.SeverityUnhealthySensitive, records[2].Severity)

	// No pollutant readings were supplied, so none may appear.
	for _, rec := range records {
		assert.Nil(t, rec.Pollutants)
	}
}

func TestAggregate_PerPollutantMaxDrivesIndex(t *testing.T) {
	day1 := mustDate(t, "2024-06-01")
	day2 := mustDate(t, "2024-06-02")

	set := aqi.SeriesSet{
		PerPollutant: map[aqi.Pollutant][]aqi.Sample{
			aqi.PollutantPM25: {{Date: day1, Value: 12}, {Date: day2, Value: 40}},
			aqi.PollutantO3:   {{Date: day1, Value: 55}},
		},
	}

	records := aqi.Aggregate(set, aqi.AggregateOptions{StationName: "Test Station"})
	require.Len(t, records, 2)

	// Day 1: ozone 55 beats PM2.5 12.
	assert.Equal(t, day1, records[0].Date)
	assert.Equal(t, 55, records[0].AQI)
	assert.Equal(t, aqi.SeverityModerate, records[0].Severity)

	// Day 2: only PM2.5 reported.
	assert.Equal(t, day2, records[1].Date)
	assert.Equal(t, 40, records[1].AQI)
	assert.Equal(t, aqi.SeverityGood, records[1].Severity)

	require.NotNil(t, records[0].Pollutants)
	pm25, ok := records[0].Pollutants.Get(aqi.PollutantPM25)
	require.True(t, ok)
	assert.Equal(t, 12.0, pm25)
	o3, ok := records[0].Pollutants.Get(aqi.PollutantO3)
	require.True(t, ok)
	assert.Equal(t, 55.0, o3)

	// Day 2 has no ozone reading; absence must be preserved, not zero.
	_, ok = records[1].Pollutants.Get(aqi.PollutantO3)
	assert.False(t, ok)
}

func TestAggregate_SubDaySamplesReduceToMaximum(t *testing.T) {
	day := mustDate(t, "2024-06-01")
	set := aqi.SeriesSet{
		PerPollutant: map[aqi.Pollutant][]aqi.Sample{
			aqi.PollutantPM10: {
				{Date: day, Value: 30},
				{Date: day, Value: 74},
				{Date: day, Value: 51},
			},
		},
	}

	records := aqi.Aggregate(set, aqi.AggregateOptions{})
	require.Len(t, records, 1)
	assert.Equal(t, 74, records[0].AQI)

	pm10, ok := records[0].Pollutants.Get(aqi.PollutantPM10)
	require.True(t, ok)
	assert.Equal(t, 74.0, pm10)
}

func TestAggregate_CombinedWinsOverPerPollutantForSameDate(t *testing.T) {
	day := mustDate(t, "2024-06-01")
	set := aqi.SeriesSet{
		Combined: []aqi.Sample{{Date: day, Value: 61}},
		PerPollutant: map[aqi.Pollutant][]aqi.Sample{
			aqi.PollutantPM25: {{Date: day, Value: 120}},
		},
	}

	records := aqi.Aggregate(set, aqi.AggregateOptions{})
	require.Len(t, records, 1)

	// The pre-combined index is authoritative for its date.
	assert.Equal(t, 61, records[0].AQI)

	// The per-pollutant value still lands in the reading.
	pm25, ok := records[0].Pollutants.Get(aqi.PollutantPM25)
	require.True(t, ok)
	assert.Equal(t, 120.0, pm25)
}

func TestAggregate_SortedUniqueDates(t *testing.T) {
	set := aqi.SeriesSet{
		PerPollutant: map[aqi.Pollutant][]aqi.Sample{
			aqi.PollutantPM25: {
				{Date: mustDate(t, "2024-06-03"), Value: 10},
				{Date: mustDate(t, "2024-06-01"), Value: 20},
			},
			aqi.PollutantO3: {
				{Date: mustDate(t, "2024-06-02"), Value: 30},
				{Date: mustDate(t, "2024-06-01"), Value: 40},
			},
		},
	}

	records := aqi.Aggregate(set, aqi.AggregateOptions{})
	require.Len(t, records, 3)

	seen := make(map[aqi.Date]bool)
	for i, rec := range records {
		assert.False(t, seen[rec.Date], "duplicate date %s", rec.Date)
		seen[rec.Date] = true
		if i > 0 {
			assert.True(t, records[i-1].Date.Before(rec.Date), "dates out of order")
		}
	}
}

func TestAggregate_OverrideReplacesTodayInFull(t *testing.T) {
	today := mustDate(t, "2024-06-01")
	tomorrow := mustDate(t, "2024-06-02")

	pm25 := 9.0
	set := aqi.SeriesSet{
		PerPollutant: map[aqi.Pollutant][]aqi.Sample{
			aqi.PollutantPM25: {{Date: today, Value: 40}, {Date: tomorrow, Value: 35}},
		},
	}

	override := &aqi.Override{AQI: 85, Pollutants: aqi.PollutantReading{PM25: &pm25}}
	records := aqi.Aggregate(set, aqi.AggregateOptions{
		StationName: "Amsterdam-Einsteinweg",
		Today:       today,
		Override:    override,
	})
	require.Len(t, records, 2)

	// Today is replaced, not augmented.
	assert.Equal(t, 85, records[0].AQI)
	assert.Equal(t, aqi.SeverityModerate, records[0].Severity)
	got, ok := records[0].Pollutants.Get(aqi.PollutantPM25)
	require.True(t, ok)
	assert.Equal(t, 9.0, got)

	// Tomorrow is untouched.
	assert.Equal(t, 35, records[1].AQI)
}

func TestAggregate_OverrideInheritsMissingPollutants(t *testing.T) {
	today := mustDate(t, "2024-06-01")

	set := aqi.SeriesSet{
		PerPollutant: map[aqi.Pollutant][]aqi.Sample{
			aqi.PollutantPM25: {{Date: today, Value: 18}},
			aqi.PollutantO3:   {{Date: today, Value: 44}},
		},
	}

	no2 := 21.5
	override := &aqi.Override{AQI: 52, Pollutants: aqi.PollutantReading{NO2: &no2}}
	records := aqi.Aggregate(set, aqi.AggregateOptions{Today: today, Override: override})
	require.Len(t, records, 1)

	rec := records[0]

	// Override's own field.
	v, ok := rec.Pollutants.Get(aqi.PollutantNO2)
	require.True(t, ok)
	assert.Equal(t, 21.5, v)

	// Inherited from the prior aggregate.
	v, ok = rec.Pollutants.Get(aqi.PollutantPM25)
	require.True(t, ok)
	assert.Equal(t, 18.0, v)
	v, ok = rec.Pollutants.Get(aqi.PollutantO3)
	require.True(t, ok)
	assert.Equal(t, 44.0, v)

	// Absent in both: stays absent, never coerced to zero.
	_, ok = rec.Pollutants.Get(aqi.PollutantCO)
	assert.False(t, ok)
}

func TestAggregate_OverrideWithoutSeriesInsertsToday(t *testing.T) {
	today := mustDate(t, "2024-06-01")

	records := aqi.Aggregate(aqi.SeriesSet{}, aqi.AggregateOptions{
		Today:    today,
		Override: &aqi.Override{AQI: 120},
	})
	require.Len(t, records, 1)
	assert.Equal(t, today, records[0].Date)
	assert.Equal(t, 120, records[0].AQI)
	assert.Equal(t, aqi.SeverityUnhealthySensitive, records[0].Severity)
	assert.Nil(t, records[0].Pollutants)
}
