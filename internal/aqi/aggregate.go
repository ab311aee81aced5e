package aqi

import (
	"fmt"
	"sort"
)

// Sample is one dated value within a provider series. Providers with
// sub-day granularity may emit multiple samples for the same date; the
// aggregator reduces those to the daily worst case.
type Sample struct {
	Date  Date
	Value float64
}

// SeriesSet groups the two input shapes the aggregator accepts.
// Combined carries an already-combined daily index stream; PerPollutant
// carries raw per-pollutant streams that need max-reduction. Either or
// both may be populated. For a given date a combined value wins over the
// per-pollutant maximum.
type SeriesSet struct {
	Combined     []Sample
	PerPollutant map[Pollutant][]Sample
}

// IsEmpty reports whether the set carries no samples at all.
func (s SeriesSet) IsEmpty() bool {
	if len(s.Combined) > 0 {
		return false
	}
	for _, series := range s.PerPollutant {
		if len(series) > 0 {
			return false
		}
	}
	return true
}

// Override is a same-day instantaneous authoritative reading. It replaces
// the aggregated record for its date in full; pollutant fields it does not
// carry inherit the aggregated values where available.
type Override struct {
	AQI         int
	Description string
	Pollutants  PollutantReading
}

// AggregateOptions tunes a single aggregation run.
type AggregateOptions struct {
	// StationName is the resolved station label used in generated
	// record descriptions.
	StationName string

	// Today is the caller's current civil date; required when Override
	// is set.
	Today Date

	// Override, when non-nil, replaces the record for Today.
	Override *Override
}

// Aggregate merges the given series into one sorted sequence of daily
// records, one per distinct date. An empty set with no override yields an
// empty (non-nil error free) result; the caller decides whether that is
// fatal.
func Aggregate(set SeriesSet, opts AggregateOptions) []DailyRecord {
	byDate := make(map[Date]*dayAccumulator)

	for pollutant, series := range set.PerPollutant {
		for _, sample := range series {
			acc := accumulatorFor(byDate, sample.Date)
			acc.addPollutant(pollutant, sample.Value)
		}
	}

	for _, sample := range set.Combined {
		acc := accumulatorFor(byDate, sample.Date)
		acc.addCombined(sample.Value)
	}

	records := make([]DailyRecord, 0, len(byDate))
	for date, acc := range byDate {
		records = append(records, acc.record(date, opts.StationName))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	if opts.Override != nil {
		records = applyOverride(records, opts.Today, *opts.Override, opts.StationName)
	}

	return records
}

// dayAccumulator collects the per-date inputs before record construction.
type dayAccumulator struct {
	pollutants  PollutantReading
	maxIndex    float64
	hasIndex    bool
	combined    float64
	hasCombined bool
}

func accumulatorFor(byDate map[Date]*dayAccumulator, date Date) *dayAccumulator {
	acc, ok := byDate[date]
	if !ok {
		acc = &dayAccumulator{}
		byDate[date] = acc
	}
	return acc
}

// addPollutant folds in one per-pollutant sample. Sub-day duplicates keep
// the maximum, worst case drives health-relevant reporting.
func (a *dayAccumulator) addPollutant(p Pollutant, value float64) {
	if prev, ok := a.pollutants.Get(p); !ok || value > prev {
		a.pollutants.Set(p, value)
	}
	if !a.hasIndex || value > a.maxIndex {
		a.maxIndex = value
		a.hasIndex = true
	}
}

// addCombined folds in one pre-combined index sample, again keeping the
// sub-day maximum.
func (a *dayAccumulator) addCombined(value float64) {
	if !a.hasCombined || value > a.combined {
		a.combined = value
		a.hasCombined = true
	}
}

func (a *dayAccumulator) record(date Date, station string) DailyRecord {
	index := a.maxIndex
	if a.hasCombined {
		index = a.combined
	}

	aqi := int(index + 0.5)
	rec := DailyRecord{
		Date:        date,
		AQI:         aqi,
		Severity:    Classify(aqi),
		Description: describeDaily(date, station),
	}
	if !a.pollutants.IsEmpty() {
		reading := a.pollutants
		rec.Pollutants = &reading
	}
	return rec
}

// applyOverride replaces (or inserts) the record for today with the
// instantaneous reading. Pollutant fields absent from the override inherit
// the aggregated values; a field absent from both stays absent, never zero.
func applyOverride(records []DailyRecord, today Date, o Override, station string) []DailyRecord {
	description := o.Description
	if description == "" {
		description = describeCurrent(station)
	}

	replacement := DailyRecord{
		Date:        today,
		AQI:         o.AQI,
		Severity:    Classify(o.AQI),
		Description: description,
	}

	var prior *PollutantReading
	idx := -1
	for i := range records {
		if records[i].Date == today {
			idx = i
			prior = records[i].Pollutants
			break
		}
	}

	merged := PollutantReading{}
	for _, p := range Pollutants {
		if v, ok := o.Pollutants.Get(p); ok {
			merged.Set(p, v)
		} else if v, ok := prior.Get(p); ok {
			merged.Set(p, v)
		}
	}
	if !merged.IsEmpty() {
		replacement.Pollutants = &merged
	}

	if idx >= 0 {
		out := make([]DailyRecord, len(records))
		copy(out, records)
		out[idx] = replacement
		return out
	}

	out := append(append([]DailyRecord{}, records...), replacement)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func describeDaily(date Date, station string) string {
	if station == "" {
		return fmt.Sprintf("Daily air quality forecast for %s.", date)
	}
	return fmt.Sprintf("Daily air quality forecast for %s. Based on %s station data.", date, station)
}

func describeCurrent(station string) string {
	if station == "" {
		return "Current air quality reading."
	}
	return fmt.Sprintf("Current air quality recorded at %s.", station)
}
