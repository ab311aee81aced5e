package aqi

import (
	"fmt"
	"math"
)

// trendWindow is how many trailing records feed the trend estimate.
const trendWindow = 3

// trendDamping shrinks the per-day trend step for each synthetic day, so
// long extensions flatten toward the last observed level instead of
// running away.
const trendDamping = 0.7

// Extend appends synthetic records after the last authoritative record
// until the sequence reaches targetLength. Authoritative records are kept
// verbatim; synthetic dates are contiguous, one day apart, starting the
// day after the last authoritative date. Synthetic indices continue the
// damped trend of the trailing window and are re-classified, so AQI and
// Severity stay consistent.
//
// When the input is empty or already at least targetLength long, the input
// is returned unchanged.
func Extend(authoritative []DailyRecord, targetLength int, city string) []DailyRecord {
	if len(authoritative) == 0 || len(authoritative) >= targetLength {
		return authoritative
	}

	out := make([]DailyRecord, len(authoritative), targetLength)
	copy(out, authoritative)

	step := trendStep(authoritative)
	level := float64(authoritative[len(authoritative)-1].AQI)
	date := authoritative[len(authoritative)-1].Date

	for len(out) < targetLength {
		level += step
		if level < 0 {
			level = 0
		}
		step *= trendDamping

		date = date.Next()
		aqi := int(math.Round(level))
		out = append(out, DailyRecord{
			Date:        date,
			AQI:         aqi,
			Severity:    Classify(aqi),
			Description: describeEstimated(date, city),
		})
	}

	return out
}

// trendStep estimates the per-day index change over the trailing window.
func trendStep(records []DailyRecord) float64 {
	window := trendWindow
	if len(records) < window {
		window = len(records)
	}
	if window < 2 {
		return 0
	}

	tail := records[len(records)-window:]
	return float64(tail[len(tail)-1].AQI-tail[0].AQI) / float64(window-1)
}

func describeEstimated(date Date, city string) string {
	if city == "" {
		return fmt.Sprintf("Estimated air quality for %s based on the recent trend.", date)
	}
	return fmt.Sprintf("Estimated air quality for %s in %s based on the recent trend.", date, city)
}
