// Package ical serializes a canonical forecast into an iCalendar (RFC 5545)
// subscription document. Output is fully deterministic for a fixed forecast
// and generation instant, which keeps the feed diffable and testable.
package ical

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/datashowme-me/air-is-matter/internal/aqi"
)

// Encoder invariant violations. These indicate a malformed forecast
// reaching the encoder, which the aggregator's own invariants should make
// impossible; the encoder rejects rather than emit a broken document.
var (
	ErrDuplicateDate = errors.New("duplicate date in forecast")
	ErrUnsortedDates = errors.New("forecast dates not sorted ascending")
)

const (
	// prodID identifies the generator in the calendar preamble.
	prodID = "-//Breathe is Matter//AQI Forecast//EN"

	// DefaultHost is the UID host context used when none is supplied.
	DefaultHost = "breathe-is-matter.com"

	crlf = "\r\n"
)

// Encode serializes the forecast into a calendar-subscription document:
// one all-day transparent event per daily record, CRLF line terminators,
// all free-text fields escaped. Event UIDs are unique within the document
// and stable for a fixed (generatedAt, index, host) triple.
func Encode(f *aqi.Forecast, generatedAt time.Time, host string) ([]byte, error) {
	if err := validate(f); err != nil {
		return nil, err
	}
	if host == "" {
		host = DefaultHost
	}

	timestamp := generatedAt.UTC().Format("20060102T150405Z")

	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:"+prodID)
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "METHOD:PUBLISH")
	writeLine(&b, "X-WR-CALNAME:"+escapeText("AQI Forecast - "+f.City))
	writeLine(&b, "X-WR-TIMEZONE:UTC")

	for i, day := range f.Days {
		writeLine(&b, "BEGIN:VEVENT")
		writeLine(&b, fmt.Sprintf("UID:%s-%d@%s", timestamp, i, host))
		writeLine(&b, "DTSTAMP:"+timestamp)
		writeLine(&b, "DTSTART;VALUE=DATE:"+day.Date.Compact())
		writeLine(&b, "SUMMARY:"+escapeText(summary(day)))
		writeLine(&b, "DESCRIPTION:"+escapeText(description(f.City, day)))
		writeLine(&b, "STATUS:CONFIRMED")
		// Transparent so subscribed days never show as busy.
		writeLine(&b, "TRANSP:TRANSPARENT")
		writeLine(&b, "END:VEVENT")
	}

	writeLine(&b, "END:VCALENDAR")
	return []byte(b.String()), nil
}

func validate(f *aqi.Forecast) error {
	for i := 1; i < len(f.Days); i++ {
		prev, cur := f.Days[i-1].Date, f.Days[i].Date
		if prev == cur {
			return fmt.Errorf("%w: %s", ErrDuplicateDate, cur)
		}
		if cur.Before(prev) {
			return fmt.Errorf("%w: %s after %s", ErrUnsortedDates, prev, cur)
		}
	}
	return nil
}

// summary renders the event title: severity marker, index, status label.
func summary(day aqi.DailyRecord) string {
	return fmt.Sprintf("%s AQI: %d (%s)", day.Severity.Marker(), day.AQI, day.Severity.Label())
}

// description renders the event body: location, status, record description
// and, when any non-zero value is present, a pollutant summary line.
func description(city string, day aqi.DailyRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Forecast for %s. Status: %s. %s", city, day.Severity.Label(), day.Description)

	if line := pollutantLine(day.Pollutants); line != "" {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

// pollutantLine lists present, non-zero pollutant values in the fixed
// reporting order. Absent and exactly-zero values are omitted; an empty
// string means the whole line is skipped.
func pollutantLine(r *aqi.PollutantReading) string {
	var parts []string
	for _, p := range aqi.Pollutants {
		v, ok := r.Get(p)
		if !ok || v == 0 {
			continue
		}
		parts = append(parts, p.Label()+": "+strconv.FormatFloat(v, 'f', -1, 64))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Pollutants (μg/m³): " + strings.Join(parts, ", ")
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString(crlf)
}
