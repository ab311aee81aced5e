package handler

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/datashowme-me/air-is-matter/internal/api/models"
	"github.com/datashowme-me/air-is-matter/internal/api/response"
	"github.com/datashowme-me/air-is-matter/internal/ical"
)

// filenameSanitizer collapses anything that is not a letter or digit
// into a single hyphen for attachment filenames.
var filenameSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// CalendarHandler serves forecasts as an iCalendar subscription feed.
type CalendarHandler struct {
	service ForecastService
	host    string
	now     func() time.Time
}

// NewCalendarHandler creates a new CalendarHandler. The host appears in
// event UIDs; empty falls back to the encoder default.
func NewCalendarHandler(service ForecastService, host string) *CalendarHandler {
	return &CalendarHandler{service: service, host: host, now: time.Now}
}

// GetCalendar handles GET /api/ics?city=<query>.
func (h *CalendarHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		response.BadRequest(w, r, "city query parameter is required", []models.FieldError{
			{Field: "city", Message: "must not be empty", Code: "REQUIRED"},
		})
		return
	}

	f, err := h.service.Forecast(r.Context(), city)
	if err != nil {
		writeForecastError(w, r, city, err)
		return
	}

	data, err := ical.Encode(f, h.now(), h.host)
	if err != nil {
		response.InternalError(w, r, "failed to encode calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", calendarFilename(city)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func calendarFilename(city string) string {
	slug := filenameSanitizer.ReplaceAllString(strings.ToLower(city), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "forecast"
	}
	return "aqi-" + slug + ".ics"
}
