package parser

import (
	"strings"
	"time"
)

// DisplayDateLayout is the calendar date format used in every report
const DisplayDateLayout = "01/02/2006"

// ReportZone is Arizona time: UTC-7 all year, no daylight saving
var ReportZone = time.FixedZone("MST", -7*60*60)

// timestamp layouts accepted from the host providers and CSV exports
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
}

// Localized is a commit timestamp split into its display date and UTC instant
type Localized struct {
	Date string    // MM/DD/YYYY in ReportZone
	UTC  time.Time // comparable, sortable
}

// LocalizeTimestamp parses a provider timestamp and converts it to the report zone.
// Timestamps without an offset are taken as UTC.
func LocalizeTimestamp(raw string) (Localized, *Anomaly) {
	raw = strings.TrimSpace(raw)
	if IsPlaceholder(raw) {
		return Localized{}, anomaly("utc_time", raw, "missing timestamp")
	}

	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		utc := t.UTC()
		return Localized{
			Date: utc.In(ReportZone).Format(DisplayDateLayout),
			UTC:  utc,
		}, nil
	}

	return Localized{}, anomaly("utc_time", raw, "unrecognized timestamp format")
}

// FormatTrackerDate converts a Taiga calendar date (YYYY-MM-DD) to MM/DD/YYYY.
// Taiga stores sprint dates as plain dates, so no zone conversion applies.
func FormatTrackerDate(raw string) (string, *Anomaly) {
	raw = strings.TrimSpace(raw)
	if IsPlaceholder(raw) {
		return "", nil
	}

	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Format(DisplayDateLayout), nil
	}
	// Already in display format (CSV exports)
	if t, err := time.Parse(DisplayDateLayout, raw); err == nil {
		return t.Format(DisplayDateLayout), nil
	}
	if loc, a := LocalizeTimestamp(raw); a == nil {
		return loc.Date, nil
	}

	return "", anomaly("date", raw, "unrecognized date format")
}

// ParseDisplayDate parses a MM/DD/YYYY date, returning the zero time when invalid
func ParseDisplayDate(s string) time.Time {
	t, err := time.Parse(DisplayDateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
