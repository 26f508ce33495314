package parser

import (
	"strconv"
	"strings"
)

// tokens that various exports use for "no value"
var placeholders = map[string]bool{
	"":     true,
	"none": true,
	"nan":  true,
	"null": true,
	"nil":  true,
	"<na>": true,
	"nat":  true,
}

// IsPlaceholder reports whether s stands for a missing value
func IsPlaceholder(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}

// NullIfPlaceholder returns nil for placeholder values, otherwise a trimmed copy
func NullIfPlaceholder(s string) *string {
	if IsPlaceholder(s) {
		return nil
	}
	v := strings.TrimSpace(s)
	return &v
}

// NullIfPlaceholderPtr is NullIfPlaceholder for optional fields
func NullIfPlaceholderPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return NullIfPlaceholder(*s)
}

// ParseOptionalInt parses an optional integer column.
// "3", "3.0" -> 3; placeholders -> nil.
func ParseOptionalInt(field, s string) (*int, *Anomaly) {
	if IsPlaceholder(s) {
		return nil, nil
	}
	s = strings.TrimSpace(s)

	if n, err := strconv.Atoi(s); err == nil {
		return &n, nil
	}
	// spreadsheets turn integer columns with gaps into floats
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		n := int(f)
		return &n, nil
	}
	return nil, anomaly(field, s, "not an integer")
}

// ParseOptionalFloat parses an optional decimal column, defaulting to 0
func ParseOptionalFloat(field, s string) (float64, *Anomaly) {
	if IsPlaceholder(s) {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, anomaly(field, s, "not a number")
	}
	return f, nil
}

// ParseBool parses the boolean spellings found in Taiga CSV exports
func ParseBool(field, s string) (bool, *Anomaly) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "t":
		return true, nil
	case "false", "0", "no", "n", "f", "", "none", "nan":
		return false, nil
	default:
		return false, anomaly(field, s, "not a boolean")
	}
}
