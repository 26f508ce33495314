package parser

import "fmt"

// Anomaly describes a field that could not be extracted from a remote record.
// The field is degraded to null and the record is kept.
type Anomaly struct {
	Field  string
	Value  string
	Reason string
}

func (a Anomaly) Error() string {
	if a.Value == "" {
		return fmt.Sprintf("%s: %s", a.Field, a.Reason)
	}
	return fmt.Sprintf("%s %q: %s", a.Field, a.Value, a.Reason)
}

func anomaly(field, value, reason string) *Anomaly {
	return &Anomaly{Field: field, Value: value, Reason: reason}
}
