package importer

import (
	"errors"
	"fmt"

	"github.com/balkashynov/taigit/internal/parser"
)

var (
	// ErrImportInFlight is returned when the same entity is already being imported
	ErrImportInFlight = errors.New("import already in progress")
	// ErrDependencyFailed is returned for tasks when members or user stories failed
	ErrDependencyFailed = errors.New("a required import failed")
	// ErrNoSource is returned when no tracker source or host provider is configured
	ErrNoSource = errors.New("no source configured")
)

// ImportError is a failed import of one entity. The entity's persisted
// table was left untouched.
type ImportError struct {
	Entity string
	Err    error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Entity, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Anomaly is a field of one row that was degraded to null during extraction,
// or a row that was skipped because its key was missing
type Anomaly struct {
	Entity string
	Row    string
	parser.Anomaly
}

func (a Anomaly) Error() string {
	if a.Row == "" {
		return fmt.Sprintf("%s: %s", a.Entity, a.Anomaly.Error())
	}
	return fmt.Sprintf("%s %s: %s", a.Entity, a.Row, a.Anomaly.Error())
}
