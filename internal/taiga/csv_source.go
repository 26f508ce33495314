package taiga

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/balkashynov/taigit/internal/fetch"
)

// ErrNoCSV is returned when no CSV location was given for an entity
var ErrNoCSV = errors.New("no CSV location configured")

// CSVSource reads tracker tables from CSV exports, one file or URL per entity.
// Column names are the same as the API's JSON fields.
type CSVSource struct {
	client    *fetch.Client
	locations map[string]string
	log       *slog.Logger
}

var _ Source = (*CSVSource)(nil)

// NewCSVSource creates a source from entity -> path or URL
func NewCSVSource(client *fetch.Client, locations map[string]string, log *slog.Logger) *CSVSource {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CSVSource{client: client, locations: locations, log: log}
}

func (s *CSVSource) Sprints(ctx context.Context) ([]Record, error) {
	return s.read(ctx, EntitySprints)
}

func (s *CSVSource) Members(ctx context.Context) ([]Record, error) {
	return s.read(ctx, EntityMembers)
}

func (s *CSVSource) UserStories(ctx context.Context) ([]Record, error) {
	return s.read(ctx, EntityUserStories)
}

func (s *CSVSource) Tasks(ctx context.Context) ([]Record, error) {
	return s.read(ctx, EntityTasks)
}

func (s *CSVSource) read(ctx context.Context, entity string) ([]Record, error) {
	location, ok := s.locations[entity]
	if !ok || location == "" {
		return nil, fmt.Errorf("%s: %w", entity, ErrNoCSV)
	}

	r, err := s.open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	records, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV from %s: %w", entity, location, err)
	}
	s.log.Debug("read csv", "entity", entity, "location", location, "rows", len(records))
	return records, nil
}

func (s *CSVSource) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return s.client.Open(ctx, location)
	}

	file, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	return file, nil
}

// ReadCSV maps every data row onto the header row.
// Rows whose field count differs from the header are skipped.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	headers := rows[0]
	for i, h := range headers {
		// Excel prepends a byte order mark
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(headers) {
			continue
		}
		rec := make(Record, len(headers))
		for j, value := range row {
			rec[headers[j]] = value
		}
		records = append(records, rec)
	}
	return records, nil
}
