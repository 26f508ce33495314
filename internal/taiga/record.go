// Package taiga reads tracker records from a Taiga project, either live from
// the REST API or from CSV exports using the same column names.
package taiga

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one tracker row as column name -> raw text value.
// JSON nulls and missing columns read as "".
type Record map[string]string

// Get returns the trimmed value of a column
func (r Record) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// decodeRecord flattens one JSON object into a Record.
// Nested objects and arrays are kept as their JSON text.
func decodeRecord(raw json.RawMessage) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	rec := make(Record, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case nil:
			rec[k] = ""
		case string:
			rec[k] = val
		case json.Number:
			rec[k] = val.String()
		case bool:
			rec[k] = strconv.FormatBool(val)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("failed to encode field %s: %w", k, err)
			}
			rec[k] = string(b)
		}
	}
	return rec, nil
}

func decodeRecords(raws []json.RawMessage) ([]Record, error) {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
