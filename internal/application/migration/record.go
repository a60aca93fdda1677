// internal/application/migration/record.go
package migration

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrMalformedExport = errors.New("migration: malformed export")
	ErrInvalidLegacyID = errors.New("migration: invalid legacy id")
)

// LegacyIDField is the export column carrying the legacy primary key.
const LegacyIDField = "id"

// Record is one flat row of a legacy export. Numbers are json.Number until
// Normalized is called.
type Record map[string]any

// ParseRecords decodes a JSON array of objects. Numbers keep their textual
// form so large numeric ids survive untouched.
func ParseRecords(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
	}

	out := make([]Record, 0, len(raw))
	for i, m := range raw {
		if m == nil {
			return nil, fmt.Errorf("%w: record %d is null", ErrMalformedExport, i)
		}
		out = append(out, Record(m))
	}
	return out, nil
}

// LegacyID returns the record id as a document id.
// Missing, null and blank ids report false.
func (r Record) LegacyID() (string, bool, error) {
	v, ok := r[LegacyIDField]
	if !ok || v == nil {
		return "", false, nil
	}

	var id string
	switch t := v.(type) {
	case string:
		id = strings.TrimSpace(t)
	case json.Number:
		id = t.String()
	case int:
		id = strconv.Itoa(t)
	case int64:
		id = strconv.FormatInt(t, 10)
	case float64:
		id = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return "", false, fmt.Errorf("%w: unsupported type %T", ErrInvalidLegacyID, v)
	}
	if id == "" {
		return "", false, nil
	}

	// Firestore document id rules
	if strings.Contains(id, "/") || id == "." || id == ".." ||
		(strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__")) {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidLegacyID, id)
	}
	return id, true, nil
}

// Normalized returns a copy with json.Number converted to int64 or float64,
// recursively, so the document store receives native numbers.
func (r Record) Normalized() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		return Record(t).Normalized()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalizeValue(t[i])
		}
		return out
	}
	return v
}
