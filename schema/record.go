package schema

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

var ErrInvalidInput = errors.New("invalid input")

// Record is one row of clinical values in schema column order. It is
// immutable once collected.
type Record struct {
	schema *Schema
	values []float64
}

func (r Record) Schema() *Schema { return r.schema }

func (r Record) Columns() []string {
	if r.schema == nil {
		return nil
	}
	return r.schema.Columns()
}

// Values returns a copy of the row, in column order.
func (r Record) Values() []float64 {
	return append([]float64(nil), r.values...)
}

func (r Record) Get(name string) (float64, bool) {
	if r.schema == nil {
		return 0, false
	}
	i, ok := r.schema.index[name]
	if !ok {
		return 0, false
	}
	return r.values[i], true
}

// Map returns the row keyed by field name.
func (r Record) Map() map[string]float64 {
	out := make(map[string]float64, len(r.values))
	for i, name := range r.Columns() {
		out[name] = r.values[i]
	}
	return out
}

// Display returns the value formatted for its field kind.
func (r Record) Display(name string) string {
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	f, _ := r.schema.Field(name)
	switch f.Kind {
	case Flag:
		if v == 1 {
			return "Yes"
		}
		return "No"
	case Int:
		return strconv.FormatInt(int64(v), 10)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// Collect builds a record from raw form values. Missing or blank fields
// take their defaults; out-of-range numbers are clamped. A key that is not
// a field of the schema is an error.
func (s *Schema) Collect(values map[string]string) (Record, error) {
	var unknown []string
	for k := range values {
		if _, ok := s.index[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Record{}, fmt.Errorf("%w: unknown fields for %s: %s", ErrInvalidInput, s.Name, strings.Join(unknown, ", "))
	}

	row := make([]float64, len(s.Fields))
	for i, f := range s.Fields {
		raw, ok := values[f.Name]
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			row[i] = f.Default
			continue
		}
		v, err := f.parse(raw)
		if err != nil {
			return Record{}, err
		}
		row[i] = f.Clamp(v)
	}
	return Record{schema: s, values: row}, nil
}

func (f Field) parse(raw string) (float64, error) {
	if f.Kind == Flag {
		switch cases.Fold().String(raw) {
		case "yes", "y", "true", "1":
			return 1, nil
		case "no", "n", "false", "0":
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %s must be Yes or No, got %q", ErrInvalidInput, f.Name, raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidInput, f.Name, raw)
	}
	return v, nil
}
