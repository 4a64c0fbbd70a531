package schema

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrUnknownSchema = errors.New("unknown schema")

// Kind is the value domain of a field.
type Kind int

const (
	Float Kind = iota
	Int
	Flag
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case Flag:
		return "flag"
	default:
		return "unknown"
	}
}

// LabelIndexing maps a predicted label to its position in the
// probability vector returned by the classifier.
type LabelIndexing int

const (
	ZeroBased LabelIndexing = iota
	OneBased
)

// IndexFor returns the probability-vector index of label.
func (li LabelIndexing) IndexFor(label int) int {
	if li == OneBased {
		return label - 1
	}
	return label
}

// LabelAt is the inverse of IndexFor.
func (li LabelIndexing) LabelAt(index int) int {
	if li == OneBased {
		return index + 1
	}
	return index
}

func (li LabelIndexing) String() string {
	if li == OneBased {
		return "one_based"
	}
	return "zero_based"
}

type Field struct {
	Name    string
	Label   string
	Group   string
	Kind    Kind
	Min     float64
	Max     float64
	HasMax  bool
	Default float64
	Step    float64
}

// Clamp bounds v to the field's domain. Int and Flag values are rounded
// first.
func (f Field) Clamp(v float64) float64 {
	if f.Kind != Float {
		v = math.Round(v)
	}
	if v < f.Min {
		v = f.Min
	}
	if f.HasMax && v > f.Max {
		v = f.Max
	}
	return v
}

// Schema is an ordered field list. The order is the column order the
// classifier was fitted on.
type Schema struct {
	Name         string
	Title        string
	Fields       []Field
	Indexing     LabelIndexing
	Descriptions bool

	index map[string]int
}

func newSchema(s Schema) *Schema {
	s.index = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if _, dup := s.index[f.Name]; dup {
			panic(fmt.Sprintf("schema %s: duplicate field %s", s.Name, f.Name))
		}
		s.index[f.Name] = i
	}
	return &s
}

// Columns returns the field names in column order.
func (s *Schema) Columns() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Groups returns the distinct field groups in first-seen order.
func (s *Schema) Groups() []string {
	seen := make(map[string]bool)
	groups := make([]string, 0, 3)
	for _, f := range s.Fields {
		if !seen[f.Group] {
			seen[f.Group] = true
			groups = append(groups, f.Group)
		}
	}
	return groups
}

// Defaults returns a record holding every field's default value.
func (s *Schema) Defaults() Record {
	values := make([]float64, len(s.Fields))
	for i, f := range s.Fields {
		values[i] = f.Default
	}
	return Record{schema: s, values: values}
}

var registry = map[string]*Schema{
	Phenotype.Name:  Phenotype,
	Hematology.Name: Hematology,
}

// Lookup returns a registered schema by name.
func Lookup(name string) (*Schema, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	return s, nil
}

// All returns the registered schemas sorted by name.
func All() []*Schema {
	out := make([]*Schema, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
