package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"phenomap/schema"
)

const (
	TypeDecisionTree       = "decision_tree"
	TypeLogisticRegression = "logistic_regression"
)

// Artifact is the on-disk form of a fitted classifier.
type Artifact struct {
	Schema       string      `json:"schema"`
	Features     []string    `json:"features"`
	Classes      []int       `json:"classes"`
	ModelType    string      `json:"model_type"`
	Nodes        []TreeNode  `json:"nodes,omitempty"`
	Coefficients [][]float64 `json:"coefficients,omitempty"`
	Intercepts   []float64   `json:"intercepts,omitempty"`
}

func (a *Artifact) Save(path string) error {
	payload, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func ReadArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %w", ErrArtifactLoad, path, err)
	}
	var a Artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("%w (%s): %w", ErrArtifactLoad, path, err)
	}
	return &a, nil
}

// LoadModel reads the artifact at path and checks it against s before
// building the classifier. A model fitted on a different column order is
// rejected here instead of silently producing wrong assignments.
func LoadModel(path string, s *schema.Schema) (*Model, error) {
	a, err := ReadArtifact(path)
	if err != nil {
		return nil, err
	}
	if err := CheckSchema(a, s); err != nil {
		return nil, err
	}
	clf, err := a.classifier()
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %w", ErrArtifactLoad, path, err)
	}
	return &Model{
		Classifier: clf,
		Path:       path,
		Schema:     a.Schema,
		Type:       a.ModelType,
		Features:   a.Features,
		Classes:    a.Classes,
	}, nil
}

// CheckSchema reports whether the artifact was fitted on exactly the
// columns of s, in order, with a class list matching its label indexing.
func CheckSchema(a *Artifact, s *schema.Schema) error {
	if a.Schema != s.Name {
		return fmt.Errorf("%w: artifact schema %q, want %q", ErrSchemaMismatch, a.Schema, s.Name)
	}
	columns := s.Columns()
	if len(a.Features) != len(columns) {
		return fmt.Errorf("%w: artifact has %d features, %s has %d", ErrSchemaMismatch, len(a.Features), s.Name, len(columns))
	}
	for i, name := range columns {
		if a.Features[i] != name {
			return fmt.Errorf("%w: column %d is %q, want %q (artifact order: %s)",
				ErrSchemaMismatch, i, a.Features[i], name, strings.Join(a.Features, ","))
		}
	}
	if len(a.Classes) == 0 {
		return fmt.Errorf("%w: artifact has no classes", ErrSchemaMismatch)
	}
	for i, c := range a.Classes {
		if want := s.Indexing.LabelAt(i); c != want {
			return fmt.Errorf("%w: class %d at probability index %d, %s labels are %s", ErrSchemaMismatch, c, i, s.Name, s.Indexing)
		}
	}
	return nil
}

func (a *Artifact) classifier() (Classifier, error) {
	switch a.ModelType {
	case TypeDecisionTree:
		return NewDecisionTree(a.Nodes, a.Classes, len(a.Features))
	case TypeLogisticRegression:
		return NewLogisticRegression(a.Coefficients, a.Intercepts, a.Classes, len(a.Features))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, a.ModelType)
	}
}
