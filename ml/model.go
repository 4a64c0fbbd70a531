package ml

import (
	"context"
	"errors"
)

var (
	ErrArtifactLoad     = errors.New("failed to load model artifact")
	ErrSchemaMismatch   = errors.New("model artifact does not match schema")
	ErrUnsupportedModel = errors.New("unsupported model type")
	ErrFeatureCount     = errors.New("feature count mismatch")
	ErrNotTrained       = errors.New("model not trained")
)

// Classifier is a fitted model. Features are passed in the column order
// the model was fitted on; PredictProba is ordered like the model's
// class list.
type Classifier interface {
	Predict(ctx context.Context, features []float64) (int, error)
	PredictProba(ctx context.Context, features []float64) ([]float64, error)
}

// Model is a classifier loaded from an artifact file, together with the
// metadata it was saved with.
type Model struct {
	Classifier
	Path     string
	Schema   string
	Type     string
	Features []string
	Classes  []int
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
