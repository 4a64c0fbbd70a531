// Package inference turns a collected record into a class assignment.
package inference

import (
	"context"
	"errors"
	"fmt"

	"phenomap/ml"
	"phenomap/schema"
)

var (
	ErrLabelOutOfRange  = errors.New("predicted label has no probability entry")
	ErrModelUnavailable = errors.New("model unavailable")
)

type Result struct {
	Label      int     `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Infer calls Predict and PredictProba once each and returns the
// predicted label with the probability at the label's index under the
// record schema's indexing convention. The classifier must have been
// fitted on the record's column order; nothing here checks that.
// Classifier errors are returned as is.
func Infer(ctx context.Context, record schema.Record, clf ml.Classifier) (Result, error) {
	if clf == nil {
		return Result{}, ErrModelUnavailable
	}
	features := record.Values()
	label, err := clf.Predict(ctx, features)
	if err != nil {
		return Result{}, err
	}
	proba, err := clf.PredictProba(ctx, features)
	if err != nil {
		return Result{}, err
	}

	indexing := schema.ZeroBased
	if s := record.Schema(); s != nil {
		indexing = s.Indexing
	}
	idx := indexing.IndexFor(label)
	if idx < 0 || idx >= len(proba) {
		return Result{}, fmt.Errorf("%w: label %d maps to index %d of %d", ErrLabelOutOfRange, label, idx, len(proba))
	}
	return Result{Label: label, Confidence: proba[idx]}, nil
}
