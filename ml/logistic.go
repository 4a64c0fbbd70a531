package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// LogisticRegression is a fitted multinomial (softmax) linear model.
type LogisticRegression struct {
	coefficients [][]float64
	intercepts   []float64
	classes      []int
}

func NewLogisticRegression(coefficients [][]float64, intercepts []float64, classes []int, featureCount int) (*LogisticRegression, error) {
	if len(classes) == 0 {
		return nil, errors.New("logistic regression has no classes")
	}
	if len(coefficients) != len(classes) || len(intercepts) != len(classes) {
		return nil, fmt.Errorf("logistic regression: %d coefficient rows and %d intercepts for %d classes", len(coefficients), len(intercepts), len(classes))
	}
	for i, row := range coefficients {
		if len(row) != featureCount {
			return nil, fmt.Errorf("logistic regression: class %d has %d coefficients, want %d", classes[i], len(row), featureCount)
		}
	}
	return &LogisticRegression{
		coefficients: coefficients,
		intercepts:   intercepts,
		classes:      append([]int(nil), classes...),
	}, nil
}

func (lr *LogisticRegression) Predict(ctx context.Context, features []float64) (int, error) {
	proba, err := lr.PredictProba(ctx, features)
	if err != nil {
		return 0, err
	}
	return lr.classes[argmax(proba)], nil
}

func (lr *LogisticRegression) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(features) != len(lr.coefficients[0]) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrFeatureCount, len(lr.coefficients[0]), len(features))
	}
	scores := make([]float64, len(lr.classes))
	maxScore := math.Inf(-1)
	for k, row := range lr.coefficients {
		z := lr.intercepts[k]
		for j, w := range row {
			z += w * features[j]
		}
		scores[k] = z
		if z > maxScore {
			maxScore = z
		}
	}
	sum := 0.0
	for k := range scores {
		scores[k] = math.Exp(scores[k] - maxScore)
		sum += scores[k]
	}
	for k := range scores {
		scores[k] /= sum
	}
	return scores, nil
}
