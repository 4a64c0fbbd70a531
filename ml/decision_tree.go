package ml

import (
	"context"
	"errors"
	"fmt"
)

type DecisionTree struct {
	nodes   []TreeNode
	classes []int
}

// TreeNode is one node of a flattened tree. Leaves carry per-class sample
// counts (or weights) ordered like the tree's class list.
type TreeNode struct {
	FeatureIdx   int       `json:"feature_idx"`
	Threshold    float64   `json:"threshold"`
	LeftChild    int       `json:"left_child"`
	RightChild   int       `json:"right_child"`
	IsLeaf       bool      `json:"is_leaf"`
	Distribution []float64 `json:"distribution,omitempty"`
}

// NewDecisionTree validates a flattened tree against the class list and
// the number of input features.
func NewDecisionTree(nodes []TreeNode, classes []int, featureCount int) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, ErrNotTrained
	}
	if len(classes) == 0 {
		return nil, errors.New("decision tree has no classes")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			if len(node.Distribution) != len(classes) {
				return nil, fmt.Errorf("node %d: distribution has %d entries, want %d", i, len(node.Distribution), len(classes))
			}
			total := 0.0
			for _, w := range node.Distribution {
				if w < 0 {
					return nil, fmt.Errorf("node %d: negative class weight", i)
				}
				total += w
			}
			if total == 0 {
				return nil, fmt.Errorf("node %d: empty distribution", i)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= featureCount {
			return nil, fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		// children always follow their parent in the flattened layout
		if node.LeftChild <= i || node.LeftChild >= len(nodes) || node.RightChild <= i || node.RightChild >= len(nodes) {
			return nil, fmt.Errorf("node %d: invalid children %d/%d", i, node.LeftChild, node.RightChild)
		}
	}
	return &DecisionTree{nodes: nodes, classes: append([]int(nil), classes...)}, nil
}

func (dt *DecisionTree) Predict(ctx context.Context, features []float64) (int, error) {
	proba, err := dt.PredictProba(ctx, features)
	if err != nil {
		return 0, err
	}
	return dt.classes[argmax(proba)], nil
}

func (dt *DecisionTree) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(dt.nodes) == 0 {
		return nil, ErrNotTrained
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return normalize(node.Distribution), nil
		}
		if node.FeatureIdx >= len(features) {
			return nil, fmt.Errorf("%w: tree splits on feature %d, got %d features", ErrFeatureCount, node.FeatureIdx, len(features))
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
}

func normalize(weights []float64) []float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / total
	}
	return out
}
