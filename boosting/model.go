// Package boosting implements gradient-boosted decision trees for binary
// classification. Trees are grown depth-wise on exact sorted split search,
// with categorical features split by category subset rather than by
// threshold.
package boosting

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/core/parallel"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

// NodeType discriminates leaves from the two split kinds.
type NodeType int

const (
	// LeafNode is a terminal node carrying a value.
	LeafNode NodeType = iota
	// NumericalNode splits on value <= Threshold.
	NumericalNode
	// CategoricalNode sends the listed category codes left.
	CategoricalNode
)

// Node is a single tree node. Children are indices into the tree's node
// slice, -1 for a leaf.
type Node struct {
	NodeType   NodeType
	LeftChild  int
	RightChild int

	SplitFeature int
	Threshold    float64
	Categories   []int
	Gain         float64

	LeafValue float64
	LeafCount int
}

// IsLeaf reports whether the node is terminal.
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// Tree is one member of the ensemble. Predictions are pre-scaled by the
// shrinkage rate.
type Tree struct {
	Nodes         []Node
	NumLeaves     int
	ShrinkageRate float64
}

// Predict routes one feature vector to a leaf and returns its shrunken
// value.
func (t *Tree) Predict(features []float64) float64 {
	nodeID := 0
	for nodeID >= 0 && nodeID < len(t.Nodes) {
		node := &t.Nodes[nodeID]
		if node.IsLeaf() {
			return node.LeafValue * t.ShrinkageRate
		}

		switch node.NodeType {
		case CategoricalNode:
			code := int(features[node.SplitFeature])
			left := false
			for _, cat := range node.Categories {
				if code == cat {
					left = true
					break
				}
			}
			if left {
				nodeID = node.LeftChild
			} else {
				nodeID = node.RightChild
			}
		default:
			if features[node.SplitFeature] <= node.Threshold {
				nodeID = node.LeftChild
			} else {
				nodeID = node.RightChild
			}
		}
	}
	return 0
}

// Model is a fitted ensemble. The raw score of a row is InitScore plus the
// sum of the tree outputs; the positive-class probability is its sigmoid.
type Model struct {
	Trees       []Tree
	NumFeatures int
	InitScore   float64
}

// parallelPredictThreshold is the row count below which scoring runs on a
// single goroutine.
const parallelPredictThreshold = 256

// PredictRaw returns the margin (log-odds) for each input row.
func (m *Model) PredictRaw(X mat.Matrix) (*mat.VecDense, error) {
	rows, cols := X.Dims()
	if cols != m.NumFeatures {
		return nil, errors.NewDimensionError("Model.PredictRaw", m.NumFeatures, cols, 1)
	}

	out := mat.NewVecDense(rows, nil)
	parallel.ParallelizeWithThreshold(rows, parallelPredictThreshold, func(start, end int) {
		features := make([]float64, cols)
		for i := start; i < end; i++ {
			for j := 0; j < cols; j++ {
				features[j] = X.At(i, j)
			}
			score := m.InitScore
			for k := range m.Trees {
				score += m.Trees[k].Predict(features)
			}
			out.SetVec(i, score)
		}
	})
	return out, nil
}

// PredictProba returns the positive-class probability for each input row.
func (m *Model) PredictProba(X mat.Matrix) (*mat.VecDense, error) {
	raw, err := m.PredictRaw(X)
	if err != nil {
		return nil, err
	}
	for i := 0; i < raw.Len(); i++ {
		raw.SetVec(i, sigmoid(raw.AtVec(i)))
	}
	return raw, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
