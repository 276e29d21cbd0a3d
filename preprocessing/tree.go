package preprocessing

import (
	"math"
	"sort"
)

// cartParams bounds the per-column imputation trees. The trees only need
// enough structure to condition on the other columns; deep trees would
// overfit the very cells they are meant to reconstruct.
type cartParams struct {
	maxDepth int
	minLeaf  int
}

// cartNode is one node of a fitted imputation tree. Predictors are always
// presented as float64 (categorical predictors arrive as level codes), so a
// threshold split is sufficient.
type cartNode struct {
	feature   int
	threshold float64
	left      int
	right     int

	leaf  bool
	value float64 // mean target (regression) or majority class code
}

// cartTree is a decision tree fitted by recursive partitioning: variance
// reduction for regression targets, Gini impurity for classification.
type cartTree struct {
	nodes      []cartNode
	classify   bool
	numClasses int
	params     cartParams
}

// fitCART fits a tree on X (row-major, one slice per sample) against y.
// For classification, y holds class codes in [0, numClasses).
func fitCART(X [][]float64, y []float64, classify bool, numClasses int, p cartParams) *cartTree {
	if p.maxDepth <= 0 {
		p.maxDepth = 5
	}
	if p.minLeaf <= 0 {
		p.minLeaf = 5
	}
	t := &cartTree{classify: classify, numClasses: numClasses, params: p}
	indices := make([]int, len(y))
	for i := range indices {
		indices[i] = i
	}
	t.buildNode(X, y, indices, 0)
	return t
}

// predict returns the fitted value for one sample.
func (t *cartTree) predict(x []float64) float64 {
	nodeIdx := 0
	for {
		node := &t.nodes[nodeIdx]
		if node.leaf {
			return node.value
		}
		if x[node.feature] <= node.threshold {
			nodeIdx = node.left
		} else {
			nodeIdx = node.right
		}
	}
}

func (t *cartTree) buildNode(X [][]float64, y []float64, indices []int, depth int) int {
	nodeIdx := len(t.nodes)

	if depth >= t.params.maxDepth || len(indices) < 2*t.params.minLeaf || t.pure(y, indices) {
		t.nodes = append(t.nodes, cartNode{leaf: true, value: t.leafValue(y, indices), left: -1, right: -1})
		return nodeIdx
	}

	feature, threshold, ok := t.bestSplit(X, y, indices)
	if !ok {
		t.nodes = append(t.nodes, cartNode{leaf: true, value: t.leafValue(y, indices), left: -1, right: -1})
		return nodeIdx
	}

	t.nodes = append(t.nodes, cartNode{feature: feature, threshold: threshold})

	var leftIdx, rightIdx []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	left := t.buildNode(X, y, leftIdx, depth+1)
	right := t.buildNode(X, y, rightIdx, depth+1)
	t.nodes[nodeIdx].left = left
	t.nodes[nodeIdx].right = right
	return nodeIdx
}

func (t *cartTree) pure(y []float64, indices []int) bool {
	first := y[indices[0]]
	for _, i := range indices[1:] {
		if y[i] != first {
			return false
		}
	}
	return true
}

func (t *cartTree) leafValue(y []float64, indices []int) float64 {
	if t.classify {
		counts := make([]int, t.numClasses)
		for _, i := range indices {
			counts[int(y[i])]++
		}
		best, bestCount := 0, -1
		for class, count := range counts {
			if count > bestCount {
				best, bestCount = class, count
			}
		}
		return float64(best)
	}

	sum := 0.0
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}

// bestSplit scans every feature for the threshold with the largest impurity
// decrease, honoring the minimum leaf size.
func (t *cartTree) bestSplit(X [][]float64, y []float64, indices []int) (int, float64, bool) {
	nFeatures := len(X[indices[0]])
	parent := t.impurity(y, indices)

	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(indices))
	for j := 0; j < nFeatures; j++ {
		copy(order, indices)
		feature := j
		sort.Slice(order, func(a, b int) bool {
			return X[order[a]][feature] < X[order[b]][feature]
		})

		for k := t.params.minLeaf - 1; k < len(order)-t.params.minLeaf; k++ {
			vk, vNext := X[order[k]][feature], X[order[k+1]][feature]
			if vk == vNext {
				continue
			}
			left, right := order[:k+1], order[k+1:]
			weighted := (float64(len(left))*t.impurity(y, left) +
				float64(len(right))*t.impurity(y, right)) / float64(len(order))
			gain := parent - weighted
			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (vk + vNext) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// impurity is variance for regression and Gini for classification.
func (t *cartTree) impurity(y []float64, indices []int) float64 {
	n := float64(len(indices))
	if n == 0 {
		return 0
	}

	if t.classify {
		counts := make([]int, t.numClasses)
		for _, i := range indices {
			counts[int(y[i])]++
		}
		gini := 1.0
		for _, count := range counts {
			p := float64(count) / n
			gini -= p * p
		}
		return gini
	}

	mean := 0.0
	for _, i := range indices {
		mean += y[i]
	}
	mean /= n

	variance := 0.0
	for _, i := range indices {
		d := y[i] - mean
		variance += d * d
	}
	return variance / n
}

// sanity guard used by callers that feed predicted codes back into levels.
func clampClass(v float64, numClasses int) int {
	c := int(math.Round(v))
	if c < 0 {
		return 0
	}
	if c >= numClasses {
		return numClasses - 1
	}
	return c
}
