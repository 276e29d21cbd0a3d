package boosting

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/pkg/errors"
	"github.com/YuminosukeSato/tabpipe/pkg/log"
)

// Params are the training hyperparameters. Zero values fall back to the
// defaults set by NewTrainer.
type Params struct {
	// Trees is the number of boosting iterations.
	Trees int `yaml:"trees"`

	// Shrinkage scales each tree's contribution.
	Shrinkage float64 `yaml:"shrinkage"`

	// MaxDepth bounds tree depth; MinLeaf is the minimum rows per leaf.
	MaxDepth int `yaml:"max_depth"`
	MinLeaf  int `yaml:"min_leaf"`

	// Lambda is the L2 penalty on leaf values.
	Lambda float64 `yaml:"lambda"`

	// MinGainToSplit prunes splits below this gain.
	MinGainToSplit float64 `yaml:"min_gain_to_split"`

	// CategoricalFeatures lists the matrix columns holding factor codes;
	// they split by category subset instead of by threshold.
	CategoricalFeatures []int `yaml:"-"`
}

// SplitInfo describes the best split found for a node.
type SplitInfo struct {
	Feature    int
	Threshold  float64
	Categories []int
	Gain       float64
	LeftCount  int
	RightCount int
}

// Trainer grows one ensemble. It is single-use: construct, Fit, GetModel.
type Trainer struct {
	params Params

	X       *mat.Dense
	targets []float64

	gradients []float64
	hessians  []float64
	rawScore  []float64

	objective   logisticObjective
	initScore   float64
	trees       []Tree
	categorical map[int]bool
}

// NewTrainer creates a trainer with defaults filled in.
func NewTrainer(params Params) *Trainer {
	if params.Trees <= 0 {
		params.Trees = 100
	}
	if params.Shrinkage <= 0 {
		params.Shrinkage = 0.1
	}
	if params.MaxDepth <= 0 {
		params.MaxDepth = 3
	}
	if params.MinLeaf <= 0 {
		params.MinLeaf = 20
	}

	categorical := make(map[int]bool, len(params.CategoricalFeatures))
	for _, j := range params.CategoricalFeatures {
		categorical[j] = true
	}
	return &Trainer{
		params:      params,
		categorical: categorical,
	}
}

// Fit trains the ensemble. y must be a column of {0,1} labels with one
// row per row of X.
func (t *Trainer) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Trainer.Fit")
	}
	if yRows != rows {
		return errors.NewDimensionError("Trainer.Fit", rows, yRows, 0)
	}

	t.X = mat.DenseCopyOf(X)
	t.targets = make([]float64, rows)
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if v != 0 && v != 1 {
			return errors.NewValueError("Trainer.Fit", "labels must be 0 or 1")
		}
		t.targets[i] = v
	}

	t.gradients = make([]float64, rows)
	t.hessians = make([]float64, rows)
	t.initScore = t.objective.InitScore(t.targets)
	t.rawScore = make([]float64, rows)
	for i := range t.rawScore {
		t.rawScore[i] = t.initScore
	}

	logger := log.GetLoggerWithName("boosting.trainer")
	for iter := 0; iter < t.params.Trees; iter++ {
		t.computeGradients()

		tree := t.buildTree()
		t.trees = append(t.trees, tree)
		t.updateRawScores(tree)

		if iter%250 == 0 {
			logger.Debug("boosting progress",
				log.TreesKey, iter+1,
				"loss", t.currentLoss())
		}
	}
	return nil
}

// GetModel returns the trained ensemble.
func (t *Trainer) GetModel() *Model {
	_, cols := t.X.Dims()
	return &Model{
		Trees:       t.trees,
		NumFeatures: cols,
		InitScore:   t.initScore,
	}
}

func (t *Trainer) computeGradients() {
	for i := range t.targets {
		t.gradients[i] = t.objective.Gradient(t.rawScore[i], t.targets[i])
		t.hessians[i] = t.objective.Hessian(t.rawScore[i], t.targets[i])
	}
}

func (t *Trainer) updateRawScores(tree Tree) {
	rows, cols := t.X.Dims()
	features := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			features[j] = t.X.At(i, j)
		}
		t.rawScore[i] += tree.Predict(features)
	}
}

func (t *Trainer) currentLoss() float64 {
	var sum float64
	for i := range t.targets {
		sum += t.objective.Loss(t.rawScore[i], t.targets[i])
	}
	return sum / float64(len(t.targets))
}

func (t *Trainer) buildTree() Tree {
	tree := Tree{ShrinkageRate: t.params.Shrinkage}

	rows, _ := t.X.Dims()
	rootIndices := make([]int, rows)
	for i := range rootIndices {
		rootIndices[i] = i
	}
	t.buildNode(&tree, rootIndices, 0)

	for i := range tree.Nodes {
		if tree.Nodes[i].IsLeaf() {
			tree.NumLeaves++
		}
	}
	return tree
}

// buildNode appends the subtree for the given rows and returns its root
// index within the tree.
func (t *Trainer) buildNode(tree *Tree, indices []int, depth int) int {
	nodeIdx := len(tree.Nodes)

	if depth >= t.params.MaxDepth || len(indices) < 2*t.params.MinLeaf {
		tree.Nodes = append(tree.Nodes, t.newLeaf(indices))
		return nodeIdx
	}

	best := t.findBestSplit(indices)
	if best.Gain <= t.params.MinGainToSplit {
		tree.Nodes = append(tree.Nodes, t.newLeaf(indices))
		return nodeIdx
	}

	nodeType := NumericalNode
	if len(best.Categories) > 0 {
		nodeType = CategoricalNode
	}
	tree.Nodes = append(tree.Nodes, Node{
		NodeType:     nodeType,
		LeftChild:    -1,
		RightChild:   -1,
		SplitFeature: best.Feature,
		Threshold:    best.Threshold,
		Categories:   best.Categories,
		Gain:         best.Gain,
	})

	left, right := t.partition(indices, best)
	leftChild := t.buildNode(tree, left, depth+1)
	rightChild := t.buildNode(tree, right, depth+1)
	tree.Nodes[nodeIdx].LeftChild = leftChild
	tree.Nodes[nodeIdx].RightChild = rightChild
	return nodeIdx
}

func (t *Trainer) newLeaf(indices []int) Node {
	return Node{
		NodeType:   LeafNode,
		LeftChild:  -1,
		RightChild: -1,
		LeafValue:  t.leafValue(indices),
		LeafCount:  len(indices),
	}
}

// leafValue is the regularized Newton step -G/(H+lambda) over the rows in
// the leaf.
func (t *Trainer) leafValue(indices []int) float64 {
	var sumGrad, sumHess float64
	for _, idx := range indices {
		sumGrad += t.gradients[idx]
		sumHess += t.hessians[idx]
	}
	const epsilon = 1e-10
	if math.Abs(sumHess) < epsilon {
		sumHess = epsilon
	}
	return -sumGrad / (sumHess + t.params.Lambda + epsilon)
}

func (t *Trainer) findBestSplit(indices []int) SplitInfo {
	_, cols := t.X.Dims()
	best := SplitInfo{Gain: -math.MaxFloat64}

	for j := 0; j < cols; j++ {
		var split SplitInfo
		if t.categorical[j] {
			split = t.findBestCategoricalSplit(indices, j)
		} else {
			split = t.findBestNumericalSplit(indices, j)
		}
		if split.Gain > best.Gain {
			best = split
		}
	}
	return best
}

// findBestNumericalSplit scans every distinct-value boundary of one
// feature, in sorted order, accumulating gradient sums from the left.
func (t *Trainer) findBestNumericalSplit(indices []int, feature int) SplitInfo {
	ordered := make([]int, len(indices))
	copy(ordered, indices)
	sort.Slice(ordered, func(a, b int) bool {
		return t.X.At(ordered[a], feature) < t.X.At(ordered[b], feature)
	})

	var totalGrad, totalHess float64
	for _, idx := range indices {
		totalGrad += t.gradients[idx]
		totalHess += t.hessians[idx]
	}

	best := SplitInfo{Feature: feature, Gain: -math.MaxFloat64}
	var leftGrad, leftHess float64
	for i := 0; i < len(ordered)-1; i++ {
		idx := ordered[i]
		leftGrad += t.gradients[idx]
		leftHess += t.hessians[idx]

		value := t.X.At(idx, feature)
		next := t.X.At(ordered[i+1], feature)
		if value == next {
			continue
		}

		leftCount := i + 1
		rightCount := len(ordered) - leftCount
		if leftCount < t.params.MinLeaf || rightCount < t.params.MinLeaf {
			continue
		}

		gain := t.splitGain(leftGrad, leftHess, totalGrad-leftGrad, totalHess-leftHess, totalGrad, totalHess)
		if gain > best.Gain {
			best.Gain = gain
			best.Threshold = (value + next) / 2
			best.LeftCount = leftCount
			best.RightCount = rightCount
		}
	}
	return best
}

// findBestCategoricalSplit orders the categories of one feature by their
// gradient-to-hessian ratio and scans subset prefixes of that order,
// which is optimal for a convex loss.
func (t *Trainer) findBestCategoricalSplit(indices []int, feature int) SplitInfo {
	type catStats struct {
		category int
		count    int
		sumGrad  float64
		sumHess  float64
	}

	stats := make(map[int]*catStats)
	var totalGrad, totalHess float64
	for _, idx := range indices {
		category := int(t.X.At(idx, feature))
		s, ok := stats[category]
		if !ok {
			s = &catStats{category: category}
			stats[category] = s
		}
		s.count++
		s.sumGrad += t.gradients[idx]
		s.sumHess += t.hessians[idx]
		totalGrad += t.gradients[idx]
		totalHess += t.hessians[idx]
	}
	if len(stats) < 2 {
		return SplitInfo{Feature: feature, Gain: -math.MaxFloat64}
	}

	ordered := make([]*catStats, 0, len(stats))
	for _, s := range stats {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(a, b int) bool {
		ratioA := ordered[a].sumGrad / (ordered[a].sumHess + t.params.Lambda)
		ratioB := ordered[b].sumGrad / (ordered[b].sumHess + t.params.Lambda)
		if ratioA != ratioB {
			return ratioA < ratioB
		}
		return ordered[a].category < ordered[b].category
	})

	best := SplitInfo{Feature: feature, Gain: -math.MaxFloat64}
	var leftGrad, leftHess float64
	leftCount := 0
	for k := 0; k < len(ordered)-1; k++ {
		leftGrad += ordered[k].sumGrad
		leftHess += ordered[k].sumHess
		leftCount += ordered[k].count

		rightCount := len(indices) - leftCount
		if leftCount < t.params.MinLeaf || rightCount < t.params.MinLeaf {
			continue
		}

		gain := t.splitGain(leftGrad, leftHess, totalGrad-leftGrad, totalHess-leftHess, totalGrad, totalHess)
		if gain > best.Gain {
			categories := make([]int, k+1)
			for i := 0; i <= k; i++ {
				categories[i] = ordered[i].category
			}
			best.Gain = gain
			best.Categories = categories
			best.LeftCount = leftCount
			best.RightCount = rightCount
		}
	}
	return best
}

// splitGain is the regularized gain of separating the parent's gradient
// statistics into the two children.
func (t *Trainer) splitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess float64) float64 {
	lambda := t.params.Lambda
	leftScore := (leftGrad * leftGrad) / (leftHess + lambda)
	rightScore := (rightGrad * rightGrad) / (rightHess + lambda)
	totalScore := (totalGrad * totalGrad) / (totalHess + lambda)
	return 0.5 * (leftScore + rightScore - totalScore)
}

func (t *Trainer) partition(indices []int, split SplitInfo) (left, right []int) {
	if len(split.Categories) > 0 {
		leftCat := make(map[int]bool, len(split.Categories))
		for _, c := range split.Categories {
			leftCat[c] = true
		}
		for _, idx := range indices {
			if leftCat[int(t.X.At(idx, split.Feature))] {
				left = append(left, idx)
			} else {
				right = append(right, idx)
			}
		}
		return left, right
	}

	for _, idx := range indices {
		if t.X.At(idx, split.Feature) <= split.Threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return left, right
}
