package preprocessing

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/tabpipe/core/model"
	"github.com/YuminosukeSato/tabpipe/dataset"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
	"github.com/YuminosukeSato/tabpipe/pkg/log"
)

// ImputerConfig controls conditional predictive imputation.
type ImputerConfig struct {
	// SentinelColumns maps column names to the fixed category substituted
	// for their missing cells. These columns never receive predictive fill;
	// a model-based guess would bias them.
	SentinelColumns map[string]string `yaml:"sentinel_columns"`

	// Rounds is the number of chained passes over the incomplete columns.
	Rounds int `yaml:"rounds"`

	// MaxDepth and MinLeaf bound the per-column trees.
	MaxDepth int `yaml:"max_depth"`
	MinLeaf  int `yaml:"min_leaf"`
}

// TreeImputer fills every missing cell with a conditional prediction. Each
// incomplete column gets a decision tree fitted on the current values of
// all other columns; columns are visited in ascending missing-count order
// and the whole sweep repeats for a few rounds, so later predictions
// condition on earlier fills rather than on crude univariate estimates.
// Independent univariate mean/mode fill is used only to bootstrap the first
// round.
type TreeImputer struct {
	state *model.StateManager
	cfg   ImputerConfig
}

// NewTreeImputer creates a TreeImputer.
func NewTreeImputer(cfg ImputerConfig) *TreeImputer {
	if cfg.Rounds <= 0 {
		cfg.Rounds = 2
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 5
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = 10
	}
	return &TreeImputer{
		state: model.NewStateManager(),
		cfg:   cfg,
	}
}

// FitTransform imputes the table and returns a completed copy. The
// procedure is fitted on, and applied to, the same table: each split is
// imputed by an independent refit rather than with parameters carried over
// from another table.
//
// A column with no observed values at all fails with
// UnimputableColumnError. On success the result has zero missing cells.
func (im *TreeImputer) FitTransform(t *dataset.Table) (*dataset.Table, error) {
	out := t.Clone()
	logger := log.GetLoggerWithName("preprocessing.imputer")

	for _, col := range out.Columns() {
		if col.Len() > 0 && col.MissingCount() == col.Len() {
			return nil, errors.NewUnimputableColumnError(col.Name)
		}
	}

	totalMissing := out.MissingCells()

	// Sentinel columns are completed up front so they can serve as
	// predictors for everything else.
	for name, sentinel := range im.cfg.SentinelColumns {
		col := out.Column(name)
		if col == nil || col.Role != dataset.Categorical {
			continue
		}
		for i, v := range col.Labels {
			if v == "" {
				col.Labels[i] = sentinel
			}
		}
	}

	// Record which cells were originally missing, then bootstrap them with
	// mean/mode so the first round has complete predictors.
	missing := make(map[string][]int)
	for _, col := range out.Columns() {
		var rows []int
		for i := 0; i < col.Len(); i++ {
			if col.IsMissing(i) {
				rows = append(rows, i)
			}
		}
		if len(rows) > 0 {
			missing[col.Name] = rows
			bootstrapFill(col, rows)
		}
	}
	if len(missing) == 0 {
		im.state.SetFitted()
		return out, nil
	}

	// Ascending missing count: the best-observed columns are re-predicted
	// first and become reliable predictors for the sparser ones.
	order := make([]string, 0, len(missing))
	for name := range missing {
		order = append(order, name)
	}
	sort.Slice(order, func(a, b int) bool {
		if len(missing[order[a]]) != len(missing[order[b]]) {
			return len(missing[order[a]]) < len(missing[order[b]])
		}
		return order[a] < order[b]
	})

	params := cartParams{maxDepth: im.cfg.MaxDepth, minLeaf: im.cfg.MinLeaf}
	for round := 0; round < im.cfg.Rounds; round++ {
		for _, name := range order {
			im.imputeColumn(out, name, missing[name], params)
		}
	}

	logger.Debug("imputation complete",
		log.MissingCellsKey, totalMissing,
		log.RowsKey, out.NumRows())

	im.state.SetFitted()
	return out, nil
}

// imputeColumn refits the tree for one column and rewrites its originally
// missing cells from the current predictor values.
func (im *TreeImputer) imputeColumn(t *dataset.Table, target string, rows []int, params cartParams) {
	col := t.Column(target)
	X := predictorMatrix(t, target)

	missingSet := make(map[int]bool, len(rows))
	for _, i := range rows {
		missingSet[i] = true
	}
	var trainIdx []int
	for i := 0; i < t.NumRows(); i++ {
		if !missingSet[i] {
			trainIdx = append(trainIdx, i)
		}
	}
	if len(trainIdx) == 0 {
		return
	}

	if col.Role == dataset.Numeric {
		y := make([]float64, t.NumRows())
		copy(y, col.Numeric)
		tree := fitCART(gather(X, trainIdx), gather1(y, trainIdx), false, 0, params)
		for _, i := range rows {
			col.Numeric[i] = tree.predict(X[i])
		}
		return
	}

	levels, codeOf := levelCodec(col, missingSet)
	if len(levels) == 0 {
		return
	}
	y := make([]float64, 0, len(trainIdx))
	for _, i := range trainIdx {
		y = append(y, float64(codeOf[col.Labels[i]]))
	}
	tree := fitCART(gather(X, trainIdx), y, true, len(levels), params)
	for _, i := range rows {
		col.Labels[i] = levels[clampClass(tree.predict(X[i]), len(levels))]
	}
}

// predictorMatrix assembles one float64 row per sample from every column
// except the target. Categorical predictors contribute their level code.
func predictorMatrix(t *dataset.Table, target string) [][]float64 {
	type catCodec struct {
		col    *dataset.Column
		codeOf map[string]int
	}

	var numericCols []*dataset.Column
	var catCols []catCodec
	for _, col := range t.Columns() {
		if col.Name == target {
			continue
		}
		switch col.Role {
		case dataset.Numeric:
			numericCols = append(numericCols, col)
		case dataset.Categorical:
			_, codeOf := levelCodec(col, nil)
			catCols = append(catCols, catCodec{col: col, codeOf: codeOf})
		}
	}

	width := len(numericCols) + len(catCols)
	X := make([][]float64, t.NumRows())
	for i := range X {
		row := make([]float64, 0, width)
		for _, col := range numericCols {
			row = append(row, col.Numeric[i])
		}
		for _, cc := range catCols {
			row = append(row, float64(cc.codeOf[cc.col.Labels[i]]))
		}
		X[i] = row
	}
	return X
}

// levelCodec enumerates a column's levels in sorted order, skipping the
// rows in exclude (the originally missing cells of a target column).
func levelCodec(col *dataset.Column, exclude map[int]bool) ([]string, map[string]int) {
	seen := make(map[string]bool)
	for i, v := range col.Labels {
		if v == "" || exclude[i] {
			continue
		}
		seen[v] = true
	}
	levels := make([]string, 0, len(seen))
	for v := range seen {
		levels = append(levels, v)
	}
	sort.Strings(levels)
	codeOf := make(map[string]int, len(levels))
	for i, v := range levels {
		codeOf[v] = i
	}
	return levels, codeOf
}

// bootstrapFill replaces the given missing rows with the column mean or
// modal level.
func bootstrapFill(col *dataset.Column, rows []int) {
	if col.Role == dataset.Numeric {
		sum, n := 0.0, 0
		for _, v := range col.Numeric {
			if !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		mean := sum / float64(n)
		for _, i := range rows {
			col.Numeric[i] = mean
		}
		return
	}

	counts := make(map[string]int)
	for _, v := range col.Labels {
		if v != "" {
			counts[v]++
		}
	}
	mode, modeCount := "", -1
	for v, count := range counts {
		if count > modeCount || (count == modeCount && v < mode) {
			mode, modeCount = v, count
		}
	}
	for _, i := range rows {
		col.Labels[i] = mode
	}
}

// gather selects rows of a row-major matrix.
func gather(X [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for k, i := range indices {
		out[k] = X[i]
	}
	return out
}

// gather1 selects elements of a vector.
func gather1(y []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for k, i := range indices {
		out[k] = y[i]
	}
	return out
}
