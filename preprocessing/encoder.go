package preprocessing

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/core/model"
	"github.com/YuminosukeSato/tabpipe/dataset"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

// EncoderConfig selects how categorical columns are converted.
type EncoderConfig struct {
	// BinaryPositive maps a binary categorical column to the level encoded
	// as 1 ("male"→1, "yes"→1). Every other level, expected or not, maps
	// to 0.
	BinaryPositive map[string]string `yaml:"binary_positive"`

	// StrictUnseen fails with UnseenCategoryError on a validation level
	// missing from the fitted level set. The default maps such levels to
	// the distinguished unseen code instead.
	StrictUnseen bool `yaml:"strict_unseen"`
}

// FeatureEncoder converts a completed table into a feature matrix:
// configured binary columns to {0,1}, remaining categorical columns to
// factor codes with the level set fixed from the training table, and
// numeric columns standardized with training statistics.
type FeatureEncoder struct {
	state *model.StateManager
	cfg   EncoderConfig

	featureNames []string
	roles        []dataset.Role // role per output column, binary counted as Numeric
	factorOf     map[string]int // feature position of each factor column
	levels       map[string][]string
	levelCode    map[string]map[string]int

	scaler     *StandardScaler
	numericPos []int // output positions fed through the scaler
}

// NewFeatureEncoder creates an unfitted FeatureEncoder.
func NewFeatureEncoder(cfg EncoderConfig) *FeatureEncoder {
	return &FeatureEncoder{
		state: model.NewStateManager(),
		cfg:   cfg,
	}
}

// Fit fixes the factor level sets and the standardization statistics from
// the training table. The table must already be imputed; missing cells are
// a caller bug, not an input condition.
func (e *FeatureEncoder) Fit(t *dataset.Table) error {
	if t.NumRows() == 0 || t.NumCols() == 0 {
		return errors.Wrap(errors.ErrEmptyData, "FeatureEncoder.Fit")
	}

	e.featureNames = nil
	e.roles = nil
	e.numericPos = nil
	e.factorOf = make(map[string]int)
	e.levels = make(map[string][]string)
	e.levelCode = make(map[string]map[string]int)

	var scalerNames []string
	for _, col := range t.Columns() {
		pos := len(e.featureNames)
		e.featureNames = append(e.featureNames, col.Name)

		switch {
		case col.Role == dataset.Numeric:
			e.roles = append(e.roles, dataset.Numeric)
			e.numericPos = append(e.numericPos, pos)
			scalerNames = append(scalerNames, col.Name)

		case e.isBinary(col.Name):
			e.roles = append(e.roles, dataset.Numeric)

		default:
			e.roles = append(e.roles, dataset.Categorical)
			e.factorOf[col.Name] = pos
			levels, codeOf := levelCodec(col, nil)
			e.levels[col.Name] = levels
			e.levelCode[col.Name] = codeOf
		}
	}

	// Standardization statistics come from the training table only.
	if len(e.numericPos) > 0 {
		e.scaler = NewStandardScaler(scalerNames)
		raw := e.numericBlock(t)
		if err := e.scaler.Fit(raw); err != nil {
			return err
		}
	}

	e.state.SetDimensions(len(e.featureNames), t.NumRows())
	e.state.SetFitted()
	return nil
}

// Transform encodes a table with the fitted parameters. The table's own
// statistics are never consulted; validation rows are standardized with
// training mean and standard deviation.
func (e *FeatureEncoder) Transform(t *dataset.Table) (*mat.Dense, error) {
	if !e.state.IsFitted() {
		return nil, errors.NewNotFittedError("FeatureEncoder", "Transform")
	}
	if t.NumCols() != len(e.featureNames) {
		return nil, errors.NewDimensionError("FeatureEncoder.Transform", len(e.featureNames), t.NumCols(), 1)
	}

	rows := t.NumRows()
	X := mat.NewDense(rows, len(e.featureNames), nil)

	for pos, name := range e.featureNames {
		col := t.Column(name)
		if col == nil {
			return nil, errors.Wrapf(errors.ErrSchemaMismatch, "FeatureEncoder.Transform: column %q", name)
		}

		switch {
		case col.Role == dataset.Numeric:
			for i := 0; i < rows; i++ {
				X.Set(i, pos, col.Numeric[i])
			}

		case e.isBinary(name):
			positive := e.cfg.BinaryPositive[name]
			for i := 0; i < rows; i++ {
				if col.Labels[i] == positive {
					X.Set(i, pos, 1)
				}
			}

		default:
			codeOf := e.levelCode[name]
			unseen := float64(len(e.levels[name]))
			for i := 0; i < rows; i++ {
				code, ok := codeOf[col.Labels[i]]
				if !ok {
					if e.cfg.StrictUnseen {
						return nil, errors.NewUnseenCategoryError(name, col.Labels[i])
					}
					X.Set(i, pos, unseen)
					continue
				}
				X.Set(i, pos, float64(code))
			}
		}
	}

	if e.scaler != nil {
		scaled, err := e.scaler.Transform(blockOf(X, e.numericPos))
		if err != nil {
			return nil, err
		}
		for k, pos := range e.numericPos {
			for i := 0; i < rows; i++ {
				X.Set(i, pos, scaled.At(i, k))
			}
		}
	}

	return X, nil
}

// FitTransform fits on the table and encodes it.
func (e *FeatureEncoder) FitTransform(t *dataset.Table) (*mat.Dense, error) {
	if err := e.Fit(t); err != nil {
		return nil, err
	}
	return e.Transform(t)
}

// FeatureNames returns the output column names in matrix order.
func (e *FeatureEncoder) FeatureNames() []string {
	out := make([]string, len(e.featureNames))
	copy(out, e.featureNames)
	return out
}

// CategoricalIndices returns the matrix positions holding factor codes, in
// ascending order. The boosting trainer splits these by category subset
// rather than by threshold.
func (e *FeatureEncoder) CategoricalIndices() []int {
	var out []int
	for _, pos := range e.factorOf {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// Levels returns the fitted level set of a factor column.
func (e *FeatureEncoder) Levels(name string) []string {
	levels := e.levels[name]
	out := make([]string, len(levels))
	copy(out, levels)
	return out
}

// Scaler exposes the fitted standardizer, for inspection in tests and
// diagnostics.
func (e *FeatureEncoder) Scaler() *StandardScaler {
	return e.scaler
}

func (e *FeatureEncoder) isBinary(name string) bool {
	_, ok := e.cfg.BinaryPositive[name]
	return ok
}

// numericBlock extracts the raw numeric columns of a table in fitted order.
func (e *FeatureEncoder) numericBlock(t *dataset.Table) *mat.Dense {
	rows := t.NumRows()
	out := mat.NewDense(rows, len(e.numericPos), nil)
	for k, pos := range e.numericPos {
		col := t.Column(e.featureNames[pos])
		for i := 0; i < rows; i++ {
			out.Set(i, k, col.Numeric[i])
		}
	}
	return out
}

// blockOf copies selected columns of X into a dense block.
func blockOf(X *mat.Dense, positions []int) *mat.Dense {
	rows, _ := X.Dims()
	out := mat.NewDense(rows, len(positions), nil)
	for k, pos := range positions {
		for i := 0; i < rows; i++ {
			out.Set(i, k, X.At(i, pos))
		}
	}
	return out
}
