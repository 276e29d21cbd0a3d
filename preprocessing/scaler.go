package preprocessing

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/core"
	"github.com/YuminosukeSato/tabpipe/core/model"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

var _ core.Transformer = (*StandardScaler)(nil)

// StandardScaler standardizes columns to zero mean and unit variance using
// statistics computed once, on the training data. A zero-variance column is
// rejected with DegenerateColumnError; silently rescaling it would hide a
// broken feature.
type StandardScaler struct {
	state *model.StateManager

	// Mean holds the per-column training mean.
	Mean []float64

	// Scale holds the per-column training standard deviation.
	Scale []float64

	// ColumnNames names the columns for diagnostics. Optional; positional
	// names are synthesized when absent.
	ColumnNames []string

	nFeatures int
}

// NewStandardScaler creates an unfitted StandardScaler. names may be nil.
func NewStandardScaler(names []string) *StandardScaler {
	return &StandardScaler{
		state:       model.NewStateManager(),
		ColumnNames: names,
	}
}

// Fit computes per-column mean and standard deviation from X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "StandardScaler.Fit")
	}

	s.nFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		s.Mean[j] = sum / float64(r)
	}

	for j := 0; j < c; j++ {
		sumSquares := 0.0
		for i := 0; i < r; i++ {
			diff := X.At(i, j) - s.Mean[j]
			sumSquares += diff * diff
		}
		variance := sumSquares / float64(r)
		s.Scale[j] = math.Sqrt(variance)

		if s.Scale[j] < 1e-12 {
			return errors.NewDegenerateColumnError(s.columnName(j))
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform standardizes X with the fitted training statistics. X's own
// statistics are never consulted.
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.nFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.nFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return result, nil
}

// FitTransform fits on X and returns the standardized X.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *StandardScaler) columnName(j int) string {
	if j < len(s.ColumnNames) {
		return s.ColumnNames[j]
	}
	return "column_" + strconv.Itoa(j)
}
