package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	scaler := NewStandardScaler([]string{"a", "b"})
	out, err := scaler.FitTransform(X)
	require.NoError(t, err)

	rows, cols := out.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 2, cols)

	for j := 0; j < cols; j++ {
		var sum, sumSq float64
		for i := 0; i < rows; i++ {
			v := out.At(i, j)
			sum += v
			sumSq += v * v
		}
		mean := sum / float64(rows)
		std := math.Sqrt(sumSq/float64(rows) - mean*mean)
		assert.InDelta(t, 0, mean, 1e-9)
		assert.InDelta(t, 1, std, 1e-9)
	}
}

func TestStandardScalerUsesTrainingStatistics(t *testing.T) {
	train := mat.NewDense(2, 1, []float64{0, 2}) // mean 1, std 1
	other := mat.NewDense(2, 1, []float64{5, 7})

	scaler := NewStandardScaler([]string{"a"})
	require.NoError(t, scaler.Fit(train))

	out, err := scaler.Transform(other)
	require.NoError(t, err)
	assert.InDelta(t, 4, out.At(0, 0), 1e-9)
	assert.InDelta(t, 6, out.At(1, 0), 1e-9)
}

func TestStandardScalerDegenerateColumn(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
	})

	scaler := NewStandardScaler([]string{"a", "b"})
	err := scaler.Fit(X)

	var dce *errors.DegenerateColumnError
	require.True(t, errors.As(err, &dce))
	assert.Equal(t, "b", dce.Column)
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	scaler := NewStandardScaler([]string{"a", "b"})
	require.NoError(t, scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))

	_, err := scaler.Transform(mat.NewDense(2, 3, nil))
	var de *errors.DimensionError
	require.True(t, errors.As(err, &de))
}

func TestStandardScalerNotFitted(t *testing.T) {
	scaler := NewStandardScaler(nil)
	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))

	var nfe *errors.NotFittedError
	require.True(t, errors.As(err, &nfe))
}
