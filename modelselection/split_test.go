package modelselection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

// splitFixture builds an n-row single-column matrix whose cell value is
// the row index, with label = index mod 2.
func splitFixture(n int) (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.SetVec(i, float64(i%2))
	}
	return X, y
}

func TestTrainTestSplitSizes(t *testing.T) {
	X, y := splitFixture(100)
	XFit, XEval, yFit, yEval, err := TrainTestSplit(X, y, 0.2, 1)
	require.NoError(t, err)

	fitRows, _ := XFit.Dims()
	evalRows, _ := XEval.Dims()
	assert.Equal(t, 80, fitRows)
	assert.Equal(t, 20, evalRows)
	assert.Equal(t, 80, yFit.Len())
	assert.Equal(t, 20, yEval.Len())
}

func TestTrainTestSplitPartitions(t *testing.T) {
	X, y := splitFixture(50)
	XFit, XEval, _, _, err := TrainTestSplit(X, y, 0.2, 7)
	require.NoError(t, err)

	seen := make(map[float64]int)
	fitRows, _ := XFit.Dims()
	for i := 0; i < fitRows; i++ {
		seen[XFit.At(i, 0)]++
	}
	evalRows, _ := XEval.Dims()
	for i := 0; i < evalRows; i++ {
		seen[XEval.At(i, 0)]++
	}
	require.Len(t, seen, 50, "every row appears")
	for id, count := range seen {
		assert.Equalf(t, 1, count, "row %v must appear exactly once", id)
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	X, y := splitFixture(40)
	a1, b1, _, _, err := TrainTestSplit(X, y, 0.25, 99)
	require.NoError(t, err)
	a2, b2, _, _, err := TrainTestSplit(X, y, 0.25, 99)
	require.NoError(t, err)

	assert.True(t, mat.Equal(a1, a2))
	assert.True(t, mat.Equal(b1, b2))
}

func TestTrainTestSplitSeedMatters(t *testing.T) {
	X, y := splitFixture(40)
	_, b1, _, _, err := TrainTestSplit(X, y, 0.25, 1)
	require.NoError(t, err)
	_, b2, _, _, err := TrainTestSplit(X, y, 0.25, 2)
	require.NoError(t, err)

	assert.False(t, mat.Equal(b1, b2))
}

func TestTrainTestSplitLabelAlignment(t *testing.T) {
	X, y := splitFixture(60)
	XFit, XEval, yFit, yEval, err := TrainTestSplit(X, y, 0.2, 5)
	require.NoError(t, err)

	// The fixture sets label = value mod 2, so alignment survives any
	// shuffle.
	check := func(m *mat.Dense, labels *mat.VecDense) {
		rows, _ := m.Dims()
		for i := 0; i < rows; i++ {
			assert.Equal(t, float64(int(m.At(i, 0))%2), labels.AtVec(i))
		}
	}
	check(XFit, yFit)
	check(XEval, yEval)
}

func TestTrainTestSplitInvalidSize(t *testing.T) {
	X, y := splitFixture(10)
	for _, size := range []float64{0, 1, -0.5, 1.5} {
		_, _, _, _, err := TrainTestSplit(X, y, size, 1)
		var ve *errors.ValueError
		require.Truef(t, errors.As(err, &ve), "testSize %v must be rejected", size)
	}
}

func TestTrainTestSplitLabelMismatch(t *testing.T) {
	X, _ := splitFixture(10)
	_, y := splitFixture(8)
	_, _, _, _, err := TrainTestSplit(X, y, 0.2, 1)
	var de *errors.DimensionError
	require.True(t, errors.As(err, &de))
}
