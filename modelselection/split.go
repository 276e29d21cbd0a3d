// Package modelselection provides the fit/evaluation split and the
// sequential hyperparameter sweep.
package modelselection

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

// TrainTestSplit shuffles the rows of an encoded feature matrix with a
// seeded generator and cuts off the trailing fraction as the evaluation
// side, keeping each row paired with its label. There is no
// stratification: the class balance of each side is whatever the shuffle
// produces.
func TrainTestSplit(X mat.Matrix, y *mat.VecDense, testSize float64, seed uint64) (XFit, XEval *mat.Dense, yFit, yEval *mat.VecDense, err error) {
	n, cols := X.Dims()
	if n == 0 {
		return nil, nil, nil, nil, errors.Wrap(errors.ErrEmptyData, "TrainTestSplit")
	}
	if y.Len() != n {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", n, y.Len(), 0)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit", "testSize must be in (0, 1)")
	}

	nEval := int(math.Round(float64(n) * testSize))
	if nEval == 0 || nEval == n {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit", "split leaves one side empty")
	}
	nFit := n - nEval

	r := rand.New(rand.NewPCG(seed, seed))
	perm := r.Perm(n)

	XFit = mat.NewDense(nFit, cols, nil)
	yFit = mat.NewVecDense(nFit, nil)
	for i, src := range perm[:nFit] {
		for j := 0; j < cols; j++ {
			XFit.Set(i, j, X.At(src, j))
		}
		yFit.SetVec(i, y.AtVec(src))
	}

	XEval = mat.NewDense(nEval, cols, nil)
	yEval = mat.NewVecDense(nEval, nil)
	for i, src := range perm[nFit:] {
		for j := 0; j < cols; j++ {
			XEval.Set(i, j, X.At(src, j))
		}
		yEval.SetVec(i, y.AtVec(src))
	}
	return XFit, XEval, yFit, yEval, nil
}
