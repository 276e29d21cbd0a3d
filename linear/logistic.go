// Package linear implements the logistic-regression baseline.
package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/core"
	"github.com/YuminosukeSato/tabpipe/core/model"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

var _ core.ProbClassifier = (*LogisticRegression)(nil)

// LogisticRegression is a binary classifier fitted by full-batch gradient
// descent on log-loss, unpenalized unless WithC adds an L2 term. Labels
// are {0,1}; scores are positive-class probabilities.
type LogisticRegression struct {
	state *model.StateManager

	c            float64 // inverse L2 strength; 0 disables the penalty
	fitIntercept bool
	maxIter      int
	tol          float64

	coef      []float64
	intercept float64
	nIter     int
}

// NewLogisticRegression creates a classifier with the defaults of no
// regularization, intercept fitting on, 1000 iterations, tolerance 1e-4.
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		fitIntercept: true,
		maxIter:      1000,
		tol:          1e-4,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit runs gradient descent until the gradient norm drops below the
// tolerance or the iteration limit is reached.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.Wrap(errors.ErrEmptyData, "LogisticRegression.Fit")
	}
	if yRows != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a single column")
	}

	targets := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		v := y.At(i, 0)
		if v != 0 && v != 1 {
			return errors.NewValueError("LogisticRegression.Fit", "labels must be 0 or 1")
		}
		targets[i] = v
	}

	lr.coef = make([]float64, nFeatures)
	lr.intercept = 0

	lambda := 0.0
	if lr.c > 0 {
		lambda = 1.0 / lr.c
	}
	// The penalty contributes lambda to the curvature; keeping the step
	// below 1/(1+lambda) prevents oscillation at small C.
	baseLearningRate := 1.0 / (1.0 + lambda)
	gradWeights := make([]float64, nFeatures)

	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range gradWeights {
			gradWeights[j] = 0
		}
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := lr.intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.coef[j]
			}
			residual := sigmoid(z) - targets[i]
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] = gradWeights[j]/float64(nSamples) + lambda*lr.coef[j]
		}
		gradIntercept /= float64(nSamples)

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range lr.coef {
			lr.coef[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			lr.intercept -= learningRate * gradIntercept
		}
		lr.nIter = iter + 1

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			break
		}
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// PredictProba returns one positive-class probability per row of X.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (*mat.VecDense, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	rows, cols := X.Dims()
	if cols != len(lr.coef) {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", len(lr.coef), cols, 1)
	}

	out := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		z := lr.intercept
		for j := 0; j < cols; j++ {
			z += X.At(i, j) * lr.coef[j]
		}
		out.SetVec(i, sigmoid(z))
	}
	return out, nil
}

// Coef returns a copy of the fitted weights.
func (lr *LogisticRegression) Coef() []float64 {
	out := make([]float64, len(lr.coef))
	copy(out, lr.coef)
	return out
}

// Intercept returns the fitted bias term.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept
}

// NIter returns the number of gradient steps actually taken.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
