// Package core defines the contracts shared by the pipeline's estimators
// and transformers.
package core

import "gonum.org/v1/gonum/mat"

// Fitter is a model that learns from a feature matrix and a target vector.
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// ProbClassifier is a binary classifier scored by its positive-class
// probability. Both candidate model families implement it, so evaluation
// and the hyperparameter sweep treat them uniformly.
type ProbClassifier interface {
	Fitter

	// PredictProba returns one positive-class probability per input row.
	PredictProba(X mat.Matrix) (*mat.VecDense, error)
}

// Transformer is a fitted matrix transformation. Fit learns parameters
// from training data; Transform applies them without recomputation.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (*mat.Dense, error)
	FitTransform(X mat.Matrix) (*mat.Dense, error)
}
