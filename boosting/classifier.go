package boosting

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/core"
	"github.com/YuminosukeSato/tabpipe/core/model"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

var _ core.ProbClassifier = (*Classifier)(nil)

// Classifier is the estimator facade over Trainer and Model. A fresh
// trainer is constructed on every Fit, so the same Classifier value can
// be refitted with different data.
type Classifier struct {
	state  *model.StateManager
	params Params

	model *Model
}

// NewClassifier creates an unfitted gradient-boosting classifier.
func NewClassifier(params Params) *Classifier {
	return &Classifier{
		state:  model.NewStateManager(),
		params: params,
	}
}

// Params returns the hyperparameters the classifier was built with.
func (c *Classifier) Params() Params {
	return c.params
}

// Fit trains a new ensemble on X and the {0,1} label column y.
func (c *Classifier) Fit(X, y mat.Matrix) error {
	trainer := NewTrainer(c.params)
	if err := trainer.Fit(X, y); err != nil {
		return err
	}
	c.model = trainer.GetModel()

	rows, cols := X.Dims()
	c.state.SetDimensions(cols, rows)
	c.state.SetFitted()
	return nil
}

// PredictProba returns one positive-class probability per row of X.
func (c *Classifier) PredictProba(X mat.Matrix) (*mat.VecDense, error) {
	if !c.state.IsFitted() {
		return nil, errors.NewNotFittedError("boosting.Classifier", "PredictProba")
	}
	return c.model.PredictProba(X)
}

// Model exposes the fitted ensemble.
func (c *Classifier) Model() *Model {
	return c.model
}
