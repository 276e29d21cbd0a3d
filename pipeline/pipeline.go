// Package pipeline runs the end-to-end flow: load, normalize, impute,
// encode, split, train, evaluate, export.
package pipeline

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/boosting"
	"github.com/YuminosukeSato/tabpipe/core"
	"github.com/YuminosukeSato/tabpipe/dataset"
	"github.com/YuminosukeSato/tabpipe/internal/config"
	"github.com/YuminosukeSato/tabpipe/linear"
	"github.com/YuminosukeSato/tabpipe/metrics"
	"github.com/YuminosukeSato/tabpipe/modelselection"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
	"github.com/YuminosukeSato/tabpipe/pkg/log"
	"github.com/YuminosukeSato/tabpipe/preprocessing"
)

// Report summarizes a completed run.
type Report struct {
	TrainRows      int
	ValidationRows int
	FitRows        int
	EvalRows       int

	DroppedColumns []string
	FeatureNames   []string

	LogisticAUC float64
	BoostingAUC float64
	BestParams  boosting.Params
	SweepTrace  []modelselection.Candidate

	// Winner names the model with the higher held-out AUC. Both models'
	// validation predictions are exported regardless.
	Winner string

	LogisticPredictionsPath string
	BoostingPredictionsPath string
	ROCPlotPath             string
}

// Run executes the whole pipeline described by cfg and returns its
// report. Artifacts are written to the paths in cfg.Output.
func Run(cfg config.Config) (*Report, error) {
	logger := log.GetLoggerWithName("pipeline")
	started := time.Now()

	// Load the labeled training table and the unlabeled validation table.
	train, err := dataset.LoadCSV(cfg.Data.TrainPath, cfg.Data.LabelColumn)
	if err != nil {
		return nil, err
	}
	validation, err := dataset.LoadCSV(cfg.Data.ValidationPath, "")
	if err != nil {
		return nil, err
	}
	logger.Info("loaded datasets",
		log.RowsKey, train.NumRows(),
		"validation_rows", validation.NumRows(),
		log.FeaturesKey, train.NumCols(),
		log.MissingCellsKey, train.MissingCells())

	report := &Report{
		TrainRows:      train.NumRows(),
		ValidationRows: validation.NumRows(),
	}

	// Normalize: exclusions fitted on train, applied to both tables.
	normalizer := preprocessing.NewSchemaNormalizer(cfg.Normalizer)
	train, err = normalizer.FitTransform(train)
	if err != nil {
		return nil, err
	}
	validation, err = normalizer.Transform(validation)
	if err != nil {
		return nil, err
	}
	report.DroppedColumns = normalizer.Excluded()

	if !dataset.SameSchema(train, validation) {
		return nil, errors.Wrap(errors.ErrSchemaMismatch, "pipeline: train and validation tables")
	}

	// Impute each table by an independent refit.
	train, err = preprocessing.NewTreeImputer(cfg.Imputer).FitTransform(train)
	if err != nil {
		return nil, err
	}
	validation, err = preprocessing.NewTreeImputer(cfg.Imputer).FitTransform(validation)
	if err != nil {
		return nil, err
	}

	// Encode with train-fitted level sets and standardization statistics.
	encoder := preprocessing.NewFeatureEncoder(cfg.Encoder)
	XTrain, err := encoder.FitTransform(train)
	if err != nil {
		return nil, err
	}
	XValidation, err := encoder.Transform(validation)
	if err != nil {
		return nil, err
	}
	report.FeatureNames = encoder.FeatureNames()

	yTrain, err := labelVector(train)
	if err != nil {
		return nil, err
	}

	// Hold out an evaluation subset of the encoded training table.
	XFit, XEval, yFit, yEval, err := modelselection.TrainTestSplit(XTrain, yTrain, cfg.Split.TestSize, cfg.Split.Seed)
	if err != nil {
		return nil, err
	}
	fitRows, _ := XFit.Dims()
	evalRows, _ := XEval.Dims()
	report.FitRows = fitRows
	report.EvalRows = evalRows

	// Baseline.
	logit := linear.NewLogisticRegression(
		linear.WithC(cfg.Logistic.C),
		linear.WithMaxIter(cfg.Logistic.MaxIter),
	)
	var logitEval *mat.VecDense
	report.LogisticAUC, logitEval, err = evaluate(logit, XFit, yFit, XEval, yEval)
	if err != nil {
		return nil, err
	}
	logger.Info("baseline evaluated",
		log.StageKey, "logistic",
		log.AUCKey, report.LogisticAUC)

	// Tune and fit the boosted model.
	gbmParams := cfg.Boosting
	gbmParams.CategoricalFeatures = encoder.CategoricalIndices()
	sweep, err := modelselection.SweepGBM(XFit, yFit, XEval, yEval, gbmParams, cfg.Sweep)
	if err != nil {
		return nil, err
	}
	report.BestParams = sweep.Best
	report.SweepTrace = sweep.Trace

	gbm := boosting.NewClassifier(sweep.Best)
	var gbmEval *mat.VecDense
	report.BoostingAUC, gbmEval, err = evaluate(gbm, XFit, yFit, XEval, yEval)
	if err != nil {
		return nil, err
	}
	logger.Info("boosting evaluated",
		log.StageKey, "boosting",
		log.AUCKey, report.BoostingAUC,
		log.ShrinkageKey, sweep.Best.Shrinkage,
		log.DepthKey, sweep.Best.MaxDepth,
		log.TreesKey, sweep.Best.Trees)

	report.Winner = "boosting"
	if report.LogisticAUC > report.BoostingAUC {
		report.Winner = "logistic"
	}

	// Score the validation table with each model and export one
	// prediction file per model, in validation row order.
	logitValidation, err := logit.PredictProba(XValidation)
	if err != nil {
		return nil, err
	}
	if err := WritePredictions(cfg.Output.LogisticPredictions, logitValidation); err != nil {
		return nil, err
	}
	report.LogisticPredictionsPath = cfg.Output.LogisticPredictions

	gbmValidation, err := gbm.PredictProba(XValidation)
	if err != nil {
		return nil, err
	}
	if err := WritePredictions(cfg.Output.BoostingPredictions, gbmValidation); err != nil {
		return nil, err
	}
	report.BoostingPredictionsPath = cfg.Output.BoostingPredictions

	if cfg.Output.ROCPlot != "" {
		logitCurve, err := metrics.ROCCurve(yEval, logitEval)
		if err != nil {
			return nil, err
		}
		gbmCurve, err := metrics.ROCCurve(yEval, gbmEval)
		if err != nil {
			return nil, err
		}
		err = metrics.SaveROCPlot(cfg.Output.ROCPlot, map[string][]metrics.ROCPoint{
			"logistic": logitCurve,
			"boosting": gbmCurve,
		})
		if err != nil {
			return nil, err
		}
		report.ROCPlotPath = cfg.Output.ROCPlot
	}

	logger.Info("run complete",
		"winner", report.Winner,
		log.DurationMsKey, time.Since(started).Milliseconds())
	return report, nil
}

// evaluate fits a classifier on the fit subset and scores it on the
// held-out subset, returning the AUC and the held-out probabilities.
func evaluate(clf core.ProbClassifier, XFit mat.Matrix, yFit *mat.VecDense, XEval mat.Matrix, yEval *mat.VecDense) (float64, *mat.VecDense, error) {
	if err := clf.Fit(XFit, yFit); err != nil {
		return 0, nil, err
	}
	proba, err := clf.PredictProba(XEval)
	if err != nil {
		return 0, nil, err
	}
	auc, err := metrics.AUC(yEval, proba)
	if err != nil {
		return 0, nil, err
	}
	return auc, proba, nil
}

// labelVector pulls the table's label column into a vector, validating
// that it is present.
func labelVector(t *dataset.Table) (*mat.VecDense, error) {
	if t.Label == nil {
		return nil, errors.NewValueError("pipeline", "table has no label column")
	}
	out := mat.NewVecDense(len(t.Label), nil)
	for i, v := range t.Label {
		out.SetVec(i, v)
	}
	return out, nil
}
