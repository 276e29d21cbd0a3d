package modelselection

import (
	"maps"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/boosting"
	"github.com/YuminosukeSato/tabpipe/metrics"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
	"github.com/YuminosukeSato/tabpipe/pkg/log"
)

// Factor is one hyperparameter in a sweep: a name and the candidate
// values tried for it. An empty candidate list keeps the default value.
type Factor struct {
	Name       string
	Candidates []float64
}

// Evaluation records one scored parameter assignment.
type Evaluation struct {
	Values map[string]float64
	Score  float64
}

// Result is the outcome of a sweep: the winning assignment and every
// assignment tried, in evaluation order.
type Result struct {
	Best      map[string]float64
	BestScore float64
	Trace     []Evaluation
}

// Score evaluates one parameter assignment, higher is better.
type Score func(values map[string]float64) (float64, error)

// Sweep tunes parameters one factor at a time: each factor is swept over
// its candidates with every other parameter held at its current best, and
// the winner is fixed before the next factor starts. Factors are visited
// in slice order; a tie keeps the earlier candidate, so candidate order
// breaks ties. The routine knows nothing about the model being tuned
// beyond the score callback.
//
// The one-at-a-time walk evaluates sum(len(candidates)) assignments
// instead of the full product. It can miss interactions between factors;
// ordering the most influential factor first keeps later sweeps near the
// optimum. If every candidate list is empty the defaults are scored once
// so the result always carries a score.
func Sweep(factors []Factor, defaults map[string]float64, score Score) (*Result, error) {
	result := &Result{Best: maps.Clone(defaults), BestScore: -1}

	for _, factor := range factors {
		if len(factor.Candidates) == 0 {
			continue
		}
		factorBest := result.Best
		factorBestScore := -1.0
		for _, candidate := range factor.Candidates {
			values := maps.Clone(result.Best)
			values[factor.Name] = candidate
			s, err := score(values)
			if err != nil {
				return nil, errors.Wrapf(err, "Sweep: factor %s candidate %v", factor.Name, candidate)
			}
			result.Trace = append(result.Trace, Evaluation{Values: values, Score: s})
			if s > factorBestScore {
				factorBest = values
				factorBestScore = s
			}
		}
		result.Best = factorBest
		result.BestScore = factorBestScore
	}

	if len(result.Trace) == 0 {
		s, err := score(result.Best)
		if err != nil {
			return nil, errors.Wrap(err, "Sweep: defaults")
		}
		result.BestScore = s
		result.Trace = append(result.Trace, Evaluation{Values: maps.Clone(result.Best), Score: s})
	}
	return result, nil
}

// Grids lists the candidate values swept for each boosting hyperparameter.
// An empty grid keeps the base value for that factor.
type Grids struct {
	Shrinkage []float64 `yaml:"shrinkage"`
	MaxDepth  []int     `yaml:"max_depth"`
	Trees     []int     `yaml:"trees"`
}

// Candidate records one evaluated boosting configuration.
type Candidate struct {
	Params boosting.Params
	AUC    float64
}

// SweepResult is the outcome of a boosting sweep.
type SweepResult struct {
	Best    boosting.Params
	BestAUC float64
	Trace   []Candidate
}

// SweepGBM tunes the boosting hyperparameters with Sweep: shrinkage
// first, then depth, then tree count. Candidates are scored by the AUC of
// a model fit on the fit split and evaluated on the held-out split.
func SweepGBM(XFit, yFit, XEval mat.Matrix, yEval *mat.VecDense, base boosting.Params, grids Grids) (*SweepResult, error) {
	logger := log.GetLoggerWithName("modelselection.sweep")

	factors := []Factor{
		{Name: "shrinkage", Candidates: grids.Shrinkage},
		{Name: "max_depth", Candidates: intCandidates(grids.MaxDepth)},
		{Name: "trees", Candidates: intCandidates(grids.Trees)},
	}
	defaults := map[string]float64{
		"shrinkage": base.Shrinkage,
		"max_depth": float64(base.MaxDepth),
		"trees":     float64(base.Trees),
	}

	score := func(values map[string]float64) (float64, error) {
		params := applyValues(base, values)
		clf := boosting.NewClassifier(params)
		if err := clf.Fit(XFit, yFit); err != nil {
			return 0, errors.Wrap(err, "candidate fit")
		}
		proba, err := clf.PredictProba(XEval)
		if err != nil {
			return 0, errors.Wrap(err, "candidate predict")
		}
		auc, err := metrics.AUC(yEval, proba)
		if err != nil {
			return 0, err
		}
		logger.Info("sweep candidate",
			log.ShrinkageKey, params.Shrinkage,
			log.DepthKey, params.MaxDepth,
			log.TreesKey, params.Trees,
			log.AUCKey, auc)
		return auc, nil
	}

	generic, err := Sweep(factors, defaults, score)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{
		Best:    applyValues(base, generic.Best),
		BestAUC: generic.BestScore,
	}
	for _, eval := range generic.Trace {
		result.Trace = append(result.Trace, Candidate{
			Params: applyValues(base, eval.Values),
			AUC:    eval.Score,
		})
	}

	logger.Info("sweep complete",
		log.ShrinkageKey, result.Best.Shrinkage,
		log.DepthKey, result.Best.MaxDepth,
		log.TreesKey, result.Best.Trees,
		log.AUCKey, result.BestAUC)
	return result, nil
}

// applyValues writes a sweep assignment back into a Params copy.
func applyValues(base boosting.Params, values map[string]float64) boosting.Params {
	params := base
	params.Shrinkage = values["shrinkage"]
	params.MaxDepth = int(values["max_depth"])
	params.Trees = int(values["trees"])
	return params
}

func intCandidates(vs []int) []float64 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out
}
