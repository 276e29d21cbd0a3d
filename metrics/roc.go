// Package metrics implements the evaluation measures used to compare the
// candidate classifiers.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

// ROCPoint is one operating point of a classifier: the true-positive and
// false-positive rates obtained by thresholding scores at Threshold.
type ROCPoint struct {
	Threshold float64
	TPR       float64
	FPR       float64
}

// ROCCurve sweeps the threshold across every distinct score and returns
// the operating points ordered by ascending FPR, bracketed by the (0,0)
// and (1,1) endpoints. yTrue holds {0,1} labels; score is any monotone
// ranking, probabilities included.
func ROCCurve(yTrue, score *mat.VecDense) ([]ROCPoint, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("ROCCurve", "empty vector")
	}
	if score.Len() != n {
		return nil, errors.NewDimensionError("ROCCurve", n, score.Len(), 0)
	}

	var pos, neg float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil, errors.NewValueError("ROCCurve", "both classes must be present")
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return score.AtVec(idx[a]) > score.AtVec(idx[b])
	})

	points := []ROCPoint{{Threshold: score.AtVec(idx[0]) + 1, TPR: 0, FPR: 0}}
	var tp, fp float64
	for k := 0; k < n; k++ {
		i := idx[k]
		if yTrue.AtVec(i) == 1 {
			tp++
		} else {
			fp++
		}
		// Emit a point only once all ties at this score are consumed.
		if k+1 < n && score.AtVec(idx[k+1]) == score.AtVec(i) {
			continue
		}
		points = append(points, ROCPoint{
			Threshold: score.AtVec(i),
			TPR:       tp / pos,
			FPR:       fp / neg,
		})
	}

	return points, nil
}

// AUC computes the area under the ROC curve by trapezoidal integration.
// 0.5 is chance level, 1.0 a perfect ranking.
func AUC(yTrue, score *mat.VecDense) (float64, error) {
	points, err := ROCCurve(yTrue, score)
	if err != nil {
		return 0, err
	}

	var area float64
	for k := 1; k < len(points); k++ {
		dx := points[k].FPR - points[k-1].FPR
		area += dx * (points[k].TPR + points[k-1].TPR) / 2
	}
	return area, nil
}

// Accuracy is the fraction of rows where thresholding the score at 0.5
// recovers the label.
func Accuracy(yTrue, score *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if score.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, score.Len(), 0)
	}

	var hits float64
	for i := 0; i < n; i++ {
		pred := 0.0
		if score.AtVec(i) >= 0.5 {
			pred = 1.0
		}
		if pred == yTrue.AtVec(i) {
			hits++
		}
	}
	return hits / float64(n), nil
}

// LogLoss is the mean Bernoulli negative log-likelihood of the predicted
// probabilities. Probabilities are clipped away from 0 and 1 so a single
// overconfident miss cannot return +Inf.
func LogLoss(yTrue, proba *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty vector")
	}
	if proba.Len() != n {
		return 0, errors.NewDimensionError("LogLoss", n, proba.Len(), 0)
	}

	const eps = 1e-15
	var sum float64
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(proba.AtVec(i), eps), 1-eps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}
