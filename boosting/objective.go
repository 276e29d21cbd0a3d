package boosting

import "math"

// logisticObjective is the Bernoulli log-loss on raw scores. Targets are
// {0,1}; predictions are margins, converted through the sigmoid.
type logisticObjective struct{}

const minHessian = 1e-16

// Gradient is d loss / d margin: sigmoid(prediction) - target.
func (logisticObjective) Gradient(prediction, target float64) float64 {
	return sigmoid(prediction) - target
}

// Hessian is p*(1-p), floored so leaf values stay finite on saturated
// rows.
func (logisticObjective) Hessian(prediction, target float64) float64 {
	p := sigmoid(prediction)
	h := p * (1 - p)
	if h < minHessian {
		return minHessian
	}
	return h
}

// Loss is the negative Bernoulli log-likelihood of one row.
func (logisticObjective) Loss(prediction, target float64) float64 {
	p := sigmoid(prediction)
	const eps = 1e-15
	p = math.Min(math.Max(p, eps), 1-eps)
	if target == 1 {
		return -math.Log(p)
	}
	return -math.Log(1 - p)
}

// InitScore is the log-odds of the base rate, so boosting starts from the
// best constant model.
func (logisticObjective) InitScore(targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	var pos float64
	for _, t := range targets {
		if t == 1 {
			pos++
		}
	}
	p := pos / float64(len(targets))
	const eps = 1e-12
	p = math.Min(math.Max(p, eps), 1-eps)
	return math.Log(p / (1 - p))
}
