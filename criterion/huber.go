package criterion

import "math"

// Huber is the regression criterion minimizing the Huber loss, which
// behaves like squared error for small residuals and like absolute error
// beyond delta, trading some sensitivity to outliers for the remaining
// least-squares efficiency near the mean.
type Huber struct {
	regressionBase
	delta float64
}

// NewHuber returns a Huber criterion for nOutputs outputs over a node of up
// to nSamples samples, with the given residual threshold delta (defaults to
// 1.0 if delta <= 0).
func NewHuber(nOutputs, nSamples int, delta float64) *Huber {
	_ = nSamples
	if delta <= 0 {
		delta = 1.0
	}
	return &Huber{regressionBase: newRegressionBase(nOutputs), delta: delta}
}

// huberLoss averages, over ranges and outputs, 0.5*e^2 for |e| <= delta and
// delta*(|e| - 0.5*delta) otherwise, where e = y[i,k] - ySum[k]/w.
//
// Recomputing the mean and scanning every sample on each call is quadratic
// over a full sweep; a running-moments formulation would be linear but
// loses fidelity right at |e| == delta, where the loss's derivative is
// discontinuous in which branch a sample falls into.
func (h *Huber) huberLoss(ranges [][2]int, ySum []float64, w float64) float64 {
	if w <= 0 {
		return 0
	}
	var total float64
	for k := 0; k < h.nOutputs; k++ {
		mu := ySum[k] / w
		h.forEachSample(ranges, func(i int, wi float64) {
			e := h.y[i][k] - mu
			ae := math.Abs(e)
			if ae <= h.delta {
				total += wi * 0.5 * e * e
			} else {
				total += wi * h.delta * (ae - 0.5*h.delta)
			}
		})
	}
	return total / (w * float64(h.nOutputs))
}

func (h *Huber) NodeImpurity() float64 {
	return h.huberLoss([][2]int{{h.start, h.end}}, h.sumTotal, h.weightedNNodeSamples)
}

func (h *Huber) ChildrenImpurity(outLeft, outRight *float64) {
	*outLeft = h.huberLoss(h.leftRanges(), h.sumLeft, h.weightedNLeft)
	*outRight = h.huberLoss(h.rightRanges(), h.sumRight, h.weightedNRight)
}

// ProxyImpurityImprovement uses the shared children-impurity-based default;
// no closed form for Huber's proxy is specified.
func (h *Huber) ProxyImpurityImprovement() float64 {
	return defaultProxyImpurityImprovement(h)
}
