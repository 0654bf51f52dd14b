package criterion

// regressionBase maintains, per output, the weighted sum of y, plus a
// single scalar weighted sum of y^2 across all outputs (sq_sum_total),
// which is all MSE needs since it averages over outputs.
type regressionBase struct {
	nodeState

	sumTotal, sumLeft, sumRight, sumMissing []float64 // length nOutputs
	sqSumTotal                              float64
}

func newRegressionBase(nOutputs int) regressionBase {
	return regressionBase{
		nodeState:  newNodeState(nOutputs),
		sumTotal:   make([]float64, nOutputs),
		sumLeft:    make([]float64, nOutputs),
		sumRight:   make([]float64, nOutputs),
		sumMissing: make([]float64, nOutputs),
	}
}

func (r *regressionBase) Init(y [][]float64, sampleWeight []float64, weightedNSamples float64, sampleIndices []int, start, end int) error {
	if err := r.bindCommon(y, sampleWeight, weightedNSamples, sampleIndices, start, end); err != nil {
		return err
	}

	zeroFloats(r.sumTotal)
	r.sqSumTotal = 0
	for p := start; p < end; p++ {
		i := sampleIndices[p]
		w := r.weightAt(i)
		for k := 0; k < r.nOutputs; k++ {
			yk := y[i][k]
			r.sumTotal[k] += w * yk
			r.sqSumTotal += w * yk * yk
		}
	}

	zeroFloats(r.sumMissing)
	r.Reset()
	return nil
}

func (r *regressionBase) InitMissing(n int) error {
	r.nMissing = n
	zeroFloats(r.sumMissing)
	r.weightedNMissing = 0
	if n == 0 {
		return nil
	}
	for p := r.end - n; p < r.end; p++ {
		i := r.sampleIndices[p]
		w := r.weightAt(i)
		r.weightedNMissing += w
		for k := 0; k < r.nOutputs; k++ {
			r.sumMissing[k] += w * r.y[i][k]
		}
	}
	return nil
}

func (r *regressionBase) Reset() {
	r.pos = r.start
	if r.missingGoToLeft {
		r.weightedNLeft = r.weightedNMissing
		r.weightedNRight = r.weightedNNodeSamples - r.weightedNMissing
		copyFloats(r.sumLeft, r.sumMissing)
		subFloats(r.sumRight, r.sumTotal, r.sumMissing)
	} else {
		r.weightedNLeft = 0
		r.weightedNRight = r.weightedNNodeSamples
		zeroFloats(r.sumLeft)
		copyFloats(r.sumRight, r.sumTotal)
	}
}

func (r *regressionBase) ReverseReset() {
	r.pos = r.end
	if r.missingGoToLeft {
		r.weightedNRight = 0
		r.weightedNLeft = r.weightedNNodeSamples
		zeroFloats(r.sumRight)
		copyFloats(r.sumLeft, r.sumTotal)
	} else {
		r.weightedNRight = r.weightedNMissing
		r.weightedNLeft = r.weightedNNodeSamples - r.weightedNMissing
		copyFloats(r.sumRight, r.sumMissing)
		subFloats(r.sumLeft, r.sumTotal, r.sumMissing)
	}
}

func (r *regressionBase) addToLeft(i int) {
	w := r.weightAt(i)
	for k := 0; k < r.nOutputs; k++ {
		yk := w * r.y[i][k]
		r.sumLeft[k] += yk
		r.sumRight[k] -= yk
	}
}

func (r *regressionBase) removeFromLeft(i int) {
	w := r.weightAt(i)
	for k := 0; k < r.nOutputs; k++ {
		yk := w * r.y[i][k]
		r.sumLeft[k] -= yk
		r.sumRight[k] += yk
	}
}

func (r *regressionBase) Update(newPos int) {
	r.updateSweep(newPos, r.addToLeft, r.removeFromLeft, r.ReverseReset)
}

func (r *regressionBase) NodeValue(dest []float64) {
	r.writeMeans(dest, r.sumTotal, r.weightedNNodeSamples)
}

func (r *regressionBase) writeMeans(dest, sum []float64, w float64) {
	for k := 0; k < r.nOutputs; k++ {
		if w > 0 {
			dest[k] = sum[k] / w
		} else {
			dest[k] = 0
		}
	}
}

func (r *regressionBase) ClipNodeValue(dest []float64, lo, hi float64) {
	clipDest(dest, lo, hi)
}

func (r *regressionBase) childValues() (left, right float64) {
	if r.weightedNLeft > 0 {
		left = r.sumLeft[0] / r.weightedNLeft
	}
	if r.weightedNRight > 0 {
		right = r.sumRight[0] / r.weightedNRight
	}
	return left, right
}

func (r *regressionBase) MiddleValue() float64 {
	left, right := r.childValues()
	return (left + right) / 2
}

func (r *regressionBase) CheckMonotonicity(sign int, lo, hi float64) bool {
	left, right := r.childValues()
	return checkMonotonicity(sign, lo, hi, left, right)
}

// sqSumOverRanges computes the weighted sum of y^2, across all outputs,
// over the given physical sub-ranges of sample_indices. Recomputing this by
// a single sweep (rather than maintaining a running sq_sum_left) avoids the
// catastrophic cancellation that subtracting two large running sums over a
// long sweep would otherwise invite.
func (r *regressionBase) sqSumOverRanges(ranges [][2]int) float64 {
	var sq float64
	r.forEachSample(ranges, func(i int, w float64) {
		for k := 0; k < r.nOutputs; k++ {
			yk := r.y[i][k]
			sq += w * yk * yk
		}
	})
	return sq
}

func mseImpurity(sqSum float64, sum []float64, w float64, nOutputs int) float64 {
	if w <= 0 {
		return 0
	}
	total := sqSum / w
	for _, s := range sum {
		m := s / w
		total -= m * m
	}
	return total / float64(nOutputs)
}

// MSE is the regression criterion minimizing weighted mean squared error,
// averaged over outputs.
type MSE struct {
	regressionBase
}

// NewMSE returns an MSE criterion for nOutputs outputs over a node of up to
// nSamples samples.
func NewMSE(nOutputs, nSamples int) *MSE {
	_ = nSamples
	return &MSE{regressionBase: newRegressionBase(nOutputs)}
}

func (m *MSE) NodeImpurity() float64 {
	return mseImpurity(m.sqSumTotal, m.sumTotal, m.weightedNNodeSamples, m.nOutputs)
}

func (m *MSE) ChildrenImpurity(outLeft, outRight *float64) {
	sqLeft := m.sqSumOverRanges(m.leftRanges())
	sqRight := m.sqSumTotal - sqLeft
	*outLeft = mseImpurity(sqLeft, m.sumLeft, m.weightedNLeft, m.nOutputs)
	*outRight = mseImpurity(sqRight, m.sumRight, m.weightedNRight, m.nOutputs)
}

// ProxyImpurityImprovement returns sum_k sum_left[k]^2/weighted_n_left +
// sum_k sum_right[k]^2/weighted_n_right, dropping the constant
// sq_sum_total/n_outputs term shared by every candidate split.
func (m *MSE) ProxyImpurityImprovement() float64 {
	if m.weightedNLeft <= m.epsilon || m.weightedNRight <= m.epsilon {
		return 0
	}
	var proxy float64
	for k := 0; k < m.nOutputs; k++ {
		proxy += m.sumLeft[k] * m.sumLeft[k] / m.weightedNLeft
		proxy += m.sumRight[k] * m.sumRight[k] / m.weightedNRight
	}
	return proxy
}

// FriedmanMSE shares MSE's state, Init, and Update but scores candidates
// with Friedman's improvement formula (Friedman, 2001), which rewards a
// larger difference between the two child means more than plain MSE does.
type FriedmanMSE struct {
	regressionBase
}

// NewFriedmanMSE returns a FriedmanMSE criterion for nOutputs outputs over
// a node of up to nSamples samples.
func NewFriedmanMSE(nOutputs, nSamples int) *FriedmanMSE {
	_ = nSamples
	return &FriedmanMSE{regressionBase: newRegressionBase(nOutputs)}
}

func (f *FriedmanMSE) NodeImpurity() float64 {
	return mseImpurity(f.sqSumTotal, f.sumTotal, f.weightedNNodeSamples, f.nOutputs)
}

func (f *FriedmanMSE) ChildrenImpurity(outLeft, outRight *float64) {
	sqLeft := f.sqSumOverRanges(f.leftRanges())
	sqRight := f.sqSumTotal - sqLeft
	*outLeft = mseImpurity(sqLeft, f.sumLeft, f.weightedNLeft, f.nOutputs)
	*outRight = mseImpurity(sqRight, f.sumRight, f.weightedNRight, f.nOutputs)
}

func (f *FriedmanMSE) diffNumerator() float64 {
	tL, tR := sumAll(f.sumLeft), sumAll(f.sumRight)
	return f.weightedNRight*tL - f.weightedNLeft*tR
}

func (f *FriedmanMSE) ProxyImpurityImprovement() float64 {
	if f.weightedNLeft <= f.epsilon || f.weightedNRight <= f.epsilon {
		return 0
	}
	d := f.diffNumerator()
	return d * d / (f.weightedNLeft * f.weightedNRight)
}

// ImpurityImprovement ignores the parent/left/right arguments, as Friedman's
// formula is computed directly from the running sums.
func (f *FriedmanMSE) ImpurityImprovement(float64, float64, float64) float64 {
	if f.weightedNLeft <= f.epsilon || f.weightedNRight <= f.epsilon || f.weightedNNodeSamples <= 0 {
		return 0
	}
	d := f.diffNumerator() / float64(f.nOutputs)
	return d * d / (f.weightedNLeft * f.weightedNRight * f.weightedNNodeSamples)
}
