package criterion

import "math"

// MAE is the regression criterion minimizing weighted mean absolute error.
// Unlike every other regression criterion it cannot be expressed as running
// sums: absolute error around a median needs the median itself, so MAE
// maintains one WeightedMedianCalculator per output per side instead of a
// sum_left/sum_right pair.
type MAE struct {
	nodeState

	left, right []*WeightedMedianCalculator
	nodeMedians []float64
}

// NewMAE returns an MAE criterion for nOutputs outputs over a node of up to
// nSamples samples.
func NewMAE(nOutputs, nSamples int) *MAE {
	m := &MAE{
		nodeState:   newNodeState(nOutputs),
		left:        make([]*WeightedMedianCalculator, nOutputs),
		right:       make([]*WeightedMedianCalculator, nOutputs),
		nodeMedians: make([]float64, nOutputs),
	}
	for k := range m.left {
		m.left[k] = NewWeightedMedianCalculator(nSamples)
		m.right[k] = NewWeightedMedianCalculator(nSamples)
	}
	return m
}

func (m *MAE) Init(y [][]float64, sampleWeight []float64, weightedNSamples float64, sampleIndices []int, start, end int) error {
	if err := m.bindCommon(y, sampleWeight, weightedNSamples, sampleIndices, start, end); err != nil {
		return err
	}

	for k := 0; k < m.nOutputs; k++ {
		m.left[k].Reset()
		m.right[k].Reset()
	}
	for p := start; p < end; p++ {
		i := sampleIndices[p]
		w := m.weightAt(i)
		for k := 0; k < m.nOutputs; k++ {
			m.right[k].Push(y[i][k], w)
		}
	}
	for k := 0; k < m.nOutputs; k++ {
		m.nodeMedians[k] = m.right[k].GetMedian()
	}

	m.Reset()
	return nil
}

// InitMissing only accepts nMissing == 0: MAE's median calculators have no
// way to remove a value without first having pushed it, so there is no
// sufficient statistic to populate for a trailing missing segment.
func (m *MAE) InitMissing(n int) error {
	if n > 0 {
		return ErrMissingNotSupported
	}
	m.nMissing = 0
	m.weightedNMissing = 0
	return nil
}

func (m *MAE) Reset() {
	m.pos = m.start
	for k := 0; k < m.nOutputs; k++ {
		m.left[k].drainInto(m.right[k])
	}
	m.weightedNLeft = 0
	m.weightedNRight = m.weightedNNodeSamples
}

func (m *MAE) ReverseReset() {
	m.pos = m.end
	for k := 0; k < m.nOutputs; k++ {
		m.right[k].drainInto(m.left[k])
	}
	m.weightedNRight = 0
	m.weightedNLeft = m.weightedNNodeSamples
}

func (m *MAE) Update(newPos int) {
	last := m.lastNonMissingPos() // always m.end; MAE never carries missing samples
	if newPos-m.pos <= last-newPos {
		for p := m.pos; p < newPos; p++ {
			i := m.sampleIndices[p]
			w := m.weightAt(i)
			for k := 0; k < m.nOutputs; k++ {
				v := m.y[i][k]
				m.right[k].Remove(v, w)
				m.left[k].Push(v, w)
			}
			m.weightedNLeft += w
		}
	} else {
		m.ReverseReset()
		for p := last - 1; p >= newPos; p-- {
			i := m.sampleIndices[p]
			w := m.weightAt(i)
			for k := 0; k < m.nOutputs; k++ {
				v := m.y[i][k]
				m.left[k].Remove(v, w)
				m.right[k].Push(v, w)
			}
			m.weightedNLeft -= w
		}
	}
	m.pos = newPos
	m.weightedNRight = m.weightedNNodeSamples - m.weightedNLeft
}

func (m *MAE) NodeImpurity() float64 {
	if m.weightedNNodeSamples <= 0 {
		return 0
	}
	var total float64
	for k := 0; k < m.nOutputs; k++ {
		median := m.nodeMedians[k]
		m.forEachSample([][2]int{{m.start, m.end}}, func(i int, wi float64) {
			total += wi * math.Abs(m.y[i][k]-median)
		})
	}
	return total / (m.weightedNNodeSamples * float64(m.nOutputs))
}

func (m *MAE) ChildrenImpurity(outLeft, outRight *float64) {
	*outLeft = m.sideImpurity(m.leftRanges(), m.left, m.weightedNLeft)
	*outRight = m.sideImpurity(m.rightRanges(), m.right, m.weightedNRight)
}

func (m *MAE) sideImpurity(ranges [][2]int, calcs []*WeightedMedianCalculator, w float64) float64 {
	if w <= 0 {
		return 0
	}
	var total float64
	for k := 0; k < m.nOutputs; k++ {
		median := calcs[k].GetMedian()
		m.forEachSample(ranges, func(i int, wi float64) {
			total += wi * math.Abs(m.y[i][k]-median)
		})
	}
	return total / (w * float64(m.nOutputs))
}

// NodeValue writes the cached per-output node medians (computed once, in
// Init, not recomputed here).
func (m *MAE) NodeValue(dest []float64) {
	copy(dest, m.nodeMedians)
}

func (m *MAE) ClipNodeValue(dest []float64, lo, hi float64) {
	clipDest(dest, lo, hi)
}

func (m *MAE) MiddleValue() float64 {
	return (m.left[0].GetMedian() + m.right[0].GetMedian()) / 2
}

func (m *MAE) CheckMonotonicity(sign int, lo, hi float64) bool {
	return checkMonotonicity(sign, lo, hi, m.left[0].GetMedian(), m.right[0].GetMedian())
}

func (m *MAE) ProxyImpurityImprovement() float64 {
	return defaultProxyImpurityImprovement(m)
}
