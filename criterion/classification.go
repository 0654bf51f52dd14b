package criterion

import "math"

// classificationBase maintains per-output, per-class weighted count
// histograms over a flat, rectangular buffer of size nOutputs*maxNClasses;
// class c of output k lives at k*maxNClasses + c. Iteration always respects
// nClasses[k], never the padded stride, so unused tail entries of a
// narrower output stay at zero and never leak into a sum.
type classificationBase struct {
	nodeState

	nClasses    []int
	maxNClasses int

	sumTotal, sumLeft, sumRight, sumMissing []float64
}

func newClassificationBase(nOutputs int, nClasses []int) classificationBase {
	max := 0
	for _, n := range nClasses {
		if n > max {
			max = n
		}
	}
	size := nOutputs * max
	return classificationBase{
		nodeState:   newNodeState(nOutputs),
		nClasses:    append([]int(nil), nClasses...),
		maxNClasses: max,
		sumTotal:    make([]float64, size),
		sumLeft:     make([]float64, size),
		sumRight:    make([]float64, size),
		sumMissing:  make([]float64, size),
	}
}

func (c *classificationBase) classOf(i, k int) int {
	return int(c.y[i][k])
}

func (c *classificationBase) Init(y [][]float64, sampleWeight []float64, weightedNSamples float64, sampleIndices []int, start, end int) error {
	if err := c.bindCommon(y, sampleWeight, weightedNSamples, sampleIndices, start, end); err != nil {
		return err
	}

	zeroFloats(c.sumTotal)
	for p := start; p < end; p++ {
		i := sampleIndices[p]
		w := c.weightAt(i)
		for k := 0; k < c.nOutputs; k++ {
			cls := c.classOf(i, k)
			c.sumTotal[k*c.maxNClasses+cls] += w
		}
	}

	zeroFloats(c.sumMissing)
	c.Reset()
	return nil
}

func (c *classificationBase) InitMissing(n int) error {
	c.nMissing = n
	zeroFloats(c.sumMissing)
	c.weightedNMissing = 0
	if n == 0 {
		return nil
	}
	for p := c.end - n; p < c.end; p++ {
		i := c.sampleIndices[p]
		w := c.weightAt(i)
		c.weightedNMissing += w
		for k := 0; k < c.nOutputs; k++ {
			cls := c.classOf(i, k)
			c.sumMissing[k*c.maxNClasses+cls] += w
		}
	}
	return nil
}

func (c *classificationBase) Reset() {
	c.pos = c.start
	if c.missingGoToLeft {
		c.weightedNLeft = c.weightedNMissing
		c.weightedNRight = c.weightedNNodeSamples - c.weightedNMissing
		copyFloats(c.sumLeft, c.sumMissing)
		subFloats(c.sumRight, c.sumTotal, c.sumMissing)
	} else {
		c.weightedNLeft = 0
		c.weightedNRight = c.weightedNNodeSamples
		zeroFloats(c.sumLeft)
		copyFloats(c.sumRight, c.sumTotal)
	}
}

func (c *classificationBase) ReverseReset() {
	c.pos = c.end
	if c.missingGoToLeft {
		c.weightedNRight = 0
		c.weightedNLeft = c.weightedNNodeSamples
		zeroFloats(c.sumRight)
		copyFloats(c.sumLeft, c.sumTotal)
	} else {
		c.weightedNRight = c.weightedNMissing
		c.weightedNLeft = c.weightedNNodeSamples - c.weightedNMissing
		copyFloats(c.sumRight, c.sumMissing)
		subFloats(c.sumLeft, c.sumTotal, c.sumMissing)
	}
}

func (c *classificationBase) addToLeft(i int) {
	w := c.weightAt(i)
	for k := 0; k < c.nOutputs; k++ {
		idx := k*c.maxNClasses + c.classOf(i, k)
		c.sumLeft[idx] += w
		c.sumRight[idx] -= w
	}
}

func (c *classificationBase) removeFromLeft(i int) {
	w := c.weightAt(i)
	for k := 0; k < c.nOutputs; k++ {
		idx := k*c.maxNClasses + c.classOf(i, k)
		c.sumLeft[idx] -= w
		c.sumRight[idx] += w
	}
}

func (c *classificationBase) Update(newPos int) {
	c.updateSweep(newPos, c.addToLeft, c.removeFromLeft, c.ReverseReset)
}

func (c *classificationBase) NodeValue(dest []float64) {
	c.writeProportions(dest, c.sumTotal, c.weightedNNodeSamples)
}

func (c *classificationBase) writeProportions(dest, sum []float64, w float64) {
	for k := 0; k < c.nOutputs; k++ {
		base := k * c.maxNClasses
		for cc := 0; cc < c.nClasses[k]; cc++ {
			if w > 0 {
				dest[base+cc] = sum[base+cc] / w
			} else {
				dest[base+cc] = 0
			}
		}
	}
}

// ClipNodeValue clamps dest[0] into [lo, hi]. It only performs the
// sum-to-one re-projection dest[1] = 1 - dest[0] when the tree is genuinely
// single-output binary classification; calling it on a wider tree clamps
// dest[0] and otherwise leaves dest untouched, rather than asserting or
// silently corrupting dest[1:] the way the source implementation does.
func (c *classificationBase) ClipNodeValue(dest []float64, lo, hi float64) {
	clipDest(dest, lo, hi)
	if c.nOutputs == 1 && c.nClasses[0] == 2 {
		dest[1] = 1 - dest[0]
	}
}

// childValues returns the class-0, output-0 proportion on each side, the
// value monotonicity and MiddleValue reason about.
func (c *classificationBase) childValues() (left, right float64) {
	if c.weightedNLeft > 0 {
		left = c.sumLeft[0] / c.weightedNLeft
	}
	if c.weightedNRight > 0 {
		right = c.sumRight[0] / c.weightedNRight
	}
	return left, right
}

func (c *classificationBase) MiddleValue() float64 {
	left, right := c.childValues()
	return (left + right) / 2
}

func (c *classificationBase) CheckMonotonicity(sign int, lo, hi float64) bool {
	left, right := c.childValues()
	return checkMonotonicity(sign, lo, hi, left, right)
}

// gini returns the Gini impurity of sum/w, averaged over outputs:
// 1 - sum_c p_c^2 per output.
func (c *classificationBase) gini(sum []float64, w float64) float64 {
	if w <= 0 {
		return 0
	}
	total := 0.0
	for k := 0; k < c.nOutputs; k++ {
		base := k * c.maxNClasses
		s := 0.0
		for cc := 0; cc < c.nClasses[k]; cc++ {
			p := sum[base+cc] / w
			s += p * p
		}
		total += 1 - s
	}
	return total / float64(c.nOutputs)
}

// entropy returns the natural-log entropy of sum/w, averaged over outputs.
func (c *classificationBase) entropy(sum []float64, w float64) float64 {
	if w <= 0 {
		return 0
	}
	total := 0.0
	for k := 0; k < c.nOutputs; k++ {
		base := k * c.maxNClasses
		s := 0.0
		for cc := 0; cc < c.nClasses[k]; cc++ {
			p := sum[base+cc] / w
			if p > 0 {
				s -= p * math.Log(p)
			}
		}
		total += s
	}
	return total / float64(c.nOutputs)
}

// Gini is the classification criterion using Gini impurity.
type Gini struct {
	classificationBase
}

// NewGini returns a Gini criterion for nOutputs outputs, with
// nClasses[k] classes in output k.
func NewGini(nOutputs int, nClasses []int) *Gini {
	return &Gini{classificationBase: newClassificationBase(nOutputs, nClasses)}
}

func (g *Gini) NodeImpurity() float64 {
	return g.gini(g.sumTotal, g.weightedNNodeSamples)
}

func (g *Gini) ChildrenImpurity(outLeft, outRight *float64) {
	*outLeft = g.gini(g.sumLeft, g.weightedNLeft)
	*outRight = g.gini(g.sumRight, g.weightedNRight)
}

func (g *Gini) ProxyImpurityImprovement() float64 {
	return defaultProxyImpurityImprovement(g)
}

// Entropy is the classification criterion using Shannon entropy (natural
// log).
type Entropy struct {
	classificationBase
}

// NewEntropy returns an Entropy criterion for nOutputs outputs, with
// nClasses[k] classes in output k.
func NewEntropy(nOutputs int, nClasses []int) *Entropy {
	return &Entropy{classificationBase: newClassificationBase(nOutputs, nClasses)}
}

func (e *Entropy) NodeImpurity() float64 {
	return e.entropy(e.sumTotal, e.weightedNNodeSamples)
}

func (e *Entropy) ChildrenImpurity(outLeft, outRight *float64) {
	*outLeft = e.entropy(e.sumLeft, e.weightedNLeft)
	*outRight = e.entropy(e.sumRight, e.weightedNRight)
}

func (e *Entropy) ProxyImpurityImprovement() float64 {
	return defaultProxyImpurityImprovement(e)
}
