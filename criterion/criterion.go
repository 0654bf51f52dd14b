// Package criterion implements the impurity criteria used at the innermost
// loop of decision-tree induction: given a node's samples sorted along one
// candidate feature, it maintains the running sufficient statistics needed
// to evaluate every candidate split boundary in amortized constant time.
//
// The interface follows Louppe, G. (2014) "Understanding Random Forests:
// From Theory to Practice" (PhD thesis), chapter 3, the same source the
// sibling tree package's splitter is built from.
package criterion

import (
	"errors"
	"fmt"
	"math"
)

// ErrInit is returned by Init when the supplied sample range or bound data
// cannot be accepted (a malformed [start, end) range, or y rows shorter
// than the configured number of outputs). The criterion is left unmodified
// and remains safe to reuse for a later Init call.
var ErrInit = errors.New("criterion: invalid init arguments")

// ErrMissingNotSupported is returned by MAE.InitMissing when called with
// n_missing > 0; missing-value routing is not implemented for MAE.
var ErrMissingNotSupported = errors.New("criterion: missing values not supported by this criterion")

// ulpOne is 1 ULP of 1.0, computed once at package init. EPSILON is derived
// from it per-instance (see nodeState.epsilon) rather than shared as a
// mutable package global.
var ulpOne = math.Nextafter(1, 2) - 1

// Criterion is the contract the splitter drives: bind a node's samples with
// Init, optionally declare trailing missing samples with InitMissing, then
// sweep the split boundary with Reset/ReverseReset/Update, reading
// ProxyImpurityImprovement to rank candidates and, once, NodeImpurity /
// ChildrenImpurity / ImpurityImprovement to score the chosen split.
//
// A Criterion is not safe for concurrent use; the splitter may run many
// instances concurrently on disjoint nodes, one per goroutine.
type Criterion interface {
	// Init binds y, sample_weight, sample_indices and the node range
	// [start, end), recomputes the node's total sufficient statistics, and
	// calls Reset. n_missing is set to 0.
	Init(y [][]float64, sampleWeight []float64, weightedNSamples float64, sampleIndices []int, start, end int) error

	// InitMissing declares that the last nMissing entries of
	// sampleIndices[start:end) are missing for the feature under
	// evaluation, and accumulates their sufficient statistics into the
	// missing-side buffers. nMissing == 0 clears any prior missing state.
	InitMissing(nMissing int) error

	// SetMissingGoToLeft is the splitter's write-only policy choice,
	// consulted by Reset/ReverseReset.
	SetMissingGoToLeft(goLeft bool)

	// Reset sets pos = start and assigns the missing segment's weight to
	// the left or right side per the current missing-go-to-left policy.
	Reset()

	// ReverseReset sets pos = end and assigns weight symmetrically to
	// Reset.
	ReverseReset()

	// Update advances pos to newPos (start <= pos <= newPos <= end -
	// nMissing), choosing whichever direction (forward from pos or
	// backward after a ReverseReset) touches fewer samples.
	Update(newPos int)

	// Pos returns the current split boundary.
	Pos() int

	// WeightedNLeft, WeightedNRight, WeightedNNodeSamples return the
	// current running weight totals.
	WeightedNLeft() float64
	WeightedNRight() float64
	WeightedNNodeSamples() float64

	// NodeImpurity returns the impurity of [start, end).
	NodeImpurity() float64

	// ChildrenImpurity writes the impurities of [start, pos) and
	// [pos, end) into outLeft and outRight.
	ChildrenImpurity(outLeft, outRight *float64)

	// NodeValue writes the leaf prediction for [start, end) into dest.
	NodeValue(dest []float64)

	// ClipNodeValue clamps dest[0] into [lo, hi]; for single-output binary
	// classification it additionally re-projects dest[1] = 1 - dest[0].
	ClipNodeValue(dest []float64, lo, hi float64)

	// MiddleValue returns the average of the left- and right-child values
	// for output 0, used by monotonicity checks when the splitter needs a
	// representative value without committing to a side.
	MiddleValue() float64

	// CheckMonotonicity reports whether the output-0 child values both lie
	// in [lo, hi] and, when sign != 0, are ordered consistently with sign.
	CheckMonotonicity(sign int, lo, hi float64) bool

	// ProxyImpurityImprovement returns a cheap, strictly monotone-in-the-
	// true-improvement score used to rank candidate splits.
	ProxyImpurityImprovement() float64

	// ImpurityImprovement returns the exact, reported improvement from
	// splitting a node with the given parent/children impurities.
	ImpurityImprovement(parentImpurity, impurityLeft, impurityRight float64) float64
}

// nodeState holds the state shared by every concrete criterion: the borrowed
// node-visit inputs, the split-boundary cursor, and the running weight
// totals. It is embedded by classificationBase, regressionBase, and MAE.
type nodeState struct {
	y                [][]float64
	sampleWeight     []float64
	sampleIndices    []int
	weightedNSamples float64

	start, end, pos int
	nMissing        int
	missingGoToLeft bool

	nOutputs int
	epsilon  float64

	weightedNNodeSamples float64
	weightedNLeft        float64
	weightedNRight       float64
	weightedNMissing     float64
}

func newNodeState(nOutputs int) nodeState {
	return nodeState{nOutputs: nOutputs, epsilon: 10 * ulpOne}
}

func (b *nodeState) Pos() int                    { return b.pos }
func (b *nodeState) WeightedNLeft() float64       { return b.weightedNLeft }
func (b *nodeState) WeightedNRight() float64      { return b.weightedNRight }
func (b *nodeState) WeightedNNodeSamples() float64 { return b.weightedNNodeSamples }
func (b *nodeState) SetMissingGoToLeft(goLeft bool) { b.missingGoToLeft = goLeft }

// weightAt returns the sample weight for sample index i, defaulting to 1.0
// when no weight vector was bound.
func (b *nodeState) weightAt(i int) float64 {
	if b.sampleWeight == nil {
		return 1.0
	}
	return b.sampleWeight[i]
}

// bindCommon validates and stores the borrowed inputs, sets pos = start, and
// computes weighted_n_node_samples over the whole [start, end) range
// (missing samples included). It does not touch family-specific sums.
func (b *nodeState) bindCommon(y [][]float64, sampleWeight []float64, weightedNSamples float64, sampleIndices []int, start, end int) error {
	if start < 0 || end > len(sampleIndices) || start > end {
		return fmt.Errorf("%w: sample range [%d, %d) out of bounds for %d indices", ErrInit, start, end, len(sampleIndices))
	}
	for _, i := range sampleIndices[start:end] {
		if i < 0 || i >= len(y) {
			return fmt.Errorf("%w: sample index %d out of bounds for %d rows", ErrInit, i, len(y))
		}
		if len(y[i]) < b.nOutputs {
			return fmt.Errorf("%w: row %d has %d outputs, want %d", ErrInit, i, len(y[i]), b.nOutputs)
		}
	}

	b.y = y
	b.sampleWeight = sampleWeight
	b.sampleIndices = sampleIndices
	b.weightedNSamples = weightedNSamples
	b.start = start
	b.end = end
	b.pos = start
	b.nMissing = 0
	b.weightedNMissing = 0

	b.weightedNNodeSamples = 0
	for _, i := range sampleIndices[start:end] {
		b.weightedNNodeSamples += b.weightAt(i)
	}

	return nil
}

// lastNonMissingPos is end - nMissing, the position a forward sweep can
// reach without crossing into the missing segment.
func (b *nodeState) lastNonMissingPos() int {
	return b.end - b.nMissing
}

// leftRanges returns the physical [s, e) sub-ranges of sampleIndices that
// make up the left child: the swept prefix, plus the trailing missing
// segment when the missing-go-to-left policy is in effect.
func (b *nodeState) leftRanges() [][2]int {
	ranges := [][2]int{{b.start, b.pos}}
	if b.missingGoToLeft && b.nMissing > 0 {
		ranges = append(ranges, [2]int{b.end - b.nMissing, b.end})
	}
	return ranges
}

// rightRanges is the symmetric counterpart of leftRanges.
func (b *nodeState) rightRanges() [][2]int {
	ranges := [][2]int{{b.pos, b.lastNonMissingPos()}}
	if !b.missingGoToLeft && b.nMissing > 0 {
		ranges = append(ranges, [2]int{b.end - b.nMissing, b.end})
	}
	return ranges
}

// forEachSample invokes fn(sampleIndex, weight) for every sample in ranges.
func (b *nodeState) forEachSample(ranges [][2]int, fn func(i int, w float64)) {
	for _, r := range ranges {
		for p := r[0]; p < r[1]; p++ {
			i := b.sampleIndices[p]
			fn(i, b.weightAt(i))
		}
	}
}

// updateSweep implements the "update from the near side" rule shared by
// every family: advance pos to newPos by touching whichever of the forward
// (pos -> newPos, adding samples to the left) or backward
// (end-nMissing-1 -> newPos, after ReverseReset, removing samples from the
// left) directions visits fewer samples.
func (b *nodeState) updateSweep(newPos int, add, remove func(i int), reverseReset func()) {
	last := b.lastNonMissingPos()

	if newPos-b.pos <= last-newPos {
		for p := b.pos; p < newPos; p++ {
			i := b.sampleIndices[p]
			w := b.weightAt(i)
			add(i)
			b.weightedNLeft += w
		}
	} else {
		reverseReset()
		for p := last - 1; p >= newPos; p-- {
			i := b.sampleIndices[p]
			w := b.weightAt(i)
			remove(i)
			b.weightedNLeft -= w
		}
	}

	b.pos = newPos
	b.weightedNRight = b.weightedNNodeSamples - b.weightedNLeft
}

// ImpurityImprovement is the exact, reported improvement shared by every
// family that does not need a custom formula (all but FriedmanMSE):
//
//	(weighted_n_node / weighted_n_total) *
//	  (parent - (weighted_n_right/weighted_n_node)*right - (weighted_n_left/weighted_n_node)*left)
func (b *nodeState) ImpurityImprovement(parentImpurity, impurityLeft, impurityRight float64) float64 {
	if b.weightedNNodeSamples <= 0 || b.weightedNSamples <= 0 {
		return 0
	}
	return (b.weightedNNodeSamples / b.weightedNSamples) *
		(parentImpurity -
			(b.weightedNRight/b.weightedNNodeSamples)*impurityRight -
			(b.weightedNLeft/b.weightedNNodeSamples)*impurityLeft)
}

// defaultProxyImpurityImprovement is the cheap proxy defined in terms of
// whatever ChildrenImpurity the concrete criterion c provides. Gini,
// Entropy, Huber, and MAE use this; MSE, FriedmanMSE, and Poisson override
// it with closed-form, division/log-avoiding variants.
func defaultProxyImpurityImprovement(c Criterion) float64 {
	var left, right float64
	c.ChildrenImpurity(&left, &right)
	return -c.WeightedNRight()*right - c.WeightedNLeft()*left
}

func checkMonotonicity(sign int, lo, hi, valueLeft, valueRight float64) bool {
	if valueLeft < lo || valueLeft > hi || valueRight < lo || valueRight > hi {
		return false
	}
	if sign == 0 {
		return true
	}
	return (valueLeft-valueRight)*float64(sign) <= 0
}

func clipDest(dest []float64, lo, hi float64) {
	switch {
	case dest[0] < lo:
		dest[0] = lo
	case dest[0] > hi:
		dest[0] = hi
	}
}

func sumAll(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func zeroFloats(dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
}

func copyFloats(dst, src []float64) {
	copy(dst, src)
}

func subFloats(dst, a, b []float64) {
	for i := range dst {
		dst[i] = a[i] - b[i]
	}
}
