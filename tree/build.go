package tree

import (
	"math"
	"math/rand"

	"github.com/wlattner/critree/criterion"
)

const tieEps = 1e-7

// fit grows a tree in place from y (one row per sample, one column per
// output), an optional sampleWeight, and the working index set inx (which is
// permuted and partitioned in place as the tree is built, exactly as the
// caller's backing array for X).
func (t *Tree) fit(X [][]float64, y [][]float64, sampleWeight []float64, inx []int) {
	if t.MaxFeatures < 0 || t.MaxFeatures > t.nFeatures {
		t.MaxFeatures = t.nFeatures
	}
	if t.MinSplit < 0 {
		t.MinSplit = 2
	}
	if t.MinLeaf < 0 {
		t.MinLeaf = 1
	}

	t.Root = &Node{}
	totalWeight := weightTotal(sampleWeight, len(y))

	crit := newCriterion(t.Crit, t.nOutputs, len(inx), t.nClasses, t.HuberDelta)
	sp := newSplitter(X, crit, t.MaxFeatures, t.MinLeaf, t.Monotonic, t.randState)

	var s buildStack
	s.Push(&stackItem{node: t.Root, inx: inx, lo: math.Inf(-1), hi: math.Inf(1)})

	for !s.Empty() {
		w := s.Pop()
		n := w.node

		if err := crit.Init(y, sampleWeight, totalWeight, w.inx, 0, len(w.inx)); err != nil {
			// malformed input; treat the node as a leaf rather than panic
			// mid-build on data the caller should have validated earlier.
			n.Leaf = true
			continue
		}

		n.Impurity = crit.NodeImpurity()
		n.Samples = len(w.inx)
		n.Weight = crit.WeightedNNodeSamples()
		n.Value = make([]float64, t.nOutputs*valueWidth(t.nClasses))
		crit.NodeValue(n.Value)

		if len(w.inx) < t.MinSplit || len(w.inx) < 2*t.MinLeaf ||
			(t.MaxDepth > 0 && w.depth == t.MaxDepth) || n.Impurity <= 1e-7 {
			n.Leaf = true
			continue
		}

		split := sp.bestSplit(w.inx, w.constantFeatures, w.lo, w.hi)

		if split.pos <= 0 {
			n.Leaf = true
			continue
		}

		// partition w.inx into left/right according to the winning feature
		// and threshold, routing missing values per the winning policy.
		i, j := 0, len(w.inx)
		for i < j {
			v := X[w.inx[i]][split.feature]
			var goLeft bool
			if isNaN(v) {
				goLeft = split.missingGoToLeft
			} else {
				goLeft = v <= split.val
			}
			if goLeft {
				i++
			} else {
				j--
				w.inx[j], w.inx[i] = w.inx[i], w.inx[j]
			}
		}

		n.Left = &Node{}
		n.Right = &Node{}
		n.SplitVar = split.feature
		n.SplitVal = split.val
		n.MissingGoToLeft = split.missingGoToLeft

		loL, hiL := w.lo, w.hi
		loR, hiR := w.lo, w.hi
		if t.Monotonic != nil && split.feature < len(t.Monotonic) && t.Monotonic[split.feature] != 0 {
			mid := split.middleValue
			if t.Monotonic[split.feature] > 0 {
				hiL, loR = mid, mid
			} else {
				loL, hiR = mid, mid
			}
		}

		s.Push(&stackItem{node: n.Left, inx: w.inx[:i], constantFeatures: split.constantFeatures, depth: w.depth + 1, lo: loL, hi: hiL})
		s.Push(&stackItem{node: n.Right, inx: w.inx[i:], constantFeatures: split.constantFeatures, depth: w.depth + 1, lo: loR, hi: hiR})
	}
}

func weightTotal(w []float64, n int) float64 {
	if w == nil {
		return float64(n)
	}
	var total float64
	for _, wi := range w {
		total += wi
	}
	return total
}

func sumWeights(w []float64, inx []int) float64 {
	if w == nil {
		return float64(len(inx))
	}
	var total float64
	for _, i := range inx {
		total += w[i]
	}
	return total
}

// valueWidth is the per-output width of Node.Value: number of classes for
// classification (uniform across outputs is assumed, matching criterion's
// maxNClasses layout), 1 for regression.
func valueWidth(nClasses []int) int {
	if len(nClasses) == 0 {
		return 1
	}
	max := 0
	for _, c := range nClasses {
		if c > max {
			max = c
		}
	}
	return max
}

type splitter struct {
	xBuf        []float64
	X           [][]float64
	maxFeatures int
	minLeaf     int
	monotonic   []int8
	features    []int
	crit        criterion.Criterion
	randState   *rand.Rand
}

type split struct {
	delta            float64
	val              float64
	feature          int
	pos              int // left = w.inx[:pos], right = w.inx[pos:]
	missingGoToLeft  bool
	middleValue      float64
	constantFeatures []bool
}

func newSplitter(X [][]float64, crit criterion.Criterion, maxFeatures, minLeaf int, monotonic []int8, r *rand.Rand) *splitter {
	s := splitter{
		xBuf:        make([]float64, len(X)),
		X:           X,
		maxFeatures: maxFeatures,
		minLeaf:     minLeaf,
		monotonic:   monotonic,
		features:    make([]int, len(X[0])),
		crit:        crit,
		randState:   r,
	}
	for i := range s.features {
		s.features[i] = i
	}
	return &s
}

// bestSplit scans up to maxFeatures candidate features (Fisher-Yates sampled,
// skipping features already known constant in this branch) and returns the
// best threshold found, trying both missing-value routing policies whenever
// the feature has missing entries in this node.
func (s *splitter) bestSplit(inx []int, constantFeatures []bool, lo, hi float64) split {
	var best split
	best.pos = -1
	best.delta = math.Inf(-1) // proxies such as the children-impurity default are <= 0

	j := len(s.features) - 1
	var visited, nConstant int

	for j >= 0 && (visited < s.maxFeatures || visited <= nConstant) {
		k := s.randState.Intn(j + 1)
		currentFeature := s.features[k]
		s.features[k], s.features[j] = s.features[j], s.features[k]
		j--
		visited++

		if len(constantFeatures) > 0 && constantFeatures[currentFeature] {
			nConstant++
			continue
		}

		for i, id := range inx {
			s.xBuf[i] = s.X[id][currentFeature]
		}
		xt := s.xBuf[:len(inx)]

		// move missing (NaN) entries to the tail before sorting the rest.
		nMissing := partitionMissing(xt, inx)
		present := xt[:len(xt)-nMissing]
		presentInx := inx[:len(inx)-nMissing]

		if len(present) == 0 {
			nConstant++
			continue
		}

		bSort(present, presentInx)

		if present[len(present)-1] <= present[0]+tieEps {
			nConstant++
			c := make([]bool, len(s.features))
			copy(c, constantFeatures)
			c[currentFeature] = true
			constantFeatures = c
			continue
		}

		sign := int8(0)
		if s.monotonic != nil && currentFeature < len(s.monotonic) {
			sign = s.monotonic[currentFeature]
		}

		for _, goLeft := range missingTrials(nMissing) {
			if err := s.crit.InitMissing(nMissing); err != nil {
				continue // criterion can't route missing values; skip this trial
			}
			s.crit.SetMissingGoToLeft(goLeft)
			s.crit.Reset()

			for i := 1; i < len(present); i++ {
				if present[i] <= present[i-1]+tieEps {
					continue
				}
				s.crit.Update(i)

				if i < s.minLeaf || len(present)-i < s.minLeaf {
					continue
				}

				if sign != 0 && !s.crit.CheckMonotonicity(int(sign), lo, hi) {
					continue
				}

				if d := s.crit.ProxyImpurityImprovement(); d > best.delta {
					best.delta = d
					best.feature = currentFeature
					best.val = (present[i-1] + present[i]) / 2.0
					best.pos = i
					best.missingGoToLeft = goLeft
					best.middleValue = s.crit.MiddleValue()
					best.constantFeatures = constantFeatures
				}
			}
		}
	}

	return best
}

// partitionMissing moves every NaN entry in x to the tail, keeping inx in
// sync, and returns the count moved.
func partitionMissing(x []float64, inx []int) int {
	i, j := 0, len(x)
	for i < j {
		if isNaN(x[i]) {
			j--
			x[i], x[j] = x[j], x[i]
			inx[i], inx[j] = inx[j], inx[i]
		} else {
			i++
		}
	}
	return len(x) - j
}

// missingTrials returns the routing policies worth trying: just "false" when
// there's nothing missing (the policy is moot), both when there is.
func missingTrials(nMissing int) []bool {
	if nMissing == 0 {
		return []bool{false}
	}
	return []bool{false, true}
}

type buildStack []*stackItem

func (s buildStack) Empty() bool        { return len(s) == 0 }
func (s *buildStack) Push(n *stackItem) { *s = append(*s, n) }
func (s *buildStack) Pop() *stackItem {
	d := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return d
}

type stackItem struct {
	node             *Node
	inx              []int
	constantFeatures []bool
	depth            int
	lo, hi           float64
}
