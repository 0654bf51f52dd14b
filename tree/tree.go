// Package tree implements classification and regression trees as described
// in Louppe, G. (2014) "Understanding Random Forests: From Theory to
// Practice" (PhD thesis) http://arxiv.org/abs/1407.7502, chapter 3.
//
// Fit follows Algorithm 3.2; the splitter's candidate-threshold scan follows
// Algorithm 3.4. The per-split scoring itself (Gini, entropy, MSE, Friedman
// MSE, Poisson deviance, Huber loss, MAE) is delegated to a
// criterion.Criterion, one instance per tree, reused across every node via
// repeated Init/Reset/Update calls rather than reallocated per node.
package tree

import (
	"math/rand"
	"time"

	"github.com/wlattner/critree/criterion"
)

// CriterionType selects the impurity criterion scoring candidate splits.
type CriterionType int

const (
	Gini CriterionType = iota
	Entropy
	MSE
	FriedmanMSE
	Poisson
	Huber
	MAE
)

func newCriterion(c CriterionType, nOutputs, nSamples int, nClasses []int, huberDelta float64) criterion.Criterion {
	switch c {
	case Entropy:
		return criterion.NewEntropy(nOutputs, nClasses)
	case MSE:
		return criterion.NewMSE(nOutputs, nSamples)
	case FriedmanMSE:
		return criterion.NewFriedmanMSE(nOutputs, nSamples)
	case Poisson:
		return criterion.NewPoisson(nOutputs, nSamples)
	case Huber:
		return criterion.NewHuber(nOutputs, nSamples, huberDelta)
	case MAE:
		return criterion.NewMAE(nOutputs, nSamples)
	default:
		return criterion.NewGini(nOutputs, nClasses)
	}
}

// Node is one node of a fitted tree. Leaf nodes carry a Value (class
// proportions for classification, per-output means or medians for
// regression); internal nodes carry the split feature/threshold and both
// children.
type Node struct {
	Left, Right     *Node
	SplitVar        int
	SplitVal        float64
	MissingGoToLeft bool
	Value           []float64
	Impurity        float64
	Leaf            bool
	Samples         int
	Weight          float64
}

// Tree holds the configuration and fitted root shared by Classifier and
// Regressor; it has no Fit or Predict of its own since the two need different Fit
// signatures (string labels vs. float64 targets) and prediction output
// shapes.
type Tree struct {
	Root        *Node
	MinSplit    int
	MinLeaf     int
	MaxDepth    int
	MaxFeatures int
	HuberDelta  float64
	Monotonic   []int8 // per-feature constraint: -1, 0, or +1; nil disables the check
	Crit        CriterionType

	randState *rand.Rand
	nFeatures int
	nOutputs  int
	nClasses  []int // non-nil only for classification
}

func newTree() *Tree {
	return &Tree{
		MinSplit:    2,
		MinLeaf:     1,
		MaxDepth:    -1,
		MaxFeatures: -1,
		HuberDelta:  1.0,
		randState:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// treeConfiger is implemented by Classifier and Regressor so both can share
// the same functional-option constructors.
type treeConfiger interface {
	setMinSplit(n int)
	setMinLeaf(n int)
	setMaxDepth(n int)
	setMaxFeatures(n int)
	setRandState(seed int64)
	setMonotonic(m []int8)
	setHuberDelta(d float64)
	setCriterion(ct CriterionType)
}

// MinSplit limits the size for a node to be split vs marked as a leaf.
func MinSplit(n int) func(treeConfiger) {
	return func(c treeConfiger) { c.setMinSplit(n) }
}

// MinLeaf limits the size of a child/leaf node for a split threshold to be
// considered.
func MinLeaf(n int) func(treeConfiger) {
	return func(c treeConfiger) { c.setMinLeaf(n) }
}

// MaxDepth limits the depth of the fitted tree. Specifying -1 grows a full
// tree, subject to MinLeaf and MinSplit constraints.
func MaxDepth(n int) func(treeConfiger) {
	return func(c treeConfiger) { c.setMaxDepth(n) }
}

// MaxFeatures limits the number of features considered for splitting at each
// step. If not provided or -1, all features are considered.
func MaxFeatures(n int) func(treeConfiger) {
	return func(c treeConfiger) { c.setMaxFeatures(n) }
}

// RandState seeds the feature-sampling random source.
func RandState(seed int64) func(treeConfiger) {
	return func(c treeConfiger) { c.setRandState(seed) }
}

// Monotonic constrains feature i's relationship with the prediction: -1
// (prediction must not increase with the feature), +1 (must not decrease),
// 0 (unconstrained, the default for every feature not listed).
func Monotonic(m []int8) func(treeConfiger) {
	return func(c treeConfiger) { c.setMonotonic(m) }
}

// HuberDelta sets the residual threshold used when Crit is Huber.
func HuberDelta(d float64) func(treeConfiger) {
	return func(c treeConfiger) { c.setHuberDelta(d) }
}

// Criterion selects the impurity criterion used to score candidate splits:
// Gini or Entropy for a Classifier, any of MSE, FriedmanMSE, Poisson, Huber,
// or MAE for a Regressor.
func Criterion(ct CriterionType) func(treeConfiger) {
	return func(c treeConfiger) { c.setCriterion(ct) }
}

func (t *Tree) setMinSplit(n int)            { t.MinSplit = n }
func (t *Tree) setMinLeaf(n int)             { t.MinLeaf = n }
func (t *Tree) setMaxDepth(n int)            { t.MaxDepth = n }
func (t *Tree) setMaxFeatures(n int)         { t.MaxFeatures = n }
func (t *Tree) setRandState(seed int64)      { t.randState = rand.New(rand.NewSource(seed)) }
func (t *Tree) setMonotonic(m []int8)        { t.Monotonic = m }
func (t *Tree) setHuberDelta(d float64)      { t.HuberDelta = d }
func (t *Tree) setCriterion(ct CriterionType) { t.Crit = ct }

// VarImp returns the Gini/MSE-style importance of each feature: the total,
// node-weighted impurity decrease it was responsible for across the tree,
// normalized to sum to 1.
func (t *Tree) VarImp() []float64 {
	imp := make([]float64, t.nFeatures)
	if t.Root == nil {
		return imp
	}

	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Leaf {
			return
		}
		imp[n.SplitVar] += n.Weight*n.Impurity -
			n.Right.Weight*n.Right.Impurity -
			n.Left.Weight*n.Left.Impurity

		walk(n.Left)
		walk(n.Right)
	}
	walk(t.Root)

	total := 0.0
	for i := range imp {
		imp[i] /= t.Root.Weight
		total += imp[i]
	}
	if total > 0 {
		for i := range imp {
			imp[i] /= total
		}
	}
	return imp
}

func predictNode(root *Node, x []float64) *Node {
	n := root
	for !n.Leaf {
		v := x[n.SplitVar]
		switch {
		case isNaN(v):
			if n.MissingGoToLeft {
				n = n.Left
			} else {
				n = n.Right
			}
		case v > n.SplitVal:
			n = n.Right
		default:
			n = n.Left
		}
	}
	return n
}

func isNaN(v float64) bool { return v != v }

// identityInx returns [0, 1, ..., n-1], the working index set Fit starts
// from before any bootstrap or split partitioning.
func identityInx(n int) []int {
	inx := make([]int, n)
	for i := range inx {
		inx[i] = i
	}
	return inx
}

// argmax returns the index of the largest entry in v, breaking ties toward
// the lower index.
func argmax(v []float64) int {
	best := 0
	for i, x := range v {
		if x > v[best] {
			best = i
		}
	}
	return best
}
