// Package forest implements random forests as described in
// Louppe, G. (2014) "Understanding Random Forests: From Theory to Practice"
// (PhD thesis) http://arxiv.org/abs/1407.7502, chapter 4: an ensemble of
// trees, each fit to a bootstrap resample of the training data and scored
// for generalization error from the examples each tree never saw.
package forest

import (
	"math/rand"
	"time"

	"github.com/wlattner/critree/tree"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

// Criterion types re-exported from the tree package so callers configuring
// a forest never need to import tree directly.
var (
	Gini        = tree.Gini
	Entropy     = tree.Entropy
	MSE         = tree.MSE
	FriedmanMSE = tree.FriedmanMSE
	Poisson     = tree.Poisson
	Huber       = tree.Huber
	MAE         = tree.MAE
)

// forestConfiger is implemented by Classifier and Regressor so both can
// share the same functional-option constructors.
type forestConfiger interface {
	setMinSplit(n int)
	setMinLeaf(n int)
	setMaxDepth(n int)
	setCriterion(ct tree.CriterionType)
	setMaxFeatures(n int)
	setNumTrees(n int)
	setNumWorkers(n int)
	setComputeOOB()
	setMonotonic(m []int8)
	setHuberDelta(d float64)
}

// MinSplit limits the size for a node to be split vs marked as a leaf.
func MinSplit(n int) func(forestConfiger) {
	return func(c forestConfiger) { c.setMinSplit(n) }
}

// MinLeaf limits the size of a child/leaf node for a split threshold to be
// considered.
func MinLeaf(n int) func(forestConfiger) {
	return func(c forestConfiger) { c.setMinLeaf(n) }
}

// MaxDepth limits the depth of the fitted trees. Specifying -1 grows full
// trees, subject to MinLeaf and MinSplit constraints.
func MaxDepth(n int) func(forestConfiger) {
	return func(c forestConfiger) { c.setMaxDepth(n) }
}

// Criterion sets the impurity criterion used to evaluate each candidate
// split: Gini or Entropy for a Classifier; MSE, FriedmanMSE, Poisson, Huber,
// or MAE for a Regressor.
func Criterion(ct tree.CriterionType) func(forestConfiger) {
	return func(c forestConfiger) { c.setCriterion(ct) }
}

// MaxFeatures limits the number of features considered for splitting at each
// step. If not provided or -1, a Classifier considers sqrt(# features) and a
// Regressor # features / 3 (at least 1).
func MaxFeatures(n int) func(forestConfiger) {
	return func(c forestConfiger) { c.setMaxFeatures(n) }
}

// NumTrees sets the number of trees used in the random forest.
func NumTrees(n int) func(forestConfiger) {
	return func(c forestConfiger) { c.setNumTrees(n) }
}

// NumWorkers sets the number of workers used to fit trees; ensure GOMAXPROCS
// is also set > 1 to take advantage of multi cpu.
func NumWorkers(n int) func(forestConfiger) {
	return func(c forestConfiger) { c.setNumWorkers(n) }
}

// ComputeOOB computes the out-of-bag confusion matrix/accuracy (Classifier)
// or MSE/R-squared (Regressor) from each tree's held-out bootstrap sample.
func ComputeOOB() func(forestConfiger) {
	return func(c forestConfiger) { c.setComputeOOB() }
}

// Monotonic constrains feature i's relationship with the prediction across
// every tree in the forest: -1 (must not increase), +1 (must not decrease),
// 0 (unconstrained, the default for every feature not listed).
func Monotonic(m []int8) func(forestConfiger) {
	return func(c forestConfiger) { c.setMonotonic(m) }
}

// HuberDelta sets the residual threshold used when Criterion is Huber.
func HuberDelta(d float64) func(forestConfiger) {
	return func(c forestConfiger) { c.setHuberDelta(d) }
}

// bootstrapInx draws n indices with replacement from [0, n) and reports
// which original indices were never drawn (out-of-bag).
func bootstrapInx(n int) ([]int, []bool) {
	inBag := make([]bool, n)
	inx := make([]int, n)
	for i := range inx {
		id := rand.Intn(n)
		inx[i] = id
		inBag[id] = true
	}
	return inx, inBag
}
