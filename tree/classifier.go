package tree

import (
	"encoding/gob"
	"io"
)

// Classifier fits a single decision tree over string-labeled targets,
// scoring candidate splits with a classification criterion (Gini or
// Entropy).
type Classifier struct {
	*Tree
	Classes []string
}

// NewClassifier returns a configured/initialized decision tree classifier.
// If no options are passed, the returned Classifier will be equivalent to
// the following call:
//
//	clf := NewClassifier(MinSplit(2), MinLeaf(1), MaxDepth(-1), Criterion(Gini))
func NewClassifier(options ...func(treeConfiger)) *Classifier {
	t := newTree()
	t.Crit = Gini
	c := &Classifier{Tree: t}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// Fit constructs a tree from the provided features X, and labels Y.
func (c *Classifier) Fit(X [][]float64, Y []string) {
	yIDs, classes := encodeLabels(Y)
	c.FitInx(X, yIDs, identityInx(len(Y)), classes)
}

// FitInx constructs a tree as in Fit, but uses the inx slice to mask the
// examples in X and Y. The caller also needs to supply a slice of unique
// classes where the ith class corresponds to the integer id used in Y (a
// mapping of class id to class name). FitInx is intended to be used with a
// meta algorithm that relies on bootstrap sampling, such as a random forest.
func (c *Classifier) FitInx(X [][]float64, Y []int, inx []int, classes []string) {
	c.Classes = classes
	c.nFeatures = len(X[0])
	c.nOutputs = 1
	c.nClasses = []int{len(classes)}

	y := make([][]float64, len(Y))
	for i, v := range Y {
		y[i] = []float64{float64(v)}
	}

	c.fit(X, y, nil, inx)
}

// Predict returns the most probable class id for each example. The id
// corresponds to the index of the class label in Classifier.Classes.
func (c *Classifier) Predict(X [][]float64) []int {
	p := make([]int, len(X))
	for i := range X {
		p[i] = argmax(predictNode(c.Root, X[i]).Value)
	}
	return p
}

// PredictID returns the most probable class id for each input example
// masked by inx. This function is intended for out-of-bag error estimation.
func (c *Classifier) PredictID(X [][]float64, inx []int) []int {
	p := make([]int, len(inx))
	for i, id := range inx {
		p[i] = argmax(predictNode(c.Root, X[id]).Value)
	}
	return p
}

// PredictProb returns the class probability for each example. The indices
// of the return value correspond to Classifier.Classes.
func (c *Classifier) PredictProb(X [][]float64) [][]float64 {
	p := make([][]float64, len(X))
	for i := range X {
		n := predictNode(c.Root, X[i])
		row := make([]float64, len(c.Classes))
		copy(row, n.Value[:len(c.Classes)])
		p[i] = row
	}
	return p
}

// Save serializes the Classifier using encoding/gob to an io.Writer.
func (c *Classifier) Save(w io.Writer) error {
	e := gob.NewEncoder(w)
	return e.Encode(c)
}

// Load deserializes the Classifier using encoding/gob from an io.Reader.
func (c *Classifier) Load(r io.Reader) error {
	d := gob.NewDecoder(r)
	return d.Decode(c)
}

// encodeLabels assigns each distinct label in Y an integer id in first-seen
// order, returning the encoded ids alongside the id -> label mapping.
func encodeLabels(Y []string) ([]int, []string) {
	yIDs := make([]int, len(Y))
	uniq := make(map[string]int)
	var classes []string
	for i, val := range Y {
		id, ok := uniq[val]
		if !ok {
			id = len(uniq)
			uniq[val] = id
			classes = append(classes, val)
		}
		yIDs[i] = id
	}
	return yIDs, classes
}
