package tree

import (
	"encoding/gob"
	"io"
)

// Regressor fits a single decision tree over float64 targets, scoring
// candidate splits with a regression criterion (MSE, FriedmanMSE, Poisson,
// Huber, or MAE).
type Regressor struct {
	*Tree
}

// NewRegressor returns a configured/initialized regression tree. If no
// options are passed, the returned Regressor will be equivalent to the
// following call:
//
//	reg := NewRegressor(MinSplit(2), MinLeaf(1), MaxDepth(-1), Criterion(MSE))
func NewRegressor(options ...func(treeConfiger)) *Regressor {
	t := newTree()
	t.Crit = MSE
	r := &Regressor{Tree: t}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// Fit constructs a tree from the provided features X, and targets Y.
func (r *Regressor) Fit(X [][]float64, Y []float64) {
	r.FitInx(X, Y, identityInx(len(Y)))
}

// FitInx constructs a tree as in Fit, but uses only the indices of X and Y
// specified in inx.
func (r *Regressor) FitInx(X [][]float64, Y []float64, inx []int) {
	r.nFeatures = len(X[0])
	r.nOutputs = 1
	r.nClasses = nil

	y := make([][]float64, len(Y))
	for i, v := range Y {
		y[i] = []float64{v}
	}

	r.fit(X, y, nil, inx)
}

// Predict returns the expected value for each example in X.
func (r *Regressor) Predict(X [][]float64) []float64 {
	p := make([]float64, len(X))
	for i := range X {
		p[i] = predictNode(r.Root, X[i]).Value[0]
	}
	return p
}

// PredictInx returns the expected value for each example selected by inx.
func (r *Regressor) PredictInx(X [][]float64, inx []int) []float64 {
	p := make([]float64, len(inx))
	for i, id := range inx {
		p[i] = predictNode(r.Root, X[id]).Value[0]
	}
	return p
}

// Save serializes the Regressor using encoding/gob to an io.Writer.
func (r *Regressor) Save(w io.Writer) error {
	e := gob.NewEncoder(w)
	return e.Encode(r)
}

// Load deserializes the Regressor using encoding/gob from an io.Reader.
func (r *Regressor) Load(re io.Reader) error {
	d := gob.NewDecoder(re)
	return d.Decode(r)
}
