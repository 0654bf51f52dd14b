package forest

import (
	"encoding/gob"
	"io"
	"math"
	"time"

	"github.com/wlattner/critree/tree"
)

// Regressor is a random forest of regression trees.
type Regressor struct {
	NTrees      int
	MinSplit    int
	MinLeaf     int
	MaxDepth    int
	MaxFeatures int
	Crit        tree.CriterionType
	Monotonic   []int8
	HuberDelta  float64
	Trees       []*tree.Regressor
	nWorkers    int
	computeOOB  bool
	MSE         float64
	RSquared    float64
	NSample     int
	nFeatures   int
	earlyStop   bool
}

func (c *Regressor) setMinSplit(n int)                 { c.MinSplit = n }
func (c *Regressor) setMinLeaf(n int)                   { c.MinLeaf = n }
func (c *Regressor) setMaxDepth(n int)                  { c.MaxDepth = n }
func (c *Regressor) setCriterion(ct tree.CriterionType) { c.Crit = ct }
func (c *Regressor) setMaxFeatures(n int)               { c.MaxFeatures = n }
func (c *Regressor) setNumTrees(n int)                  { c.NTrees = n }
func (c *Regressor) setNumWorkers(n int)                { c.nWorkers = n }
func (c *Regressor) setComputeOOB()                     { c.computeOOB = true }
func (c *Regressor) setMonotonic(m []int8)              { c.Monotonic = m }
func (c *Regressor) setHuberDelta(d float64)            { c.HuberDelta = d }
func (c *Regressor) setEarlyStop()                      { c.earlyStop = true }

// EarlyStop halts fitting once the out-of-bag MSE converges, implicitly
// enabling ComputeOOB.
func EarlyStop() func(forestConfiger) {
	return func(c forestConfiger) {
		if r, ok := c.(*Regressor); ok {
			r.setEarlyStop()
		}
	}
}

// NewRegressor returns a configured/initialized random forest regressor.
// If no options are passed, the returned Regressor will be equivalent to
// the following call:
//
//	reg := NewRegressor(NumTrees(10), MaxFeatures(-1), MinSplit(2), MinLeaf(1),
//		MaxDepth(-1), Criterion(MSE), NumWorkers(1))
func NewRegressor(options ...func(forestConfiger)) *Regressor {
	f := &Regressor{
		NTrees:      10,
		MaxFeatures: -1,
		MinSplit:    2,
		MinLeaf:     1,
		MaxDepth:    -1,
		Crit:        MSE,
		HuberDelta:  1.0,
	}

	for _, opt := range options {
		opt(f)
	}

	return f
}

// Fit constructs a forest by fitting NTrees trees to the provided features
// X and targets Y.
func (f *Regressor) Fit(X [][]float64, Y []float64) {
	f.NSample = len(Y)
	f.nFeatures = len(X[0])

	if f.MaxFeatures < 0 {
		f.MaxFeatures = f.nFeatures / 3
		if f.MaxFeatures < 1 {
			f.MaxFeatures = 1
		}
	}

	if f.earlyStop {
		f.computeOOB = true
	}

	var oob *oobRegCtr
	if f.computeOOB {
		oob = newOOBRegCtr(len(Y))
	}

	in := make(chan *fitRegTree)
	out := make(chan *fitRegTree)

	nWorkers := f.nWorkers
	if nWorkers < 1 {
		nWorkers = 1
	}

	for i := 0; i < nWorkers; i++ {
		go func(id int) {
			for w := range in {
				reg := tree.NewRegressor(tree.MinSplit(f.MinSplit), tree.MinLeaf(f.MinLeaf),
					tree.MaxDepth(f.MaxDepth), tree.Criterion(f.Crit), tree.MaxFeatures(f.MaxFeatures),
					tree.Monotonic(f.Monotonic), tree.HuberDelta(f.HuberDelta),
					tree.RandState(int64(id)*time.Now().UnixNano()))
				reg.FitInx(X, Y, w.inx)

				w.t = reg

				if f.computeOOB {
					oob.update(X, w.inBag, w.t)
				}

				out <- w
			}
		}(i)
	}

	go func() {
		for i := 0; i < f.NTrees; i++ {
			inx, inBag := bootstrapInx(len(X))
			in <- &fitRegTree{inx: inx, inBag: inBag}
		}
		close(in)
	}()

	var mse, prevMSE float64
	for i := 0; i < f.NTrees; i++ {
		w := <-out

		if f.earlyStop {
			mse, _ = oob.compute(Y)
			if i > 4 && math.Abs(mse-prevMSE) < 1e-6 {
				break
			}
			prevMSE = mse
		}

		f.Trees = append(f.Trees, w.t)
	}

	f.NTrees = len(f.Trees)

	if f.computeOOB {
		f.MSE, f.RSquared = oob.compute(Y)
	}
}

// Predict returns the expected value for each example.
func (f *Regressor) Predict(X [][]float64) []float64 {
	sum := make([]float64, len(X))

	for _, t := range f.Trees {
		for i, val := range t.Predict(X) {
			sum[i] += val
		}
	}

	for i := range sum {
		sum[i] /= float64(f.NTrees)
	}

	return sum
}

// VarImp returns importance scores for the model's features.
func (f *Regressor) VarImp() []float64 {
	imp := make([]float64, f.nFeatures)

	for _, t := range f.Trees {
		for inx, importance := range t.VarImp() {
			imp[inx] += importance / float64(f.NTrees)
		}
	}

	return imp
}

// Save serializes the Regressor using encoding/gob to an io.Writer.
func (f *Regressor) Save(w io.Writer) error {
	e := gob.NewEncoder(w)
	return e.Encode(f)
}

// Load deserializes the Regressor using encoding/gob from an io.Reader.
func (f *Regressor) Load(r io.Reader) error {
	d := gob.NewDecoder(r)
	return d.Decode(f)
}

type fitRegTree struct {
	t     *tree.Regressor
	inx   []int
	inBag []bool
}

type oobRegCtr struct {
	sum []float64
	ct  []int
}

func newOOBRegCtr(nExample int) *oobRegCtr {
	return &oobRegCtr{sum: make([]float64, nExample), ct: make([]int, nExample)}
}

func (o *oobRegCtr) update(X [][]float64, inBag []bool, t *tree.Regressor) {
	var inx []int
	for i, in := range inBag {
		if !in {
			inx = append(inx, i)
		}
	}

	pred := t.PredictInx(X, inx)

	for i, sampleInx := range inx {
		o.sum[sampleInx] += pred[i]
		o.ct[sampleInx]++
	}
}

// compute returns mean squared error and r-squared over the examples that
// have at least one out-of-bag prediction.
func (o *oobRegCtr) compute(Y []float64) (float64, float64) {
	rss := 0.0

	n := 0
	mean := 0.0
	tss := 0.0

	for i := range Y {
		if o.ct[i] < 1 {
			continue
		}
		predVal := o.sum[i] / float64(o.ct[i])
		d := Y[i] - predVal
		rss += d * d

		n++
		d = Y[i] - mean
		mean += d / float64(n)
		tss += d * (Y[i] - mean)
	}

	if n < 1 {
		tss = 0.0
	}

	rSquared := 1.0 - rss/tss
	mse := rss / float64(n)

	return mse, rSquared
}
