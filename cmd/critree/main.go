package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/davecheney/profile"
	"github.com/wlattner/critree/internal/parse"
	"github.com/wlattner/critree/tree"

	flag "github.com/docker/docker/pkg/mflag"
)

var (
	// model/prediction files
	dataFile    = flag.String([]string{"d", "-data"}, "", "example data")
	predictFile = flag.String([]string{"p", "-predictions"}, "", "file to output predictions")
	modelFile   = flag.String([]string{"f", "-final_model"}, "rf.model", "file to output fitted model")
	impFile     = flag.String([]string{"-var_importance"}, "", "file to output variable importance estimates")
	// model params
	nTree       = flag.Int([]string{"-trees"}, 10, "number of trees")
	minSplit    = flag.Int([]string{"-min_split"}, 2, "minimum number of samples required to split an internal node")
	minLeaf     = flag.Int([]string{"-min_leaf"}, 1, "minimum number of samples in newly created leaves")
	maxFeatures = flag.Int([]string{"-max_features"}, -1, "number of features to consider when looking for the best split, -1 will default to sqrt(# features) or # features / 3 for regression")
	criterion   = flag.String([]string{"-criterion"}, "", "impurity criterion: gini, entropy (classification); mse, friedmanmse, poisson, huber, mae (regression); defaults to gini/mse")
	huberDelta  = flag.Float64([]string{"-huber_delta"}, 1.0, "residual threshold for the huber criterion")
	monotonic   = flag.String([]string{"-monotonic"}, "", "comma-separated per-feature monotonicity constraint: -1, 0, or 1 for each feature, in column order")
	// force classification
	forceClf = flag.Bool([]string{"c", "-classification"}, false, "force parser to use integer targets/labels for classification")
	// runtime params
	nWorkers   = flag.Int([]string{"-workers"}, 1, "number of workers for fitting trees")
	runProfile = flag.Bool([]string{"-profile"}, false, "cpu profile")
)

type modelOptions struct {
	nTree        int
	minSplit     int
	minLeaf      int
	maxFeatures  int
	nWorkers     int
	criterion    tree.CriterionType
	criterionSet bool
	huberDelta   float64
	monotonic    []int8
}

var criterionNames = map[string]tree.CriterionType{
	"gini":        tree.Gini,
	"entropy":     tree.Entropy,
	"mse":         tree.MSE,
	"friedmanmse": tree.FriedmanMSE,
	"poisson":     tree.Poisson,
	"huber":       tree.Huber,
	"mae":         tree.MAE,
}

func parseModelOpts() (modelOptions, error) {
	o := modelOptions{
		nTree:       *nTree,
		minSplit:    *minSplit,
		minLeaf:     *minLeaf,
		maxFeatures: *maxFeatures,
		nWorkers:    *nWorkers,
		huberDelta:  *huberDelta,
	}

	if *criterion != "" {
		ct, ok := criterionNames[strings.ToLower(*criterion)]
		if !ok {
			return o, fmt.Errorf("unknown criterion %q", *criterion)
		}
		o.criterion = ct
		o.criterionSet = true
	}

	if *monotonic != "" {
		m, err := parseMonotonic(*monotonic)
		if err != nil {
			return o, err
		}
		o.monotonic = m
	}

	return o, nil
}

func parseMonotonic(s string) ([]int8, error) {
	fields := strings.Split(s, ",")
	m := make([]int8, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("monotonic constraint %q: %v", f, err)
		}
		if v < -1 || v > 1 {
			return nil, fmt.Errorf("monotonic constraint %d out of range [-1, 1]", v)
		}
		m[i] = int8(v)
	}
	return m, nil
}

func main() {
	flag.Parse()

	if *nWorkers > 1 {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	if *runProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	// make sure user specified csv file w/ data
	if *dataFile == "" {
		fmt.Fprintf(os.Stderr, "Usage of critree:\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(*dataFile)
	if err != nil {
		fatal("error opening data file", err.Error())
	}
	defer f.Close()

	d, err := parse.CSV(f, *forceClf)
	if err != nil {
		fatal("error parsing input data", err.Error())
	}

	// consider non-blank *predictFile as prediction, fit otherwise
	if *predictFile != "" {
		m, err := loadModel(*modelFile)
		if err != nil {
			fatal("error opening model file", err.Error())
		}

		pred, err := m.Predict(d)
		if err != nil {
			fatal(err.Error())
		}

		o, err := os.Create(*predictFile)
		if err != nil {
			fatal("error creating", *predictFile, err.Error())
		}
		defer o.Close()

		if err := writePred(o, pred); err != nil {
			fatal("error writing predictions", err.Error())
		}
		os.Exit(0)
	}

	// must be model fitting
	opt, err := parseModelOpts()
	if err != nil {
		fatal("invalid model option", err.Error())
	}

	m := new(Model)
	m.Fit(d, opt)

	o, err := os.Create(*modelFile)
	if err != nil {
		fatal("error saving model", err.Error())
	}
	defer o.Close()

	if err := m.Save(o); err != nil {
		fatal("error saving model", err.Error())
	}

	if *impFile != "" {
		f, err := os.Create(*impFile)
		if err != nil {
			fatal("error saving variable importance", err.Error())
		}
		defer f.Close()
		if err := m.SaveVarImp(f); err != nil {
			fatal("error saving variable importance", err.Error())
		}
	}

	m.Report(os.Stderr)
}

func loadModel(fName string) (*Model, error) {
	f, err := os.Open(fName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := new(Model)
	err = m.Load(f)
	return m, err
}

func fatal(a ...interface{}) {
	fmt.Fprintln(os.Stderr, a...)
	os.Exit(1)
}

func writePred(w io.Writer, prediction []string) error {
	wtr := bufio.NewWriter(w)

	for _, pred := range prediction {
		if _, err := wtr.WriteString(pred); err != nil {
			return err
		}
		if err := wtr.WriteByte('\n'); err != nil {
			return err
		}
	}

	return wtr.Flush()
}
