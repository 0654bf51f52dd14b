package criterion

import (
	"errors"
	"math"
	"testing"
)

func TestInitRejectsBadRange(t *testing.T) {
	y := col(1, 2, 3)
	g := NewGini(1, []int{2})
	if err := g.Init(y, nil, 3, idx(3), 2, 1); !errors.Is(err, ErrInit) {
		t.Errorf("Init with start > end = %v, want ErrInit", err)
	}
	if err := g.Init(y, nil, 3, idx(3), 0, 10); !errors.Is(err, ErrInit) {
		t.Errorf("Init with end beyond sampleIndices = %v, want ErrInit", err)
	}
}

func TestInitRejectsRowLengthMismatch(t *testing.T) {
	y := [][]float64{{0, 1}, {1}} // second row has only one output
	g := NewGini(2, []int{2, 2})
	if err := g.Init(y, nil, 2, idx(2), 0, 2); !errors.Is(err, ErrInit) {
		t.Errorf("Init with ragged y = %v, want ErrInit", err)
	}
}

func TestMissingNotSupportedForMAE(t *testing.T) {
	y := col(1, 2, 3)
	m := NewMAE(1, 3)
	if err := m.Init(y, nil, 3, idx(3), 0, 3); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.InitMissing(2); err != ErrMissingNotSupported {
		t.Errorf("InitMissing(2) = %v, want ErrMissingNotSupported", err)
	}
}

func TestImpurityImprovementZeroWeightGuard(t *testing.T) {
	y := col(0, 1)
	g := NewGini(1, []int{2})
	if err := g.Init(y, nil, 0, idx(2), 0, 2); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// weightedNSamples of 0 must not divide by zero.
	if got := g.ImpurityImprovement(0.5, 0, 0); got != 0 {
		t.Errorf("improvement with zero total weight = %v, want 0", got)
	}
}

func TestEpsilonIsTenULP(t *testing.T) {
	want := 10 * (math.Nextafter(1, 2) - 1)
	g := NewGini(1, []int{2})
	if got := g.epsilon; got != want {
		t.Errorf("epsilon = %v, want %v", got, want)
	}
}

func TestLeftRangesRightRangesWithMissing(t *testing.T) {
	y := col(1, 2, 3, 4, 99)
	m := NewMSE(1, 5)
	if err := m.Init(y, nil, 5, idx(5), 0, 5); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.InitMissing(1); err != nil {
		t.Fatalf("InitMissing: %v", err)
	}
	m.SetMissingGoToLeft(true)
	m.Reset()
	m.Update(2)

	var total float64
	m.forEachSample(m.leftRanges(), func(i int, w float64) { total += w })
	if total != m.weightedNLeft {
		t.Errorf("left ranges total weight = %v, want %v", total, m.weightedNLeft)
	}

	total = 0
	m.forEachSample(m.rightRanges(), func(i int, w float64) { total += w })
	if total != m.weightedNRight {
		t.Errorf("right ranges total weight = %v, want %v", total, m.weightedNRight)
	}
}

func TestImpurityImprovementScalesWithNodeWeightFraction(t *testing.T) {
	// A node covering half of the total training weight should contribute
	// half the improvement of an otherwise identical node covering all of
	// it.
	y := col(0, 0, 1, 1)
	full := NewGini(1, []int{2})
	if err := full.Init(y, nil, 4, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	full.Update(2)
	var fl, fr float64
	full.ChildrenImpurity(&fl, &fr)
	fullImprovement := full.ImpurityImprovement(full.NodeImpurity(), fl, fr)

	half := NewGini(1, []int{2})
	if err := half.Init(y, nil, 8, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	half.Update(2)
	var hl, hr float64
	half.ChildrenImpurity(&hl, &hr)
	halfImprovement := half.ImpurityImprovement(half.NodeImpurity(), hl, hr)

	if math.Abs(fullImprovement-2*halfImprovement) > 1e-9 {
		t.Errorf("full-weight improvement %v should be double half-weight improvement %v", fullImprovement, halfImprovement)
	}
}
