package criterion

import (
	"math"
	"testing"
)

func TestMAENodeValueAndImpurity(t *testing.T) {
	y := col(1, 2, 3, 100)
	m := NewMAE(1, 4)
	if err := m.Init(y, nil, 4, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}

	dest := make([]float64, 1)
	m.NodeValue(dest)
	if dest[0] != 2 {
		t.Errorf("node median = %v, want 2", dest[0])
	}

	// mean absolute deviation around the median 2: |1-2|+|2-2|+|3-2|+|100-2| = 100; /4 = 25.0
	if got := m.NodeImpurity(); math.Abs(got-25.0) > 1e-9 {
		t.Errorf("node impurity = %v, want 25.0", got)
	}
}

func TestMAEUpdateChildrenImpurity(t *testing.T) {
	y := col(1, 2, 3, 4, 5, 6)
	m := NewMAE(1, 6)
	if err := m.Init(y, nil, 6, idx(6), 0, 6); err != nil {
		t.Fatalf("Init: %v", err)
	}
	m.Update(3)

	var left, right float64
	m.ChildrenImpurity(&left, &right)
	// left = {1,2,3}, median 2, mad = (1+0+1)/3 = 0.6667
	if math.Abs(left-2.0/3.0) > 1e-9 {
		t.Errorf("left impurity = %v, want 0.6667", left)
	}
	// right = {4,5,6}, median 5, mad = (1+0+1)/3 = 0.6667
	if math.Abs(right-2.0/3.0) > 1e-9 {
		t.Errorf("right impurity = %v, want 0.6667", right)
	}
}

func TestMAEInitMissingRejectsNonZero(t *testing.T) {
	y := col(1, 2, 3)
	m := NewMAE(1, 3)
	if err := m.Init(y, nil, 3, idx(3), 0, 3); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.InitMissing(1); err != ErrMissingNotSupported {
		t.Errorf("InitMissing(1) = %v, want ErrMissingNotSupported", err)
	}
	if err := m.InitMissing(0); err != nil {
		t.Errorf("InitMissing(0) = %v, want nil", err)
	}
}

func TestMAEWeightBalance(t *testing.T) {
	y := col(5, 1, 9, 3, 7, 2)
	w := []float64{1, 2, 1, 3, 1, 1}
	m := NewMAE(1, 6)
	total := sumAll(w)
	if err := m.Init(y, w, total, idx(6), 0, 6); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, pos := range []int{2, 4, 6} {
		m.Update(pos)
		if math.Abs(m.weightedNLeft+m.weightedNRight-m.weightedNNodeSamples) > 1e-9 {
			t.Errorf("pos %d: weight balance violated: left=%v right=%v node=%v",
				pos, m.weightedNLeft, m.weightedNRight, m.weightedNNodeSamples)
		}
	}
}

func TestMAEBackwardSweepMatchesIncrementalForward(t *testing.T) {
	y := col(10, 20, 30, 40, 50)

	// A single jump to position 4 is nearer to the end (distance 1) than to
	// the start (distance 4), so Update picks the backward-sweep branch.
	backward := NewMAE(1, 5)
	if err := backward.Init(y, nil, 5, idx(5), 0, 5); err != nil {
		t.Fatalf("Init: %v", err)
	}
	backward.Update(4)

	// Stepping one position at a time keeps every call nearer to the start,
	// exercising the forward-sweep branch throughout.
	forward := NewMAE(1, 5)
	if err := forward.Init(y, nil, 5, idx(5), 0, 5); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for p := 1; p <= 4; p++ {
		forward.Update(p)
	}

	if math.Abs(forward.weightedNLeft-backward.weightedNLeft) > 1e-9 {
		t.Errorf("weightedNLeft mismatch: forward=%v backward=%v", forward.weightedNLeft, backward.weightedNLeft)
	}

	var fl, fr, bl, br float64
	forward.ChildrenImpurity(&fl, &fr)
	backward.ChildrenImpurity(&bl, &br)
	if math.Abs(fl-bl) > 1e-9 || math.Abs(fr-br) > 1e-9 {
		t.Errorf("children impurity mismatch: forward=(%v,%v) backward=(%v,%v)", fl, fr, bl, br)
	}
}
