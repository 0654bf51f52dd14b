package criterion

import (
	"math"
	"testing"
)

func TestMSENodeAndChildrenImpurity(t *testing.T) {
	y := col(1, 2, 10, 11)
	m := NewMSE(1, 4)
	if err := m.Init(y, nil, 4, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if got := m.NodeImpurity(); math.Abs(got-20.5) > 1e-9 {
		t.Errorf("node impurity = %v, want 20.5", got)
	}

	m.Update(2)

	var left, right float64
	m.ChildrenImpurity(&left, &right)
	if math.Abs(left-0.25) > 1e-9 {
		t.Errorf("left impurity = %v, want 0.25", left)
	}
	if math.Abs(right-0.25) > 1e-9 {
		t.Errorf("right impurity = %v, want 0.25", right)
	}
}

func TestMSEProxyImpurityImprovementMonotone(t *testing.T) {
	// A split separating the two clusters cleanly should score higher than
	// one that doesn't.
	y := col(1, 2, 10, 11)
	good := NewMSE(1, 4)
	if err := good.Init(y, nil, 4, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	good.Update(2)

	bad := NewMSE(1, 4)
	if err := bad.Init(y, nil, 4, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	bad.Update(1)

	if good.ProxyImpurityImprovement() <= bad.ProxyImpurityImprovement() {
		t.Errorf("clean split proxy (%v) should exceed lopsided split proxy (%v)",
			good.ProxyImpurityImprovement(), bad.ProxyImpurityImprovement())
	}
}

func TestFriedmanMSEProxy(t *testing.T) {
	y := col(1, 2, 10, 11)
	f := NewFriedmanMSE(1, 4)
	if err := f.Init(y, nil, 4, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	f.Update(2)

	// sumLeft=3, sumRight=21, weightedNLeft=weightedNRight=2
	// diff = 2*3 - 2*21 = -36; proxy = 36^2 / (2*2) = 324
	if got := f.ProxyImpurityImprovement(); math.Abs(got-324) > 1e-9 {
		t.Errorf("proxy = %v, want 324", got)
	}
}

func TestFriedmanMSESharesNodeImpurityWithMSE(t *testing.T) {
	y := col(1, 2, 10, 11)
	m := NewMSE(1, 4)
	f := NewFriedmanMSE(1, 4)
	if err := m.Init(y, nil, 4, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := f.Init(y, nil, 4, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if math.Abs(m.NodeImpurity()-f.NodeImpurity()) > 1e-12 {
		t.Errorf("MSE node impurity %v != FriedmanMSE node impurity %v", m.NodeImpurity(), f.NodeImpurity())
	}
}

func TestRegressionConservation(t *testing.T) {
	y := col(3, -1, 4, 1, 5, 9, 2, 6)
	w := []float64{1, 2, 1, 1, 0.5, 2, 1, 1}
	m := NewMSE(1, 8)
	total := sumAll(w)
	if err := m.Init(y, w, total, idx(8), 0, 8); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, pos := range []int{1, 4, 6, 8} {
		m.Update(pos)
		if math.Abs(m.sumLeft[0]+m.sumRight[0]-m.sumTotal[0]) > 1e-9 {
			t.Errorf("pos %d: sum conservation violated", pos)
		}
		if math.Abs(m.weightedNLeft+m.weightedNRight-m.weightedNNodeSamples) > 1e-9 {
			t.Errorf("pos %d: weight balance violated", pos)
		}
	}
}

func TestMSEMultiOutputNodeValue(t *testing.T) {
	y := [][]float64{{1, 10}, {3, 20}, {5, 30}}
	m := NewMSE(2, 3)
	if err := m.Init(y, nil, 3, idx(3), 0, 3); err != nil {
		t.Fatalf("Init: %v", err)
	}
	dest := make([]float64, 2)
	m.NodeValue(dest)
	if math.Abs(dest[0]-3) > 1e-9 || math.Abs(dest[1]-20) > 1e-9 {
		t.Errorf("node value = %v, want [3, 20]", dest)
	}
}

func TestMSEMissingSideChoice(t *testing.T) {
	y := col(1, 2, 3, 100)
	m := NewMSE(1, 4)
	if err := m.Init(y, nil, 4, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.InitMissing(1); err != nil {
		t.Fatalf("InitMissing: %v", err)
	}

	m.SetMissingGoToLeft(true)
	m.Reset()
	if m.weightedNLeft != 1 || math.Abs(m.sumLeft[0]-100) > 1e-9 {
		t.Errorf("missing-go-left: weightedNLeft=%v sumLeft=%v, want 1, [100]", m.weightedNLeft, m.sumLeft)
	}

	m.SetMissingGoToLeft(false)
	m.Reset()
	if m.weightedNLeft != 0 || m.weightedNRight != 3 {
		t.Errorf("missing-go-right: left=%v right=%v, want 0, 3", m.weightedNLeft, m.weightedNRight)
	}
}
