package criterion

import (
	"math"
	"testing"
)

func TestPoissonForbidsZeroSumSplit(t *testing.T) {
	y := col(0, 0, 3, 3)
	p := NewPoisson(1, 4)
	if err := p.Init(y, nil, 4, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	p.Update(2)

	if got := p.ProxyImpurityImprovement(); !math.IsInf(got, -1) {
		t.Errorf("proxy = %v, want -Inf (left side has zero sum)", got)
	}

	var left, right float64
	p.ChildrenImpurity(&left, &right)
	if !math.IsInf(left, 1) {
		t.Errorf("left impurity = %v, want +Inf", left)
	}
	if math.IsInf(right, 0) {
		t.Errorf("right impurity = %v, want finite (right side has positive sum)", right)
	}
}

func TestPoissonAllowsValidSplit(t *testing.T) {
	y := col(1, 2, 10, 11)
	p := NewPoisson(1, 4)
	if err := p.Init(y, nil, 4, idx(4), 0, 4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	p.Update(2)

	if got := p.ProxyImpurityImprovement(); math.IsInf(got, 0) {
		t.Errorf("proxy = %v, want finite for a split with positive sums on both sides", got)
	}
}

func TestXlogyZero(t *testing.T) {
	if got := xlogy(0, 0); got != 0 {
		t.Errorf("xlogy(0, 0) = %v, want 0", got)
	}
	if got := xlogy(0, -5); got != 0 {
		t.Errorf("xlogy(0, -5) = %v, want 0", got)
	}
	want := 2 * math.Log(3)
	if got := xlogy(2, 3); math.Abs(got-want) > 1e-12 {
		t.Errorf("xlogy(2, 3) = %v, want %v", got, want)
	}
}

func TestPoissonNodeImpurityNonNegative(t *testing.T) {
	y := col(2, 4, 6, 8, 10)
	p := NewPoisson(1, 5)
	if err := p.Init(y, nil, 5, idx(5), 0, 5); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// half Poisson deviance around the mean is 0 only when all values equal
	// the mean; here it must be strictly positive.
	if got := p.NodeImpurity(); got <= 0 {
		t.Errorf("node impurity = %v, want > 0", got)
	}
}
