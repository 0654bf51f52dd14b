package criterion

import (
	"math"
	"testing"
)

func TestWeightedMedianCalculatorOddCount(t *testing.T) {
	c := NewWeightedMedianCalculator(8)
	for _, v := range []float64{5, 1, 3} {
		c.Push(v, 1)
	}
	if got := c.GetMedian(); got != 3 {
		t.Errorf("median = %v, want 3", got)
	}
}

func TestWeightedMedianCalculatorEvenCountLowerConvention(t *testing.T) {
	c := NewWeightedMedianCalculator(8)
	for _, v := range []float64{1, 2, 3, 100} {
		c.Push(v, 1)
	}
	// weight splits evenly between {1,2} and {3,100}; lower-median
	// convention returns the smaller straddling value.
	if got := c.GetMedian(); got != 2 {
		t.Errorf("median = %v, want 2 (lower median convention)", got)
	}
}

func TestWeightedMedianCalculatorWeighted(t *testing.T) {
	c := NewWeightedMedianCalculator(8)
	c.Push(1, 10)
	c.Push(2, 1)
	c.Push(100, 1)
	// value 1 (weight 10) dominates: cumulative weight reaches half almost
	// immediately at value 1.
	if got := c.GetMedian(); got != 1 {
		t.Errorf("median = %v, want 1", got)
	}
}

func TestWeightedMedianCalculatorRemove(t *testing.T) {
	c := NewWeightedMedianCalculator(8)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		c.Push(v, 1)
	}
	c.Remove(5, 1)
	c.Remove(4, 1)
	if got := c.GetMedian(); got != 2 {
		t.Errorf("median after removing 5 and 4 = %v, want 2", got)
	}
}

func TestWeightedMedianCalculatorEmpty(t *testing.T) {
	c := NewWeightedMedianCalculator(4)
	if got := c.GetMedian(); got != 0 {
		t.Errorf("median of empty calculator = %v, want 0", got)
	}
	if c.Size() != 0 {
		t.Errorf("size = %v, want 0", c.Size())
	}
}

func TestWeightedMedianCalculatorDrainInto(t *testing.T) {
	src := NewWeightedMedianCalculator(4)
	dst := NewWeightedMedianCalculator(4)
	for _, v := range []float64{7, 2, 9, 4} {
		src.Push(v, 1)
	}
	src.drainInto(dst)
	if src.Size() != 0 {
		t.Errorf("src size after drain = %v, want 0", src.Size())
	}
	if dst.Size() != 4 {
		t.Errorf("dst size after drain = %v, want 4", dst.Size())
	}
	if got := dst.GetMedian(); got != 4 {
		t.Errorf("dst median = %v, want 4", got)
	}
}

func TestWeightedMedianCalculatorRebalanceInvariant(t *testing.T) {
	c := NewWeightedMedianCalculator(16)
	vals := []float64{9, 1, 8, 2, 7, 3, 6, 4, 5}
	for _, v := range vals {
		c.Push(v, 1.5)
	}
	half := c.totalWeight() / 2
	if c.lowerWeight < half {
		t.Errorf("lowerWeight %v should be >= half %v", c.lowerWeight, half)
	}
	if math.Abs(c.lowerWeight+c.upperWeight-c.totalWeight()) > 1e-9 {
		t.Errorf("lowerWeight + upperWeight should equal totalWeight")
	}
}
