package criterion

import "container/heap"

// WeightedMedianCalculator is a streaming weighted median over a multiset of
// (value, weight) pairs, supporting logarithmic Push, linear-time Remove and
// O(1) GetMedian.
//
// It is modeled as two heaps split at the running median: lower holds every
// value at or below the median (a max-heap, so its root is the largest of
// the low half) and upper holds every value above it (a min-heap). Remove
// needs to evict an arbitrary (value, weight) pair, not just an extreme one,
// so both heaps are scanned linearly to find it — container/heap has no
// index-aware removal primitive, and this project's node sizes don't
// justify maintaining one.
//
// Median tie-breaking: when the cumulative weight splits exactly in half
// between two straddling values, GetMedian returns the smaller of the two
// (lower's root), the "lower median" convention.
type WeightedMedianCalculator struct {
	lower       maxEntryHeap
	upper       minEntryHeap
	lowerWeight float64
	upperWeight float64
}

type medianEntry struct {
	value, weight float64
}

type maxEntryHeap []medianEntry

func (h maxEntryHeap) Len() int            { return len(h) }
func (h maxEntryHeap) Less(i, j int) bool  { return h[i].value > h[j].value }
func (h maxEntryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxEntryHeap) Push(x interface{}) { *h = append(*h, x.(medianEntry)) }
func (h *maxEntryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

type minEntryHeap []medianEntry

func (h minEntryHeap) Len() int            { return len(h) }
func (h minEntryHeap) Less(i, j int) bool  { return h[i].value < h[j].value }
func (h minEntryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minEntryHeap) Push(x interface{}) { *h = append(*h, x.(medianEntry)) }
func (h *minEntryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// NewWeightedMedianCalculator returns an empty calculator, optionally
// preallocated for up to capacityHint entries per side.
func NewWeightedMedianCalculator(capacityHint int) *WeightedMedianCalculator {
	return &WeightedMedianCalculator{
		lower: make(maxEntryHeap, 0, capacityHint),
		upper: make(minEntryHeap, 0, capacityHint),
	}
}

// Size returns the number of entries currently held.
func (w *WeightedMedianCalculator) Size() int {
	return len(w.lower) + len(w.upper)
}

func (w *WeightedMedianCalculator) totalWeight() float64 {
	return w.lowerWeight + w.upperWeight
}

// Reset discards every entry.
func (w *WeightedMedianCalculator) Reset() {
	w.lower = w.lower[:0]
	w.upper = w.upper[:0]
	w.lowerWeight = 0
	w.upperWeight = 0
}

// Push inserts (value, weight) and restores the half-split invariant.
func (w *WeightedMedianCalculator) Push(value, weight float64) {
	if len(w.lower) == 0 || value <= w.lower[0].value {
		heap.Push(&w.lower, medianEntry{value, weight})
		w.lowerWeight += weight
	} else {
		heap.Push(&w.upper, medianEntry{value, weight})
		w.upperWeight += weight
	}
	w.rebalance()
}

// Remove evicts one (value, weight) entry previously Push-ed. It is a
// no-op, beyond the ordinary rebalance, if no matching entry is found.
func (w *WeightedMedianCalculator) Remove(value, weight float64) {
	if i, ok := findEntry(w.lower, value, weight); ok {
		heap.Remove(&w.lower, i)
		w.lowerWeight -= weight
	} else if i, ok := findEntry(w.upper, value, weight); ok {
		heap.Remove(&w.upper, i)
		w.upperWeight -= weight
	}
	w.rebalance()
}

func findEntry(h []medianEntry, value, weight float64) (int, bool) {
	for i, e := range h {
		if e.value == value && e.weight == weight {
			return i, true
		}
	}
	return -1, false
}

// Pop removes and returns an arbitrary entry (preferring lower), reporting
// ok = false when the calculator is empty. Used to drain one calculator's
// contents into another.
func (w *WeightedMedianCalculator) Pop() (value, weight float64, ok bool) {
	switch {
	case len(w.lower) > 0:
		e := heap.Pop(&w.lower).(medianEntry)
		w.lowerWeight -= e.weight
		w.rebalance()
		return e.value, e.weight, true
	case len(w.upper) > 0:
		e := heap.Pop(&w.upper).(medianEntry)
		w.upperWeight -= e.weight
		w.rebalance()
		return e.value, e.weight, true
	default:
		return 0, 0, false
	}
}

// drainInto moves every entry of w into dst, in arbitrary order.
func (w *WeightedMedianCalculator) drainInto(dst *WeightedMedianCalculator) {
	for w.Size() > 0 {
		v, wt, _ := w.Pop()
		dst.Push(v, wt)
	}
}

// GetMedian returns the smallest value whose cumulative weight (summed over
// the multiset in ascending order) first reaches half of the total weight.
// Returns 0 for an empty calculator.
func (w *WeightedMedianCalculator) GetMedian() float64 {
	if len(w.lower) == 0 {
		return 0
	}
	return w.lower[0].value
}

// rebalance restores: lowerWeight >= totalWeight/2 (once non-empty), and
// removing lower's own root would drop lowerWeight back below half — which
// makes lower's root exactly the weighted median.
func (w *WeightedMedianCalculator) rebalance() {
	half := w.totalWeight() / 2
	for len(w.lower) > 0 && w.lowerWeight-w.lower[0].weight >= half {
		e := heap.Pop(&w.lower).(medianEntry)
		w.lowerWeight -= e.weight
		heap.Push(&w.upper, e)
		w.upperWeight += e.weight
	}
	for w.lowerWeight < half && len(w.upper) > 0 {
		e := heap.Pop(&w.upper).(medianEntry)
		w.upperWeight -= e.weight
		heap.Push(&w.lower, e)
		w.lowerWeight += e.weight
	}
}
