// Package fenwick implements a binary indexed tree over float64 weights.
package fenwick

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrIndexOutOfRange is returned for indexes outside [0, Len()).
var ErrIndexOutOfRange = errors.New("index out of range")

// Tree answers prefix sums and applies point updates in O(log n).
//
// slots is 1-indexed: slots[0] is a sentinel that is never read, and
// slots[pos] holds the sum of the weights in (pos - lsb(pos), pos].
type Tree struct {
	slots []float64
}

func lsb(pos int) int {
	return pos & -pos
}

// New builds a tree holding weights. The build is linear; the resulting
// slots are the same as applying Add for every weight on an empty tree.
func New(weights []float64) *Tree {
	t := &Tree{slots: make([]float64, len(weights)+1)}
	for i, w := range weights {
		pos := i + 1
		t.slots[pos] += w
		if parent := pos + lsb(pos); parent < len(t.slots) {
			t.slots[parent] += t.slots[pos]
		}
	}
	return t
}

// NewFilled builds a tree of n copies of weight.
func NewFilled(n int, weight float64) *Tree {
	weights := make([]float64, max(n, 0))
	for i := range weights {
		weights[i] = weight
	}
	return New(weights)
}

// Len returns the number of weights.
func (t *Tree) Len() int {
	return len(t.slots) - 1
}

func (t *Tree) checkIndex(index int) error {
	if index < 0 || index >= t.Len() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, t.Len())
	}
	return nil
}

// Add adds delta to the weight at index.
func (t *Tree) Add(index int, delta float64) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	for pos := index + 1; pos < len(t.slots); pos += lsb(pos) {
		t.slots[pos] += delta
	}
	return nil
}

// PrefixSum returns the sum of the weights in [0, index]. PrefixSum(-1) is 0.
func (t *Tree) PrefixSum(index int) (float64, error) {
	if index == -1 {
		return 0, nil
	}
	if err := t.checkIndex(index); err != nil {
		return 0, err
	}
	return t.prefix(index + 1), nil
}

// Sum returns the sum of the first n weights, with n clamped to [0, Len()].
func (t *Tree) Sum(n int) float64 {
	return t.prefix(min(max(n, 0), t.Len()))
}

// prefix sums the first pos weights.
func (t *Tree) prefix(pos int) (sum float64) {
	for ; pos > 0; pos -= lsb(pos) {
		sum += t.slots[pos]
	}
	return sum
}

// RangeSum returns the sum of the weights in [lo, hi].
func (t *Tree) RangeSum(lo, hi int) (float64, error) {
	if err := t.checkIndex(lo); err != nil {
		return 0, err
	}
	if err := t.checkIndex(hi); err != nil {
		return 0, err
	}
	if lo > hi {
		return 0, fmt.Errorf("%w: lo %d > hi %d", ErrIndexOutOfRange, lo, hi)
	}
	return t.prefix(hi+1) - t.prefix(lo), nil
}

// At returns the weight at index.
func (t *Tree) At(index int) (float64, error) {
	return t.RangeSum(index, index)
}

// Total returns the sum of all weights.
func (t *Tree) Total() float64 {
	return t.prefix(t.Len())
}

// LowerBound returns the smallest index whose prefix sum is >= value, or Len()
// if there is none. Weights must be non-negative.
func (t *Tree) LowerBound(value float64) int {
	return t.search(func(slot, rem float64) bool { return slot < rem }, value)
}

// UpperBound returns the smallest index whose prefix sum is > value, or Len()
// if there is none. Weights must be non-negative.
func (t *Tree) UpperBound(value float64) int {
	return t.search(func(slot, rem float64) bool { return slot <= rem }, value)
}

// search descends the implicit tree from the highest power of two, keeping
// pos as the longest prefix for which skip holds. The answer is pos itself
// as a 0-based index.
func (t *Tree) search(skip func(slot, rem float64) bool, value float64) int {
	n := t.Len()
	if n == 0 {
		return 0
	}
	pos := 0
	rem := value
	for step := 1 << (bits.Len(uint(n)) - 1); step > 0; step >>= 1 {
		next := pos + step
		if next <= n && skip(t.slots[next], rem) {
			pos = next
			rem -= t.slots[next]
		}
	}
	return pos
}
