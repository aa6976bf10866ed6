package vscroll

import (
	"fmt"
	"iter"
)

// Range is the half-open index interval [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return max(r.End-r.Start, 0)
}

func (r Range) Empty() bool {
	return r.Len() == 0
}

func (r Range) Contains(index int) bool {
	return index >= r.Start && index < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Placement is a visible item and where to draw it.
type Placement struct {
	Index int
	Position
}

// VisibleRange returns the items overlapping the viewport
// [scrollOffset, scrollOffset+viewportExtent] widened on both sides by the
// padding. Negative arguments are treated as 0. When the widened viewport
// reaches the top, the range starts at item 0 even if leading items have zero
// height.
func (e *Engine) VisibleRange(scrollOffset, viewportExtent float64) Range {
	n := e.Len()
	if n == 0 {
		return Range{}
	}
	scrollOffset = max(scrollOffset, 0)
	viewportExtent = max(viewportExtent, 0)

	margin := float64(e.paddingItemCount) * e.estimatedItemHeight
	lowerBound := max(0, scrollOffset-margin)
	upperBound := scrollOffset + viewportExtent + margin

	start := 0
	if lowerBound > 0 {
		start = e.IndexAt(lowerBound)
	}
	end := min(e.IndexAt(upperBound)+1, n)
	if start >= end {
		return Range{}
	}
	return Range{Start: start, End: end}
}

// Layout returns the placement of every item in the visible range, in order.
func (e *Engine) Layout(scrollOffset, viewportExtent float64) []Placement {
	_, placements := e.VisibleLayout(scrollOffset, viewportExtent)
	return placements
}

// VisibleLayout returns the visible range together with its placements.
func (e *Engine) VisibleLayout(scrollOffset, viewportExtent float64) (Range, []Placement) {
	r := e.VisibleRange(scrollOffset, viewportExtent)
	if r.Empty() {
		return r, nil
	}
	placements := make([]Placement, 0, r.Len())
	for i := r.Start; i < r.End; i++ {
		placements = append(placements, Placement{Index: i, Position: e.position(i)})
	}
	return r, placements
}

// VisibleItems pairs each index in the visible range with its item. The range
// is computed when VisibleItems is called, so ranging over the result more
// than once yields the same pairs. Iteration stops early if items is shorter
// than the engine.
func VisibleItems[T any](e *Engine, items []T, scrollOffset, viewportExtent float64) iter.Seq2[int, T] {
	r := e.VisibleRange(scrollOffset, viewportExtent)
	end := min(r.End, len(items))
	return func(yield func(int, T) bool) {
		for i := r.Start; i < end; i++ {
			if !yield(i, items[i]) {
				return
			}
		}
	}
}

// Diff compares two visible ranges and returns the parts of next that were
// not in prev (entered) and the parts of prev that are not in next (exited).
// Hosts use it to build views only for new items and release the rest.
func Diff(prev, next Range) (entered, exited []Range) {
	return subtract(next, prev), subtract(prev, next)
}

// subtract returns a minus b as at most two ranges.
func subtract(a, b Range) []Range {
	if a.Empty() {
		return nil
	}
	if b.Empty() || b.End <= a.Start || b.Start >= a.End {
		return []Range{a}
	}
	var out []Range
	if a.Start < b.Start {
		out = append(out, Range{Start: a.Start, End: b.Start})
	}
	if b.End < a.End {
		out = append(out, Range{Start: b.End, End: a.End})
	}
	return out
}
