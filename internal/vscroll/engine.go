// Package vscroll computes which items of a long list are visible in a
// scrolling viewport when item heights are only known once rendered.
//
// An Engine tracks one height per item, seeded with an estimate and corrected
// as items are measured, and answers position and visible-range queries in
// O(log n). It never touches rendering; heights and offsets are plain numbers
// in whatever unit the host uses (pixels, terminal rows).
//
// An Engine is not safe for concurrent use. Hosts that receive events from
// several goroutines should serialize engine calls, as the scheduler package
// does.
package vscroll

import (
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/vlist/internal/fenwick"
)

const (
	DefaultEstimatedItemHeight = 50
	DefaultPaddingItemCount    = 5
)

var (
	ErrIndexOutOfRange = fenwick.ErrIndexOutOfRange
	ErrNegativeHeight  = errors.New("height must not be negative")
	ErrInvalidHeight   = errors.New("height must be a finite number")
	ErrInvalidEstimate = errors.New("estimated item height must be a positive finite number")
	ErrInvalidPadding  = errors.New("padding item count must not be negative")
	ErrInvalidCount    = errors.New("item count must not be negative")
)

// Position is where an item sits in the scrollable content.
type Position struct {
	Top    float64
	Height float64
}

// Bottom is the offset just past the item.
func (p Position) Bottom() float64 {
	return p.Top + p.Height
}

// Engine positions a fixed number of items from their estimated or measured
// heights.
type Engine struct {
	heights *fenwick.Tree
	// sizes holds the exact height last recorded for each item. Reading a
	// height back from the tree subtracts two prefix sums, which is not exact
	// for fractional heights.
	sizes []float64

	estimatedItemHeight float64
	paddingItemCount    int

	totalExtent float64
}

type options struct {
	estimatedItemHeight float64
	paddingItemCount    int
}

type Option func(*options)

// WithEstimatedItemHeight sets the height assumed for items not yet measured.
func WithEstimatedItemHeight(h float64) Option {
	return func(o *options) {
		o.estimatedItemHeight = h
	}
}

// WithPaddingItemCount sets how many estimated item heights are added beyond
// each edge of the viewport.
func WithPaddingItemCount(n int) Option {
	return func(o *options) {
		o.paddingItemCount = n
	}
}

// New returns an engine for itemCount items, each assumed to be
// estimatedItemHeight tall until measured. An empty engine is valid.
func New(itemCount int, estimatedItemHeight float64, paddingItemCount int) (*Engine, error) {
	if itemCount < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, itemCount)
	}
	if estimatedItemHeight <= 0 || math.IsNaN(estimatedItemHeight) || math.IsInf(estimatedItemHeight, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidEstimate, estimatedItemHeight)
	}
	if paddingItemCount < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPadding, paddingItemCount)
	}
	sizes := make([]float64, itemCount)
	for i := range sizes {
		sizes[i] = estimatedItemHeight
	}
	heights := fenwick.New(sizes)
	return &Engine{
		heights:             heights,
		sizes:               sizes,
		estimatedItemHeight: estimatedItemHeight,
		paddingItemCount:    paddingItemCount,
		totalExtent:         heights.Total(),
	}, nil
}

// NewWithOptions is New with the package defaults for anything not set.
func NewWithOptions(itemCount int, opts ...Option) (*Engine, error) {
	o := options{
		estimatedItemHeight: DefaultEstimatedItemHeight,
		paddingItemCount:    DefaultPaddingItemCount,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return New(itemCount, o.estimatedItemHeight, o.paddingItemCount)
}

// Len returns the number of items.
func (e *Engine) Len() int {
	return len(e.sizes)
}

// EstimatedItemHeight returns the height assumed for unmeasured items.
func (e *Engine) EstimatedItemHeight() float64 {
	return e.estimatedItemHeight
}

// PaddingItemCount returns how many estimated heights widen each viewport
// edge.
func (e *Engine) PaddingItemCount() int {
	return e.paddingItemCount
}

// TotalExtent is the height of all items together, used to size the
// scrollable region.
func (e *Engine) TotalExtent() float64 {
	return e.totalExtent
}

// ItemPosition returns the top offset and height of the item at index.
func (e *Engine) ItemPosition(index int) (Position, error) {
	if index < 0 || index >= e.Len() {
		return Position{}, outOfRange(index, e.Len())
	}
	return e.position(index), nil
}

// position assumes index is in range.
func (e *Engine) position(index int) Position {
	return Position{Top: e.heights.Sum(index), Height: e.sizes[index]}
}

// UpdateItemHeight records the measured height of the item at index. It
// reports whether anything changed; measuring a stable item again is a no-op.
func (e *Engine) UpdateItemHeight(index int, measured float64) (bool, error) {
	if math.IsNaN(measured) || math.IsInf(measured, 0) {
		return false, fmt.Errorf("failed to update item %d: %w", index, ErrInvalidHeight)
	}
	if measured < 0 {
		return false, fmt.Errorf("failed to update item %d: %w: got %v", index, ErrNegativeHeight, measured)
	}
	if index < 0 || index >= e.Len() {
		return false, fmt.Errorf("failed to update item height: %w", outOfRange(index, e.Len()))
	}
	if measured == e.sizes[index] {
		return false, nil
	}
	if err := e.heights.Add(index, measured-e.sizes[index]); err != nil {
		return false, fmt.Errorf("failed to update item height: %w", err)
	}
	e.sizes[index] = measured
	e.totalExtent = e.heights.Total()
	return true, nil
}

// LowerIndexAtOrAbove returns the smallest index whose cumulative height
// (the item's bottom edge) is >= value. When value is past the total extent
// it returns the last index. It returns -1 for an empty engine.
func (e *Engine) LowerIndexAtOrAbove(value float64) int {
	n := e.Len()
	if n == 0 {
		return -1
	}
	return min(e.heights.LowerBound(value), n-1)
}

// IndexAt returns the index of the item covering offset, where item i covers
// [top, top+height). Zero-height items cover nothing and are skipped. Offsets
// past the end map to the last index; it returns -1 for an empty engine.
func (e *Engine) IndexAt(offset float64) int {
	n := e.Len()
	if n == 0 {
		return -1
	}
	return min(e.heights.UpperBound(offset), n-1)
}

func outOfRange(index, n int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, n)
}
