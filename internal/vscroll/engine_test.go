package vscroll

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, n int, estimate float64, padding int) *Engine {
	t.Helper()
	e, err := New(n, estimate, padding)
	require.NoError(t, err)
	return e
}

// slotsOf snapshots every prefix sum, which pins down the whole store.
func slotsOf(e *Engine) []float64 {
	sums := make([]float64, e.Len())
	for i := range sums {
		sums[i], _ = e.heights.PrefixSum(i)
	}
	return sums
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid arguments", func(t *testing.T) {
		t.Parallel()
		_, err := New(10, -1, 5)
		require.ErrorIs(t, err, ErrInvalidEstimate)
		_, err = New(10, 0, 5)
		require.ErrorIs(t, err, ErrInvalidEstimate)
		_, err = New(10, math.NaN(), 5)
		require.ErrorIs(t, err, ErrInvalidEstimate)
		_, err = New(10, math.Inf(1), 5)
		require.ErrorIs(t, err, ErrInvalidEstimate)
		_, err = New(10, 50, -1)
		require.ErrorIs(t, err, ErrInvalidPadding)
		_, err = New(-1, 50, 5)
		require.ErrorIs(t, err, ErrInvalidCount)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		e, err := NewWithOptions(3)
		require.NoError(t, err)
		assert.Equal(t, 3, e.Len())
		assert.Equal(t, float64(DefaultEstimatedItemHeight), e.EstimatedItemHeight())
		assert.Equal(t, DefaultPaddingItemCount, e.PaddingItemCount())
		assert.Equal(t, 150.0, e.TotalExtent())
	})

	t.Run("options", func(t *testing.T) {
		t.Parallel()
		e, err := NewWithOptions(4, WithEstimatedItemHeight(3), WithPaddingItemCount(0))
		require.NoError(t, err)
		assert.Equal(t, 3.0, e.EstimatedItemHeight())
		assert.Equal(t, 0, e.PaddingItemCount())
		assert.Equal(t, 12.0, e.TotalExtent())
	})
}

// Scenario A: estimated heights only.
func TestVisibleRangeWithEstimates(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 1000, 50, 5)

	assert.Equal(t, 50000.0, e.TotalExtent())
	assert.Equal(t, Range{Start: 15, End: 36}, e.VisibleRange(1000, 500))
}

// Scenario B: a single measurement shifts everything after it.
func TestUpdateItemHeightShiftsFollowingItems(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 1000, 50, 5)

	changed, err := e.UpdateItemHeight(0, 20)
	require.NoError(t, err)
	assert.True(t, changed)

	pos, err := e.ItemPosition(1)
	require.NoError(t, err)
	assert.Equal(t, Position{Top: 20, Height: 50}, pos)
	assert.Equal(t, 49970.0, e.TotalExtent())

	pos, err = e.ItemPosition(0)
	require.NoError(t, err)
	assert.Equal(t, Position{Top: 0, Height: 20}, pos)
}

// Scenario C: measuring the same height twice is a no-op.
func TestUpdateItemHeightIsIdempotent(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 1000, 50, 5)

	_, err := e.UpdateItemHeight(0, 20)
	require.NoError(t, err)
	snapshot := slices.Clone(slotsOf(e))
	total := e.TotalExtent()

	changed, err := e.UpdateItemHeight(0, 20)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, snapshot, slotsOf(e))
	assert.Equal(t, total, e.TotalExtent())
}

func TestUpdateItemHeightIsIdempotentForFractionalHeights(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 1000, 50, 5)

	for _, h := range []float64{33.3, 17.7, 0.1, 12.345, 41.9, 7.77} {
		for index := range 64 {
			_, err := e.UpdateItemHeight(index, h)
			require.NoError(t, err)
			snapshot := slices.Clone(slotsOf(e))
			total := e.TotalExtent()

			changed, err := e.UpdateItemHeight(index, h)
			require.NoError(t, err)
			require.False(t, changed, "height=%v index=%d", h, index)
			require.Equal(t, snapshot, slotsOf(e), "height=%v index=%d", h, index)
			require.Equal(t, total, e.TotalExtent())

			pos, err := e.ItemPosition(index)
			require.NoError(t, err)
			require.Equal(t, h, pos.Height)
		}
	}

	var want float64
	for range 64 {
		want += 7.77
	}
	assert.InDelta(t, want+936*50, e.TotalExtent(), 1e-6)
}

// Scenario D: an empty list is a valid boundary case.
func TestEmptyEngine(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 0, 50, 5)

	assert.Zero(t, e.TotalExtent())
	assert.True(t, e.VisibleRange(0, 1000).Empty())
	assert.True(t, e.VisibleRange(12345, 10).Empty())
	assert.Nil(t, e.Layout(0, 1000))
	assert.Equal(t, -1, e.LowerIndexAtOrAbove(0))
	assert.Equal(t, -1, e.IndexAt(0))

	for range VisibleItems(e, []string{}, 0, 1000) {
		t.Fatal("expected no visible items")
	}

	_, err := e.ItemPosition(0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

// Scenario E: out of range lookups fail without touching the store.
func TestOutOfRange(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 1000, 50, 5)
	snapshot := slices.Clone(slotsOf(e))

	_, err := e.ItemPosition(1000)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = e.ItemPosition(-1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = e.UpdateItemHeight(1000, 10)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = e.UpdateItemHeight(-1, 10)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	assert.Equal(t, snapshot, slotsOf(e))
	assert.Equal(t, 50000.0, e.TotalExtent())
}

func TestUpdateItemHeightRejectsInvalidHeights(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 10, 50, 5)
	snapshot := slices.Clone(slotsOf(e))

	_, err := e.UpdateItemHeight(3, -1)
	require.ErrorIs(t, err, ErrNegativeHeight)
	_, err = e.UpdateItemHeight(3, math.NaN())
	require.ErrorIs(t, err, ErrInvalidHeight)
	_, err = e.UpdateItemHeight(3, math.Inf(1))
	require.ErrorIs(t, err, ErrInvalidHeight)

	assert.Equal(t, snapshot, slotsOf(e))

	changed, err := e.UpdateItemHeight(3, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 450.0, e.TotalExtent())
}

func TestLowerIndexAtOrAbove(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(11, 12))

	for _, n := range []int{1, 2, 3, 31, 64, 200} {
		e := newEngine(t, n, 10, 0)
		heights := make([]float64, n)
		for i := range heights {
			heights[i] = float64(r.IntN(4) * 5) // includes zero-height runs
			_, err := e.UpdateItemHeight(i, heights[i])
			require.NoError(t, err)
		}

		for v := -5.0; v <= e.TotalExtent()+10; v += 2.5 {
			want := n - 1
			var sum float64
			for i, h := range heights {
				sum += h
				if sum >= v {
					want = i
					break
				}
			}
			assert.Equal(t, want, e.LowerIndexAtOrAbove(v), "n=%d v=%v", n, v)
		}
		assert.Equal(t, n-1, e.LowerIndexAtOrAbove(e.TotalExtent()+1))
	}
}

func TestIndexAt(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 6, 10, 0)
	for i, h := range []float64{10, 0, 0, 10, 0, 10} {
		_, err := e.UpdateItemHeight(i, h)
		require.NoError(t, err)
	}

	assert.Equal(t, 0, e.IndexAt(0))
	assert.Equal(t, 0, e.IndexAt(9.5))
	// Offset 10 is the top of item 3; the zero-height items 1 and 2 cover nothing.
	assert.Equal(t, 3, e.IndexAt(10))
	assert.Equal(t, 0, e.LowerIndexAtOrAbove(10))
	assert.Equal(t, 5, e.IndexAt(20))
	assert.Equal(t, 5, e.IndexAt(1000))
}

func TestVisibleRangeContainsViewport(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(13, 14))

	for trial := range 50 {
		n := 1 + r.IntN(300)
		padding := r.IntN(4)
		e := newEngine(t, n, 20, padding)
		heights := make([]float64, n)
		for i := range heights {
			heights[i] = 20
			if r.IntN(2) == 0 {
				// Quarter steps keep every sum exact, including zero heights.
				heights[i] = float64(r.IntN(240)) / 4
				_, err := e.UpdateItemHeight(i, heights[i])
				require.NoError(t, err)
			}
		}
		tops := make([]float64, n)
		var total float64
		for i, h := range heights {
			tops[i] = total
			total += h
		}
		require.Equal(t, total, e.TotalExtent())

		for range 40 {
			scroll := float64(r.IntN(4*(int(total)+50))) / 4
			viewport := float64(r.IntN(1600)) / 4
			got := e.VisibleRange(scroll, viewport)
			require.False(t, got.Empty())

			if scroll <= float64(padding)*20 {
				assert.Equal(t, 0, got.Start, "trial=%d scroll=%v", trial, scroll)
			}
			for i, h := range heights {
				covers := h > 0 && tops[i] <= scroll+viewport && tops[i]+h > scroll
				if covers {
					require.True(t, got.Contains(i),
						"trial=%d scroll=%v viewport=%v item=%d top=%v height=%v range=%s",
						trial, scroll, viewport, i, tops[i], h, got)
				}
			}
		}
	}
}

func TestVisibleRangeIncludesLeadingZeroHeightItems(t *testing.T) {
	t.Parallel()

	t.Run("without padding", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t, 5, 50, 0)
		for _, i := range []int{0, 1} {
			_, err := e.UpdateItemHeight(i, 0)
			require.NoError(t, err)
		}
		assert.Equal(t, 0, e.LowerIndexAtOrAbove(0))
		assert.Equal(t, Range{Start: 0, End: 5}, e.VisibleRange(0, 100))

		layout := e.Layout(0, 100)
		require.Len(t, layout, 5)
		assert.Equal(t, Placement{Index: 0}, layout[0])
		assert.Equal(t, Placement{Index: 2, Position: Position{Top: 0, Height: 50}}, layout[2])
	})

	t.Run("with padding", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t, 5, 50, 5)
		_, err := e.UpdateItemHeight(0, 0)
		require.NoError(t, err)
		assert.Equal(t, Range{Start: 0, End: 5}, e.VisibleRange(0, 100))
	})

	t.Run("scrolled past them", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t, 10, 50, 0)
		_, err := e.UpdateItemHeight(0, 0)
		require.NoError(t, err)
		assert.Equal(t, Range{Start: 2, End: 5}, e.VisibleRange(60, 100))
	})
}

func TestVisibleLayout(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 100, 50, 5)
	_, err := e.UpdateItemHeight(20, 12.5)
	require.NoError(t, err)

	r, placements := e.VisibleLayout(1000, 500)
	assert.Equal(t, e.VisibleRange(1000, 500), r)
	assert.Equal(t, e.Layout(1000, 500), placements)
	require.Len(t, placements, r.Len())
	assert.Equal(t, r.Start, placements[0].Index)
	assert.Equal(t, r.End-1, placements[len(placements)-1].Index)

	r, placements = newEngine(t, 0, 50, 5).VisibleLayout(0, 500)
	assert.True(t, r.Empty())
	assert.Nil(t, placements)
}

func TestVisibleRangeClampsNegativeInput(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 100, 10, 2)
	assert.Equal(t, e.VisibleRange(0, 0), e.VisibleRange(-50, -10))
	assert.Equal(t, Range{Start: 0, End: 3}, e.VisibleRange(0, 0))
}

func TestVisibleRangeClampsToItemCount(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 20, 10, 5)
	assert.Equal(t, Range{Start: 14, End: 20}, e.VisibleRange(190, 100))
	assert.Equal(t, Range{Start: 19, End: 20}, e.VisibleRange(10000, 100))
}

func TestLayout(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 10, 10, 0)
	_, err := e.UpdateItemHeight(2, 30)
	require.NoError(t, err)

	got := e.Layout(15, 20)
	assert.Equal(t, []Placement{
		{Index: 1, Position: Position{Top: 10, Height: 10}},
		{Index: 2, Position: Position{Top: 20, Height: 30}},
	}, got)

	for _, p := range got {
		want, err := e.ItemPosition(p.Index)
		require.NoError(t, err)
		assert.Equal(t, want, p.Position)
	}
}

func TestVisibleItems(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 100, 50, 5)
	items := make([]string, 100)
	for i := range items {
		items[i] = string(rune('a' + i%26))
	}

	seq := VisibleItems(e, items, 1000, 500)
	var first, second []int
	for i, item := range seq {
		assert.Equal(t, items[i], item)
		first = append(first, i)
	}
	for i := range seq {
		second = append(second, i)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 21)
	assert.Equal(t, 15, first[0])
	assert.Equal(t, 35, first[len(first)-1])

	t.Run("stops early", func(t *testing.T) {
		var seen int
		for range seq {
			seen++
			if seen == 3 {
				break
			}
		}
		assert.Equal(t, 3, seen)
	})

	t.Run("shorter payload", func(t *testing.T) {
		var seen []int
		for i := range VisibleItems(e, items[:20], 1000, 500) {
			seen = append(seen, i)
		}
		assert.Equal(t, []int{15, 16, 17, 18, 19}, seen)
	})
}

func TestDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		prev, next    Range
		entered, exit []Range
	}{
		{"same", Range{5, 10}, Range{5, 10}, nil, nil},
		{"scroll down", Range{5, 10}, Range{7, 12}, []Range{{10, 12}}, []Range{{5, 7}}},
		{"scroll up", Range{5, 10}, Range{3, 8}, []Range{{3, 5}}, []Range{{8, 10}}},
		{"disjoint", Range{0, 3}, Range{10, 12}, []Range{{10, 12}}, []Range{{0, 3}}},
		{"grow", Range{5, 10}, Range{4, 11}, []Range{{4, 5}, {10, 11}}, nil},
		{"from empty", Range{}, Range{0, 4}, []Range{{0, 4}}, nil},
		{"to empty", Range{0, 4}, Range{}, nil, []Range{{0, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entered, exited := Diff(tt.prev, tt.next)
			assert.Equal(t, tt.entered, entered)
			assert.Equal(t, tt.exit, exited)
		})
	}
}

func TestScrollOffsetFor(t *testing.T) {
	t.Parallel()
	e := newEngine(t, 100, 10, 0)
	_, err := e.UpdateItemHeight(50, 200)
	require.NoError(t, err)

	assert.Equal(t, 1190.0, e.TotalExtent())
	assert.Equal(t, 1090.0, e.MaxScrollOffset(100))
	assert.Equal(t, 0.0, e.ClampScrollOffset(-3, 100))
	assert.Equal(t, 1090.0, e.ClampScrollOffset(5000, 100))

	offset, err := e.ScrollOffsetFor(5, 0, 100, AlignNearest)
	require.NoError(t, err)
	assert.Equal(t, 0.0, offset, "already visible")

	offset, err = e.ScrollOffsetFor(20, 0, 100, AlignNearest)
	require.NoError(t, err)
	assert.Equal(t, 110.0, offset, "below the viewport ends up at the bottom")

	offset, err = e.ScrollOffsetFor(2, 300, 100, AlignNearest)
	require.NoError(t, err)
	assert.Equal(t, 20.0, offset, "above the viewport ends up at the top")

	offset, err = e.ScrollOffsetFor(20, 0, 100, AlignStart)
	require.NoError(t, err)
	assert.Equal(t, 200.0, offset)

	offset, err = e.ScrollOffsetFor(20, 0, 100, AlignEnd)
	require.NoError(t, err)
	assert.Equal(t, 110.0, offset)

	offset, err = e.ScrollOffsetFor(50, 0, 100, AlignEnd)
	require.NoError(t, err)
	assert.Equal(t, 500.0, offset, "taller than the viewport shows its top")

	offset, err = e.ScrollOffsetFor(99, 0, 100, AlignStart)
	require.NoError(t, err)
	assert.Equal(t, 1090.0, offset, "clamped to the max offset")

	_, err = e.ScrollOffsetFor(100, 0, 100, AlignStart)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}
