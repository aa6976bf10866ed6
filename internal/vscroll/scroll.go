package vscroll

// Align says where ScrollOffsetFor should put an item in the viewport.
type Align int

const (
	// AlignNearest scrolls as little as possible to bring the item into view.
	AlignNearest Align = iota
	AlignStart
	AlignEnd
)

// MaxScrollOffset is the largest offset that still fills the viewport.
func (e *Engine) MaxScrollOffset(viewportExtent float64) float64 {
	return max(e.totalExtent-viewportExtent, 0)
}

// ClampScrollOffset keeps offset within [0, MaxScrollOffset].
func (e *Engine) ClampScrollOffset(offset, viewportExtent float64) float64 {
	return min(max(offset, 0), e.MaxScrollOffset(viewportExtent))
}

// ScrollOffsetFor returns the scroll offset that brings the item at index into
// a viewport currently at current. Items taller than the viewport are shown
// from their top.
func (e *Engine) ScrollOffsetFor(index int, current, viewportExtent float64, align Align) (float64, error) {
	pos, err := e.ItemPosition(index)
	if err != nil {
		return current, err
	}

	var offset float64
	switch {
	case align == AlignStart || pos.Height >= viewportExtent:
		offset = pos.Top
	case align == AlignEnd:
		offset = pos.Bottom() - viewportExtent
	default:
		switch {
		case pos.Top < current:
			offset = pos.Top
		case pos.Bottom() > current+viewportExtent:
			offset = pos.Bottom() - viewportExtent
		default:
			offset = current
		}
	}
	return e.ClampScrollOffset(offset, viewportExtent), nil
}
