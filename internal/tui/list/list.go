package list

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/vlist/internal/vscroll"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/zeebo/xxh3"
)

// Item is a list entry. IDs must be unique within a list. Render must return
// the same view for the same width until the item is replaced through
// UpdateItem.
type Item interface {
	ID() string
	Render(width int) string
}

const (
	ItemNotFound              = -1
	ViewportDefaultScrollSize = 2

	// DefaultEstimatedItemRows is the height, in rows, assumed for items that
	// have not been rendered yet.
	DefaultEstimatedItemRows = 3

	// maxSettlePasses bounds how many measure passes one update may take
	// before the viewport is drawn with whatever heights are known.
	maxSettlePasses = 8
)

type confOptions struct {
	width, height int
	gap           int
	// if you are at the last item and go down it will wrap to the top
	wrap          bool
	enableMouse   bool
	keyMap        KeyMap
	estimatedRows float64
	padding       int
	selectedStyle lipgloss.Style
}

type ListOption func(*confOptions)

// WithSize sets the width and height of the list view.
func WithSize(width, height int) ListOption {
	return func(l *confOptions) {
		l.width = width
		l.height = height
	}
}

// WithGap sets the number of blank rows between items.
func WithGap(gap int) ListOption {
	return func(l *confOptions) {
		l.gap = gap
	}
}

// WithWrapNavigation makes selection wrap around at both ends.
func WithWrapNavigation() ListOption {
	return func(l *confOptions) {
		l.wrap = true
	}
}

// WithEnableMouse scrolls the list on mouse wheel events.
func WithEnableMouse() ListOption {
	return func(l *confOptions) {
		l.enableMouse = true
	}
}

func WithKeyMap(keyMap KeyMap) ListOption {
	return func(l *confOptions) {
		l.keyMap = keyMap
	}
}

// WithEstimatedItemRows sets the height assumed for unmeasured items.
func WithEstimatedItemRows(rows float64) ListOption {
	return func(l *confOptions) {
		l.estimatedRows = rows
	}
}

// WithPaddingItemCount sets how many items beyond each viewport edge are
// rendered and measured ahead of time.
func WithPaddingItemCount(n int) ListOption {
	return func(l *confOptions) {
		l.padding = n
	}
}

func WithSelectedStyle(style lipgloss.Style) ListOption {
	return func(l *confOptions) {
		l.selectedStyle = style
	}
}

func defaultSelectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(charmtone.Charple).Bold(true)
}

// List is a vertically scrolling list of variable height items. Only the
// items around the viewport are rendered; their measured heights are fed to a
// vscroll.Engine, which positions everything else from estimates.
type List[T Item] struct {
	*confOptions

	offset   int
	selected int

	items    []T
	indexMap map[string]int
	engine   *vscroll.Engine

	// views caches rendered views by item ID for the current width.
	views map[string]string
	// measured holds the xxh3 sum of the view last reported to the engine
	// for each index, 0 when the item was never measured.
	measured []uint64

	rendered string
}

// New returns a list over items. It fails when the estimate or padding
// options are invalid.
func New[T Item](items []T, opts ...ListOption) (*List[T], error) {
	l := &List[T]{
		confOptions: &confOptions{
			keyMap:        DefaultKeyMap(),
			estimatedRows: DefaultEstimatedItemRows,
			padding:       vscroll.DefaultPaddingItemCount,
			selectedStyle: defaultSelectedStyle(),
		},
		selected: ItemNotFound,
	}
	for _, opt := range opts {
		opt(l.confOptions)
	}
	if l.gap < 0 {
		return nil, fmt.Errorf("gap must not be negative, got %d", l.gap)
	}
	if err := l.SetItems(items); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *List[T]) Init() tea.Cmd {
	return nil
}

func (l *List[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseWheelMsg:
		if l.enableMouse {
			return l.handleMouseWheel(msg)
		}
		return l, nil
	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, l.keyMap.Down):
			l.SelectItemBelow()
		case key.Matches(msg, l.keyMap.Up):
			l.SelectItemAbove()
		case key.Matches(msg, l.keyMap.ScrollDown):
			l.MoveDown(1)
		case key.Matches(msg, l.keyMap.ScrollUp):
			l.MoveUp(1)
		case key.Matches(msg, l.keyMap.HalfPageDown):
			l.MoveDown(l.height / 2)
		case key.Matches(msg, l.keyMap.HalfPageUp):
			l.MoveUp(l.height / 2)
		case key.Matches(msg, l.keyMap.PageDown):
			l.MoveDown(l.height)
		case key.Matches(msg, l.keyMap.PageUp):
			l.MoveUp(l.height)
		case key.Matches(msg, l.keyMap.End):
			l.GoToBottom()
		case key.Matches(msg, l.keyMap.Home):
			l.GoToTop()
		}
	}
	return l, nil
}

func (l *List[T]) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseWheelDown:
		l.MoveDown(ViewportDefaultScrollSize)
	case tea.MouseWheelUp:
		l.MoveUp(ViewportDefaultScrollSize)
	}
	return l, nil
}

// View returns the rendered viewport. It never has more lines than the list
// height.
func (l *List[T]) View() string {
	return l.rendered
}

// SetSize resizes the view. A width change invalidates every cached view.
func (l *List[T]) SetSize(width, height int) {
	if width != l.width {
		clear(l.views)
		clear(l.measured)
	}
	l.width = width
	l.height = height
	l.settle(l.clamp)
}

func (l *List[T]) KeyMap() KeyMap {
	return l.keyMap
}

func (l *List[T]) GetSize() (int, int) {
	return l.width, l.height
}

// SetItems replaces the items and rebuilds the engine from estimates. The
// selection follows the previously selected ID when it is still present.
func (l *List[T]) SetItems(items []T) error {
	engine, err := vscroll.New(len(items), l.estimatedRows, l.padding)
	if err != nil {
		return fmt.Errorf("failed to build list engine: %w", err)
	}

	var selectedID string
	if l.selected != ItemNotFound && l.selected < len(l.items) {
		selectedID = l.items[l.selected].ID()
	}

	l.items = items
	l.engine = engine
	l.views = make(map[string]string, len(items))
	l.measured = make([]uint64, len(items))
	l.indexMap = make(map[string]int, len(items))
	for inx, item := range items {
		l.indexMap[item.ID()] = inx
	}

	switch inx, ok := l.indexMap[selectedID]; {
	case len(items) == 0:
		l.selected = ItemNotFound
	case ok && selectedID != "":
		l.selected = inx
	default:
		l.selected = min(max(l.selected, 0), len(items)-1)
	}

	l.settle(l.clamp)
	return nil
}

// UpdateItem replaces the item with the given ID. The new view is measured
// again only if its content changed.
func (l *List[T]) UpdateItem(id string, item T) bool {
	inx, ok := l.indexMap[id]
	if !ok {
		return false
	}
	delete(l.views, id)
	if item.ID() != id {
		delete(l.indexMap, id)
		l.indexMap[item.ID()] = inx
	}
	l.items[inx] = item
	l.settle(l.clamp)
	return true
}

func (l *List[T]) Items() []T {
	return l.items
}

// SelectedIndex returns the selected index or ItemNotFound.
func (l *List[T]) SelectedIndex() int {
	return l.selected
}

func (l *List[T]) SelectedItem() (T, bool) {
	if l.selected == ItemNotFound {
		var zero T
		return zero, false
	}
	return l.items[l.selected], true
}

// SetSelected selects the item with the given ID and scrolls it into view.
func (l *List[T]) SetSelected(id string) bool {
	inx, ok := l.indexMap[id]
	if !ok {
		return false
	}
	l.selected = inx
	l.scrollToSelection()
	return true
}

// Offset is the index of the first rendered row.
func (l *List[T]) Offset() int {
	return l.offset
}

// TotalHeight is the height of the whole list in rows, using estimates for
// items that were never measured.
func (l *List[T]) TotalHeight() int {
	return int(l.engine.TotalExtent())
}

// VisibleRange is the range of items rendered for the current offset.
func (l *List[T]) VisibleRange() vscroll.Range {
	return l.engine.VisibleRange(float64(l.offset), float64(l.height))
}

func (l *List[T]) SelectItemBelow() {
	if len(l.items) == 0 {
		return
	}
	switch {
	case l.selected < len(l.items)-1:
		l.selected++
	case l.wrap:
		l.selected = 0
	default:
		return
	}
	l.scrollToSelection()
}

func (l *List[T]) SelectItemAbove() {
	if len(l.items) == 0 {
		return
	}
	switch {
	case l.selected > 0:
		l.selected--
	case l.wrap:
		l.selected = len(l.items) - 1
	default:
		return
	}
	l.scrollToSelection()
}

// MoveDown scrolls down by rows without changing the selection.
func (l *List[T]) MoveDown(rows int) {
	l.offset += rows
	l.settle(l.clamp)
}

// MoveUp scrolls up by rows without changing the selection.
func (l *List[T]) MoveUp(rows int) {
	l.offset -= rows
	l.settle(l.clamp)
}

func (l *List[T]) GoToTop() {
	if len(l.items) > 0 {
		l.selected = 0
	}
	l.offset = 0
	l.settle(l.clamp)
}

func (l *List[T]) GoToBottom() {
	if len(l.items) > 0 {
		l.selected = len(l.items) - 1
	}
	l.settle(func() {
		l.offset = int(l.engine.MaxScrollOffset(float64(l.height)))
	})
}

func (l *List[T]) scrollToSelection() {
	l.settle(func() {
		if l.selected == ItemNotFound {
			l.clamp()
			return
		}
		l.measure(l.selected)
		offset, err := l.engine.ScrollOffsetFor(l.selected, float64(l.offset), float64(l.height), vscroll.AlignNearest)
		if err != nil {
			slog.Error("Failed to scroll to selection", "index", l.selected, "error", err)
			return
		}
		l.offset = int(offset)
	})
}

func (l *List[T]) clamp() {
	l.offset = int(l.engine.ClampScrollOffset(float64(l.offset), float64(l.height)))
}

// settle positions the viewport with anchor and measures the items around
// it, repeating while measuring changes the layout, then draws the view.
func (l *List[T]) settle(anchor func()) {
	if l.width <= 0 || l.height <= 0 || len(l.items) == 0 {
		l.offset = 0
		l.rendered = ""
		return
	}
	for range maxSettlePasses {
		anchor()
		if !l.measureVisible() {
			break
		}
	}
	l.clamp()
	l.rendered = l.render()
}

func (l *List[T]) measureVisible() bool {
	r := l.engine.VisibleRange(float64(l.offset), float64(l.height))
	changed := false
	for inx := r.Start; inx < r.End; inx++ {
		if l.measure(inx) {
			changed = true
		}
	}
	return changed
}

// measure reports the height of the item at index to the engine unless its
// view is unchanged since the last report.
func (l *List[T]) measure(index int) bool {
	view := l.view(index)
	sum := xxh3.HashString(view)
	if l.measured[index] == sum {
		return false
	}
	l.measured[index] = sum

	rows := lipgloss.Height(view)
	if index < len(l.items)-1 {
		rows += l.gap
	}
	changed, err := l.engine.UpdateItemHeight(index, float64(rows))
	if err != nil {
		slog.Error("Failed to update item height", "index", index, "error", err)
		return false
	}
	return changed
}

func (l *List[T]) view(index int) string {
	item := l.items[index]
	if view, ok := l.views[item.ID()]; ok {
		return view
	}
	view := item.Render(l.width)
	l.views[item.ID()] = view
	return view
}

func (l *List[T]) render() string {
	lines := make([]string, l.height)
	for _, p := range l.engine.Layout(float64(l.offset), float64(l.height)) {
		top := int(p.Top) - l.offset
		for j, line := range strings.Split(l.view(p.Index), "\n") {
			row := top + j
			if row >= l.height || j >= int(p.Height) {
				break
			}
			if row < 0 {
				continue
			}
			line = ansi.Truncate(line, l.width, "")
			if p.Index == l.selected {
				line = l.selectedStyle.Render(line)
			}
			lines[row] = line
		}
	}
	return strings.Join(lines, "\n")
}
