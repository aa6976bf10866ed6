// Package scheduler drives a vscroll.Engine from events that arrive on any
// goroutine. Scroll, resize and measurement events are recorded as pending
// state and applied to the engine once per frame, so bursts coalesce and
// engine calls never overlap.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/vlist/internal/log"
	"github.com/charmbracelet/vlist/internal/vscroll"
)

const DefaultInterval = 16 * time.Millisecond

// Frame is what a host needs to draw the list after one update cycle.
type Frame struct {
	Seq          uint64
	Range        vscroll.Range
	Placements   []vscroll.Placement
	TotalExtent  float64
	ScrollOffset float64
	Viewport     float64
}

type Scheduler struct {
	mu sync.Mutex

	engine *vscroll.Engine

	offset   float64
	viewport float64
	pending  map[int]float64
	dirty    bool
	rebuilt  bool

	last    Frame
	hasLast bool

	interval    time.Duration
	clampOffset bool
	onFrame     func(Frame)
	onError     func(error)
}

type Option func(*Scheduler)

// WithInterval sets the frame interval used by Run.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithOnFrame registers the callback Run invokes for every changed frame.
func WithOnFrame(fn func(Frame)) Option {
	return func(s *Scheduler) {
		s.onFrame = fn
	}
}

// WithOnError registers a callback for measurements the engine rejected.
func WithOnError(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// WithClampOffset keeps the scroll offset inside the content, as a native
// scroll container would.
func WithClampOffset() Option {
	return func(s *Scheduler) {
		s.clampOffset = true
	}
}

// New returns a scheduler that owns engine. Callers must not use engine
// directly afterwards.
func New(engine *vscroll.Engine, opts ...Option) *Scheduler {
	s := &Scheduler{
		engine:   engine,
		pending:  make(map[int]float64),
		dirty:    true,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScrollTo records the latest scroll offset.
func (s *Scheduler) ScrollTo(offset float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset != s.offset {
		s.offset = offset
		s.dirty = true
	}
}

// ScrollBy moves the pending scroll offset by delta.
func (s *Scheduler) ScrollBy(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if delta != 0 {
		s.offset += delta
		s.dirty = true
	}
}

// Resize records the latest viewport extent.
func (s *Scheduler) Resize(viewport float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if viewport != s.viewport {
		s.viewport = viewport
		s.dirty = true
	}
}

// Measure records a measured item height. Only the last measurement per
// index within a frame reaches the engine.
func (s *Scheduler) Measure(index int, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[index] = height
}

// Rebuild replaces the engine with a fresh one for itemCount items, keeping
// the estimate and padding. Pending measurements belong to the old item
// sequence and are dropped.
func (s *Scheduler) Rebuild(itemCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	engine, err := vscroll.New(itemCount, s.engine.EstimatedItemHeight(), s.engine.PaddingItemCount())
	if err != nil {
		return fmt.Errorf("failed to rebuild engine: %w", err)
	}
	s.engine = engine
	clear(s.pending)
	s.dirty = true
	s.rebuilt = true
	slog.Debug("Rebuilt scroll engine", "items", itemCount)
	return nil
}

// Len returns the item count of the current engine.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Len()
}

// Last returns the most recent frame.
func (s *Scheduler) Last() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasLast
}

// Flush applies pending state to the engine and reports whether the
// resulting frame differs from the previous one.
func (s *Scheduler) Flush() (Frame, bool) {
	s.mu.Lock()
	if !s.dirty && len(s.pending) == 0 {
		last := s.last
		s.mu.Unlock()
		return last, false
	}

	var errs []error
	measured := 0
	for _, index := range slices.Sorted(maps.Keys(s.pending)) {
		changed, err := s.engine.UpdateItemHeight(index, s.pending[index])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if changed {
			measured++
		}
	}
	clear(s.pending)

	if s.clampOffset {
		s.offset = s.engine.ClampScrollOffset(s.offset, s.viewport)
	}

	r, placements := s.engine.VisibleLayout(s.offset, s.viewport)
	frame := Frame{
		Range:        r,
		Placements:   placements,
		TotalExtent:  s.engine.TotalExtent(),
		ScrollOffset: s.offset,
		Viewport:     s.viewport,
	}
	changed := !s.hasLast || s.rebuilt || measured > 0 ||
		frame.Range != s.last.Range ||
		frame.ScrollOffset != s.last.ScrollOffset ||
		frame.Viewport != s.last.Viewport ||
		frame.TotalExtent != s.last.TotalExtent
	if changed {
		frame.Seq = s.last.Seq + 1
		s.last = frame
		s.hasLast = true
	}
	s.dirty = false
	s.rebuilt = false
	last := s.last
	s.mu.Unlock()

	if len(errs) > 0 {
		err := errors.Join(errs...)
		slog.Warn("Rejected item measurements", "count", len(errs), "error", err)
		if s.onError != nil {
			s.onError(err)
		}
	}
	return last, changed
}

// Run flushes once per interval until ctx is done, handing every changed
// frame to the OnFrame callback.
func (s *Scheduler) Run(ctx context.Context) error {
	defer log.RecoverPanic("scheduler", nil)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Debug("Scheduler started", "interval", s.interval)
	defer slog.Debug("Scheduler stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if frame, ok := s.Flush(); ok && s.onFrame != nil {
				s.onFrame(frame)
			}
		}
	}
}
