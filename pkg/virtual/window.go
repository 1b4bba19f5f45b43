// Package virtual computes which rows of a long list need to be materialized
// for a scrolling viewport. Rows may have different sizes; sizes come from a
// caller-supplied estimator and are measured in the same unit as the viewport
// (terminal lines, pixels).
package virtual

import "sort"

// Align selects where ScrollToIndex places the target row.
type Align int

const (
	// AlignAuto scrolls the minimum distance that makes the row fully visible.
	AlignAuto Align = iota
	AlignStart
	AlignCenter
	AlignEnd
)

// Estimator returns the size of row i. It must be positive.
type Estimator func(i int) int

// FixedSize returns an estimator for rows of equal size.
func FixedSize(n int) Estimator {
	return func(int) int { return n }
}

// Window tracks a scroll offset over count rows.
type Window struct {
	estimate Estimator
	viewport int
	overscan int
	offset   int

	// starts[i] is the offset of row i; starts[count] is the total size.
	starts []int
}

// New returns a window over count rows. A nil estimator means every row has
// size 1.
func New(count int, estimate Estimator, viewport int) *Window {
	if estimate == nil {
		estimate = FixedSize(1)
	}
	w := &Window{estimate: estimate, viewport: max(viewport, 0)}
	w.SetCount(count)
	return w
}

// SetCount re-measures the list for count rows and keeps the offset in range.
func (w *Window) SetCount(count int) {
	count = max(count, 0)
	if cap(w.starts) >= count+1 {
		w.starts = w.starts[:count+1]
	} else {
		w.starts = make([]int, count+1)
	}
	total := 0
	for i := 0; i < count; i++ {
		w.starts[i] = total
		total += max(w.estimate(i), 1)
	}
	w.starts[count] = total
	w.clamp()
}

// SetEstimator replaces the estimator and re-measures.
func (w *Window) SetEstimator(estimate Estimator) {
	if estimate == nil {
		estimate = FixedSize(1)
	}
	w.estimate = estimate
	w.SetCount(w.Count())
}

// SetViewport sets the visible size.
func (w *Window) SetViewport(size int) {
	w.viewport = max(size, 0)
	w.clamp()
}

// SetOverscan sets how many extra rows are materialized on each side.
func (w *Window) SetOverscan(rows int) {
	w.overscan = max(rows, 0)
}

// Count returns the number of rows.
func (w *Window) Count() int { return len(w.starts) - 1 }

// Viewport returns the visible size.
func (w *Window) Viewport() int { return w.viewport }

// Offset returns the scroll offset.
func (w *Window) Offset() int { return w.offset }

// TotalSize returns the summed size of every row.
func (w *Window) TotalSize() int { return w.starts[len(w.starts)-1] }

// RowOffset returns the start offset and size of row i.
func (w *Window) RowOffset(i int) (start, size int) {
	if i < 0 || i >= w.Count() {
		return 0, 0
	}
	return w.starts[i], w.starts[i+1] - w.starts[i]
}

// ScrollTo sets the offset, clamped so the viewport stays inside the list.
func (w *Window) ScrollTo(offset int) {
	w.offset = offset
	w.clamp()
}

// ScrollBy moves the offset by delta.
func (w *Window) ScrollBy(delta int) {
	w.ScrollTo(w.offset + delta)
}

// ScrollToIndex scrolls so that row i is visible, placed per align.
// Out-of-range indices are clamped to the list.
func (w *Window) ScrollToIndex(i int, align Align) {
	if w.Count() == 0 {
		w.offset = 0
		return
	}
	i = min(max(i, 0), w.Count()-1)
	start, size := w.RowOffset(i)
	end := start + size

	switch align {
	case AlignStart:
		w.offset = start
	case AlignEnd:
		w.offset = end - w.viewport
	case AlignCenter:
		w.offset = start + size/2 - w.viewport/2
	default:
		// Row above viewport - scroll up to show it at top
		if start < w.offset {
			w.offset = start
		}
		// Row below viewport - scroll down to show it at bottom
		if end > w.offset+w.viewport {
			w.offset = end - w.viewport
		}
	}
	w.clamp()
}

// VisibleRange returns the rows [start, end) that intersect the viewport,
// widened by the overscan and clamped to the list.
func (w *Window) VisibleRange() (start, end int) {
	count := w.Count()
	if count == 0 || w.viewport == 0 {
		return 0, 0
	}
	// First row whose end is past the offset.
	start = sort.Search(count, func(i int) bool { return w.starts[i+1] > w.offset })
	// First row that starts at or after the viewport bottom.
	bottom := w.offset + w.viewport
	end = sort.Search(count, func(i int) bool { return w.starts[i] >= bottom })

	start = max(start-w.overscan, 0)
	end = min(end+w.overscan, count)
	return start, end
}

// IndexAt returns the row covering offset, or -1 when offset is outside the list.
func (w *Window) IndexAt(offset int) int {
	if offset < 0 || offset >= w.TotalSize() {
		return -1
	}
	return sort.Search(w.Count(), func(i int) bool { return w.starts[i+1] > offset })
}

func (w *Window) clamp() {
	maxOffset := max(w.TotalSize()-w.viewport, 0)
	w.offset = min(max(w.offset, 0), maxOffset)
}
