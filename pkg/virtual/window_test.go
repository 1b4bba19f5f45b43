package virtual

import "testing"

func TestVisibleRangeFixedRows(t *testing.T) {
	tests := []struct {
		name               string
		count, viewport    int
		offset             int
		wantStart, wantEnd int
	}{
		{"empty", 0, 10, 0, 0, 0},
		{"fewer_rows_than_viewport", 3, 10, 0, 0, 3},
		{"top", 100, 10, 0, 0, 10},
		{"middle", 100, 10, 45, 45, 55},
		{"past_end_clamps", 100, 10, 500, 90, 100},
		{"negative_clamps", 100, 10, -5, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(tt.count, nil, tt.viewport)
			w.ScrollTo(tt.offset)
			start, end := w.VisibleRange()
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("VisibleRange() = [%d, %d), want [%d, %d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestVisibleRangeVariableRows(t *testing.T) {
	// Even rows are 1 line, odd rows 3 lines: starts 0,1,4,5,8,9,...
	w := New(10, func(i int) int { return 1 + 2*(i%2) }, 5)
	if got := w.TotalSize(); got != 20 {
		t.Fatalf("TotalSize = %d, want 20", got)
	}
	w.ScrollTo(2) // inside row 1 (lines 1..3)
	start, end := w.VisibleRange()
	if start != 1 || end != 4 {
		t.Errorf("VisibleRange = [%d, %d), want [1, 4)", start, end)
	}
	if got := w.IndexAt(4); got != 2 {
		t.Errorf("IndexAt(4) = %d, want 2", got)
	}
	if got := w.IndexAt(20); got != -1 {
		t.Errorf("IndexAt(20) = %d, want -1", got)
	}
}

func TestOverscan(t *testing.T) {
	w := New(100, nil, 10)
	w.SetOverscan(3)
	w.ScrollTo(50)
	start, end := w.VisibleRange()
	if start != 47 || end != 63 {
		t.Errorf("VisibleRange = [%d, %d), want [47, 63)", start, end)
	}
	w.ScrollTo(0)
	if start, _ := w.VisibleRange(); start != 0 {
		t.Errorf("overscan start should clamp to 0, got %d", start)
	}
}

func TestScrollToIndex(t *testing.T) {
	tests := []struct {
		name       string
		from       int
		index      int
		align      Align
		wantOffset int
	}{
		{"auto_already_visible", 20, 25, AlignAuto, 20},
		{"auto_below", 0, 25, AlignAuto, 16},
		{"auto_above", 50, 10, AlignAuto, 10},
		{"start", 0, 30, AlignStart, 30},
		{"end", 0, 30, AlignEnd, 21},
		{"center", 0, 30, AlignCenter, 25},
		{"start_near_end_clamps", 0, 99, AlignStart, 90},
		{"index_out_of_range", 0, 1000, AlignAuto, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(100, nil, 10)
			w.ScrollTo(tt.from)
			w.ScrollToIndex(tt.index, tt.align)
			if w.Offset() != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", w.Offset(), tt.wantOffset)
			}
		})
	}
}

func TestSetCountKeepsOffsetInRange(t *testing.T) {
	w := New(100, nil, 10)
	w.ScrollTo(80)
	w.SetCount(20)
	if w.Offset() != 10 {
		t.Errorf("Offset = %d, want 10 after shrinking", w.Offset())
	}
	w.SetCount(0)
	if start, end := w.VisibleRange(); start != 0 || end != 0 {
		t.Errorf("empty list range = [%d, %d)", start, end)
	}
	w.ScrollToIndex(5, AlignAuto)
	if w.Offset() != 0 {
		t.Errorf("Offset = %d on empty list", w.Offset())
	}
}

func TestSetEstimatorRemeasures(t *testing.T) {
	w := New(10, nil, 4)
	w.SetEstimator(FixedSize(2))
	if w.TotalSize() != 20 {
		t.Errorf("TotalSize = %d, want 20", w.TotalSize())
	}
	if start, size := w.RowOffset(3); start != 6 || size != 2 {
		t.Errorf("RowOffset(3) = %d, %d", start, size)
	}
}

func BenchmarkVisibleRange100k(b *testing.B) {
	w := New(100_000, nil, 40)
	for i := 0; i < b.N; i++ {
		w.ScrollTo(i % 100_000)
		_, _ = w.VisibleRange()
	}
}
