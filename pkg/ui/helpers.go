package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/treestate/pkg/model"
)

// fitWidth cuts s to maxWidth terminal cells, ending in tail when cut. A tail
// wider than the budget is itself cut.
func fitWidth(s string, maxWidth int, tail string) string {
	switch {
	case maxWidth <= 0:
		return ""
	case runewidth.StringWidth(s) <= maxWidth:
		return s
	case runewidth.StringWidth(tail) > maxWidth:
		return runewidth.Truncate(tail, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth-runewidth.StringWidth(tail), "") + tail
}

func truncate(s string, maxWidth int) string {
	return fitWidth(s, maxWidth, "…")
}

// padRight fills s with spaces up to width cells.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// FormatPath joins a root-to-node path for display and the clipboard.
func FormatPath(path []model.NodeID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = id.String()
	}
	return strings.Join(parts, " / ")
}

// NextID returns an id not present in t: one past the largest integer id, or
// 1 when the tree has none.
func NextID[T any](t *model.Tree[T]) model.NodeID {
	var next int64 = 1
	for id := range t.Items {
		if n, ok := id.Int(); ok && n >= next {
			next = n + 1
		}
	}
	return model.IntID(next)
}
