package treestate

import "github.com/vanderheijden86/treestate/pkg/model"

// EntryActions are the open-state callbacks bound to one flattened entry.
type EntryActions struct {
	Open            func()
	Close           func()
	ToggleOpenState func()
}

// Actions returns callbacks bound to id.
func (s *State[T]) Actions(id model.NodeID) EntryActions {
	return EntryActions{
		Open:            func() { s.Open(id) },
		Close:           func() { s.Close(id) },
		ToggleOpenState: func() { s.ToggleOpen(id) },
	}
}

// Render calls fn for every visible entry in order and returns the views.
func Render[T, V any](s *State[T], fn func(FlatEntry[T], EntryActions) V) []V {
	flat := s.Flattened()
	return RenderRange(s, 0, len(flat), fn)
}

// RenderRange renders the entries in [start, end), clamped to the visible list.
// Actions invoked from fn take effect on the next Flattened call; the entries
// passed to fn are a snapshot.
func RenderRange[T, V any](s *State[T], start, end int, fn func(FlatEntry[T], EntryActions) V) []V {
	flat := s.Flattened()
	start = max(start, 0)
	end = min(end, len(flat))
	if start >= end {
		return nil
	}
	out := make([]V, 0, end-start)
	for _, e := range flat[start:end] {
		out = append(out, fn(e, s.Actions(e.Item.ID)))
	}
	return out
}
