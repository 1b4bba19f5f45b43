package treestate

import (
	"slices"

	"github.com/vanderheijden86/treestate/pkg/model"
)

// OpenSet is the set of expanded node ids. It is kept apart from the
// structural tree so expanding or collapsing never invalidates the indices.
// The zero value is an empty set ready to use.
type OpenSet struct {
	ids map[model.NodeID]struct{}
}

// SeedOpenSet builds the initial set. A non-nil explicit list wins and is
// taken verbatim, unknown ids included. Otherwise every node whose stored
// IsOpened flag is true is open.
func SeedOpenSet[T any](t *model.Tree[T], explicit []model.NodeID) OpenSet {
	var s OpenSet
	if explicit != nil {
		for _, id := range explicit {
			s.Open(id)
		}
		return s
	}
	if t == nil {
		return s
	}
	for id, n := range t.Items {
		if n != nil && n.IsOpened {
			s.Open(id)
		}
	}
	return s
}

// Has reports whether id is open.
func (s *OpenSet) Has(id model.NodeID) bool {
	_, ok := s.ids[id]
	return ok
}

// Open adds id.
func (s *OpenSet) Open(id model.NodeID) {
	if s.ids == nil {
		s.ids = make(map[model.NodeID]struct{})
	}
	s.ids[id] = struct{}{}
}

// Close removes id.
func (s *OpenSet) Close(id model.NodeID) {
	delete(s.ids, id)
}

// Toggle flips id and returns its new state.
func (s *OpenSet) Toggle(id model.NodeID) bool {
	if s.Has(id) {
		s.Close(id)
		return false
	}
	s.Open(id)
	return true
}

// Clear empties the set.
func (s *OpenSet) Clear() {
	clear(s.ids)
}

// Len returns the number of open ids.
func (s *OpenSet) Len() int {
	return len(s.ids)
}

// IDs returns the open ids in CompareIDs order.
func (s *OpenSet) IDs() []model.NodeID {
	ids := make([]model.NodeID, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, model.CompareIDs)
	return ids
}

// Clone returns an independent copy.
func (s *OpenSet) Clone() OpenSet {
	c := OpenSet{ids: make(map[model.NodeID]struct{}, len(s.ids))}
	for id := range s.ids {
		c.ids[id] = struct{}{}
	}
	return c
}

// Merge returns t with every node's IsOpened replaced by membership in s.
// Nodes whose flag already matches are shared with t; when none differ t is
// returned as is.
func Merge[T any](t *model.Tree[T], s *OpenSet) *model.Tree[T] {
	if t == nil {
		return nil
	}
	var items map[model.NodeID]*model.Node[T]
	for id, n := range t.Items {
		if n == nil || n.IsOpened == s.Has(id) {
			continue
		}
		if items == nil {
			items = make(map[model.NodeID]*model.Node[T], len(t.Items))
			for k, v := range t.Items {
				items[k] = v
			}
		}
		c := *n
		c.IsOpened = !n.IsOpened
		items[id] = &c
	}
	if items == nil {
		return t
	}
	return &model.Tree[T]{RootIDs: t.RootIDs, Items: items}
}
