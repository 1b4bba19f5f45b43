package treestate

import (
	"github.com/vanderheijden86/treestate/pkg/metrics"
	"github.com/vanderheijden86/treestate/pkg/model"
)

// ParentIndex maps every referenced id to the collection that holds it.
// Roots map to the root collection. When an id is listed by more than one
// collection, a parent node beats the root collection and among parent nodes
// the greatest by CompareIDs wins.
type ParentIndex struct {
	parents map[model.NodeID]model.ParentRef
}

// BuildParentIndex scans rootIds then every node's children. Dangling children
// still get an entry. Cost is O(nodes + children).
func BuildParentIndex[T any](t *model.Tree[T]) ParentIndex {
	defer metrics.Timer(metrics.IndexBuild)()
	if t == nil {
		return ParentIndex{parents: map[model.NodeID]model.ParentRef{}}
	}
	parents := make(map[model.NodeID]model.ParentRef, len(t.Items))
	for _, id := range t.RootIDs {
		parents[id] = model.Root()
	}
	for id, n := range t.Items {
		if n == nil {
			continue
		}
		for _, child := range n.Children {
			if cur, ok := parents[child]; ok && !cur.IsRoot && model.CompareIDs(cur.ID, id) > 0 {
				continue
			}
			parents[child] = model.Under(id)
		}
	}
	return ParentIndex{parents: parents}
}

// Lookup returns the collection holding id.
func (p ParentIndex) Lookup(id model.NodeID) (model.ParentRef, bool) {
	ref, ok := p.parents[id]
	return ref, ok
}

// Len returns the number of indexed ids.
func (p ParentIndex) Len() int {
	return len(p.parents)
}

// ChildPositions maps each collection (root or a parent's children) to the
// ordinal of every child id inside it.
type ChildPositions struct {
	roots    map[model.NodeID]int
	children map[model.NodeID]map[model.NodeID]int
}

// BuildChildPositions indexes rootIds and every node's children.
func BuildChildPositions[T any](t *model.Tree[T]) ChildPositions {
	defer metrics.Timer(metrics.IndexBuild)()
	if t == nil {
		return ChildPositions{}
	}
	c := ChildPositions{
		roots:    indexOf(t.RootIDs),
		children: make(map[model.NodeID]map[model.NodeID]int, len(t.Items)),
	}
	for id, n := range t.Items {
		if n == nil || len(n.Children) == 0 {
			continue
		}
		c.children[id] = indexOf(n.Children)
	}
	return c
}

func indexOf(ids []model.NodeID) map[model.NodeID]int {
	m := make(map[model.NodeID]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// Position returns the zero-based ordinal of id inside parent's collection.
func (c ChildPositions) Position(parent model.ParentRef, id model.NodeID) (int, bool) {
	var m map[model.NodeID]int
	if parent.IsRoot {
		m = c.roots
	} else {
		m = c.children[parent.ID]
	}
	i, ok := m[id]
	return i, ok
}
