package treestate

import (
	"slices"

	"github.com/vanderheijden86/treestate/pkg/model"
)

// GetPath returns the ids from a root down to id, inclusive. It searches
// depth-first from the roots with a visited set, so accidental cycles cannot
// loop it. Returns nil when id is not reachable.
func GetPath[T any](t *model.Tree[T], id model.NodeID) []model.NodeID {
	if !t.Has(id) {
		return nil
	}

	visited := make(map[model.NodeID]bool)
	via := make(map[model.NodeID]model.NodeID)
	stack := make([]model.NodeID, 0, len(t.RootIDs))
	for i := len(t.RootIDs) - 1; i >= 0; i-- {
		stack = append(stack, t.RootIDs[i])
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		if cur == id {
			path := []model.NodeID{cur}
			for p, ok := via[cur]; ok; p, ok = via[p] {
				path = append(path, p)
			}
			slices.Reverse(path)
			return path
		}

		n, ok := t.Get(cur)
		if !ok {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			child := n.Children[i]
			if visited[child] {
				continue
			}
			if _, seen := via[child]; !seen {
				via[child] = cur
			}
			stack = append(stack, child)
		}
	}
	return nil
}

// GetAllDescendantIDs returns every node reachable from id through children,
// breadth-first, ignoring open/closed state. id itself is excluded, as are
// children that have no node in the tree. Returns nil when id is absent.
func GetAllDescendantIDs[T any](t *model.Tree[T], id model.NodeID) []model.NodeID {
	var out []model.NodeID
	walkDescendants(t, id, func(d model.NodeID) bool {
		out = append(out, d)
		return true
	})
	return out
}

// walkDescendants visits descendants of id breadth-first until visit returns false.
func walkDescendants[T any](t *model.Tree[T], id model.NodeID, visit func(model.NodeID) bool) {
	start, ok := t.Get(id)
	if !ok {
		return
	}
	seen := map[model.NodeID]bool{id: true}
	queue := slices.Clone(start.Children)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		n, ok := t.Get(cur)
		if !ok {
			continue
		}
		if !visit(cur) {
			return
		}
		queue = append(queue, n.Children...)
	}
}

// CanMove reports whether sourceID may be moved under targetID: false when
// they are the same id or targetID is a descendant of sourceID. Ids missing
// from the tree are allowed here; Move validates existence.
func CanMove[T any](t *model.Tree[T], sourceID, targetID model.NodeID) bool {
	if sourceID == targetID {
		return false
	}
	ok := true
	walkDescendants(t, sourceID, func(d model.NodeID) bool {
		if d == targetID {
			ok = false
			return false
		}
		return true
	})
	return ok
}
