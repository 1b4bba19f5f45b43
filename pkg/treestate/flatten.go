package treestate

import (
	"maps"

	"github.com/vanderheijden86/treestate/pkg/metrics"
	"github.com/vanderheijden86/treestate/pkg/model"
)

// FlatEntry is one visible row of a flattened tree.
type FlatEntry[T any] struct {
	Item   *model.Node[T]
	Depth  int
	Parent model.ParentRef

	// IsLastInDepth is true for the last existing sibling of its collection.
	IsLastInDepth bool

	// CompleteDepths holds depth d when the ancestor at depth d still has
	// following siblings, i.e. a connector line continues through column d.
	// Entries share these maps; treat them as read-only.
	CompleteDepths map[int]bool

	FlatIndex  int // position in the flattened sequence
	ChildIndex int // position among all siblings, visible or not; -1 if unindexed
}

// ID returns the entry's node id.
func (e FlatEntry[T]) ID() model.NodeID {
	return e.Item.ID
}

type flatFrame struct {
	id     model.NodeID
	depth  int
	parent model.ParentRef
	last   bool
	lines  map[int]bool
}

// Flatten walks t in pre-order, descending only into opened nodes, and returns
// the visible rows. The walk uses an explicit stack, so depth is bounded by
// heap rather than call stack.
//
// Ids listed in rootIds or children that have no node are skipped and reported
// as dangling. A node reached a second time in one walk is skipped and reported
// as a cycle.
func Flatten[T any](t *model.Tree[T], positions ChildPositions, r Reporter) []FlatEntry[T] {
	defer metrics.Timer(metrics.Flatten)()
	r = orDiscard(r)
	if t == nil {
		return nil
	}

	out := make([]FlatEntry[T], 0, len(t.RootIDs))
	emitted := make(map[model.NodeID]bool)
	known := &knownIDs[T]{t: t}
	stack := pushSiblings(nil, known, r, t.RootIDs, 0, model.Root(), nil)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if emitted[f.id] {
			reportKnown(r, known, KindCycle, "flatten", f.id, "node already visited in this walk (via %s)", f.parent)
			continue
		}
		emitted[f.id] = true

		n := t.Items[f.id]
		childIndex, ok := positions.Position(f.parent, f.id)
		if !ok {
			childIndex = -1
		}
		out = append(out, FlatEntry[T]{
			Item:           n,
			Depth:          f.depth,
			Parent:         f.parent,
			IsLastInDepth:  f.last,
			CompleteDepths: f.lines,
			FlatIndex:      len(out),
			ChildIndex:     childIndex,
		})

		if !n.IsOpened || len(n.Children) == 0 {
			continue
		}
		lines := f.lines
		if !f.last {
			lines = maps.Clone(f.lines)
			if lines == nil {
				lines = make(map[int]bool, 1)
			}
			lines[f.depth] = true
		}
		stack = pushSiblings(stack, known, r, n.Children, f.depth+1, model.Under(f.id), lines)
	}
	return out
}

// pushSiblings pushes the existing ids of one collection in reverse so that
// popping yields sibling order. Missing ids are reported and dropped before
// the last sibling is chosen.
func pushSiblings[T any](stack []flatFrame, known *knownIDs[T], r Reporter, ids []model.NodeID,
	depth int, parent model.ParentRef, lines map[int]bool) []flatFrame {

	t := known.t
	valid := ids
	for i, id := range ids {
		if !t.Has(id) {
			// Slow path: copy out the existing ids.
			valid = make([]model.NodeID, 0, len(ids))
			valid = append(valid, ids[:i]...)
			for _, rest := range ids[i:] {
				if t.Has(rest) {
					valid = append(valid, rest)
				} else {
					reportKnown(r, known, KindDanglingRef, "flatten", rest, "%s lists an id that has no node", parent)
				}
			}
			break
		}
	}

	for i := len(valid) - 1; i >= 0; i-- {
		stack = append(stack, flatFrame{
			id:     valid[i],
			depth:  depth,
			parent: parent,
			last:   i == len(valid)-1,
			lines:  lines,
		})
	}
	return stack
}
