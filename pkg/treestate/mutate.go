package treestate

import (
	"maps"
	"slices"

	"github.com/vanderheijden86/treestate/pkg/metrics"
	"github.com/vanderheijden86/treestate/pkg/model"
)

// Insert returns a tree with node added to parent's collection at pos.
// The input tree is not modified; only the items map and the target
// collection are copied, every other node is shared.
//
// On a missing parent, a reused id, an out-of-range index or an anchor that is
// not in the collection, Insert reports one diagnostic and returns t.
func Insert[T any](r Reporter, t *model.Tree[T], positions ChildPositions, parent model.ParentRef,
	node *model.Node[T], pos model.Position) *model.Tree[T] {

	defer metrics.Timer(metrics.Mutation)()
	r = orDiscard(r)

	if node == nil {
		report(r, t, KindInvalidID, "insert", model.NodeID{}, "nil node")
		return t
	}
	siblings, ok := t.Siblings(parent)
	if !ok {
		report(r, t, KindInvalidID, "insert", parent.ID, "parent does not exist")
		return t
	}
	if t.Has(node.ID) {
		report(r, t, KindDuplicateID, "insert", node.ID, "id already exists")
		return t
	}

	idx, ok := resolveInsertIndex(r, t, positions, parent, node.ID, siblings, pos, "insert")
	if !ok {
		return t
	}

	next := slices.Insert(slices.Clone(siblings), idx, node.ID)
	items := maps.Clone(t.Items)
	if items == nil {
		items = make(map[model.NodeID]*model.Node[T], 1)
	}
	items[node.ID] = node.Clone()

	rootIDs := t.RootIDs
	if parent.IsRoot {
		rootIDs = next
	} else {
		items[parent.ID] = items[parent.ID].WithChildren(next)
	}
	return &model.Tree[T]{RootIDs: rootIDs, Items: items}
}

// resolveInsertIndex turns pos into an index in [0, len(siblings)].
// id is the node being placed; it names the diagnostic.
func resolveInsertIndex[T any](r Reporter, t *model.Tree[T], positions ChildPositions, parent model.ParentRef,
	id model.NodeID, siblings []model.NodeID, pos model.Position, op string) (int, bool) {

	switch pos.Kind {
	case model.PosIndex:
		if pos.Index < 0 || pos.Index > len(siblings) {
			report(r, t, KindInvalidIndex, op, id, "index %d outside [0, %d] of %s", pos.Index, len(siblings), parent)
			return 0, false
		}
		return pos.Index, true
	case model.PosFirst:
		return 0, true
	case model.PosLast:
		return len(siblings), true
	case model.PosBefore, model.PosAfter:
		i, ok := positions.Position(parent, pos.Anchor)
		if !ok || i >= len(siblings) || siblings[i] != pos.Anchor {
			// Positions may be stale for this collection; fall back to a scan.
			i = slices.Index(siblings, pos.Anchor)
		}
		if i < 0 {
			report(r, t, KindInvalidAnchor, op, pos.Anchor, "anchor is not a child of %s", parent)
			return 0, false
		}
		if pos.Kind == model.PosAfter {
			i++
		}
		return i, true
	default:
		report(r, t, KindInvalidIndex, op, id, "unknown position kind %d for %s", int(pos.Kind), parent)
		return 0, false
	}
}

// Remove returns a tree without id and every node reachable from it through
// children. id is also removed from the collection that held it, found through
// parents. Reports and returns t when id is absent or unindexed.
func Remove[T any](r Reporter, t *model.Tree[T], parents ParentIndex, id model.NodeID) *model.Tree[T] {
	defer metrics.Timer(metrics.Mutation)()
	r = orDiscard(r)

	if !t.Has(id) {
		report(r, t, KindInvalidID, "remove", id, "item does not exist")
		return t
	}
	ref, ok := parents.Lookup(id)
	if !ok {
		report(r, t, KindInconsistentIndex, "remove", id, "parent index has no entry")
		return t
	}

	items := maps.Clone(t.Items)
	delete(items, id)
	for _, d := range GetAllDescendantIDs(t, id) {
		delete(items, d)
	}

	rootIDs := t.RootIDs
	if ref.IsRoot {
		rootIDs = withoutID(t.RootIDs, id)
	} else if p, ok := items[ref.ID]; ok && p != nil {
		// A parent that was itself removed (cycle) needs no splice.
		items[ref.ID] = p.WithChildren(withoutID(p.Children, id))
	}
	return &model.Tree[T]{RootIDs: rootIDs, Items: items}
}

// Move returns a tree where sourceID has been detached from its current
// collection and inserted into target. The source subtree travels with it.
//
// Removal happens first, so Index, Before and After are resolved against the
// target collection without the source. Index must lie in [0, len] of that
// collection. A target parent that is the source or one of its descendants is
// rejected as a cycle. Every rejection reports one diagnostic and returns t.
func Move[T any](r Reporter, t *model.Tree[T], parents ParentIndex, sourceID model.NodeID,
	target model.MoveTarget) *model.Tree[T] {

	defer metrics.Timer(metrics.Mutation)()
	r = orDiscard(r)

	if !t.Has(sourceID) {
		report(r, t, KindInvalidID, "move", sourceID, "source does not exist")
		return t
	}
	if !target.Parent.IsRoot && !t.Has(target.Parent.ID) {
		report(r, t, KindInvalidID, "move", target.Parent.ID, "target parent does not exist")
		return t
	}
	if !target.Parent.IsRoot && !CanMove(t, sourceID, target.Parent.ID) {
		report(r, t, KindCycle, "move", sourceID, "target %s is the source or one of its descendants", target.Parent)
		return t
	}
	current, ok := parents.Lookup(sourceID)
	if !ok {
		report(r, t, KindInconsistentIndex, "move", sourceID, "parent index has no entry")
		return t
	}

	items := maps.Clone(t.Items)
	rootIDs := t.RootIDs

	// Step 1: detach from the current collection
	if current.IsRoot {
		rootIDs = withoutID(rootIDs, sourceID)
	} else if p, ok := items[current.ID]; ok && p != nil {
		items[current.ID] = p.WithChildren(withoutID(p.Children, sourceID))
	}

	// Step 2: resolve the index against the collection after detaching
	var siblings []model.NodeID
	if target.Parent.IsRoot {
		siblings = rootIDs
	} else {
		siblings = items[target.Parent.ID].Children
	}
	idx, ok := resolveMoveIndex(r, t, sourceID, target, siblings)
	if !ok {
		return t
	}

	// Step 3: attach
	next := slices.Insert(slices.Clone(siblings), idx, sourceID)
	if target.Parent.IsRoot {
		rootIDs = next
	} else {
		items[target.Parent.ID] = items[target.Parent.ID].WithChildren(next)
	}
	return &model.Tree[T]{RootIDs: rootIDs, Items: items}
}

func resolveMoveIndex[T any](r Reporter, t *model.Tree[T], id model.NodeID, target model.MoveTarget, siblings []model.NodeID) (int, bool) {
	pos := target.Position
	switch pos.Kind {
	case model.PosBefore, model.PosAfter:
		i := slices.Index(siblings, pos.Anchor)
		if i < 0 {
			report(r, t, KindInvalidAnchor, "move", pos.Anchor, "anchor is not a child of %s", target.Parent)
			return 0, false
		}
		if pos.Kind == model.PosAfter {
			i++
		}
		return i, true
	default:
		// Index, First and Last never consult positions.
		return resolveInsertIndex(r, t, ChildPositions{}, target.Parent, id, siblings, pos, "move")
	}
}

func withoutID(ids []model.NodeID, id model.NodeID) []model.NodeID {
	return slices.DeleteFunc(slices.Clone(ids), func(x model.NodeID) bool { return x == id })
}
