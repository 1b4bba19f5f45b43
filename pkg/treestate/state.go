package treestate

import (
	"github.com/vanderheijden86/treestate/pkg/debug"
	"github.com/vanderheijden86/treestate/pkg/metrics"
	"github.com/vanderheijden86/treestate/pkg/model"
)

// Options configures a State.
type Options struct {
	// SyncWithInitialTree makes SetInitialTree replace both the structure and
	// the open set whenever a different tree is supplied.
	SyncWithInitialTree bool

	// InitialOpenedIDs seeds the open set and takes precedence over stored
	// IsOpened flags. nil means "not given"; an empty non-nil slice opens nothing.
	InitialOpenedIDs []model.NodeID

	// Reporter receives diagnostics. nil logs them as warnings.
	Reporter Reporter
}

// State owns a structural tree and its open set, and memoizes the derived
// views. Indices are keyed on the structure pointer; the merged tree and the
// flat list are also keyed on the open-set generation, so toggling a node
// never rebuilds the indices.
//
// State is not safe for concurrent use.
type State[T any] struct {
	opts     Options
	reporter Reporter

	initial *model.Tree[T] // last tree supplied by the caller
	tree    *model.Tree[T] // current structure
	open    OpenSet
	openGen uint64
	gen     uint64

	idxTree   *model.Tree[T]
	parents   ParentIndex
	positions ChildPositions

	mergedTree *model.Tree[T]
	mergedGen  uint64
	merged     *model.Tree[T]

	flatTree *model.Tree[T]
	flatGen  uint64
	flat     []FlatEntry[T]
}

// New returns a State over tree. A nil tree is treated as empty.
func New[T any](tree *model.Tree[T], opts Options) *State[T] {
	if tree == nil {
		tree = model.NewTree[T]()
	}
	r := opts.Reporter
	if r == nil {
		r = LogReporter{}
	}
	s := &State[T]{opts: opts, reporter: r, initial: tree, tree: tree}
	s.open = SeedOpenSet(tree, opts.InitialOpenedIDs)
	debug.Log("treestate: new state with %d items, %d open", tree.Len(), s.open.Len())
	return s
}

// SetInitialTree supplies a fresh caller tree. With SyncWithInitialTree set and
// a tree different from the last one supplied, the structure is replaced and
// the open set is reseeded as New and Reset do (InitialOpenedIDs when given,
// else the new tree's stored flags), dropping local changes. Otherwise the call
// only records the tree for Reset.
func (s *State[T]) SetInitialTree(tree *model.Tree[T]) {
	if tree == nil {
		tree = model.NewTree[T]()
	}
	if tree == s.initial {
		return
	}
	s.initial = tree
	if !s.opts.SyncWithInitialTree {
		return
	}
	s.tree = tree
	s.open = SeedOpenSet(tree, s.opts.InitialOpenedIDs)
	s.openChanged()
	debug.Log("treestate: resynced to tree with %d items", tree.Len())
}

// Reset discards local changes and reinitializes from the last supplied tree,
// including the explicit initial open list.
func (s *State[T]) Reset() {
	s.tree = s.initial
	s.open = SeedOpenSet(s.initial, s.opts.InitialOpenedIDs)
	s.openChanged()
}

// Generation increases on every change to the structure or the open set.
func (s *State[T]) Generation() uint64 {
	return s.gen
}

func (s *State[T]) openChanged() {
	s.openGen++
	s.gen++
}

func (s *State[T]) setTree(next *model.Tree[T]) bool {
	if next == s.tree {
		return false
	}
	s.tree = next
	s.gen++
	return true
}

// Structure returns the current structural tree, without open state applied.
func (s *State[T]) Structure() *model.Tree[T] {
	return s.tree
}

func (s *State[T]) indices() {
	if s.idxTree == s.tree {
		metrics.ParentIndexCache.Hit()
		metrics.ChildPositionsCache.Hit()
		return
	}
	metrics.ParentIndexCache.Miss()
	metrics.ChildPositionsCache.Miss()
	s.parents = BuildParentIndex(s.tree)
	s.positions = BuildChildPositions(s.tree)
	s.idxTree = s.tree
}

// ParentIndex returns the parent index of the current structure.
func (s *State[T]) ParentIndex() ParentIndex {
	s.indices()
	return s.parents
}

// ChildPositions returns the child-position index of the current structure.
func (s *State[T]) ChildPositions() ChildPositions {
	s.indices()
	return s.positions
}

// Tree returns the current structure with IsOpened taken from the open set.
func (s *State[T]) Tree() *model.Tree[T] {
	if s.mergedTree == s.tree && s.mergedGen == s.openGen && s.merged != nil {
		metrics.MergedTreeCache.Hit()
		return s.merged
	}
	metrics.MergedTreeCache.Miss()
	s.merged = Merge(s.tree, &s.open)
	s.mergedTree, s.mergedGen = s.tree, s.openGen
	return s.merged
}

// Flattened returns the visible rows of the merged tree. The slice is shared
// with later calls until the next change; do not modify it.
func (s *State[T]) Flattened() []FlatEntry[T] {
	if s.flatTree == s.tree && s.flatGen == s.openGen && s.flat != nil {
		metrics.FlatListCache.Hit()
		return s.flat
	}
	metrics.FlatListCache.Miss()
	merged := s.Tree()
	s.flat = Flatten(merged, s.ChildPositions(), s.reporter)
	s.flatTree, s.flatGen = s.tree, s.openGen
	debug.Log("treestate: flattened %d visible of %d items", len(s.flat), s.tree.Len())
	return s.flat
}

func (s *State[T]) checkID(op string, id model.NodeID) bool {
	if s.tree.Has(id) {
		return true
	}
	report(s.reporter, s.tree, KindInvalidID, op, id, "item does not exist")
	return false
}

// Open expands id.
func (s *State[T]) Open(id model.NodeID) {
	if !s.checkID("open", id) || s.open.Has(id) {
		return
	}
	s.open.Open(id)
	s.openChanged()
}

// Close collapses id.
func (s *State[T]) Close(id model.NodeID) {
	if !s.checkID("close", id) || !s.open.Has(id) {
		return
	}
	s.open.Close(id)
	s.openChanged()
}

// ToggleOpen flips id.
func (s *State[T]) ToggleOpen(id model.NodeID) {
	if !s.checkID("toggle", id) {
		return
	}
	s.open.Toggle(id)
	s.openChanged()
}

// OpenAll expands every node in the structure.
func (s *State[T]) OpenAll() {
	for id := range s.tree.Items {
		s.open.Open(id)
	}
	s.openChanged()
}

// CloseAll collapses everything.
func (s *State[T]) CloseAll() {
	s.open.Clear()
	s.openChanged()
}

// IsOpen reports whether id is in the open set.
func (s *State[T]) IsOpen(id model.NodeID) bool {
	return s.open.Has(id)
}

// OpenIDs returns the open set in CompareIDs order.
func (s *State[T]) OpenIDs() []model.NodeID {
	return s.open.IDs()
}

// InsertItem adds node to parent's collection at pos.
func (s *State[T]) InsertItem(parent model.ParentRef, node *model.Node[T], pos model.Position) {
	if s.setTree(Insert(s.reporter, s.tree, s.ChildPositions(), parent, node, pos)) {
		debug.Log("treestate: inserted %s under %s at %s", node.ID, parent, pos)
	}
}

// RemoveItem deletes id and its subtree. Removed ids leave the open set.
func (s *State[T]) RemoveItem(id model.NodeID) {
	removed := GetAllDescendantIDs(s.tree, id)
	if !s.setTree(Remove(s.reporter, s.tree, s.ParentIndex(), id)) {
		return
	}
	s.open.Close(id)
	for _, d := range removed {
		s.open.Close(d)
	}
	s.openGen++
	debug.Log("treestate: removed %s and %d descendants", id, len(removed))
}

// MoveItem moves sourceID, with its subtree, to target.
func (s *State[T]) MoveItem(sourceID model.NodeID, target model.MoveTarget) {
	if s.setTree(Move(s.reporter, s.tree, s.ParentIndex(), sourceID, target)) {
		debug.Log("treestate: moved %s to %s at %s", sourceID, target.Parent, target.Position)
	}
}

// CanMoveItem reports whether sourceID may be placed under targetID.
func (s *State[T]) CanMoveItem(sourceID, targetID model.NodeID) bool {
	return CanMove(s.tree, sourceID, targetID)
}

// Path returns the ids from a root down to id, or nil.
func (s *State[T]) Path(id model.NodeID) []model.NodeID {
	return GetPath(s.tree, id)
}

// Descendants returns every node below id.
func (s *State[T]) Descendants(id model.NodeID) []model.NodeID {
	return GetAllDescendantIDs(s.tree, id)
}

// ExpandToLevel opens every node with children above level and closes the
// rest, so that level 1 shows the roots only, level 2 their children, and so
// on. Levels below 1 are treated as 1.
func (s *State[T]) ExpandToLevel(level int) {
	type item struct {
		id    model.NodeID
		depth int
	}
	seen := make(map[model.NodeID]bool, s.tree.Len())
	queue := make([]item, 0, len(s.tree.RootIDs))
	for _, id := range s.tree.RootIDs {
		queue = append(queue, item{id, 0})
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n, ok := s.tree.Get(cur.id)
		if !ok || seen[cur.id] {
			continue
		}
		seen[cur.id] = true
		if !n.HasChildren() {
			continue
		}
		if cur.depth < level-1 {
			s.open.Open(cur.id)
		} else {
			s.open.Close(cur.id)
		}
		for _, c := range n.Children {
			queue = append(queue, item{c, cur.depth + 1})
		}
	}
	s.openChanged()
}

// OpenPathTo opens every ancestor of id so that it becomes visible.
// id itself keeps its state.
func (s *State[T]) OpenPathTo(id model.NodeID) {
	if !s.checkID("open-path", id) {
		return
	}
	path := GetPath(s.tree, id)
	if len(path) < 2 {
		return
	}
	for _, a := range path[:len(path)-1] {
		s.open.Open(a)
	}
	s.openChanged()
}

// IndexOf returns the flat index of id, or -1 when it is not visible.
func (s *State[T]) IndexOf(id model.NodeID) int {
	for i, e := range s.Flattened() {
		if e.Item.ID == id {
			return i
		}
	}
	return -1
}
