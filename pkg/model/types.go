package model

import (
	"fmt"
	"slices"
)

// Node is a single element of a normalized tree. Children lists direct
// children only, in sibling order, and is the sole source of structure.
type Node[T any] struct {
	ID       NodeID   `json:"id" yaml:"id"`
	Children []NodeID `json:"children" yaml:"children"`
	IsOpened bool     `json:"isOpened,omitempty" yaml:"isOpened,omitempty"`
	Data     T        `json:"customData,omitempty" yaml:"customData,omitempty"`
}

// Clone returns a shallow copy with its own Children slice. Data is shared.
func (n *Node[T]) Clone() *Node[T] {
	c := *n
	c.Children = slices.Clone(n.Children)
	return &c
}

// WithChildren returns a copy of n whose Children is children.
func (n *Node[T]) WithChildren(children []NodeID) *Node[T] {
	c := *n
	c.Children = children
	return &c
}

// HasChildren reports whether the node lists any children.
func (n *Node[T]) HasChildren() bool {
	return len(n.Children) > 0
}

// Tree is the structural tree: sibling-ordered root ids plus a flat id -> node
// map. Trees are treated as immutable values; every structural edit produces a
// new *Tree and the pointer identity signals that the structure changed.
type Tree[T any] struct {
	RootIDs []NodeID            `json:"rootIds" yaml:"rootIds"`
	Items   map[NodeID]*Node[T] `json:"-" yaml:"-"`
}

// NewTree returns an empty tree.
func NewTree[T any]() *Tree[T] {
	return &Tree[T]{Items: make(map[NodeID]*Node[T])}
}

// Get returns the node for id.
func (t *Tree[T]) Get(id NodeID) (*Node[T], bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.Items[id]
	return n, ok && n != nil
}

// Has reports whether id is a key in Items.
func (t *Tree[T]) Has(id NodeID) bool {
	_, ok := t.Get(id)
	return ok
}

// Len returns the number of nodes in Items.
func (t *Tree[T]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Items)
}

// IDs returns every id in Items in CompareIDs order.
func (t *Tree[T]) IDs() []NodeID {
	if t == nil {
		return nil
	}
	ids := make([]NodeID, 0, len(t.Items))
	for id := range t.Items {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, CompareIDs)
	return ids
}

// Siblings returns the child collection named by parent: RootIDs for the root
// collection, the parent's Children otherwise. ok is false when the parent is
// not in the tree.
func (t *Tree[T]) Siblings(parent ParentRef) (ids []NodeID, ok bool) {
	if parent.IsRoot {
		return t.RootIDs, true
	}
	n, ok := t.Get(parent.ID)
	if !ok {
		return nil, false
	}
	return n.Children, true
}

// ParentRef names a child collection: the root collection, or the children of
// the node ID.
type ParentRef struct {
	ID     NodeID
	IsRoot bool
}

// Root returns the reference to the root collection.
func Root() ParentRef {
	return ParentRef{IsRoot: true}
}

// Under returns the reference to id's children.
func Under(id NodeID) ParentRef {
	return ParentRef{ID: id}
}

func (p ParentRef) String() string {
	if p.IsRoot {
		return "<root>"
	}
	return p.ID.String()
}

// PositionKind selects how a Position resolves to an index.
type PositionKind int

const (
	PosIndex PositionKind = iota
	PosFirst
	PosLast
	PosBefore
	PosAfter
)

// Position is an insertion point inside a child collection.
type Position struct {
	Kind   PositionKind
	Index  int    // PosIndex only
	Anchor NodeID // PosBefore / PosAfter only
}

// AtIndex inserts at a zero-based index.
func AtIndex(i int) Position { return Position{Kind: PosIndex, Index: i} }

// First inserts before every existing sibling.
func First() Position { return Position{Kind: PosFirst} }

// Last inserts after every existing sibling.
func Last() Position { return Position{Kind: PosLast} }

// Before inserts immediately before the sibling anchor.
func Before(anchor NodeID) Position { return Position{Kind: PosBefore, Anchor: anchor} }

// After inserts immediately after the sibling anchor.
func After(anchor NodeID) Position { return Position{Kind: PosAfter, Anchor: anchor} }

func (p Position) String() string {
	switch p.Kind {
	case PosIndex:
		return fmt.Sprintf("index %d", p.Index)
	case PosFirst:
		return "first"
	case PosLast:
		return "last"
	case PosBefore:
		return "before " + p.Anchor.String()
	case PosAfter:
		return "after " + p.Anchor.String()
	default:
		return fmt.Sprintf("position(%d)", int(p.Kind))
	}
}

// MoveTarget is the destination of a move: a child collection and a position in it.
type MoveTarget struct {
	Parent   ParentRef
	Position Position
}
