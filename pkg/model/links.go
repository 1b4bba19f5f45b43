package model

// ParentLink is one record of a parent-pointer listing, the shape most issue
// trackers and file listings export: every record names its own parent.
type ParentLink[T any] struct {
	ID       NodeID  `json:"id" yaml:"id"`
	Parent   *NodeID `json:"parent,omitempty" yaml:"parent,omitempty"`
	IsOpened bool    `json:"isOpened,omitempty" yaml:"isOpened,omitempty"`
	Data     T       `json:"customData,omitempty" yaml:"customData,omitempty"`
}

// FromParentLinks builds a normalized tree from parent-pointer records.
//
// Records without a parent, with a parent that is not itself a record, or that
// name themselves as parent become roots. Record order is sibling order.
// Duplicate ids keep the first record.
func FromParentLinks[T any](links []ParentLink[T]) *Tree[T] {
	t := &Tree[T]{Items: make(map[NodeID]*Node[T], len(links))}

	// Step 1: register nodes
	order := make([]*ParentLink[T], 0, len(links))
	for i := range links {
		link := &links[i]
		if _, dup := t.Items[link.ID]; dup {
			continue
		}
		t.Items[link.ID] = &Node[T]{ID: link.ID, IsOpened: link.IsOpened, Data: link.Data}
		order = append(order, link)
	}

	// Step 2: attach each node under its parent, or to the root collection
	for _, link := range order {
		if link.Parent != nil && *link.Parent != link.ID {
			if parent, ok := t.Items[*link.Parent]; ok {
				parent.Children = append(parent.Children, link.ID)
				continue
			}
		}
		t.RootIDs = append(t.RootIDs, link.ID)
	}

	return t
}

// ToParentLinks is the inverse of FromParentLinks for well-formed trees.
// Records are emitted in pre-order so that reading them back preserves sibling
// order. Nodes unreachable from RootIDs are omitted.
func ToParentLinks[T any](t *Tree[T]) []ParentLink[T] {
	if t == nil {
		return nil
	}
	links := make([]ParentLink[T], 0, len(t.Items))
	seen := make(map[NodeID]bool, len(t.Items))

	type frame struct {
		id     NodeID
		parent *NodeID
	}
	stack := make([]frame, 0, len(t.RootIDs))
	for i := len(t.RootIDs) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: t.RootIDs[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := t.Get(f.id)
		if !ok || seen[f.id] {
			continue
		}
		seen[f.id] = true
		links = append(links, ParentLink[T]{ID: n.ID, Parent: f.parent, IsOpened: n.IsOpened, Data: n.Data})
		parentID := n.ID
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: n.Children[i], parent: &parentID})
		}
	}
	return links
}
