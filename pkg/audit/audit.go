// Package audit checks a whole tree for structural problems that the core
// only detects lazily while walking: dangling references, cycles, ids listed
// by more than one parent, and nodes no root can reach.
package audit

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/vanderheijden86/treestate/pkg/metrics"
	"github.com/vanderheijden86/treestate/pkg/model"
	"github.com/vanderheijden86/treestate/pkg/treestate"
)

// Kinds reported only by the audit.
const (
	KindMultiParent treestate.Kind = "multi-parent"
	KindUnreachable treestate.Kind = "unreachable"
)

// Reference is one entry of a child collection.
type Reference struct {
	Parent model.ParentRef
	ID     model.NodeID
}

func (r Reference) String() string {
	return fmt.Sprintf("%s -> %s", r.Parent, r.ID)
}

// MultiParent is an id listed in more than one place.
type MultiParent struct {
	ID      model.NodeID
	Parents []model.ParentRef
}

// Report is the result of Run.
type Report struct {
	Items    int
	Roots    int
	Visible  int // nodes reachable from the roots
	MaxDepth int // deepest reachable node, roots at 0; -1 for an empty tree

	Dangling    []Reference
	Cycles      [][]model.NodeID // each sorted; self-loops have one element
	MultiParent []MultiParent
	Unreachable []model.NodeID
}

// OK reports whether no problem was found.
func (r *Report) OK() bool {
	return r.Problems() == 0
}

// Problems returns the number of findings.
func (r *Report) Problems() int {
	return len(r.Dangling) + len(r.Cycles) + len(r.MultiParent) + len(r.Unreachable)
}

// Diagnostics converts the findings for a treestate.Reporter.
func (r *Report) Diagnostics() []treestate.Diagnostic {
	var out []treestate.Diagnostic
	for _, d := range r.Dangling {
		out = append(out, treestate.Diagnostic{Kind: treestate.KindDanglingRef, Op: "audit", ID: d.ID,
			Message: fmt.Sprintf("%s lists an id that has no node", d.Parent)})
	}
	for _, c := range r.Cycles {
		out = append(out, treestate.Diagnostic{Kind: treestate.KindCycle, Op: "audit", ID: c[0],
			Message: fmt.Sprintf("cycle through %v", c)})
	}
	for _, m := range r.MultiParent {
		out = append(out, treestate.Diagnostic{Kind: KindMultiParent, Op: "audit", ID: m.ID,
			Message: fmt.Sprintf("listed by %d collections %v", len(m.Parents), m.Parents)})
	}
	for _, id := range r.Unreachable {
		out = append(out, treestate.Diagnostic{Kind: KindUnreachable, Op: "audit", ID: id,
			Message: "not reachable from any root"})
	}
	return out
}

// Report sends every finding to rep.
func (r *Report) Report(rep treestate.Reporter) {
	for _, d := range r.Diagnostics() {
		rep.Report(d)
	}
}

// Run audits t. It never modifies t.
func Run[T any](t *model.Tree[T]) *Report {
	defer metrics.Timer(metrics.Audit)()

	rep := &Report{MaxDepth: -1}
	if t == nil {
		return rep
	}
	// Keys holding a nil node count as absent, as they do for Tree.Has.
	ids := slices.DeleteFunc(t.IDs(), func(id model.NodeID) bool { return !t.Has(id) })
	rep.Items, rep.Roots = len(ids), len(t.RootIDs)

	g := simple.NewDirectedGraph()
	idToNode := make(map[model.NodeID]int64, len(ids))
	nodeToID := make(map[int64]model.NodeID, len(ids))

	// 1. Add nodes, plus one synthetic node standing for the root collection
	for _, id := range ids {
		n := g.NewNode()
		g.AddNode(n)
		idToNode[id] = n.ID()
		nodeToID[n.ID()] = id
	}
	top := g.NewNode()
	g.AddNode(top)

	// 2. Add parent -> child edges, collecting references as we go
	refs := make(map[model.NodeID][]model.ParentRef, len(ids))
	selfLoops := make(map[model.NodeID]bool)
	link := func(parent model.ParentRef, from graph.Node, child model.NodeID) {
		refs[child] = append(refs[child], parent)
		v, ok := idToNode[child]
		if !ok {
			rep.Dangling = append(rep.Dangling, Reference{Parent: parent, ID: child})
			return
		}
		if !parent.IsRoot && parent.ID == child {
			// simple graphs reject self edges
			selfLoops[child] = true
			return
		}
		g.SetEdge(g.NewEdge(from, g.Node(v)))
	}
	for _, id := range t.RootIDs {
		link(model.Root(), top, id)
	}
	for _, id := range ids {
		from := g.Node(idToNode[id])
		for _, c := range t.Items[id].Children {
			link(model.Under(id), from, c)
		}
	}

	// 3. Multi-parent ids
	for _, id := range sortedKeys(refs) {
		if len(refs[id]) > 1 {
			rep.MultiParent = append(rep.MultiParent, MultiParent{ID: id, Parents: refs[id]})
		}
	}

	// 4. Cycles
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		cycle := make([]model.NodeID, 0, len(scc))
		for _, n := range scc {
			cycle = append(cycle, nodeToID[n.ID()])
		}
		slices.SortFunc(cycle, model.CompareIDs)
		rep.Cycles = append(rep.Cycles, cycle)
	}
	for _, id := range sortedKeys(selfLoops) {
		rep.Cycles = append(rep.Cycles, []model.NodeID{id})
	}
	slices.SortFunc(rep.Cycles, func(a, b []model.NodeID) int { return model.CompareIDs(a[0], b[0]) })

	// 5. Reachability and depth from the root collection
	reached := make(map[int64]bool, len(ids))
	bf := traverse.BreadthFirst{Visit: func(n graph.Node) { reached[n.ID()] = true }}
	bf.Walk(g, top, func(n graph.Node, d int) bool {
		if n.ID() != top.ID() && d-1 > rep.MaxDepth {
			rep.MaxDepth = d - 1
		}
		return false
	})
	for _, id := range ids {
		if reached[idToNode[id]] {
			rep.Visible++
		} else {
			rep.Unreachable = append(rep.Unreachable, id)
		}
	}

	return rep
}

func sortedKeys[V any](m map[model.NodeID]V) []model.NodeID {
	keys := make([]model.NodeID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, model.CompareIDs)
	return keys
}
