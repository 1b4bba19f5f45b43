// Package testutil provides test fixture generators for various tree shapes.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treestate/pkg/model"
)

// Tree is the fixture tree type used across tests.
type Tree = model.Tree[model.Attrs]

// GeneratorConfig controls tree generation.
type GeneratorConfig struct {
	Seed      int64   // Random seed for determinism (0 = use current time)
	IDPrefix  string  // Prefix for string ids (default: "n")
	IntIDs    bool    // Use integer ids instead of prefixed strings
	OpenRatio float64 // Fraction of nodes with children stored as opened (0 = none)
	Labels    bool    // Give every node a "label" payload
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42, // Deterministic
		IDPrefix: "n",
		Labels:   true,
	}
}

// Generator creates tree fixtures with various shapes.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "n"
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// ID returns the i-th generated id.
func (g *Generator) ID(i int) model.NodeID {
	if g.cfg.IntIDs {
		return model.IntID(int64(i))
	}
	return model.StringID(fmt.Sprintf("%s%d", g.cfg.IDPrefix, i))
}

func (g *Generator) node(i int) *model.Node[model.Attrs] {
	n := &model.Node[model.Attrs]{ID: g.ID(i)}
	if g.cfg.Labels {
		n.Data = model.Attrs{"label": fmt.Sprintf("Node %d", i)}
	}
	return n
}

// finish applies OpenRatio to nodes that have children.
func (g *Generator) finish(t *Tree) *Tree {
	if g.cfg.OpenRatio <= 0 {
		return t
	}
	for _, id := range t.IDs() {
		n := t.Items[id]
		if n.HasChildren() && g.rng.Float64() < g.cfg.OpenRatio {
			n.IsOpened = true
		}
	}
	return t
}

// ============================================================================
// Tree Shape Generators
// ============================================================================

// Chain creates a single path n0 -> n1 -> ... -> n{size-1}, each node the
// only child of the previous one. Depth is size-1.
func (g *Generator) Chain(size int) *Tree {
	t := model.NewTree[model.Attrs]()
	if size < 1 {
		return t
	}
	t.RootIDs = []model.NodeID{g.ID(0)}
	prev := g.node(0)
	t.Items[prev.ID] = prev
	for i := 1; i < size; i++ {
		n := g.node(i)
		prev.Children = []model.NodeID{n.ID}
		t.Items[n.ID] = n
		prev = n
	}
	return g.finish(t)
}

// Fan creates one root with `width` leaf children.
func (g *Generator) Fan(width int) *Tree {
	t := model.NewTree[model.Attrs]()
	root := g.node(0)
	root.Children = make([]model.NodeID, 0, width)
	t.RootIDs = []model.NodeID{root.ID}
	t.Items[root.ID] = root
	for i := 1; i <= width; i++ {
		n := g.node(i)
		root.Children = append(root.Children, n.ID)
		t.Items[n.ID] = n
	}
	return g.finish(t)
}

// Forest creates `roots` top-level leaves.
func (g *Generator) Forest(roots int) *Tree {
	t := model.NewTree[model.Attrs]()
	for i := 0; i < roots; i++ {
		n := g.node(i)
		t.RootIDs = append(t.RootIDs, n.ID)
		t.Items[n.ID] = n
	}
	return g.finish(t)
}

// Balanced creates a single-root tree where every non-leaf node has
// `breadth` children, `depth` levels below the root.
func (g *Generator) Balanced(depth, breadth int) *Tree {
	if depth < 0 {
		depth = 0
	}
	if breadth < 1 {
		breadth = 1
	}
	t := model.NewTree[model.Attrs]()
	next := 0
	root := g.node(next)
	next++
	t.RootIDs = []model.NodeID{root.ID}
	t.Items[root.ID] = root

	// BFS-style generation
	level := []*model.Node[model.Attrs]{root}
	for d := 0; d < depth; d++ {
		var nextLevel []*model.Node[model.Attrs]
		for _, parent := range level {
			for b := 0; b < breadth; b++ {
				n := g.node(next)
				next++
				parent.Children = append(parent.Children, n.ID)
				t.Items[n.ID] = n
				nextLevel = append(nextLevel, n)
			}
		}
		level = nextLevel
	}
	return g.finish(t)
}

// Random creates a forest of `size` nodes. Each node after the first picks a
// uniformly random earlier node as parent, or becomes a root with
// probability rootChance.
func (g *Generator) Random(size int, rootChance float64) *Tree {
	t := model.NewTree[model.Attrs]()
	nodes := make([]*model.Node[model.Attrs], 0, size)
	for i := 0; i < size; i++ {
		n := g.node(i)
		t.Items[n.ID] = n
		if i == 0 || g.rng.Float64() < rootChance {
			t.RootIDs = append(t.RootIDs, n.ID)
		} else {
			p := nodes[g.rng.Intn(len(nodes))]
			p.Children = append(p.Children, n.ID)
		}
		nodes = append(nodes, n)
	}
	return g.finish(t)
}

// Cycle creates a root n0 followed by a chain n1 -> ... -> n{size-1} -> n1.
// The cycle is not reachable back to the root.
func (g *Generator) Cycle(size int) *Tree {
	if size < 2 {
		size = 2
	}
	t := g.Chain(size)
	last := t.Items[g.ID(size-1)]
	last.Children = append(last.Children, g.ID(1))
	return t
}

// Dangling creates a root whose children reference `missing` ids with no node
// among `present` real leaves. Missing ids interleave with real ones.
func (g *Generator) Dangling(present, missing int) *Tree {
	t := model.NewTree[model.Attrs]()
	root := g.node(0)
	t.RootIDs = []model.NodeID{root.ID}
	t.Items[root.ID] = root
	i := 1
	for p, m := 0, 0; p < present || m < missing; {
		if p < present {
			n := g.node(i)
			t.Items[n.ID] = n
			root.Children = append(root.Children, n.ID)
			p++
			i++
		}
		if m < missing {
			root.Children = append(root.Children, g.ID(i))
			m++
			i++
		}
	}
	return g.finish(t)
}

// ============================================================================
// Encoding helpers
// ============================================================================

type document struct {
	RootIDs []model.NodeID                      `json:"rootIds"`
	Items   map[string]*model.Node[model.Attrs] `json:"items"`
}

// ToJSON encodes t in the {rootIds, items} document format.
func ToJSON(t *Tree) string {
	doc := document{RootIDs: t.RootIDs, Items: make(map[string]*model.Node[model.Attrs], len(t.Items))}
	for id, n := range t.Items {
		doc.Items[id.String()] = n
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		panic(err)
	}
	return string(data)
}

// ToJSONL encodes t as parent-link records, one per line, in pre-order.
func ToJSONL(t *Tree) string {
	var sb strings.Builder
	for _, rec := range model.ToParentLinks(t) {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ============================================================================
// Quick helpers
// ============================================================================

// QuickChain returns a default Chain.
func QuickChain(size int) *Tree {
	return NewDefault().Chain(size)
}

// QuickFan returns a default Fan.
func QuickFan(width int) *Tree {
	return NewDefault().Fan(width)
}

// QuickBalanced returns a default Balanced tree.
func QuickBalanced(depth, breadth int) *Tree {
	return NewDefault().Balanced(depth, breadth)
}

// QuickRandom returns a default Random forest.
func QuickRandom(size int) *Tree {
	return NewDefault().Random(size, 0.1)
}

// Empty returns a tree with no nodes.
func Empty() *Tree {
	return model.NewTree[model.Attrs]()
}

// Sample returns the three-node tree used throughout the docs:
//
//	1 (closed)
//	├── 2 (opened, leaf)
//	└── 3
func Sample() *Tree {
	one, two, three := model.StringID("1"), model.StringID("2"), model.StringID("3")
	return &Tree{
		RootIDs: []model.NodeID{one},
		Items: map[model.NodeID]*model.Node[model.Attrs]{
			one:   {ID: one, Children: []model.NodeID{two, three}},
			two:   {ID: two, Children: []model.NodeID{}, IsOpened: true},
			three: {ID: three, Children: []model.NodeID{}},
		},
	}
}
