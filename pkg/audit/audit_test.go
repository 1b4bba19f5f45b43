package audit

import (
	"slices"
	"testing"

	"github.com/vanderheijden86/treestate/pkg/model"
	"github.com/vanderheijden86/treestate/pkg/testutil"
	"github.com/vanderheijden86/treestate/pkg/treestate"
)

func TestRunWellFormed(t *testing.T) {
	tests := []struct {
		name      string
		tree      *testutil.Tree
		wantItems int
		wantDepth int
	}{
		{"empty", testutil.Empty(), 0, -1},
		{"sample", testutil.Sample(), 3, 1},
		{"chain", testutil.QuickChain(50), 50, 49},
		{"balanced", testutil.QuickBalanced(3, 3), 40, 3},
		{"random", testutil.QuickRandom(300), 300, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Run(tt.tree)
			if !r.OK() {
				t.Errorf("expected no problems, got %v", r.Diagnostics())
			}
			if r.Items != tt.wantItems || r.Visible != tt.wantItems {
				t.Errorf("items = %d visible = %d, want %d", r.Items, r.Visible, tt.wantItems)
			}
			if tt.wantDepth != -2 && r.MaxDepth != tt.wantDepth {
				t.Errorf("MaxDepth = %d, want %d", r.MaxDepth, tt.wantDepth)
			}
		})
	}
}

func TestRunFindsDangling(t *testing.T) {
	r := Run(testutil.NewDefault().Dangling(2, 2))
	if len(r.Dangling) != 2 {
		t.Fatalf("dangling = %v, want 2", r.Dangling)
	}
	if r.Dangling[0].Parent != model.Under(model.StringID("n0")) {
		t.Errorf("dangling parent = %v", r.Dangling[0].Parent)
	}
}

func TestRunFindsCycles(t *testing.T) {
	r := Run(testutil.NewDefault().Cycle(4))
	if len(r.Cycles) != 1 {
		t.Fatalf("cycles = %v, want 1", r.Cycles)
	}
	if want := testutil.S("n1", "n2", "n3"); !slices.Equal(r.Cycles[0], want) {
		t.Errorf("cycle = %v, want %v", r.Cycles[0], want)
	}
	// n1 is listed by n0 and by n3.
	if len(r.MultiParent) != 1 || r.MultiParent[0].ID != model.StringID("n1") {
		t.Errorf("multi-parent = %v", r.MultiParent)
	}
}

func TestRunFindsSelfLoop(t *testing.T) {
	a := model.StringID("a")
	tree := &testutil.Tree{
		RootIDs: []model.NodeID{a},
		Items:   map[model.NodeID]*model.Node[model.Attrs]{a: {ID: a, Children: []model.NodeID{a}}},
	}
	r := Run(tree)
	if len(r.Cycles) != 1 || len(r.Cycles[0]) != 1 || r.Cycles[0][0] != a {
		t.Errorf("cycles = %v, want [[a]]", r.Cycles)
	}
}

func TestRunFindsUnreachable(t *testing.T) {
	tree := testutil.Sample()
	orphan := model.StringID("orphan")
	tree.Items[orphan] = &model.Node[model.Attrs]{ID: orphan}

	r := Run(tree)
	if !slices.Equal(r.Unreachable, []model.NodeID{orphan}) {
		t.Errorf("unreachable = %v", r.Unreachable)
	}
	if r.Visible != 3 {
		t.Errorf("visible = %d, want 3", r.Visible)
	}
}

func TestRunTreatsNilNodeAsMissing(t *testing.T) {
	tree := testutil.Sample()
	tree.Items[model.StringID("3")] = nil

	r := Run(tree)
	if r.Items != 2 {
		t.Errorf("items = %d, want 2", r.Items)
	}
	want := []Reference{{Parent: model.Under(model.StringID("1")), ID: model.StringID("3")}}
	if !slices.Equal(r.Dangling, want) {
		t.Errorf("dangling = %v, want %v", r.Dangling, want)
	}
}

func TestReportDiagnostics(t *testing.T) {
	tree := testutil.NewDefault().Cycle(3)
	tree.Items[model.StringID("n0")].Children = append(tree.Items[model.StringID("n0")].Children, model.StringID("ghost"))

	var c treestate.Collector
	r := Run(tree)
	r.Report(&c)
	if c.Len() != r.Problems() {
		t.Fatalf("reported %d, problems %d", c.Len(), r.Problems())
	}
	want := []treestate.Kind{treestate.KindDanglingRef, treestate.KindCycle, KindMultiParent}
	if !slices.Equal(c.Kinds(), want) {
		t.Errorf("kinds = %v, want %v", c.Kinds(), want)
	}
}

func BenchmarkRun10k(b *testing.B) {
	tree := testutil.QuickRandom(10_000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Run(tree)
	}
}
