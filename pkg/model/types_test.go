package model

import (
	"encoding/json"
	"slices"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNodeID_Equality(t *testing.T) {
	if IntID(1) == StringID("1") {
		t.Error("IntID(1) and StringID(\"1\") must differ")
	}
	if IntID(7) != IntID(7) {
		t.Error("equal integer ids must compare equal")
	}
	m := map[NodeID]int{IntID(1): 1, StringID("1"): 2}
	if len(m) != 2 {
		t.Errorf("expected 2 distinct map keys, got %d", len(m))
	}
}

func TestNodeID_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want NodeID
	}{
		{"Integer", `42`, IntID(42)},
		{"Negative", `-3`, IntID(-3)},
		{"String", `"doc-1"`, StringID("doc-1")},
		{"NumericString", `"1"`, StringID("1")},
		{"Empty", `""`, StringID("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got NodeID
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal(%s) = %#v, want %#v", tt.in, got, tt.want)
			}
			out, err := json.Marshal(got)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(out) != tt.in {
				t.Errorf("Marshal = %s, want %s", out, tt.in)
			}
		})
	}
}

func TestNodeID_JSONRejects(t *testing.T) {
	for _, in := range []string{`null`, `1.5`, `true`, `{}`} {
		var id NodeID
		if err := json.Unmarshal([]byte(in), &id); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}

func TestNodeID_YAML(t *testing.T) {
	var doc struct {
		IDs []NodeID `yaml:"ids"`
	}
	if err := yaml.Unmarshal([]byte("ids: [1, \"2\", three, 0x10]\n"), &doc); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	want := []NodeID{IntID(1), StringID("2"), StringID("three"), IntID(16)}
	if !slices.Equal(doc.IDs, want) {
		t.Errorf("got %#v, want %#v", doc.IDs, want)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	var back struct {
		IDs []NodeID `yaml:"ids"`
	}
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if !slices.Equal(back.IDs, want) {
		t.Errorf("round trip got %#v, want %#v", back.IDs, want)
	}
}

func TestParseID(t *testing.T) {
	if got := ParseID("12"); got != IntID(12) {
		t.Errorf("ParseID(12) = %#v", got)
	}
	if got := ParseID("a-12"); got != StringID("a-12") {
		t.Errorf("ParseID(a-12) = %#v", got)
	}
}

func TestCompareIDs(t *testing.T) {
	ids := []NodeID{StringID("b"), IntID(10), StringID("a"), IntID(2)}
	slices.SortFunc(ids, CompareIDs)
	want := []NodeID{IntID(2), IntID(10), StringID("a"), StringID("b")}
	if !slices.Equal(ids, want) {
		t.Errorf("sorted = %#v, want %#v", ids, want)
	}
}

func TestNodeClone_DetachesChildren(t *testing.T) {
	n := &Node[string]{ID: StringID("1"), Children: []NodeID{StringID("2")}, Data: "x"}
	c := n.Clone()
	c.Children[0] = StringID("3")
	if n.Children[0] != StringID("2") {
		t.Error("Clone shares Children backing array with original")
	}
}

func TestTreeSiblings(t *testing.T) {
	tr := &Tree[struct{}]{
		RootIDs: []NodeID{StringID("1")},
		Items: map[NodeID]*Node[struct{}]{
			StringID("1"): {ID: StringID("1"), Children: []NodeID{StringID("2")}},
			StringID("2"): {ID: StringID("2")},
		},
	}
	if ids, ok := tr.Siblings(Root()); !ok || !slices.Equal(ids, tr.RootIDs) {
		t.Errorf("Siblings(root) = %v, %v", ids, ok)
	}
	if ids, ok := tr.Siblings(Under(StringID("1"))); !ok || len(ids) != 1 {
		t.Errorf("Siblings(1) = %v, %v", ids, ok)
	}
	if _, ok := tr.Siblings(Under(StringID("nope"))); ok {
		t.Error("Siblings of missing parent should report !ok")
	}
}

func TestFromParentLinks(t *testing.T) {
	p := func(s string) *NodeID { id := StringID(s); return &id }
	links := []ParentLink[string]{
		{ID: StringID("epic"), Data: "Epic"},
		{ID: StringID("task-1"), Parent: p("epic")},
		{ID: StringID("orphan"), Parent: p("missing")},
		{ID: StringID("task-2"), Parent: p("epic"), IsOpened: true},
		{ID: StringID("self"), Parent: p("self")},
		{ID: StringID("epic"), Data: "duplicate"},
	}
	tr := FromParentLinks(links)

	wantRoots := []NodeID{StringID("epic"), StringID("orphan"), StringID("self")}
	if !slices.Equal(tr.RootIDs, wantRoots) {
		t.Errorf("roots = %v, want %v", tr.RootIDs, wantRoots)
	}
	epic, _ := tr.Get(StringID("epic"))
	if epic.Data != "Epic" {
		t.Errorf("duplicate record overwrote first: %q", epic.Data)
	}
	if !slices.Equal(epic.Children, []NodeID{StringID("task-1"), StringID("task-2")}) {
		t.Errorf("epic children = %v", epic.Children)
	}
	if n, _ := tr.Get(StringID("task-2")); !n.IsOpened {
		t.Error("IsOpened flag not carried over")
	}
	if tr.Len() != 5 {
		t.Errorf("expected 5 nodes, got %d", tr.Len())
	}
}

func TestToParentLinks_RoundTrip(t *testing.T) {
	p := func(n int64) *NodeID { id := IntID(n); return &id }
	links := []ParentLink[int]{
		{ID: IntID(1)},
		{ID: IntID(2), Parent: p(1)},
		{ID: IntID(3), Parent: p(2)},
		{ID: IntID(4), Parent: p(1)},
		{ID: IntID(5)},
	}
	tr := FromParentLinks(links)
	back := FromParentLinks(ToParentLinks(tr))
	if !slices.Equal(back.RootIDs, tr.RootIDs) {
		t.Errorf("roots %v != %v", back.RootIDs, tr.RootIDs)
	}
	for id, n := range tr.Items {
		m, ok := back.Get(id)
		if !ok || !slices.Equal(m.Children, n.Children) {
			t.Errorf("node %v children mismatch after round trip", id)
		}
	}
}
