package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/vanderheijden86/treestate/pkg/model"
)

// S builds string ids.
func S(ids ...string) []model.NodeID {
	out := make([]model.NodeID, len(ids))
	for i, id := range ids {
		out[i] = model.StringID(id)
	}
	return out
}

// AssertItemCount verifies the number of nodes in the tree.
func AssertItemCount(t *testing.T, tree *Tree, expected int) {
	t.Helper()
	if tree.Len() != expected {
		t.Errorf("expected %d items, got %d", expected, tree.Len())
	}
}

// AssertRootIDs verifies the root collection.
func AssertRootIDs(t *testing.T, tree *Tree, want ...model.NodeID) {
	t.Helper()
	if !slices.Equal(tree.RootIDs, want) {
		t.Errorf("rootIds = %v, want %v", tree.RootIDs, want)
	}
}

// AssertChildren verifies one node's children.
func AssertChildren(t *testing.T, tree *Tree, parent model.NodeID, want ...model.NodeID) {
	t.Helper()
	n, ok := tree.Get(parent)
	if !ok {
		t.Errorf("node %s not found", parent)
		return
	}
	if !slices.Equal(n.Children, want) {
		t.Errorf("children of %s = %v, want %v", parent, n.Children, want)
	}
}

// AssertAbsent verifies that none of ids is a key in Items.
func AssertAbsent(t *testing.T, tree *Tree, ids ...model.NodeID) {
	t.Helper()
	for _, id := range ids {
		if tree.Has(id) {
			t.Errorf("expected %s to be absent", id)
		}
	}
}

// AssertWellFormed verifies that every reference resolves and that every id
// is referenced exactly once across rootIds and children.
func AssertWellFormed(t *testing.T, tree *Tree) {
	t.Helper()
	refs := make(map[model.NodeID]int, tree.Len())
	for _, id := range tree.RootIDs {
		refs[id]++
	}
	for _, n := range tree.Items {
		for _, c := range n.Children {
			refs[c]++
		}
	}
	for id, count := range refs {
		if !tree.Has(id) {
			t.Errorf("dangling reference: %s", id)
		}
		if count != 1 {
			t.Errorf("id %s referenced %d times", id, count)
		}
	}
	for id := range tree.Items {
		if refs[id] == 0 {
			t.Errorf("unreferenced node: %s", id)
		}
	}
}

// AssertGolden compares actual with the file at path. With GENERATE_GOLDEN
// set the file is rewritten instead, so a changed rendering can be reviewed
// as a diff.
func AssertGolden(t *testing.T, path, actual string) {
	t.Helper()
	if os.Getenv("GENERATE_GOLDEN") != "" {
		WriteFile(t, path, actual)
		t.Logf("updated golden file %s", path)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden file (GENERATE_GOLDEN=1 creates it): %v", err)
	}
	want := strings.Split(string(data), "\n")
	got := strings.Split(actual, "\n")
	for i := range max(len(want), len(got)) {
		var w, g string
		if i < len(want) {
			w = want[i]
		}
		if i < len(got) {
			g = got[i]
		}
		if w != g {
			t.Errorf("%s differs at line %d:\nwant: %q\n got: %q", filepath.Base(path), i+1, w, g)
			return
		}
	}
}

// WriteTreeFile writes tree as a JSON document into dir and returns the path.
func WriteTreeFile(t *testing.T, dir, name string, tree *Tree) string {
	t.Helper()
	path := filepath.Join(dir, name)
	WriteFile(t, path, ToJSON(tree))
	return path
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
