package loader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/vanderheijden86/treestate/pkg/loader"
	"github.com/vanderheijden86/treestate/pkg/model"
	"github.com/vanderheijden86/treestate/pkg/testutil"
)

func collect(warnings *[]string) loader.ParseOptions {
	return loader.ParseOptions{WarningHandler: func(s string) { *warnings = append(*warnings, s) }}
}

// =============================================================================
// DetectFormat Tests
// =============================================================================

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    loader.Format
		wantErr bool
	}{
		{"tree.json", loader.FormatJSON, false},
		{"TREE.JSON", loader.FormatJSON, false},
		{"a/b/tree.yaml", loader.FormatYAML, false},
		{"tree.yml", loader.FormatYAML, false},
		{"tree.jsonl", loader.FormatJSONL, false},
		{"tree.ndjson", loader.FormatJSONL, false},
		{"tree.txt", 0, true},
		{"tree", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := loader.DetectFormat(tt.path)
			if tt.wantErr {
				if !errors.Is(err, loader.ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("DetectFormat(%q) = %v, %v; want %v", tt.path, got, err, tt.want)
			}
		})
	}
}

// =============================================================================
// Document Tests
// =============================================================================

func TestParseJSONDocument(t *testing.T) {
	doc := `{
		"rootIds": [1, "notes"],
		"items": {
			"1": {"id": 1, "children": [2, 3], "isOpened": true, "customData": {"label": "Root"}},
			"2": {"id": 2},
			"3": {"id": 3, "customData": {"title": "Three"}},
			"notes": {"children": []}
		}
	}`
	var warnings []string
	tree, err := loader.Parse[model.Attrs](strings.NewReader(doc), loader.FormatJSON, collect(&warnings))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	testutil.AssertItemCount(t, tree, 4)
	testutil.AssertRootIDs(t, tree, model.IntID(1), model.StringID("notes"))
	testutil.AssertChildren(t, tree, model.IntID(1), model.IntID(2), model.IntID(3))

	root, _ := tree.Get(model.IntID(1))
	if !root.IsOpened || root.Data.Label() != "Root" {
		t.Errorf("root = %+v", root)
	}
	three, _ := tree.Get(model.IntID(3))
	if three.Data.Label() != "Three" {
		t.Errorf("label = %q, want Three", three.Data.Label())
	}
}

func TestParseJSONDocumentKeyWithoutID(t *testing.T) {
	doc := `{"rootIds": [7, "x"], "items": {"7": {}, "x": {}}}`
	tree, err := loader.Parse[model.Attrs](strings.NewReader(doc), loader.FormatJSON, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !tree.Has(model.IntID(7)) || !tree.Has(model.StringID("x")) {
		t.Errorf("ids = %v", tree.IDs())
	}
}

func TestParseJSONDocumentDeclaredIDWins(t *testing.T) {
	doc := `{"rootIds": ["b"], "items": {"a": {"id": "b"}, "b": {"id": "b"}}}`
	var warnings []string
	tree, err := loader.Parse[model.Attrs](strings.NewReader(doc), loader.FormatJSON, collect(&warnings))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	testutil.AssertItemCount(t, tree, 1)
	// one for the mismatched key, one for the duplicate
	if len(warnings) != 2 {
		t.Errorf("warnings = %v, want 2", warnings)
	}
}

func TestParseJSONDocumentNullItem(t *testing.T) {
	doc := `{"rootIds": [], "items": {"a": null}}`
	var warnings []string
	tree, err := loader.Parse[model.Attrs](strings.NewReader(doc), loader.FormatJSON, collect(&warnings))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	testutil.AssertItemCount(t, tree, 0)
	if len(warnings) != 1 {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := loader.Parse[model.Attrs](strings.NewReader(`{"rootIds": [`), loader.FormatJSON, loader.ParseOptions{})
	if err == nil || !strings.Contains(err.Error(), "invalid JSON tree") {
		t.Errorf("expected invalid JSON error, got %v", err)
	}
}

func TestParseJSONWithBOM(t *testing.T) {
	doc := "\xef\xbb\xbf" + `{"rootIds": ["a"], "items": {"a": {"id": "a"}}}`
	tree, err := loader.Parse[model.Attrs](strings.NewReader(doc), loader.FormatJSON, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	testutil.AssertItemCount(t, tree, 1)
}

func TestParseYAMLDocument(t *testing.T) {
	doc := `
rootIds: [1, docs]
items:
  "1":
    id: 1
    children: [2]
    isOpened: true
    customData:
      label: Root
  "2":
    id: 2
  docs:
    id: docs
    customData:
      name: Documents
`
	tree, err := loader.Parse[model.Attrs](strings.NewReader(doc), loader.FormatYAML, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	testutil.AssertItemCount(t, tree, 3)
	testutil.AssertRootIDs(t, tree, model.IntID(1), model.StringID("docs"))
	testutil.AssertChildren(t, tree, model.IntID(1), model.IntID(2))
	docs, _ := tree.Get(model.StringID("docs"))
	if docs.Data.Label() != "Documents" {
		t.Errorf("label = %q", docs.Data.Label())
	}
}

func TestParseYAMLEmpty(t *testing.T) {
	tree, err := loader.Parse[model.Attrs](strings.NewReader(""), loader.FormatYAML, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	testutil.AssertItemCount(t, tree, 0)
}

// =============================================================================
// JSONL Tests
// =============================================================================

func TestParseLinksBuildsTree(t *testing.T) {
	input := strings.Join([]string{
		`{"id":1,"customData":{"label":"root"}}`,
		`{"id":2,"parent":1}`,
		`{"id":3,"parent":1,"isOpened":true}`,
		`{"id":4,"parent":3}`,
		`{"id":"loose","parent":"missing"}`,
	}, "\n")
	tree, err := loader.Parse[model.Attrs](strings.NewReader(input), loader.FormatJSONL, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	testutil.AssertWellFormed(t, tree)
	testutil.AssertRootIDs(t, tree, model.IntID(1), model.StringID("loose"))
	testutil.AssertChildren(t, tree, model.IntID(1), model.IntID(2), model.IntID(3))
	testutil.AssertChildren(t, tree, model.IntID(3), model.IntID(4))
}

func TestParseLinksSkipsBadLines(t *testing.T) {
	input := "\xef\xbb\xbf" + `{"id":"a"}` + "\n\n   \nnot json\n{}\n" + `{"id":"b","parent":"a"}` + "\n"
	var warnings []string
	links, err := loader.ParseLinks[model.Attrs](strings.NewReader(input), collect(&warnings))
	if err != nil {
		t.Fatalf("ParseLinks: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("links = %v, want 2", links)
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v, want malformed and missing id", warnings)
	}
	if !strings.Contains(warnings[0], "line 4") {
		t.Errorf("warning should name line 4: %q", warnings[0])
	}
}

func TestParseLinksLineTooLong(t *testing.T) {
	long := `{"id":"` + strings.Repeat("x", 200) + `"}`
	input := `{"id":"a"}` + "\n" + long + "\n" + `{"id":"b"}` + "\n"
	var warnings []string
	opts := collect(&warnings)
	opts.BufferSize = 64
	links, err := loader.ParseLinks[model.Attrs](strings.NewReader(input), opts)
	if err != nil {
		t.Fatalf("ParseLinks: %v", err)
	}
	if len(links) != 2 || links[1].ID != model.StringID("b") {
		t.Errorf("links = %v", links)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "too long") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestParseLinksRoundTrip(t *testing.T) {
	want := testutil.QuickBalanced(3, 3)
	data := testutil.ToJSONL(want)
	got, err := loader.Parse[model.Attrs](strings.NewReader(data), loader.FormatJSONL, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	testutil.AssertItemCount(t, got, want.Len())
	if !slices.Equal(got.RootIDs, want.RootIDs) {
		t.Errorf("roots = %v, want %v", got.RootIDs, want.RootIDs)
	}
	for _, id := range want.IDs() {
		w, _ := want.Get(id)
		g, ok := got.Get(id)
		if !ok || !slices.Equal(g.Children, w.Children) {
			t.Errorf("children of %s = %v, want %v", id, g.Children, w.Children)
		}
	}
}

// =============================================================================
// LoadFile / LoadAll Tests
// =============================================================================

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	tree := testutil.QuickChain(5)
	path := testutil.WriteTreeFile(t, dir, "chain.json", tree)

	got, err := loader.LoadFile[model.Attrs](path, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	testutil.AssertItemCount(t, got, 5)
	testutil.AssertWellFormed(t, got)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := loader.LoadFile[model.Attrs](filepath.Join(dir, "nope.json"), loader.ParseOptions{}); err == nil ||
		!strings.Contains(err.Error(), "no tree file found") {
		t.Errorf("missing file: %v", err)
	}

	txt := filepath.Join(dir, "tree.txt")
	if err := os.WriteFile(txt, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.LoadFile[model.Attrs](txt, loader.ParseOptions{}); !errors.Is(err, loader.ErrUnsupportedFormat) {
		t.Errorf("unsupported: %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := loader.LoadFile[model.Attrs](bad, loader.ParseOptions{})
	if err == nil || !strings.Contains(err.Error(), bad) {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		testutil.WriteTreeFile(t, dir, "a.json", testutil.QuickChain(3)),
		filepath.Join(dir, "missing.json"),
		testutil.WriteTreeFile(t, dir, "b.json", testutil.QuickFan(4)),
	}

	results, err := loader.LoadAll[model.Attrs](context.Background(), paths, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d path = %s, want %s", i, r.Path, paths[i])
		}
	}
	if results[0].Tree.Len() != 3 || results[2].Tree.Len() != 5 {
		t.Errorf("sizes = %d, %d", results[0].Tree.Len(), results[2].Tree.Len())
	}
	failed := loader.Failed(results)
	if len(failed) != 1 || failed[0].Path != paths[1] {
		t.Errorf("failed = %+v", failed)
	}
}

func TestLoadAllCancelled(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteTreeFile(t, dir, "a.json", testutil.QuickChain(3))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := loader.LoadAll[model.Attrs](ctx, []string{path, path}, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	for _, r := range results {
		if !errors.Is(r.Error, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", r.Error)
		}
	}
}

func TestReaderPoolReuse(t *testing.T) {
	for i := 0; i < 3; i++ {
		if _, err := loader.ParseLinks[model.Attrs](strings.NewReader(`{"id":"a"}`), loader.ParseOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	hits, misses := loader.ReaderPoolStats()
	if hits+misses < 3 {
		t.Errorf("pool gets = %d, want >= 3", hits+misses)
	}
}

func BenchmarkLoadFile10k(b *testing.B) {
	dir := b.TempDir()
	tree := testutil.QuickRandom(10_000)
	path := filepath.Join(dir, "tree.jsonl")
	if err := os.WriteFile(path, []byte(testutil.ToJSONL(tree)), 0644); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := loader.LoadFile[model.Attrs](path, loader.ParseOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}
