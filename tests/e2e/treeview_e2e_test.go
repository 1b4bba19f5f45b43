package main_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// linkRecord is one line of a .jsonl tree fixture.
type linkRecord struct {
	ID         any            `json:"id"`
	Parent     any            `json:"parent,omitempty"`
	IsOpened   bool           `json:"isOpened,omitempty"`
	CustomData map[string]any `json:"customData,omitempty"`
}

// writeLinks writes records as a .jsonl file in dir.
func writeLinks(t *testing.T, dir, name string, records []linkRecord) string {
	t.Helper()
	var lines []string
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal record %v: %v", r.ID, err)
		}
		lines = append(lines, string(data))
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// projectTree creates a small project outline.
//
//	1 Project (open)
//	  2 Design
//	    4 Wireframes
//	  3 Build
//	5 Notes
func projectTree(t *testing.T, dir string) string {
	t.Helper()
	label := func(s string) map[string]any { return map[string]any{"label": s} }
	return writeLinks(t, dir, "project.jsonl", []linkRecord{
		{ID: 1, IsOpened: true, CustomData: label("Project")},
		{ID: 2, Parent: 1, CustomData: label("Design")},
		{ID: 3, Parent: 1, CustomData: label("Build")},
		{ID: 4, Parent: 2, CustomData: label("Wireframes")},
		{ID: 5, CustomData: label("Notes")},
	})
}

func runTreeview(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, binPath, args...)
	cmd.Env = append(os.Environ(), "TREESTATE_QUIET=1")
	out, err := cmd.Output()
	return string(out), err
}

func TestE2E_PrintOutline(t *testing.T) {
	path := projectTree(t, t.TempDir())

	out, err := runTreeview(t, "-print", path)
	if err != nil {
		t.Fatalf("treeview -print failed: %v", err)
	}
	want := strings.Join([]string{
		"▾ Project",
		"├── ▸ Design",
		"└── • Build",
		"• Notes",
	}, "\n") + "\n"
	if out != want {
		t.Errorf("outline mismatch:\n got:\n%s\nwant:\n%s", out, want)
	}
}

func TestE2E_PrintOpenAll(t *testing.T) {
	path := projectTree(t, t.TempDir())

	out, err := runTreeview(t, "-print", "-open-all", path)
	if err != nil {
		t.Fatalf("treeview -print -open-all failed: %v", err)
	}
	if !strings.Contains(out, "│   └── • Wireframes") {
		t.Errorf("expected nested guide for Wireframes, got:\n%s", out)
	}
}

func TestE2E_CheckReportsProblems(t *testing.T) {
	dir := t.TempDir()
	good := projectTree(t, dir)
	bad := filepath.Join(dir, "bad.json")
	doc := `{"rootIds":[1,9],"items":{"1":{"id":1,"children":[2]},"2":{"id":2,"children":[1]}}}`
	if err := os.WriteFile(bad, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runTreeview(t, "-check", good)
	if err != nil {
		t.Fatalf("check of a good file failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "5 items, 2 roots") {
		t.Errorf("unexpected summary: %s", out)
	}

	out, err = runTreeview(t, "-check", good, bad)
	var exitErr *exec.ExitError
	if err == nil || !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v\n%s", err, out)
	}
	for _, want := range []string{"dangling-ref", "cycle"} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}
}

func TestE2E_ExportSVG(t *testing.T) {
	dir := t.TempDir()
	path := projectTree(t, dir)
	out := filepath.Join(dir, "snap.svg")

	if _, err := runTreeview(t, "-open-all", "-export", out, path); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	svg := string(data)
	for _, want := range []string{"<svg", "Wireframes", "visible: 5 of 5 items"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestE2E_TUIStartsAndExits(t *testing.T) {
	requirePTY(t)
	dir := t.TempDir()
	path := projectTree(t, dir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd, err := underScript(ctx, "-watch=false", path)
	if err != nil {
		t.Fatal(err)
	}
	cmd.Dir = dir
	cmd.Env = tuiEnv(500 * time.Millisecond)
	cmd.Stdin = heldStdin(t, 5*time.Second)

	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		t.Fatalf("treeview did not exit in time\n%s", out)
	}
	if err != nil {
		t.Fatalf("treeview failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "Project") {
		t.Errorf("expected the tree in the TUI output, got:\n%s", out)
	}
}
