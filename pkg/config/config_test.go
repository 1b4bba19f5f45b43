package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/treestate/pkg/model"
	"github.com/vanderheijden86/treestate/pkg/treestate"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.View.Indent != 4 {
		t.Errorf("expected indent 4, got %d", cfg.View.Indent)
	}
	if !cfg.Guides() {
		t.Error("expected guides on by default")
	}
	if cfg.Debounce() != 200*time.Millisecond {
		t.Errorf("expected debounce 200ms, got %v", cfg.Debounce())
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("expected poll interval 2s, got %v", cfg.PollInterval())
	}
	if cfg.State.SyncWithInitialTree {
		t.Error("sync should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.View.Indent != 4 {
		t.Errorf("expected default config, got indent %d", cfg.View.Indent)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
state:
  sync_with_initial_tree: true
  initial_opened_ids: [1, docs, 42]

view:
  indent: 2
  show_guides: false
  page_size: 20

watch:
  debounce_ms: 50
  force_poll: true

recent:
  - ~/trees/a.json
  - /abs/b.yaml
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.State.SyncWithInitialTree {
		t.Error("expected sync_with_initial_tree true")
	}
	want := []model.NodeID{model.IntID(1), model.StringID("docs"), model.IntID(42)}
	if !slices.Equal(cfg.State.InitialOpenedIDs, want) {
		t.Errorf("initial_opened_ids = %#v, want %#v", cfg.State.InitialOpenedIDs, want)
	}
	if cfg.View.Indent != 2 || cfg.View.PageSize != 20 {
		t.Errorf("view = %+v", cfg.View)
	}
	if cfg.Guides() {
		t.Error("expected guides off")
	}
	if cfg.Debounce() != 50*time.Millisecond || !cfg.Watch.ForcePoll {
		t.Errorf("watch = %+v", cfg.Watch)
	}
	// Unset keys keep their defaults
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("poll interval = %v, want default", cfg.PollInterval())
	}

	home, _ := os.UserHomeDir()
	if cfg.Recent[0] != filepath.Join(home, "trees/a.json") {
		t.Errorf("expected expanded path, got %q", cfg.Recent[0])
	}
	if cfg.Recent[1] != "/abs/b.yaml" {
		t.Errorf("expected absolute path preserved, got %q", cfg.Recent[1])
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	tests := []struct {
		content string
		key     string
	}{
		{"view:\n  indent: -1\n", "view.indent"},
		{"view:\n  indent: 40\n", "view.indent"},
		{"view:\n  page_size: -5\n", "view.page_size"},
		{"watch:\n  debounce_ms: -1\n", "watch.debounce_ms"},
		{"watch:\n  poll_ms: -1\n", "watch.poll_ms"},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFrom(path)
			if err == nil || !strings.Contains(err.Error(), tt.key) {
				t.Errorf("expected error naming %s, got %v", tt.key, err)
			}
		})
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.State.SyncWithInitialTree = true
	cfg.State.InitialOpenedIDs = []model.NodeID{model.IntID(7), model.StringID("07")}
	cfg.View.PageSize = 15
	cfg.Recent = []string{"/x/tree.json"}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}

	if !slices.Equal(loaded.State.InitialOpenedIDs, cfg.State.InitialOpenedIDs) {
		t.Errorf("ids = %#v, want %#v", loaded.State.InitialOpenedIDs, cfg.State.InitialOpenedIDs)
	}
	if loaded.View.PageSize != 15 || !loaded.State.SyncWithInitialTree {
		t.Errorf("loaded = %+v", loaded)
	}
	if !slices.Equal(loaded.Recent, cfg.Recent) {
		t.Errorf("recent = %v", loaded.Recent)
	}
}

func TestStateOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.State.SyncWithInitialTree = true
	cfg.State.InitialOpenedIDs = []model.NodeID{model.IntID(1)}

	var c treestate.Collector
	opts := cfg.StateOptions(&c)
	if !opts.SyncWithInitialTree || opts.Reporter != &c {
		t.Errorf("opts = %+v", opts)
	}
	// The options own their slice.
	opts.InitialOpenedIDs[0] = model.IntID(99)
	if cfg.State.InitialOpenedIDs[0] != model.IntID(1) {
		t.Error("StateOptions should copy the id list")
	}
}

func TestAddRecent(t *testing.T) {
	var cfg Config
	for i := 0; i < MaxRecent+3; i++ {
		cfg.AddRecent(fmt.Sprintf("/trees/%d.json", i))
	}
	if len(cfg.Recent) != MaxRecent {
		t.Fatalf("recent = %d entries, want %d", len(cfg.Recent), MaxRecent)
	}
	if cfg.Recent[0] != fmt.Sprintf("/trees/%d.json", MaxRecent+2) {
		t.Errorf("newest first, got %q", cfg.Recent[0])
	}

	cfg.AddRecent("/trees/5.json")
	if cfg.Recent[0] != "/trees/5.json" {
		t.Errorf("re-added path should move to front, got %q", cfg.Recent[0])
	}
	count := 0
	for _, p := range cfg.Recent {
		if p == "/trees/5.json" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate entries: %v", cfg.Recent)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~/", filepath.Join(home, "")},
		{"/absolute", "/absolute"},
		{"relative", "relative"},
	}
	for _, tt := range tests {
		if got := expandHome(tt.input); got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if got, want := ConfigDir(), filepath.Join(dir, "treeview"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got, want := ConfigPath(), filepath.Join(dir, "treeview", "config.yaml"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestLoad_UsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := DefaultConfig()
	cfg.View.Indent = 6
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.View.Indent != 6 {
		t.Errorf("indent = %d, want 6", loaded.View.Indent)
	}
}

func TestStatePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	if got, want := StateDir(), filepath.Join(dir, "treeview"); got != want {
		t.Errorf("StateDir() = %q, want %q", got, want)
	}

	a := StatePath("/data/trees/a.json")
	b := StatePath("/data/other/a.json")
	if a == b {
		t.Errorf("distinct trees share a state file: %q", a)
	}
	if filepath.Dir(a) != filepath.Join(dir, "treeview", "open") {
		t.Errorf("state file outside state dir: %q", a)
	}
	if strings.ContainsRune(filepath.Base(a), filepath.Separator) || !strings.HasSuffix(a, ".json") {
		t.Errorf("unexpected file name %q", a)
	}
	if StatePath("") != "" {
		t.Error("empty tree path should have no state file")
	}
}
