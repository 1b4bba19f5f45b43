package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	got := String("treeview")
	if !strings.HasPrefix(got, "treeview v") {
		t.Errorf("String() = %q, want treeview v...", got)
	}

	old := Version
	Version = "v9.9.9"
	defer func() { Version = old }()
	if got := String("treeview"); !strings.Contains(got, "v9.9.9") {
		t.Errorf("override not reported: %q", got)
	}
}
