package ui

import (
	"testing"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

func TestDefaultTheme(t *testing.T) {
	renderer := lipgloss.NewRenderer(nil)
	theme := DefaultTheme(renderer)

	if theme.Renderer != renderer {
		t.Error("DefaultTheme renderer mismatch")
	}
	// Check a few known colors are set (not zero value)
	for name, c := range map[string]lipgloss.AdaptiveColor{
		"Primary":   theme.Primary,
		"Open":      theme.Open,
		"Collapsed": theme.Collapsed,
		"Leaf":      theme.Leaf,
		"Error":     theme.Error,
	} {
		if isColorEmpty(c) {
			t.Errorf("DefaultTheme %s color is empty", name)
		}
	}
}

func isColorEmpty(c lipgloss.AdaptiveColor) bool {
	return c.Light == "" && c.Dark == ""
}

func TestIndicatorColor(t *testing.T) {
	theme := TestTheme()

	tests := []struct {
		name        string
		hasChildren bool
		open        bool
		want        lipgloss.AdaptiveColor
	}{
		{"leaf", false, false, theme.Leaf},
		{"leaf flagged open", false, true, theme.Leaf},
		{"open", true, true, theme.Open},
		{"collapsed", true, false, theme.Collapsed},
	}
	for _, tt := range tests {
		if got := theme.IndicatorColor(tt.hasChildren, tt.open); got != tt.want {
			t.Errorf("%s: IndicatorColor = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestThemeFg(t *testing.T) {
	saved := TermProfile
	defer func() { TermProfile = saved }()

	TermProfile = colorprofile.TrueColor
	if got := ThemeFg("#F8F8F2"); got != lipgloss.Color("#F8F8F2") {
		t.Errorf("ThemeFg on truecolor = %v", got)
	}

	TermProfile = colorprofile.ANSI
	if got := ThemeFg("#F8F8F2"); got != lipgloss.ANSIColor(7) {
		t.Errorf("ThemeFg on ANSI = %v, want ANSIColor(7)", got)
	}
}
