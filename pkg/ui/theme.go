package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile is the color profile of stdout, detected once.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Node states
	Open      lipgloss.AdaptiveColor
	Collapsed lipgloss.AdaptiveColor
	Leaf      lipgloss.AdaptiveColor
	Marked    lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style

	// Row styles, built once per theme
	GuideText   lipgloss.Style // connector glyphs
	MutedText   lipgloss.Style // ids, position indicator
	PrimaryBold lipgloss.Style // search bar, titles
	MatchText   lipgloss.Style // search match highlight
	MarkedText  lipgloss.Style // node marked for move
	StatusOK    lipgloss.Style
	StatusErr   lipgloss.Style
}

// DefaultTheme is a Dracula-style palette with light-terminal fallbacks.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Open:      lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
		Collapsed: lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}, // Orange
		Leaf:      lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Marked:    lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}, // Cyan

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Error:     lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.GuideText = r.NewStyle().Foreground(t.Border)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.MatchText = r.NewStyle().Foreground(ThemeFg("#F1FA8C")).Underline(true)
	t.MarkedText = r.NewStyle().Foreground(t.Marked).Italic(true)
	t.StatusOK = r.NewStyle().Foreground(t.Open)
	t.StatusErr = r.NewStyle().Foreground(t.Error).Bold(true)

	return t
}

// IndicatorColor returns the color for an expand indicator.
func (t Theme) IndicatorColor(hasChildren, open bool) lipgloss.AdaptiveColor {
	switch {
	case !hasChildren:
		return t.Leaf
	case open:
		return t.Open
	default:
		return t.Collapsed
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(io.Discard))
}
