package ui

import "github.com/charmbracelet/lipgloss"

// Footer palette; the tree itself is styled through Theme.
var (
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
)

// RenderKeyHint renders "key action" pairs for the footer, e.g. "? help".
func RenderKeyHint(key, action string) string {
	return lipgloss.NewStyle().Foreground(ColorInfo).Bold(true).Render(key) +
		" " + lipgloss.NewStyle().Foreground(ColorMuted).Render(action)
}
