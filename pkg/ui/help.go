package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// HelpMarkdown renders the key map as a markdown reference.
func HelpMarkdown(k KeyMap) string {
	var b strings.Builder
	b.WriteString("# Tree View\n\n")
	for _, section := range k.helpSections() {
		fmt.Fprintf(&b, "## %s\n\n", section.title)
		b.WriteString("| Key | Action |\n|---|---|\n")
		for _, binding := range section.bindings {
			h := binding.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderHelp renders the help overlay for a terminal of the given size. The
// markdown is styled with glamour; if that fails the raw text is shown.
func RenderHelp(k KeyMap, theme Theme, width, height int) string {
	modalWidth := min(72, max(width-4, 20))

	content := HelpMarkdown(k)
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(modalWidth-8),
	)
	if err == nil {
		if out, rerr := renderer.Render(content); rerr == nil {
			content = out
		}
	}

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if maxLines := height - 6; maxLines > 0 && len(lines) > maxLines {
		lines = append(lines[:maxLines-1], theme.MutedText.Render("…"))
	}

	footer := theme.Renderer.NewStyle().Foreground(theme.Muted).Italic(true).Render("? or Esc to close")
	body := strings.Join(lines, "\n") + "\n\n" + footer

	modal := theme.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(0, 2).
		Width(modalWidth).
		Render(body)

	if width <= 0 || height <= 0 {
		return modal
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
