// Package export renders a flattened tree to static formats: a text outline
// with connector guides, a JSON row listing, and SVG/PNG snapshots.
//
// Exporters work on Rows, which BuildRows derives from treestate's flattened
// sequence, so whatever is open in the state is what gets exported.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/treestate/pkg/model"
	"github.com/vanderheijden86/treestate/pkg/treestate"
)

// Row is one exported line.
type Row struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Depth       int    `json:"depth"`
	Parent      int    `json:"parent"` // row index of the parent; -1 for roots
	Last        bool   `json:"last"`
	Open        bool   `json:"open"`
	HasChildren bool   `json:"hasChildren"`

	// Lines[d] is true when a guide line continues through column d.
	Lines []bool `json:"-"`
}

// BuildRows converts flattened entries. label may be nil, in which case the id
// is used.
func BuildRows[T any](entries []treestate.FlatEntry[T], label func(*model.Node[T]) string) []Row {
	rows := make([]Row, len(entries))
	rowOf := make(map[model.NodeID]int, len(entries))
	for i, e := range entries {
		rowOf[e.ID()] = i
		rows[i] = EntryRow(e, label)
		if !e.Parent.IsRoot {
			if p, ok := rowOf[e.Parent.ID]; ok {
				rows[i].Parent = p
			}
		}
	}
	return rows
}

// EntryRow converts a single entry. Parent is left at -1 since a lone entry
// has no row numbering to refer to.
func EntryRow[T any](e treestate.FlatEntry[T], label func(*model.Node[T]) string) Row {
	lines := make([]bool, e.Depth)
	for d := range lines {
		lines[d] = e.CompleteDepths[d]
	}
	text := e.ID().String()
	if label != nil {
		text = label(e.Item)
	}
	return Row{
		ID:          e.ID().String(),
		Label:       text,
		Depth:       e.Depth,
		Parent:      -1,
		Last:        e.IsLastInDepth,
		Open:        e.Item.IsOpened,
		HasChildren: e.Item.HasChildren(),
		Lines:       lines,
	}
}

// Guide returns the connector prefix for r: one column per ancestor below the
// roots, then the branch glyph. Roots have no prefix, so the root level never
// draws a column.
func Guide(r Row) string {
	if r.Depth == 0 {
		return ""
	}
	var sb strings.Builder
	lines := r.Lines
	if len(lines) > 0 {
		lines = lines[1:]
	}
	for _, line := range lines {
		if line {
			sb.WriteString("│   ")
		} else {
			sb.WriteString("    ")
		}
	}
	if r.Last {
		sb.WriteString("└── ")
	} else {
		sb.WriteString("├── ")
	}
	return sb.String()
}

// Indicator returns the expand glyph: • for leaves, ▾ open, ▸ closed.
func Indicator(r Row) string {
	switch {
	case !r.HasChildren:
		return "•"
	case r.Open:
		return "▾"
	default:
		return "▸"
	}
}

// Format is an export file format.
type Format string

const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
)

// FormatFor infers the format from the path's extension.
func FormatFor(path string) (Format, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "txt", "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want txt, json, svg or png)", ext)
	}
}
