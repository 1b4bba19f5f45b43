package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
)

// OutlineOptions controls WriteOutline.
type OutlineOptions struct {
	Guides     bool // draw │ ├── └── connectors; otherwise indent with spaces
	Indicators bool // prefix labels with • ▾ ▸
	Indent     int  // columns per depth when Guides is off; 0 means 4
	Width      int  // truncate lines to this display width; 0 means no limit
}

// WriteOutline writes one line per row.
func WriteOutline(w io.Writer, rows []Row, opts OutlineOptions) error {
	indent := opts.Indent
	if indent <= 0 {
		indent = 4
	}
	bw := bufio.NewWriter(w)
	for _, r := range rows {
		var line strings.Builder
		if opts.Guides {
			line.WriteString(Guide(r))
		} else {
			line.WriteString(strings.Repeat(" ", r.Depth*indent))
		}
		if opts.Indicators {
			line.WriteString(Indicator(r))
			line.WriteByte(' ')
		}
		line.WriteString(r.Label)

		text := line.String()
		if opts.Width > 0 && runewidth.StringWidth(text) > opts.Width {
			text = runewidth.Truncate(text, opts.Width, "…")
		}
		if _, err := fmt.Fprintln(bw, text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Outline returns WriteOutline's output as a string.
func Outline(rows []Row, opts OutlineOptions) string {
	var sb strings.Builder
	_ = WriteOutline(&sb, rows, opts)
	return sb.String()
}

type jsonDoc struct {
	Title string `json:"title,omitempty"`
	Rows  []Row  `json:"rows"`
}

// WriteJSON writes the rows as an indented JSON document.
func WriteJSON(w io.Writer, title string, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	data, err := json.MarshalIndent(jsonDoc{Title: title, Rows: rows}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling rows: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
