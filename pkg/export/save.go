package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// Options bundles the settings Save passes to the individual exporters.
type Options struct {
	Title      string
	Outline    OutlineOptions
	Preset     string
	TotalItems int
}

// Save writes rows to path in the format its extension names.
func Save(path string, rows []Row, opts Options) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatSVG, FormatPNG:
		return SaveSnapshot(rows, SnapshotOptions{
			Path:       path,
			Format:     format,
			Title:      opts.Title,
			Preset:     opts.Preset,
			TotalItems: opts.TotalItems,
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if format == FormatJSON {
		err = WriteJSON(f, opts.Title, rows)
	} else {
		err = WriteOutline(f, rows, opts.Outline)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
