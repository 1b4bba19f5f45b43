// Package loader reads normalized trees from files.
//
// Three formats are understood, chosen by file extension:
//
//	.json        {"rootIds": [...], "items": {"<key>": {"id", "children", "isOpened", "customData"}}}
//	.yaml, .yml  the same document in YAML
//	.jsonl       one parent-link record per line: {"id", "parent", "isOpened", "customData"}
//
// In documents the node's own id field is authoritative; the item key is only
// used when the node omits it, and is then read the way ParseID reads it.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treestate/pkg/debug"
	"github.com/vanderheijden86/treestate/pkg/metrics"
	"github.com/vanderheijden86/treestate/pkg/model"
)

// ErrUnsupportedFormat is returned for file extensions no parser handles.
var ErrUnsupportedFormat = errors.New("unsupported tree file format")

// Format identifies a tree file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatJSONL
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatJSONL:
		return "jsonl"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// DetectFormat picks the format from the path's extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// DefaultMaxBufferSize is the default buffer size for the line reader (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// ParseOptions configures parsing.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., malformed records).
	// If nil, warnings are printed to os.Stderr.
	WarningHandler func(string)

	// BufferSize sets the maximum line size (in bytes) for JSONL input.
	// Lines longer than this are skipped with a warning.
	// If 0, uses DefaultMaxBufferSize (10MB).
	BufferSize int
}

func (o ParseOptions) warn() func(string) {
	if o.WarningHandler != nil {
		return o.WarningHandler
	}
	if os.Getenv("TREESTATE_QUIET") == "1" {
		return func(string) {}
	}
	return func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}

// LoadFile reads a tree from path, choosing the parser by extension.
func LoadFile[T any](path string, opts ParseOptions) (*model.Tree[T], error) {
	defer metrics.Timer(metrics.TreeLoad)()

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no tree file found at %s", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tree file: %w", err)
	}
	defer file.Close()

	tree, err := Parse[T](file, format, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	debug.Log("loader: %s (%s) -> %d items, %d roots", path, format, tree.Len(), len(tree.RootIDs))
	return tree, nil
}

// Parse decodes a tree in the given format.
func Parse[T any](r io.Reader, format Format, opts ParseOptions) (*model.Tree[T], error) {
	switch format {
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("error reading tree: %w", err)
		}
		var doc document[T]
		if err := json.Unmarshal(stripBOM(data), &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON tree: %w", err)
		}
		return doc.tree(opts.warn()), nil
	case FormatYAML:
		var doc document[T]
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return model.NewTree[T](), nil
			}
			return nil, fmt.Errorf("invalid YAML tree: %w", err)
		}
		return doc.tree(opts.warn()), nil
	case FormatJSONL:
		links, err := ParseLinks[T](r, opts)
		if err != nil {
			return nil, err
		}
		return model.FromParentLinks(links), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

type rawNode[T any] struct {
	ID       *model.NodeID  `json:"id" yaml:"id"`
	Children []model.NodeID `json:"children" yaml:"children"`
	IsOpened bool           `json:"isOpened" yaml:"isOpened"`
	Data     T              `json:"customData" yaml:"customData"`
}

type document[T any] struct {
	RootIDs []model.NodeID         `json:"rootIds" yaml:"rootIds"`
	Items   map[string]*rawNode[T] `json:"items" yaml:"items"`
}

// tree normalizes the decoded document. Keys are visited in sorted order so
// warnings and duplicate resolution are deterministic.
func (d *document[T]) tree(warn func(string)) *model.Tree[T] {
	t := &model.Tree[T]{
		RootIDs: d.RootIDs,
		Items:   make(map[model.NodeID]*model.Node[T], len(d.Items)),
	}
	keys := make([]string, 0, len(d.Items))
	for k := range d.Items {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		raw := d.Items[key]
		if raw == nil {
			warn(fmt.Sprintf("skipping item %q: null", key))
			continue
		}
		var id model.NodeID
		if raw.ID != nil {
			id = *raw.ID
			if id.String() != key {
				warn(fmt.Sprintf("item %q declares id %s; using the declared id", key, id))
			}
		} else {
			id = model.ParseID(key)
		}
		if _, dup := t.Items[id]; dup {
			warn(fmt.Sprintf("skipping item %q: duplicate id %s", key, id))
			continue
		}
		t.Items[id] = &model.Node[T]{ID: id, Children: raw.Children, IsOpened: raw.IsOpened, Data: raw.Data}
	}
	return t
}

// ParseLinks reads parent-link records, one JSON object per line. Malformed
// and overlong lines are skipped with a warning.
func ParseLinks[T any](r io.Reader, opts ParseOptions) ([]model.ParentLink[T], error) {
	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	warn := opts.warn()
	reader := getReader(r, maxCapacity)
	defer putReader(reader)

	var links []model.ParentLink[T]
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading tree stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			// Line too long. Discard the rest of the line.
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var link model.ParentLink[T]
		if err := json.Unmarshal(line, &link); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		if link.ID == model.StringID("") {
			warn(fmt.Sprintf("skipping line %d: missing id", lineNum))
			continue
		}
		links = append(links, link)
	}
	return links, nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
