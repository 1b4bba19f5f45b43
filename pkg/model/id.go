package model

import (
	"bytes"
	"cmp"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type idKind uint8

const (
	kindString idKind = iota
	kindInt
)

// NodeID identifies a node. It holds either an integer or a string and compares
// by value, so it can be used directly as a map key. IntID(1) and StringID("1")
// are different ids.
type NodeID struct {
	kind idKind
	num  int64
	str  string
}

// IntID returns an integer node id.
func IntID(n int64) NodeID {
	return NodeID{kind: kindInt, num: n}
}

// StringID returns a string node id.
func StringID(s string) NodeID {
	return NodeID{kind: kindString, str: s}
}

// IsInt reports whether the id holds an integer.
func (id NodeID) IsInt() bool {
	return id.kind == kindInt
}

// Int returns the integer value and true for integer ids.
func (id NodeID) Int() (int64, bool) {
	return id.num, id.kind == kindInt
}

// String returns the id in display form. Integer ids render as decimals.
func (id NodeID) String() string {
	if id.kind == kindInt {
		return strconv.FormatInt(id.num, 10)
	}
	return id.str
}

// GoString keeps the two id kinds distinguishable in %#v output and test failures.
func (id NodeID) GoString() string {
	if id.kind == kindInt {
		return fmt.Sprintf("IntID(%d)", id.num)
	}
	return fmt.Sprintf("StringID(%q)", id.str)
}

// CompareIDs orders integer ids before string ids, integers numerically and
// strings lexically. Used wherever a deterministic id order is needed.
func CompareIDs(a, b NodeID) int {
	if a.kind != b.kind {
		if a.kind == kindInt {
			return -1
		}
		return 1
	}
	if a.kind == kindInt {
		return cmp.Compare(a.num, b.num)
	}
	return cmp.Compare(a.str, b.str)
}

// ParseID interprets s as an integer id when it is a base-10 integer and as a
// string id otherwise. Used for ids typed on the command line.
func ParseID(s string) NodeID {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntID(n)
	}
	return StringID(s)
}

// MarshalJSON writes integer ids as JSON numbers and string ids as JSON strings.
func (id NodeID) MarshalJSON() ([]byte, error) {
	if id.kind == kindInt {
		return strconv.AppendInt(nil, id.num, 10), nil
	}
	return json.Marshal(id.str)
}

// UnmarshalJSON accepts a JSON string or an integral JSON number.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("node id cannot be null")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid node id %s: %w", data, err)
		}
		*id = StringID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("node id must be a string or an integer, got %s", data)
	}
	*id = IntID(n)
	return nil
}

// MarshalYAML writes integer ids as YAML ints and string ids as YAML strings.
func (id NodeID) MarshalYAML() (any, error) {
	if id.kind == kindInt {
		return id.num, nil
	}
	return id.str, nil
}

// UnmarshalYAML accepts a scalar; plain integers (tag !!int) become integer ids.
func (id *NodeID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: node id must be a scalar", value.Line)
	}
	if value.Tag == "!!int" {
		n, err := strconv.ParseInt(value.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid integer node id %q: %w", value.Line, value.Value, err)
		}
		*id = IntID(n)
		return nil
	}
	if value.Tag == "!!null" {
		return fmt.Errorf("line %d: node id cannot be null", value.Line)
	}
	*id = StringID(value.Value)
	return nil
}
