package model

import "fmt"

// Attrs is the free-form payload used when trees are read from files.
type Attrs map[string]any

// labelKeys are tried in order by Label.
var labelKeys = []string{"label", "title", "name"}

// Label returns the first of label, title or name that is set, or "".
func (a Attrs) Label() string {
	for _, k := range labelKeys {
		v, ok := a[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

// NodeLabel returns the payload label of n, falling back to its id.
func NodeLabel(n *Node[Attrs]) string {
	if n == nil {
		return ""
	}
	if l := n.Data.Label(); l != "" {
		return l
	}
	return n.ID.String()
}
