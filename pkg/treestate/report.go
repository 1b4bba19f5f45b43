package treestate

import (
	"fmt"
	"log"
	"strings"

	"github.com/vanderheijden86/treestate/pkg/model"
)

// Kind classifies a diagnostic.
type Kind string

const (
	// KindInvalidID: an operation named an id that is not in the tree.
	KindInvalidID Kind = "invalid-id"
	// KindDuplicateID: an insert reused an id that is already in the tree.
	KindDuplicateID Kind = "duplicate-id"
	// KindDanglingRef: rootIds or children lists an id with no node.
	KindDanglingRef Kind = "dangling-ref"
	// KindInvalidAnchor: a before/after anchor is not in the target collection.
	KindInvalidAnchor Kind = "invalid-anchor"
	// KindInvalidIndex: a numeric position is outside [0, len].
	KindInvalidIndex Kind = "invalid-index"
	// KindCycle: a traversal revisited a node, or a move would make a node its own ancestor.
	KindCycle Kind = "cycle"
	// KindInconsistentIndex: the parent index has no entry for an existing node.
	KindInconsistentIndex Kind = "inconsistent-index"
)

// Diagnostic is a non-fatal problem found while reading or editing a tree.
// The operation that produced it has already recovered.
type Diagnostic struct {
	Kind     Kind
	Op       string // operation name, e.g. "open", "insert", "flatten"
	Message  string
	ID       model.NodeID
	KnownIDs []model.NodeID // ids present in the tree at the time, when relevant; read-only, may be shared
}

// maxLoggedIDs caps the known-id list in String output.
const maxLoggedIDs = 20

func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s (%s): %s", d.Op, d.Kind, d.ID, d.Message)
	if len(d.KnownIDs) > 0 {
		ids := d.KnownIDs
		more := 0
		if len(ids) > maxLoggedIDs {
			more = len(ids) - maxLoggedIDs
			ids = ids[:maxLoggedIDs]
		}
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = id.String()
		}
		fmt.Fprintf(&sb, "; known ids: [%s", strings.Join(parts, " "))
		if more > 0 {
			fmt.Fprintf(&sb, " ... +%d more", more)
		}
		sb.WriteString("]")
	}
	return sb.String()
}

// Reporter receives diagnostics. It is the single channel through which the
// core reports problems; core operations never panic or return errors.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

type discardReporter struct{}

func (discardReporter) Report(Diagnostic) {}

// Discard drops every diagnostic. Operations skip building diagnostics for it.
var Discard Reporter = discardReporter{}

// LogReporter writes diagnostics as warnings. A nil Logger uses the standard logger.
type LogReporter struct {
	Logger *log.Logger
}

// Report logs d.
func (r LogReporter) Report(d Diagnostic) {
	if r.Logger != nil {
		r.Logger.Printf("warning: %s", d)
		return
	}
	log.Printf("warning: %s", d)
}

// Collector records diagnostics in memory.
type Collector struct {
	Diagnostics []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int { return len(c.Diagnostics) }

// Kinds returns the kinds of the collected diagnostics in order.
func (c *Collector) Kinds() []Kind {
	kinds := make([]Kind, len(c.Diagnostics))
	for i, d := range c.Diagnostics {
		kinds[i] = d.Kind
	}
	return kinds
}

// Reset drops collected diagnostics.
func (c *Collector) Reset() { c.Diagnostics = nil }

func orDiscard(r Reporter) Reporter {
	if r == nil {
		return Discard
	}
	return r
}

// knownIDs is the sorted id list attached to invalid-id and dangling-ref
// diagnostics. It is built on first use and shared by every diagnostic of one
// operation, so a walk over many dangling references sorts the ids once.
type knownIDs[T any] struct {
	t    *model.Tree[T]
	ids  []model.NodeID
	done bool
}

func (k *knownIDs[T]) get() []model.NodeID {
	if !k.done {
		k.ids = k.t.IDs()
		k.done = true
	}
	return k.ids
}

func report[T any](r Reporter, t *model.Tree[T], kind Kind, op string, id model.NodeID, format string, args ...any) {
	reportKnown(r, &knownIDs[T]{t: t}, kind, op, id, format, args...)
}

func reportKnown[T any](r Reporter, known *knownIDs[T], kind Kind, op string, id model.NodeID, format string, args ...any) {
	if _, ok := r.(discardReporter); ok {
		return
	}
	d := Diagnostic{Kind: kind, Op: op, ID: id, Message: fmt.Sprintf(format, args...)}
	if kind == KindInvalidID || kind == KindDanglingRef {
		d.KnownIDs = known.get()
	}
	r.Report(d)
}
