// tree.go - Hierarchical tree view over a treestate.State
package ui

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treestate/pkg/export"
	"github.com/vanderheijden86/treestate/pkg/metrics"
	"github.com/vanderheijden86/treestate/pkg/model"
	"github.com/vanderheijden86/treestate/pkg/treestate"
	"github.com/vanderheijden86/treestate/pkg/virtual"
)

// TreeState is the persisted open set of one tree file.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "opened": [1, "docs", 42]
//	}
//
// A missing or corrupted file leaves the state's own seeding in place.
type TreeState struct {
	Version int            `json:"version"`
	Opened  []model.NodeID `json:"opened"`
}

// TreeStateVersion is the current schema version for tree persistence
const TreeStateVersion = 1

// SetStatePath enables persistence of the open set to path and applies any
// state already saved there. An empty path disables persistence.
func (t *TreeModel[T]) SetStatePath(path string) {
	t.statePath = path
	t.loadState()
}

// SaveStateTo enables persistence of the open set to path without restoring
// what is saved there.
func (t *TreeModel[T]) SaveStateTo(path string) {
	t.statePath = path
}

// saveState persists the current open set. Errors are logged but do not
// interrupt the user experience.
func (t *TreeModel[T]) saveState() {
	if t.statePath == "" {
		return
	}
	state := TreeState{Version: TreeStateVersion, Opened: t.state.OpenIDs()}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Printf("warning: failed to marshal tree state: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(t.statePath), 0755); err != nil {
		log.Printf("warning: failed to create state directory: %v", err)
		return
	}
	if err := os.WriteFile(t.statePath, data, 0644); err != nil {
		log.Printf("warning: failed to write tree state to %s: %v", t.statePath, err)
	}
}

// loadState restores the open set from disk. Ids no longer in the tree are
// ignored.
func (t *TreeModel[T]) loadState() {
	if t.statePath == "" {
		return
	}
	data, err := os.ReadFile(t.statePath)
	if err != nil {
		return
	}
	var state TreeState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("warning: invalid tree state file, using defaults: %v", err)
		return
	}
	structure := t.state.Structure()
	t.state.CloseAll()
	for _, id := range state.Opened {
		if structure.Has(id) {
			t.state.Open(id)
		}
	}
	t.sync()
}

// TreeModel manages cursor, scrolling, search and edit intents over a State.
// The State owns structure and open set; TreeModel owns everything the user
// sees on top of it.
type TreeModel[T any] struct {
	state   *treestate.State[T]
	label   func(*model.Node[T]) string
	newNode func(id model.NodeID, label string) *model.Node[T]
	theme   Theme

	window   *virtual.Window
	cursor   int
	selected model.NodeID // id under the cursor, kept across rebuilds
	syncGen  uint64
	width    int
	height   int
	pageSize int
	guides   bool
	indent   int

	statePath string

	// Search state
	searchMode       bool
	searchQuery      string
	searchMatches    []model.NodeID
	searchMatchIndex int
	searchMatchIDs   map[model.NodeID]bool

	// Move state
	marked  model.NodeID
	hasMark bool
}

// NewTreeModel creates a tree view over state. label renders a node's text;
// nil uses the id. newNode builds nodes for insertion; nil disables inserts.
func NewTreeModel[T any](state *treestate.State[T], label func(*model.Node[T]) string,
	newNode func(model.NodeID, string) *model.Node[T], theme Theme) TreeModel[T] {
	if label == nil {
		label = func(n *model.Node[T]) string { return n.ID.String() }
	}
	t := TreeModel[T]{
		state:   state,
		label:   label,
		newNode: newNode,
		theme:   theme,
		window:  virtual.New(0, virtual.FixedSize(1), 0),
		guides:  true,
		indent:  4,
		syncGen: ^uint64(0),
	}
	t.sync()
	return t
}

// State returns the underlying state.
func (t *TreeModel[T]) State() *treestate.State[T] {
	return t.state
}

// SetSize sets the area available to View, including the header row.
func (t *TreeModel[T]) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.window.SetViewport(t.effectiveVisibleCount())
	t.ensureCursorVisible()
}

// SetGuides switches between connector guides and plain indentation.
func (t *TreeModel[T]) SetGuides(on bool) { t.guides = on }

// SetIndent sets the columns per depth level used without guides.
func (t *TreeModel[T]) SetIndent(n int) {
	if n > 0 {
		t.indent = n
	}
}

// SetPageSize sets the rows moved by PageUp/PageDown; 0 means half the viewport.
func (t *TreeModel[T]) SetPageSize(n int) { t.pageSize = max(n, 0) }

// sync re-reads the flattened list after any change to the state and puts the
// cursor back on the previously selected id when it is still visible.
func (t *TreeModel[T]) sync() {
	gen := t.state.Generation()
	if gen == t.syncGen {
		return
	}
	t.syncGen = gen
	flat := t.state.Flattened()
	t.window.SetCount(len(flat))

	if idx := t.state.IndexOf(t.selected); idx >= 0 {
		t.cursor = idx
	} else {
		t.cursor = min(t.cursor, len(flat)-1)
		t.cursor = max(t.cursor, 0)
	}
	t.updateSelected()
	t.ensureCursorVisible()
}

func (t *TreeModel[T]) updateSelected() {
	flat := t.state.Flattened()
	if t.cursor < len(flat) {
		t.selected = flat[t.cursor].ID()
	}
}

func (t *TreeModel[T]) setCursor(i int) {
	n := len(t.state.Flattened())
	if n == 0 {
		return
	}
	t.cursor = min(max(i, 0), n-1)
	t.updateSelected()
	t.ensureCursorVisible()
}

// changed is called after the view itself modified the state.
func (t *TreeModel[T]) changed() {
	t.sync()
	t.saveState()
}

// Refresh picks up changes made to the state from outside the view, such as
// a reload from disk.
func (t *TreeModel[T]) Refresh() {
	t.sync()
	if t.hasMark && !t.state.Structure().Has(t.marked) {
		t.hasMark = false
	}
}

// ── Rendering ──

// View renders the header row, the visible rows and, when needed, the
// position indicator and search bar. Only rows inside the window are rendered.
func (t *TreeModel[T]) View() string {
	defer metrics.Timer(metrics.UIRender)()
	t.sync()
	flat := t.state.Flattened()
	if len(flat) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder
	sb.WriteString(t.RenderHeader())
	sb.WriteString("\n")

	start, end := t.visibleRange()
	lines := treestate.RenderRange(t.state, start, end, func(e treestate.FlatEntry[T], _ treestate.EntryActions) string {
		return t.renderNode(e, e.FlatIndex == t.cursor)
	})
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if len(flat) > t.effectiveVisibleCount() {
		sb.WriteString(t.renderPositionIndicator(start, end))
	}
	if t.searchMode {
		sb.WriteString("\n")
		sb.WriteString(t.renderSearchBar())
	}
	return sb.String()
}

// RenderHeader returns the styled header row.
func (t *TreeModel[T]) RenderHeader() string {
	width := t.width
	if width <= 0 {
		width = 80
	}
	structure := t.state.Structure()
	title := fmt.Sprintf("TREE  %d items · %d visible · %d open",
		structure.Len(), len(t.state.Flattened()), len(t.state.OpenIDs()))
	if t.hasMark {
		title += " · moving " + t.marked.String()
	}
	return t.theme.Header.Width(width).Render(truncate(title, width-2))
}

func (t *TreeModel[T]) renderEmptyState() string {
	var sb strings.Builder
	sb.WriteString(t.theme.PrimaryBold.Render("Tree View"))
	sb.WriteString("\n\n")
	sb.WriteString(t.theme.MutedText.Render("The tree is empty."))
	if t.newNode != nil {
		sb.WriteString("\n\n")
		sb.WriteString(t.theme.MutedText.Render("Press a to add a root node."))
	}
	return sb.String()
}

// renderNode renders one row: [guide or indent] [indicator] [label] [id].
func (t *TreeModel[T]) renderNode(e treestate.FlatEntry[T], isSelected bool) string {
	width := t.width
	if width <= 0 {
		width = 80
	}
	// Reduce width by 1 to prevent terminal wrapping on the exact edge
	width--

	row := export.EntryRow(e, t.label)
	var prefix string
	if t.guides {
		prefix = export.Guide(row)
	} else {
		prefix = strings.Repeat(" ", row.Depth*t.indent)
	}
	indicator := export.Indicator(row)
	id := e.ID()

	labelWidth := width - lipgloss.Width(prefix) - lipgloss.Width(indicator) - 1
	idText := ""
	if row.Label != id.String() {
		idText = " " + id.String()
		labelWidth -= lipgloss.Width(idText)
	}
	label := truncate(row.Label, max(labelWidth, 1))

	if isSelected {
		line := prefix + indicator + " " + label + idText
		return t.theme.Selected.Render(padRight(line, width))
	}

	r := t.theme.Renderer
	var sb strings.Builder
	sb.WriteString(t.theme.GuideText.Render(prefix))
	sb.WriteString(r.NewStyle().Foreground(t.theme.IndicatorColor(row.HasChildren, row.Open)).Render(indicator))
	sb.WriteString(" ")
	switch {
	case t.hasMark && id == t.marked:
		sb.WriteString(t.theme.MarkedText.Render(label))
	case t.searchMatchIDs[id]:
		sb.WriteString(t.theme.MatchText.Render(label))
	default:
		sb.WriteString(t.theme.Base.Render(label))
	}
	if idText != "" {
		sb.WriteString(t.theme.MutedText.Render(idText))
	}
	return sb.String()
}

// renderPositionIndicator renders "Page X/Y (start-end of total)".
func (t *TreeModel[T]) renderPositionIndicator(start, end int) string {
	total := len(t.state.Flattened())
	pageSize := max(t.effectiveVisibleCount(), 1)
	totalPages := max((total+pageSize-1)/pageSize, 1)
	currentPage := min(t.window.Offset()/pageSize+1, totalPages)
	indicator := fmt.Sprintf(" Page %d/%d (%d-%d of %d)", currentPage, totalPages, start+1, end, total)
	return t.theme.MutedText.Render(indicator)
}

func (t *TreeModel[T]) renderSearchBar() string {
	matchInfo := ""
	if len(t.searchMatches) > 0 {
		matchInfo = fmt.Sprintf(" [%d/%d]", t.searchMatchIndex+1, len(t.searchMatches))
	} else if t.searchQuery != "" {
		matchInfo = " [no matches]"
	}
	return t.theme.PrimaryBold.Render(fmt.Sprintf("/%s%s", t.searchQuery, matchInfo))
}

// ── Viewport ──

// effectiveVisibleCount is the number of rows that fit under the header,
// leaving a line for the position indicator when the list scrolls.
func (t *TreeModel[T]) effectiveVisibleCount() int {
	visibleCount := t.height - 1 // subtract 1 for header row
	if visibleCount <= 0 {
		visibleCount = 19 // Default: 20 minus 1 for header
	}
	if t.searchMode {
		visibleCount--
	}
	if len(t.state.Flattened()) > visibleCount {
		visibleCount--
	}
	return max(visibleCount, 1)
}

func (t *TreeModel[T]) visibleRange() (start, end int) {
	t.window.SetViewport(t.effectiveVisibleCount())
	return t.window.VisibleRange()
}

func (t *TreeModel[T]) ensureCursorVisible() {
	t.window.SetViewport(t.effectiveVisibleCount())
	t.window.ScrollToIndex(t.cursor, virtual.AlignAuto)
}

// ViewportOffset returns the index of the first visible row.
func (t *TreeModel[T]) ViewportOffset() int {
	return t.window.Offset()
}

// ── Selection and navigation ──

// Cursor returns the flat index of the selected row.
func (t *TreeModel[T]) Cursor() int { return t.cursor }

// SelectedID returns the id under the cursor.
func (t *TreeModel[T]) SelectedID() (model.NodeID, bool) {
	t.sync()
	flat := t.state.Flattened()
	if t.cursor < 0 || t.cursor >= len(flat) {
		return model.NodeID{}, false
	}
	return flat[t.cursor].ID(), true
}

// SelectByID moves the cursor to id when it is visible.
func (t *TreeModel[T]) SelectByID(id model.NodeID) bool {
	t.sync()
	idx := t.state.IndexOf(id)
	if idx < 0 {
		return false
	}
	t.setCursor(idx)
	return true
}

// MoveDown moves the cursor down in the flat list.
func (t *TreeModel[T]) MoveDown() { t.setCursor(t.cursor + 1) }

// MoveUp moves the cursor up in the flat list.
func (t *TreeModel[T]) MoveUp() { t.setCursor(t.cursor - 1) }

// JumpToTop moves cursor to the first row.
func (t *TreeModel[T]) JumpToTop() { t.setCursor(0) }

// JumpToBottom moves cursor to the last row.
func (t *TreeModel[T]) JumpToBottom() { t.setCursor(len(t.state.Flattened()) - 1) }

func (t *TreeModel[T]) pageStep() int {
	if t.pageSize > 0 {
		return t.pageSize
	}
	return max(t.effectiveVisibleCount()/2, 1)
}

// PageDown moves cursor down by a page step.
func (t *TreeModel[T]) PageDown() { t.setCursor(t.cursor + t.pageStep()) }

// PageUp moves cursor up by a page step.
func (t *TreeModel[T]) PageUp() { t.setCursor(t.cursor - t.pageStep()) }

func (t *TreeModel[T]) selectedEntry() (treestate.FlatEntry[T], bool) {
	t.sync()
	flat := t.state.Flattened()
	if t.cursor < 0 || t.cursor >= len(flat) {
		return treestate.FlatEntry[T]{}, false
	}
	return flat[t.cursor], true
}

// JumpToParent moves cursor to the parent of the selected row.
func (t *TreeModel[T]) JumpToParent() {
	e, ok := t.selectedEntry()
	if !ok || e.Parent.IsRoot {
		return
	}
	t.SelectByID(e.Parent.ID)
}

// existingSiblings returns the selected row's sibling collection with
// dangling ids dropped, plus the row's index in it.
func (t *TreeModel[T]) existingSiblings() (treestate.FlatEntry[T], []model.NodeID, int) {
	e, ok := t.selectedEntry()
	if !ok {
		return e, nil, -1
	}
	structure := t.state.Structure()
	ids, _ := structure.Siblings(e.Parent)
	var out []model.NodeID
	idx := -1
	for _, id := range ids {
		if !structure.Has(id) {
			continue
		}
		if id == e.ID() {
			idx = len(out)
		}
		out = append(out, id)
	}
	return e, out, idx
}

// NextSibling moves cursor to the next sibling at the same depth.
func (t *TreeModel[T]) NextSibling() {
	_, sibs, i := t.existingSiblings()
	if i >= 0 && i < len(sibs)-1 {
		t.SelectByID(sibs[i+1])
	}
}

// PrevSibling moves cursor to the previous sibling at the same depth.
func (t *TreeModel[T]) PrevSibling() {
	_, sibs, i := t.existingSiblings()
	if i > 0 {
		t.SelectByID(sibs[i-1])
	}
}

// ── Open state ──

// ToggleExpand opens or closes the selected node.
func (t *TreeModel[T]) ToggleExpand() {
	e, ok := t.selectedEntry()
	if !ok || !e.Item.HasChildren() {
		return
	}
	t.state.ToggleOpen(e.ID())
	t.changed()
}

// ExpandOrMoveToChild opens a closed node, or moves to the first child of an
// open one. Leaves are left alone.
func (t *TreeModel[T]) ExpandOrMoveToChild() {
	e, ok := t.selectedEntry()
	if !ok || !e.Item.HasChildren() {
		return
	}
	if !t.state.IsOpen(e.ID()) {
		t.state.Open(e.ID())
		t.changed()
		return
	}
	flat := t.state.Flattened()
	if next := t.cursor + 1; next < len(flat) && flat[next].Depth > e.Depth {
		t.setCursor(next)
	}
}

// CollapseOrJumpToParent closes an open node, otherwise jumps to the parent.
func (t *TreeModel[T]) CollapseOrJumpToParent() {
	e, ok := t.selectedEntry()
	if !ok {
		return
	}
	if e.Item.HasChildren() && t.state.IsOpen(e.ID()) {
		t.state.Close(e.ID())
		t.changed()
		return
	}
	t.JumpToParent()
}

// ExpandAll opens every node.
func (t *TreeModel[T]) ExpandAll() {
	t.state.OpenAll()
	t.changed()
}

// CollapseAll closes every node. The cursor falls back to the root the
// selection was under.
func (t *TreeModel[T]) CollapseAll() {
	if id, ok := t.SelectedID(); ok {
		if path := t.state.Path(id); len(path) > 0 {
			t.selected = path[0]
		}
	}
	t.state.CloseAll()
	t.changed()
}

// ExpandToLevel shows levels 1..level: '1' shows only roots, '2' roots and
// their children, and so on. The cursor moves to the nearest visible ancestor
// when its row gets hidden.
func (t *TreeModel[T]) ExpandToLevel(level int) {
	if id, ok := t.SelectedID(); ok {
		if path := t.state.Path(id); len(path) > level && level > 0 {
			t.selected = path[level-1]
		}
	}
	t.state.ExpandToLevel(level)
	t.changed()
}

// ── Search ──

// EnterSearchMode activates the search input bar.
func (t *TreeModel[T]) EnterSearchMode() {
	t.searchMode = true
	t.searchQuery = ""
	t.searchMatches = nil
	t.searchMatchIDs = nil
	t.searchMatchIndex = 0
}

// ExitSearchMode deactivates the search input bar but keeps matches highlighted.
func (t *TreeModel[T]) ExitSearchMode() { t.searchMode = false }

// ClearSearch deactivates search mode and removes all match state.
func (t *TreeModel[T]) ClearSearch() {
	t.EnterSearchMode()
	t.searchMode = false
}

// IsSearchMode returns whether the search input bar is active.
func (t *TreeModel[T]) IsSearchMode() bool { return t.searchMode }

// SearchQuery returns the current search query string.
func (t *TreeModel[T]) SearchQuery() string { return t.searchQuery }

// SearchMatchCount returns the number of nodes matching the current search.
func (t *TreeModel[T]) SearchMatchCount() int { return len(t.searchMatches) }

// SearchAddChar appends a character to the query and re-runs the search.
func (t *TreeModel[T]) SearchAddChar(ch rune) {
	t.searchQuery += string(ch)
	t.executeSearch()
}

// SearchBackspace removes the last character from the query.
func (t *TreeModel[T]) SearchBackspace() {
	if runes := []rune(t.searchQuery); len(runes) > 0 {
		t.searchQuery = string(runes[:len(runes)-1])
	}
	if t.searchQuery == "" {
		t.searchMatches = nil
		t.searchMatchIDs = nil
		t.searchMatchIndex = 0
		return
	}
	t.executeSearch()
}

// executeSearch matches every node, closed subtrees included, in pre-order
// and reveals the first match.
func (t *TreeModel[T]) executeSearch() {
	t.searchMatches = nil
	t.searchMatchIDs = make(map[model.NodeID]bool)
	t.searchMatchIndex = 0
	if t.searchQuery == "" {
		return
	}
	query := strings.ToLower(t.searchQuery)

	structure := t.state.Structure()
	seen := make(map[model.NodeID]bool)
	stack := make([]model.NodeID, 0, len(structure.RootIDs))
	for i := len(structure.RootIDs) - 1; i >= 0; i-- {
		stack = append(stack, structure.RootIDs[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := structure.Get(id)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		if strings.Contains(strings.ToLower(t.label(n)), query) ||
			strings.Contains(strings.ToLower(id.String()), query) {
			t.searchMatches = append(t.searchMatches, id)
			t.searchMatchIDs[id] = true
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}

	if len(t.searchMatches) > 0 {
		t.revealMatch()
	}
}

func (t *TreeModel[T]) revealMatch() {
	id := t.searchMatches[t.searchMatchIndex]
	t.state.OpenPathTo(id)
	t.selected = id
	t.changed()
}

// NextSearchMatch cycles forward through search matches.
func (t *TreeModel[T]) NextSearchMatch() {
	if len(t.searchMatches) == 0 {
		return
	}
	t.searchMatchIndex = (t.searchMatchIndex + 1) % len(t.searchMatches)
	t.revealMatch()
}

// PrevSearchMatch cycles backward through search matches.
func (t *TreeModel[T]) PrevSearchMatch() {
	if len(t.searchMatches) == 0 {
		return
	}
	t.searchMatchIndex = (t.searchMatchIndex - 1 + len(t.searchMatches)) % len(t.searchMatches)
	t.revealMatch()
}

// ── Structural edits ──

// CanInsert reports whether the view was given a node constructor.
func (t *TreeModel[T]) CanInsert() bool { return t.newNode != nil }

// InsertChild adds a node labelled label as the last child of the selected
// node, or as the last root when the tree is empty, and selects it.
func (t *TreeModel[T]) InsertChild(label string) (model.NodeID, bool) {
	if t.newNode == nil {
		return model.NodeID{}, false
	}
	parent := model.Root()
	if id, ok := t.SelectedID(); ok {
		parent = model.Under(id)
	}
	return t.insert(parent, model.Last(), label)
}

// InsertSibling adds a node labelled label right after the selected node.
func (t *TreeModel[T]) InsertSibling(label string) (model.NodeID, bool) {
	if t.newNode == nil {
		return model.NodeID{}, false
	}
	e, ok := t.selectedEntry()
	if !ok {
		return t.insert(model.Root(), model.Last(), label)
	}
	return t.insert(e.Parent, model.After(e.ID()), label)
}

func (t *TreeModel[T]) insert(parent model.ParentRef, pos model.Position, label string) (model.NodeID, bool) {
	before := t.state.Structure()
	id := NextID(before)
	t.state.InsertItem(parent, t.newNode(id, label), pos)
	if t.state.Structure() == before {
		return model.NodeID{}, false
	}
	if !parent.IsRoot {
		t.state.Open(parent.ID)
	}
	t.selected = id
	t.changed()
	return id, true
}

// RemoveSelected deletes the selected node and its subtree. The cursor stays
// on the same row index.
func (t *TreeModel[T]) RemoveSelected() (model.NodeID, int, bool) {
	e, ok := t.selectedEntry()
	if !ok {
		return model.NodeID{}, 0, false
	}
	id := e.ID()
	count := 1 + len(t.state.Descendants(id))
	before := t.state.Structure()
	t.state.RemoveItem(id)
	if t.state.Structure() == before {
		return id, 0, false
	}
	if t.hasMark && (t.marked == id || !t.state.Structure().Has(t.marked)) {
		t.hasMark = false
	}
	t.changed()
	return id, count, true
}

// Mark selects the node to move with PasteAfter or PasteInto. Marking the
// marked node again clears the mark.
func (t *TreeModel[T]) Mark() {
	id, ok := t.SelectedID()
	if !ok {
		return
	}
	if t.hasMark && t.marked == id {
		t.hasMark = false
		return
	}
	t.marked, t.hasMark = id, true
}

// ClearMark drops the pending move.
func (t *TreeModel[T]) ClearMark() { t.hasMark = false }

// Marked returns the node waiting to be moved.
func (t *TreeModel[T]) Marked() (model.NodeID, bool) { return t.marked, t.hasMark }

// PasteAfter moves the marked node to just after the selected node.
func (t *TreeModel[T]) PasteAfter() error {
	e, ok := t.selectedEntry()
	if !ok || !t.hasMark {
		return fmt.Errorf("nothing marked")
	}
	if e.ID() == t.marked {
		return fmt.Errorf("cannot move %s next to itself", t.marked)
	}
	if !e.Parent.IsRoot && !t.state.CanMoveItem(t.marked, e.Parent.ID) {
		return fmt.Errorf("cannot move %s into its own subtree", t.marked)
	}
	return t.move(model.MoveTarget{Parent: e.Parent, Position: model.After(e.ID())})
}

// PasteInto moves the marked node to the end of the selected node's children.
func (t *TreeModel[T]) PasteInto() error {
	id, ok := t.SelectedID()
	if !ok || !t.hasMark {
		return fmt.Errorf("nothing marked")
	}
	if !t.state.CanMoveItem(t.marked, id) {
		return fmt.Errorf("cannot move %s into its own subtree", t.marked)
	}
	if err := t.move(model.MoveTarget{Parent: model.Under(id), Position: model.Last()}); err != nil {
		return err
	}
	return nil
}

func (t *TreeModel[T]) move(target model.MoveTarget) error {
	source := t.marked
	before := t.state.Structure()
	t.state.MoveItem(source, target)
	if t.state.Structure() == before {
		return fmt.Errorf("move of %s was rejected", source)
	}
	if !target.Parent.IsRoot {
		t.state.Open(target.Parent.ID)
	}
	t.hasMark = false
	t.selected = source
	t.changed()
	return nil
}

// MoveSelectedBy shifts the selected node delta places among its siblings.
func (t *TreeModel[T]) MoveSelectedBy(delta int) bool {
	e, sibs, i := t.existingSiblings()
	if i < 0 {
		return false
	}
	to := i + delta
	if to < 0 || to >= len(sibs) || to == i {
		return false
	}
	// Anchor on the neighbour so dangling ids in the collection are irrelevant.
	pos := model.After(sibs[to])
	if delta < 0 {
		pos = model.Before(sibs[to])
	}
	before := t.state.Structure()
	t.state.MoveItem(e.ID(), model.MoveTarget{Parent: e.Parent, Position: pos})
	if t.state.Structure() == before {
		return false
	}
	t.selected = e.ID()
	t.changed()
	return true
}

// SelectedPath returns the root-to-selection path.
func (t *TreeModel[T]) SelectedPath() []model.NodeID {
	id, ok := t.SelectedID()
	if !ok {
		return nil
	}
	return t.state.Path(id)
}

// Reset discards local edits and open-state changes.
func (t *TreeModel[T]) Reset() {
	t.state.Reset()
	t.hasMark = false
	t.changed()
}
