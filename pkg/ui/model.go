package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treestate/pkg/debug"
	"github.com/vanderheijden86/treestate/pkg/model"
	"github.com/vanderheijden86/treestate/pkg/treestate"
)

// FileChangedMsg is sent when the tree file changes on disk
type FileChangedMsg struct{}

// WatchFileCmd returns a command that waits for the next change and sends
// FileChangedMsg. A nil channel never fires.
func WatchFileCmd(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return FileChangedMsg{}
	}
}

// DiagnosticLog is a treestate.Reporter that remembers the latest diagnostic
// so the view can show rejected operations in its status line.
type DiagnosticLog struct {
	last  treestate.Diagnostic
	count int
}

// Report implements treestate.Reporter.
func (d *DiagnosticLog) Report(diag treestate.Diagnostic) {
	d.last = diag
	d.count++
	debug.Log("ui: diagnostic %s", diag)
}

// Count returns the number of diagnostics seen so far.
func (d *DiagnosticLog) Count() int { return d.count }

// Last returns the most recent diagnostic.
func (d *DiagnosticLog) Last() (treestate.Diagnostic, bool) { return d.last, d.count > 0 }

type promptKind int

const (
	promptNone promptKind = iota
	promptChild
	promptSibling
)

// Options configures a Model.
type Options[T any] struct {
	Title     string                                    // shown in the footer, usually the file path
	Label     func(*model.Node[T]) string               // nil shows ids
	NewNode   func(model.NodeID, string) *model.Node[T] // nil disables inserts
	StatePath string                                    // persist the open set here; empty disables
	Guides    bool
	Indent    int
	PageSize  int

	// SkipRestore keeps the state's seeded open set instead of restoring the
	// one saved at StatePath. Changes are still saved there.
	SkipRestore bool

	// Changes and Reload enable live reload: each value on Changes calls
	// Reload and hands the result to State.SetInitialTree.
	Changes <-chan struct{}
	Reload  func() (*model.Tree[T], error)

	// Diagnostics, when it is also the state's Reporter, surfaces rejected
	// operations in the status line.
	Diagnostics *DiagnosticLog

	// Clipboard receives copied paths; nil uses the system clipboard.
	Clipboard func(string) error
}

// Model is the bubbletea program model of the tree viewer.
type Model[T any] struct {
	tree  TreeModel[T]
	keys  KeyMap
	theme Theme
	opts  Options[T]

	width  int
	height int

	statusMsg     string
	statusIsError bool
	diagSeen      int

	showHelp bool
	helpView string // rendered when the overlay opens or the window resizes

	prompt     textinput.Model
	promptMode promptKind
}

// NewModel builds the viewer over state.
func NewModel[T any](state *treestate.State[T], opts Options[T]) Model[T] {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	tree := NewTreeModel(state, opts.Label, opts.NewNode, theme)
	tree.SetGuides(opts.Guides)
	tree.SetIndent(opts.Indent)
	tree.SetPageSize(opts.PageSize)
	if opts.SkipRestore {
		tree.SaveStateTo(opts.StatePath)
	} else {
		tree.SetStatePath(opts.StatePath)
	}

	ti := textinput.New()
	ti.Placeholder = "label"
	ti.CharLimit = 256
	ti.Prompt = "label: "

	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	m := Model[T]{
		tree:   tree,
		keys:   DefaultKeyMap(),
		theme:  theme,
		opts:   opts,
		width:  120,
		height: 40,
		prompt: ti,
	}
	m.tree.SetSize(m.width, m.bodyHeight())
	if opts.Diagnostics != nil {
		m.diagSeen = opts.Diagnostics.Count()
	}
	return m
}

// Tree exposes the tree view, mainly for tests.
func (m *Model[T]) Tree() *TreeModel[T] { return &m.tree }

// Status returns the status line text and whether it reports an error.
func (m Model[T]) Status() (string, bool) { return m.statusMsg, m.statusIsError }

func (m Model[T]) Init() tea.Cmd {
	return WatchFileCmd(m.opts.Changes)
}

// bodyHeight is the height left for the tree after the footer line.
func (m Model[T]) bodyHeight() int {
	return max(m.height-1, 1)
}

func (m *Model[T]) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsError = isErr
}

// pickUpDiagnostics shows the latest diagnostic reported since the last key.
func (m *Model[T]) pickUpDiagnostics() {
	d := m.opts.Diagnostics
	if d == nil || d.Count() == m.diagSeen {
		return
	}
	m.diagSeen = d.Count()
	if last, ok := d.Last(); ok {
		m.setStatus(fmt.Sprintf("%s %s: %s", last.Op, last.ID, last.Message), true)
	}
}

func (m Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.tree.SetSize(m.width, m.bodyHeight())
		m.prompt.Width = max(m.width-len(m.prompt.Prompt)-2, 10)
		if m.showHelp {
			m.helpView = RenderHelp(m.keys, m.theme, m.width, m.height)
		}
		return m, nil

	case FileChangedMsg:
		m.reload()
		return m, WatchFileCmd(m.opts.Changes)

	case tea.KeyMsg:
		if m.promptMode != promptNone {
			return m.handlePromptKeys(msg)
		}
		if m.showHelp {
			if key.Matches(msg, m.keys.Help, m.keys.Cancel, m.keys.Quit) {
				m.showHelp = false
			}
			return m, nil
		}
		if m.tree.IsSearchMode() {
			m.handleSearchKeys(msg)
			return m, nil
		}
		return m.handleTreeKeys(msg)
	}

	if m.promptMode != promptNone {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model[T]) reload() {
	if m.opts.Reload == nil {
		return
	}
	tree, err := m.opts.Reload()
	if err != nil {
		m.setStatus(fmt.Sprintf("Reload error: %v", err), true)
		return
	}
	state := m.tree.State()
	gen := state.Generation()
	state.SetInitialTree(tree)
	m.tree.Refresh()
	if state.Generation() != gen {
		m.setStatus(fmt.Sprintf("Reloaded %d items", tree.Len()), false)
	} else {
		m.setStatus("File changed; press R to load it", false)
	}
	debug.Log("ui: reload handled, %d items", tree.Len())
}

func (m *Model[T]) handleSearchKeys(msg tea.KeyMsg) {
	switch msg.String() {
	case "esc":
		m.tree.ClearSearch()
	case "enter":
		m.tree.ExitSearchMode()
	case "backspace":
		m.tree.SearchBackspace()
	default:
		if msg.Type == tea.KeyRunes {
			for _, r := range msg.Runes {
				m.tree.SearchAddChar(r)
			}
		} else if msg.Type == tea.KeySpace {
			m.tree.SearchAddChar(' ')
		}
	}
}

func (m Model[T]) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.promptMode = promptNone
		m.prompt.Blur()
		m.setStatus("", false)
		return m, nil
	case tea.KeyEnter:
		label := strings.TrimSpace(m.prompt.Value())
		mode := m.promptMode
		m.promptMode = promptNone
		m.prompt.Blur()
		if label == "" {
			return m, nil
		}
		var id model.NodeID
		var ok bool
		if mode == promptChild {
			id, ok = m.tree.InsertChild(label)
		} else {
			id, ok = m.tree.InsertSibling(label)
		}
		if ok {
			m.setStatus(fmt.Sprintf("Added %s", id), false)
		}
		m.pickUpDiagnostics()
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model[T]) openPrompt(kind promptKind) tea.Cmd {
	if !m.tree.CanInsert() {
		m.setStatus("Inserting is not available for this tree", true)
		return nil
	}
	m.promptMode = kind
	m.prompt.SetValue("")
	return m.prompt.Focus()
}

func (m Model[T]) handleTreeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.setStatus("", false)
	var cmd tea.Cmd
	k := m.keys

	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Down):
		m.tree.MoveDown()
	case key.Matches(msg, k.Up):
		m.tree.MoveUp()
	case key.Matches(msg, k.Top):
		m.tree.JumpToTop()
	case key.Matches(msg, k.Bottom):
		m.tree.JumpToBottom()
	case key.Matches(msg, k.HalfDown):
		m.tree.PageDown()
	case key.Matches(msg, k.HalfUp):
		m.tree.PageUp()
	case key.Matches(msg, k.Toggle):
		m.tree.ToggleExpand()
	case key.Matches(msg, k.ExpandOrChild):
		m.tree.ExpandOrMoveToChild()
	case key.Matches(msg, k.CollapseOrParent):
		m.tree.CollapseOrJumpToParent()
	case key.Matches(msg, k.Parent):
		m.tree.JumpToParent()
	case key.Matches(msg, k.NextSib):
		m.tree.NextSibling()
	case key.Matches(msg, k.PrevSib):
		m.tree.PrevSibling()
	case key.Matches(msg, k.OpenAll):
		m.tree.ExpandAll()
	case key.Matches(msg, k.CloseAll):
		m.tree.CollapseAll()
	case key.Matches(msg, k.Level):
		m.tree.ExpandToLevel(int(msg.String()[0] - '0'))
	case key.Matches(msg, k.Search):
		m.tree.EnterSearchMode()
	case key.Matches(msg, k.NextMatch):
		m.tree.NextSearchMatch()
	case key.Matches(msg, k.PrevMatch):
		m.tree.PrevSearchMatch()
	case key.Matches(msg, k.InsertChild):
		cmd = m.openPrompt(promptChild)
	case key.Matches(msg, k.InsertSibling):
		cmd = m.openPrompt(promptSibling)
	case key.Matches(msg, k.Remove):
		if id, n, ok := m.tree.RemoveSelected(); ok {
			m.setStatus(fmt.Sprintf("Removed %s (%d nodes)", id, n), false)
		}
	case key.Matches(msg, k.Mark):
		m.tree.Mark()
		if id, ok := m.tree.Marked(); ok {
			m.setStatus(fmt.Sprintf("Marked %s: p moves it below the cursor, P into the cursor node", id), false)
		}
	case key.Matches(msg, k.PasteAfter):
		if err := m.tree.PasteAfter(); err != nil {
			m.setStatus(err.Error(), true)
		}
	case key.Matches(msg, k.PasteInto):
		if err := m.tree.PasteInto(); err != nil {
			m.setStatus(err.Error(), true)
		}
	case key.Matches(msg, k.MoveDown):
		m.tree.MoveSelectedBy(1)
	case key.Matches(msg, k.MoveUp):
		m.tree.MoveSelectedBy(-1)
	case key.Matches(msg, k.CopyPath):
		m.copyPath()
	case key.Matches(msg, k.Reset):
		m.tree.Reset()
		m.setStatus("Reset to the last loaded tree", false)
	case key.Matches(msg, k.Help):
		m.showHelp = true
		m.helpView = RenderHelp(m.keys, m.theme, m.width, m.height)
	case key.Matches(msg, k.Cancel):
		m.tree.ClearMark()
		m.tree.ClearSearch()
	}

	m.pickUpDiagnostics()
	return m, cmd
}

func (m *Model[T]) copyPath() {
	path := m.tree.SelectedPath()
	if len(path) == 0 {
		return
	}
	text := FormatPath(path)
	if err := m.opts.Clipboard(text); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s to clipboard", text), false)
}

func (m Model[T]) View() string {
	if m.showHelp {
		return m.helpView
	}

	var sb strings.Builder
	sb.WriteString(m.tree.View())
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m Model[T]) renderFooter() string {
	width := max(m.width-1, 10)
	if m.promptMode != promptNone {
		return m.prompt.View()
	}
	if m.statusMsg != "" {
		style := m.theme.StatusOK
		if m.statusIsError {
			style = m.theme.StatusErr
		}
		return style.Render(truncate(m.statusMsg, width))
	}
	hints := []string{
		RenderKeyHint("enter", "toggle"),
		RenderKeyHint("/", "search"),
		RenderKeyHint("a", "add"),
		RenderKeyHint("x", "move"),
		RenderKeyHint("?", "help"),
		RenderKeyHint("q", "quit"),
	}
	line := strings.Join(hints, "  ")
	if m.opts.Title != "" {
		line = m.theme.MutedText.Render(truncate(m.opts.Title, 40)) + "  " + line
	}
	return line
}
