package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the tree view bindings. The help overlay is generated from it.
type KeyMap struct {
	Up, Down         key.Binding
	Top, Bottom      key.Binding
	HalfUp, HalfDown key.Binding
	Toggle           key.Binding
	ExpandOrChild    key.Binding
	CollapseOrParent key.Binding
	Parent           key.Binding
	NextSib, PrevSib key.Binding
	OpenAll          key.Binding
	CloseAll         key.Binding
	Level            key.Binding
	Search           key.Binding
	NextMatch        key.Binding
	PrevMatch        key.Binding
	InsertChild      key.Binding
	InsertSibling    key.Binding
	Remove           key.Binding
	Mark             key.Binding
	PasteAfter       key.Binding
	PasteInto        key.Binding
	MoveUp, MoveDown key.Binding
	CopyPath         key.Binding
	Reset            key.Binding
	Help             key.Binding
	Cancel           key.Binding
	Quit             key.Binding
}

// DefaultKeyMap returns the vim-style bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:               key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "move up")),
		Down:             key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "move down")),
		Top:              key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first row")),
		Bottom:           key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last row")),
		HalfUp:           key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("ctrl+u", "half page up")),
		HalfDown:         key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d", "half page down")),
		Toggle:           key.NewBinding(key.WithKeys("enter", " ", "tab"), key.WithHelp("enter", "open/close")),
		ExpandOrChild:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "open or first child")),
		CollapseOrParent: key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "close or parent")),
		Parent:           key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "jump to parent")),
		NextSib:          key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next sibling")),
		PrevSib:          key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous sibling")),
		OpenAll:          key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "open all")),
		CloseAll:         key.NewBinding(key.WithKeys("Z"), key.WithHelp("Z", "close all")),
		Level:            key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "expand to level")),
		Search:           key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		NextMatch:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next match")),
		PrevMatch:        key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "previous match")),
		InsertChild:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add child")),
		InsertSibling:    key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "add sibling below")),
		Remove:           key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove subtree")),
		Mark:             key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "mark for move")),
		PasteAfter:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "move marked below")),
		PasteInto:        key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "move marked into")),
		MoveUp:           key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up among siblings")),
		MoveDown:         key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down among siblings")),
		CopyPath:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy path")),
		Reset:            key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset to file")),
		Help:             key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Cancel:           key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quit:             key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// helpSections groups the bindings for the help overlay.
func (k KeyMap) helpSections() []struct {
	title    string
	bindings []key.Binding
} {
	return []struct {
		title    string
		bindings []key.Binding
	}{
		{"Navigation", []key.Binding{k.Up, k.Down, k.Top, k.Bottom, k.HalfUp, k.HalfDown, k.Parent, k.NextSib, k.PrevSib}},
		{"Open state", []key.Binding{k.Toggle, k.ExpandOrChild, k.CollapseOrParent, k.OpenAll, k.CloseAll, k.Level, k.Reset}},
		{"Search", []key.Binding{k.Search, k.NextMatch, k.PrevMatch}},
		{"Editing", []key.Binding{k.InsertChild, k.InsertSibling, k.Remove, k.Mark, k.PasteAfter, k.PasteInto, k.MoveUp, k.MoveDown}},
		{"Other", []key.Binding{k.CopyPath, k.Help, k.Cancel, k.Quit}},
	}
}
