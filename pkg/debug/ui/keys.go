package ui

import "github.com/charmbracelet/bubbles/key"

// CommonKeyMap holds the bindings every inspector view understands.
type CommonKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

var CommonKeys = CommonKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
	Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "select")),
	Back:   key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Toggle: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "pages/tuples")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// NavigationKeyMap moves between pages of a heap file.
type NavigationKeyMap struct {
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
}

var NavigationKeys = NavigationKeyMap{
	NextPage:  key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n/pgdn", "next page")),
	PrevPage:  key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p/pgup", "prev page")),
	FirstPage: key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g/home", "first page")),
	LastPage:  key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G/end", "last page")),
}
