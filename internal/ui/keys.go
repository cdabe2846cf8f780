package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings of the picker.
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	Collapse    key.Binding
	Expand      key.Binding
	SelectAll   key.Binding
	Reset       key.Binding
	Refresh     key.Binding
	Copy        key.Binding
	StartFilter key.Binding
	ClearFilter key.Binding
	ApplyFilter key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Collapse: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "collapse"),
		),
		Expand: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "expand"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c", "enter"),
			key.WithHelp("c/enter", "copy"),
		),
		StartFilter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		ApplyFilter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply filter"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "save & quit"),
		),
	}
}

func (keys keyMap) browseHelp() []key.Binding {
	return []key.Binding{keys.Toggle, keys.Expand, keys.Collapse, keys.SelectAll, keys.Reset, keys.Refresh, keys.StartFilter, keys.Copy, keys.Quit}
}

func (keys keyMap) filterHelp() []key.Binding {
	return []key.Binding{keys.ApplyFilter, keys.ClearFilter, keys.Up, keys.Down}
}
