package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the keyboard bindings outside the login form.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Logout     key.Binding

	// View switching
	ViewDashboard key.Binding
	ViewLogs      key.Binding
	Back          key.Binding
	SwitchPane    key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Visitor actions
	Approve    key.Binding
	Deny       key.Binding
	MarkInside key.Binding
	MarkOut    key.Binding

	// Notifications
	MarkRead key.Binding

	// Logs
	ToggleFollow key.Binding
}

// defaultKeyMap returns the default key bindings.
func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Sign out"),
		),

		ViewDashboard: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Dashboard"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Client log"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to dashboard"),
		),
		SwitchPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Switch pane"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "Up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "Down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Bottom"),
		),

		Approve: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Approve visitor"),
		),
		Deny: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Deny visitor"),
		),
		MarkInside: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Visitor entered"),
		),
		MarkOut: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Visitor left"),
		),

		MarkRead: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Mark notifications read"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle follow"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.ViewLogs, k.Approve, k.Deny, k.Logout, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewDashboard, k.ViewLogs, k.Back, k.SwitchPane, k.Up, k.Down, k.Top, k.Bottom},
		{k.Approve, k.Deny, k.MarkInside, k.MarkOut, k.MarkRead},
		{k.ToggleFollow, k.CycleTheme, k.Logout, k.Help, k.Quit},
	}
}
