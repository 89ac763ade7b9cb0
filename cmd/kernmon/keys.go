package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the monitor's control keys. Everything not listed here is
// forwarded to the kernel keyboard driver as scancodes, so every control
// has to live on a chord or key with no scancode mapping.
type KeyMap struct {
	Quit        key.Binding
	Help        key.Binding
	Pause       key.Binding
	ClearScreen key.Binding
	ToggleStats key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "help"),
		),
		Pause: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "pause polling"),
		),
		ClearScreen: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "clear screen"),
		),
		ToggleStats: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "toggle stats"),
		),
	}
}

// ShortHelp returns key bindings for the short help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Help,
		k.Quit,
	}
}

// FullHelp returns all key bindings for the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.ClearScreen, k.ToggleStats},
		{k.Help, k.Quit},
	}
}
