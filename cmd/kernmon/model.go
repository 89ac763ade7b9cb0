package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/kernelkit/kern"
)

// frameInterval is how often the monitor drains the executor and redraws.
const frameInterval = 50 * time.Millisecond

// Model is the main application model
type Model struct {
	kernel *kern.Kernel
	keys   KeyMap

	width  int
	height int

	// Display toggles
	showHelp  bool
	showStats bool

	// paused stops the per-frame executor drain; pushed scancodes queue
	// up in the driver ring until polling resumes.
	paused bool

	// Status message for temporary feedback
	statusMessage string

	// Counters for the status bar
	typed  int
	frames uint64

	err error
}

// NewModel boots a kernel and wraps it in a TUI model.
func NewModel(cfg kern.Config) (Model, error) {
	k, err := kern.Boot(cfg)
	if err != nil {
		return Model{}, err
	}

	return Model{
		kernel:    k,
		keys:      DefaultKeyMap(),
		showStats: true,
	}, nil
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Close shuts the kernel down. Should be called when the TUI exits.
func (m *Model) Close() error {
	if m.kernel == nil {
		return nil
	}
	err := m.kernel.Close()
	m.kernel = nil
	return err
}

// Messages

type tickMsg time.Time

type clearStatusMsg struct{}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// tickCmd arms the next frame tick.
func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// clearStatusCmd clears the status message after a short delay.
func clearStatusCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
