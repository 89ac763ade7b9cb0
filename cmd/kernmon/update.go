package main

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/kernelkit/cmd/kernmon/logger"
	"github.com/joshuapare/kernelkit/drivers/keyboard"
)

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If help is showing, handle help keys
		if m.showHelp {
			if key.Matches(msg, m.keys.Quit) {
				return m, tea.Quit
			}
			if key.Matches(msg, m.keys.Help) {
				m.showHelp = false
			}
			// Ignore other keys when help is showing
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil

		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			if m.paused {
				m.statusMessage = "Polling paused"
			} else {
				m.statusMessage = "Polling resumed"
			}
			return m, clearStatusCmd()

		case key.Matches(msg, m.keys.ClearScreen):
			m.kernel.Console().Clear()
			m.statusMessage = "Screen cleared"
			return m, clearStatusCmd()

		case key.Matches(msg, m.keys.ToggleStats):
			m.showStats = !m.showStats
			return m, nil
		}

		// Everything else goes to the kernel as scancodes.
		m.typeKey(msg)
		return m, nil

	case tickMsg:
		if !m.paused {
			m.kernel.Drain()
		}
		m.frames++
		return m, tickCmd()

	case clearStatusMsg:
		m.statusMessage = ""
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case errMsg:
		logger.Error("Error occurred", "error", msg.err)
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

// typeKey translates a terminal key press into scancodes and feeds them to
// the keyboard driver.
func (m *Model) typeKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.pushRune(r)
		}
	case tea.KeyEnter:
		m.pushRune('\n')
	case tea.KeyTab:
		m.pushRune('\t')
	case tea.KeySpace:
		m.pushRune(' ')
	case tea.KeyBackspace:
		m.pushRune('\b')
	}
}

func (m *Model) pushRune(r rune) {
	codes, ok := keyboard.Encode(r)
	if !ok {
		logger.Debug("no scancode sequence for rune", "rune", string(r))
		return
	}
	for _, code := range codes {
		if !m.kernel.PressKey(code) {
			// Ring full; drain the stream task and retype.
			m.kernel.Drain()
			m.kernel.PressKey(code)
		}
	}
	m.typed++
}
