package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joshuapare/kernelkit/drivers/console"
)

// View renders the entire UI
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}

	// If help overlay is showing, render it
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	header := m.renderHeader()
	content := m.renderContent()
	status := m.renderStatus()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		status,
	)
}

// renderHeader renders the title bar with the screen geometry and the
// polling state.
func (m Model) renderHeader() string {
	title := "Kernel Monitor"
	w, h := m.kernel.Console().Size()
	geometry := fmt.Sprintf("Screen: %dx%d", w, h)

	header := lipgloss.JoinHorizontal(
		lipgloss.Top,
		headerStyle.Render(title),
		lipgloss.NewStyle().Render("  "),
		subtitleStyle.Render(geometry),
	)

	if m.paused {
		header = lipgloss.JoinHorizontal(
			lipgloss.Top,
			header,
			lipgloss.NewStyle().Render("  "),
			pausedStyle.Render("PAUSED"),
		)
	}

	return header
}

// renderContent renders the framebuffer pane and, when enabled, the stats
// sidebar next to it.
func (m Model) renderContent() string {
	screenBox := activePaneStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		paneTitleStyle.Render("Console"),
		m.renderScreen(),
	))

	if !m.showStats {
		return screenBox
	}

	statsBox := paneStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		paneTitleStyle.Render("Statistics"),
		m.renderStats(),
	))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		screenBox,
		statsBox,
	)
}

// renderScreen converts framebuffer cells into styled text. Consecutive
// cells with the same attribute render as one styled run.
func (m Model) renderScreen() string {
	cons := m.kernel.Console()
	w, h := cons.Size()
	curX, curY := cons.Cursor()

	rows := make([]string, 0, h)
	for y := 0; y < h; y++ {
		var row strings.Builder
		var run strings.Builder
		var runFG, runBG console.Color

		flush := func() {
			if run.Len() == 0 {
				return
			}
			style := lipgloss.NewStyle().
				Foreground(vgaPalette[runFG]).
				Background(vgaPalette[runBG])
			row.WriteString(style.Render(run.String()))
			run.Reset()
		}

		for x := 0; x < w; x++ {
			r, fg, bg, ok := cons.Cell(x, y)
			if !ok {
				break
			}
			// Render the cursor as an inverted cell.
			if x == curX && y == curY {
				fg, bg = bg, fg
			}
			if run.Len() > 0 && (fg != runFG || bg != runBG) {
				flush()
			}
			if run.Len() == 0 {
				runFG, runBG = fg, bg
			}
			run.WriteRune(r)
		}
		flush()
		rows = append(rows, row.String())
	}

	return strings.Join(rows, "\n")
}

// renderStats renders the subsystem counters sidebar.
func (m Model) renderStats() string {
	s := m.kernel.Stats()
	curX, curY := m.kernel.Console().Cursor()

	var b strings.Builder
	line := func(label, format string, args ...interface{}) {
		b.WriteString(statLabelStyle.Render(label))
		b.WriteString(statValueStyle.Render(fmt.Sprintf(format, args...)))
		b.WriteString("\n")
	}

	b.WriteString(paneTitleStyle.Render("Heap"))
	b.WriteString("\n")
	line("Live", "%d B", s.Heap.LiveBytes)
	line("Peak", "%d B", s.Heap.PeakLiveBytes)
	line("Allocs", "%d (%d failed)", s.Heap.AllocCalls, s.Heap.FailedAllocs)
	line("Class hits", "%d / %d refills", s.Heap.ClassHits, s.Heap.ClassRefills)
	b.WriteString("\n")

	b.WriteString(paneTitleStyle.Render("Executor"))
	b.WriteString("\n")
	line("Live", "%d (%d parked)", s.Executor.Live, s.Executor.Parked)
	line("Polls", "%d", s.Executor.Polls)
	line("Wakes", "%d", s.Executor.Wakes)
	line("Panicked", "%d", s.Executor.Panicked)
	b.WriteString("\n")

	b.WriteString(paneTitleStyle.Render("TLB"))
	b.WriteString("\n")
	line("Hits", "%d", s.TLB.Hits)
	line("Misses", "%d", s.TLB.Misses)
	line("Evictions", "%d", s.TLB.Evictions)
	b.WriteString("\n")

	b.WriteString(paneTitleStyle.Render("Keyboard"))
	b.WriteString("\n")
	line("Scancodes", "%d", s.Keyboard.Scancodes)
	line("Keys", "%d", s.Keyboard.Keys)
	line("Dropped", "%d", s.Keyboard.Dropped)
	b.WriteString("\n")

	line("Cursor", "(%d, %d)", curX, curY)

	return b.String()
}

// renderStatus renders the bottom status bar.
func (m Model) renderStatus() string {
	// Show status message if set (takes priority over normal help)
	if m.statusMessage != "" {
		return statusStyle.Width(m.width).Render(
			statusMsgStyle.Render(m.statusMessage),
		)
	}

	var help strings.Builder
	help.WriteString(helpStyle.Render("esc: help"))
	help.WriteString(" │ ")
	help.WriteString(helpStyle.Render("ctrl+p: pause"))
	help.WriteString(" │ ")
	help.WriteString(helpStyle.Render("ctrl+r: clear"))
	help.WriteString(" │ ")
	help.WriteString(helpStyle.Render("ctrl+s: stats"))
	help.WriteString(" │ ")
	help.WriteString(helpStyle.Render("ctrl+c: quit"))
	help.WriteString("   ")
	help.WriteString(helpStyle.Render(fmt.Sprintf("typed: %d", m.typed)))

	return statusStyle.Width(m.width).Render(help.String())
}

// renderHelpOverlay renders the help overlay
func (m Model) renderHelpOverlay() string {
	var helpContent strings.Builder

	title := helpTitleStyle.Render("Keyboard Shortcuts")
	helpContent.WriteString(title)
	helpContent.WriteString("\n\n")

	const keyWidth = 10

	helpContent.WriteString(helpKeyStyle.Width(keyWidth).Render("any key"))
	helpContent.WriteString("  ")
	helpContent.WriteString(helpDescStyle.Render("Typed into the kernel as scancodes"))
	helpContent.WriteString("\n")
	helpContent.WriteString(helpKeyStyle.Width(keyWidth).Render("Ctrl+P"))
	helpContent.WriteString("  ")
	helpContent.WriteString(helpDescStyle.Render("Pause/resume executor polling"))
	helpContent.WriteString("\n")
	helpContent.WriteString(helpKeyStyle.Width(keyWidth).Render("Ctrl+R"))
	helpContent.WriteString("  ")
	helpContent.WriteString(helpDescStyle.Render("Clear the console screen"))
	helpContent.WriteString("\n")
	helpContent.WriteString(helpKeyStyle.Width(keyWidth).Render("Ctrl+S"))
	helpContent.WriteString("  ")
	helpContent.WriteString(helpDescStyle.Render("Toggle the stats sidebar"))
	helpContent.WriteString("\n")
	helpContent.WriteString(helpKeyStyle.Width(keyWidth).Render("Esc"))
	helpContent.WriteString("  ")
	helpContent.WriteString(helpDescStyle.Render("Toggle this help"))
	helpContent.WriteString("\n")
	helpContent.WriteString(helpKeyStyle.Width(keyWidth).Render("Ctrl+C"))
	helpContent.WriteString("  ")
	helpContent.WriteString(helpDescStyle.Render("Quit"))
	helpContent.WriteString("\n")

	box := modalStyle.Render(helpContent.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
