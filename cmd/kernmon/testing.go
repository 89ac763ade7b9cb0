package main

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/kernelkit/kern"
)

// TestHelper provides utilities for testing the monitor without a terminal
type TestHelper struct {
	model Model
}

// NewTestHelper boots a small kernel and wraps it in a model
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	m, err := NewModel(kern.Config{HeapSize: 256 << 10})
	if err != nil {
		t.Fatalf("boot failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return &TestHelper{model: m}
}

// SendKey simulates a non-rune key press
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	msg := tea.KeyMsg{Type: keyType}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// SendString types each character of s
func (h *TestHelper) SendString(s string) *TestHelper {
	for _, r := range s {
		h.SendKeyRune(r)
	}
	return h
}

// SendTick simulates a frame tick
func (h *TestHelper) SendTick() *TestHelper {
	updated, _ := h.model.Update(tickMsg(time.Now()))
	h.model = updated.(Model)
	return h
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	msg := tea.WindowSizeMsg{Width: width, Height: height}
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}

// GetModel returns the current model
func (h *TestHelper) GetModel() Model {
	return h.model
}

// GetView returns the rendered view
func (h *TestHelper) GetView() string {
	return h.model.View()
}
