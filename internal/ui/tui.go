// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the receiver UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Controls carries the quit signal from the TUI back to main
type Controls struct {
	Quit chan struct{}
}

// NewControls creates the control channels
func NewControls() *Controls {
	return &Controls{
		Quit: make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		controls: controls,
	}
}

// Run starts the TUI
func Run(controls *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls), tea.WithAltScreen())
	return p, nil
}
