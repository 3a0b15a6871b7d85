// ABOUTME: Bubbletea model for the receiver TUI
// ABOUTME: Renders transport, stream format and pipeline counters
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Transport
	transport string
	receiving bool

	// Stream
	sampleRate int
	sampleBits int
	channels   int

	// Stats
	received   int64
	delivered  int64
	dropped    int64
	overruns   int64
	invalid    int64
	bufferedMs int64

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	controls *Controls
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderStreamInfo()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders the transport status
func (m Model) renderHeader() string {
	status := "Waiting for stream"
	if m.receiving {
		status = fmt.Sprintf("Receiving via %s", m.transport)
	}

	return fmt.Sprintf(`┌─ Scream Receiver ────────────────────────────────────┐
│ Status: %-45s │
├──────────────────────────────────────────────────────┤
`, status)
}

// renderStreamInfo renders the current stream format
func (m Model) renderStreamInfo() string {
	if m.sampleRate == 0 {
		return "│ No stream                                            │\n"
	}

	format := fmt.Sprintf("%dHz %d-bit %s", m.sampleRate, m.sampleBits, channelName(m.channels))
	return fmt.Sprintf("│ Format: %-45s │\n│ Buffer: %-45s │\n",
		format, fmt.Sprintf("%dms", m.bufferedMs))
}

// renderStats renders pipeline counters
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ RX: %d  Played: %d  Dropped: %d%-18s │
`, m.received, m.delivered, m.dropped, "")
}

// renderDebug renders the loss counters
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Ring overruns: %-36d│
│   Invalid packets: %-34d│
`, m.overruns, m.invalid)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ d:Debug  q:Quit                                      │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.controls != nil {
			select {
			case m.controls.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Transport != "" {
		m.transport = msg.Transport
	}
	if msg.SampleRate != 0 {
		m.sampleRate = msg.SampleRate
		m.sampleBits = msg.SampleBits
		m.channels = msg.Channels
		m.receiving = true
	}
	m.received = msg.Received
	m.delivered = msg.Delivered
	m.dropped = msg.Dropped
	m.overruns = msg.Overruns
	m.invalid = msg.Invalid
	m.bufferedMs = msg.BufferedMs
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Transport  string
	SampleRate int
	SampleBits int
	Channels   int
	Received   int64
	Delivered  int64
	Dropped    int64
	Overruns   int64
	Invalid    int64
	BufferedMs int64
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
