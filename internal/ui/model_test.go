// ABOUTME: Tests for the receiver TUI model
// ABOUTME: Exercises status updates, key handling and rendering
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestApplyStatusUpdatesStream(t *testing.T) {
	m := NewModel(nil)

	updated, _ := m.Update(StatusMsg{
		Transport:  "multicast",
		SampleRate: 48000,
		SampleBits: 16,
		Channels:   2,
		Received:   10,
		Delivered:  9,
	})

	model := updated.(Model)
	if !model.receiving {
		t.Error("model should be receiving after a format update")
	}
	if model.sampleRate != 48000 || model.channels != 2 {
		t.Errorf("format not applied: %dHz %dch", model.sampleRate, model.channels)
	}
	if model.received != 10 || model.delivered != 9 {
		t.Error("counters not applied")
	}
}

func TestViewShowsFormat(t *testing.T) {
	m := NewModel(nil)
	m.width = 80
	m.applyStatus(StatusMsg{
		Transport:  "shmem",
		SampleRate: 44100,
		SampleBits: 16,
		Channels:   2,
	})

	view := m.View()
	if !strings.Contains(view, "44100Hz 16-bit Stereo") {
		t.Errorf("view missing format line:\n%s", view)
	}
	if !strings.Contains(view, "Receiving via shmem") {
		t.Errorf("view missing transport status:\n%s", view)
	}
}

func TestViewBeforeSizing(t *testing.T) {
	m := NewModel(nil)
	if m.View() != "Loading..." {
		t.Error("unsized view should render the loading placeholder")
	}
}

func TestDebugToggle(t *testing.T) {
	m := NewModel(nil)
	m.width = 80

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	model := updated.(Model)
	if !model.showDebug {
		t.Error("d should toggle debug view on")
	}

	model.applyStatus(StatusMsg{Overruns: 3})
	if !strings.Contains(model.View(), "Ring overruns") {
		t.Error("debug view should show overrun counter")
	}
}

func TestQuitKeySignalsControls(t *testing.T) {
	controls := NewControls()
	m := NewModel(controls)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should produce a quit command")
	}

	select {
	case <-controls.Quit:
	default:
		t.Error("q should signal the quit channel")
	}
}

func TestChannelNames(t *testing.T) {
	cases := map[int]string{1: "Mono", 2: "Stereo", 6: "6ch"}
	for channels, want := range cases {
		if got := channelName(channels); got != want {
			t.Errorf("channelName(%d) = %q, want %q", channels, got, want)
		}
	}
}
