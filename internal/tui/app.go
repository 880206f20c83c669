package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/wm"
)

const (
	maxEvents    = 200
	queryTimeout = 5 * time.Second
)

// snapshotMsg carries a fresh copy of the daemon state.
type snapshotMsg struct {
	monitors []wm.ContainerDTO
	paused   bool
	modes    []string
	err      error
}

// eventMsg carries one event from the subscription stream.
type eventMsg struct {
	at    time.Time
	event wm.Event
}

// disconnectedMsg reports that the subscription stream dropped.
type disconnectedMsg struct{ err error }

// refreshMsg asks for a new snapshot.
type refreshMsg struct{}

type commandDoneMsg struct{ err error }

// model is the root bubbletea model for the TUI.
type model struct {
	addr string

	activeTab Tab
	monitors  []wm.ContainerDTO
	events    []string

	// Daemon state
	connected bool
	paused    bool
	modes     []string
	lastErr   string

	// Terminal dimensions
	width  int
	height int

	fetch   func() snapshotMsg
	command func(string) error
}

func newModel(addr string) model {
	return model{
		addr:      addr,
		activeTab: TabTree,
		fetch:     func() snapshotMsg { return fetchSnapshot(addr) },
		command:   func(text string) error { return runCommand(addr, text) },
	}
}

func fetchSnapshot(addr string) snapshotMsg {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	client, err := ipc.Dial(ctx, addr)
	if err != nil {
		return snapshotMsg{err: err}
	}
	defer client.Close()

	var snap snapshotMsg
	var monitors ipc.MonitorsData
	if err := client.Call(ctx, "query monitors", &monitors); err != nil {
		return snapshotMsg{err: err}
	}
	snap.monitors = monitors.Monitors

	var paused ipc.PausedData
	if err := client.Call(ctx, "query paused", &paused); err != nil {
		return snapshotMsg{err: err}
	}
	snap.paused = bool(paused)

	var modes ipc.BindingModesData
	if err := client.Call(ctx, "query binding-modes", &modes); err != nil {
		return snapshotMsg{err: err}
	}
	for _, mode := range modes.BindingModes {
		snap.modes = append(snap.modes, mode.Name)
	}
	return snap
}

func runCommand(addr, text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	client, err := ipc.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Call(ctx, "command "+text, nil)
}

func (m model) refresh() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg { return fetch() }
}

func (m model) runCommand(text string) tea.Cmd {
	command := m.command
	return func() tea.Msg { return commandDoneMsg{err: command(text)} }
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + error line (1) + help bar (1)
	return max(m.height-5, 1)
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return m.refresh()
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1":
			m.activeTab = TabTree
		case "2":
			m.activeTab = TabEvents
		case "r":
			return m, m.refresh()
		case "p":
			return m, m.runCommand("wm-toggle-pause")
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		if msg.err != nil {
			m.connected = false
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.connected = true
		m.lastErr = ""
		m.monitors = msg.monitors
		m.paused = msg.paused
		m.modes = msg.modes
		return m, nil

	case eventMsg:
		m.events = append(m.events, formatEvent(msg.at, msg.event))
		if len(m.events) > maxEvents {
			m.events = m.events[len(m.events)-maxEvents:]
		}
		if msg.event.Type == wm.EventApplicationExiting {
			m.connected = false
			return m, nil
		}
		return m, m.refresh()

	case refreshMsg:
		return m, m.refresh()

	case disconnectedMsg:
		m.connected = false
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}
		return m, nil

	case commandDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		return m, m.refresh()
	}
	return m, nil
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.connected, m.paused, m.modes, m.addr, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	height := m.contentHeight()
	var lines []string
	switch m.activeTab {
	case TabTree:
		lines = renderTree(m.monitors)
		if len(lines) > height {
			lines = lines[:height]
		}
	case TabEvents:
		lines = m.events
		if len(lines) > height {
			lines = lines[len(lines)-height:]
		}
	}
	content := lipgloss.NewStyle().
		Width(m.width).
		Height(height).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))

	errLine := lipgloss.NewStyle().
		Width(m.width).
		Foreground(lipgloss.Color("196")).
		Padding(0, 1).
		Render(m.lastErr)

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		errLine,
		helpBar,
	)
}

func formatEvent(at time.Time, ev wm.Event) string {
	line := at.Format("15:04:05") + " " + string(ev.Type)
	switch {
	case ev.ManagedWindow != nil:
		line += " " + describe(*ev.ManagedWindow)
	case ev.UnmanagedHandle != nil:
		line += fmt.Sprintf(" window 0x%x", uint32(*ev.UnmanagedHandle))
	case ev.FocusedContainer != nil:
		line += " " + describe(*ev.FocusedContainer)
	case ev.ActivatedWorkspace != nil:
		line += " " + ev.ActivatedWorkspace.Name
	case ev.DeactivatedName != nil:
		line += " " + *ev.DeactivatedName
	case ev.AddedMonitor != nil:
		line += " " + ev.AddedMonitor.DeviceName
	case ev.RemovedDeviceName != nil:
		line += " " + *ev.RemovedDeviceName
	case ev.NewTilingDirection != nil:
		line += " " + ev.NewTilingDirection.String()
	case ev.IsPaused != nil:
		line += fmt.Sprintf(" %t", *ev.IsPaused)
	}
	return line
}
