package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/butter/internal/shared"
	"github.com/desertthunder/butter/internal/tasks"
)

// Monitor is the part of [tasks.InventoryMonitor] the dashboard drives.
type Monitor interface {
	Start(ctx context.Context) error
	Stop()
	Refresh()
	Updates() <-chan tasks.MonitorUpdate
	Done() <-chan struct{}
}

var _ Monitor = (*tasks.InventoryMonitor)(nil)

// MonitorModel is the live inventory dashboard.
type MonitorModel struct {
	ctx      context.Context
	monitor  Monitor
	merchant string
	width    int
	height   int
	items    list.Model
	last     tasks.MonitorUpdate
	polls    int
	gen      int
	paused   bool
	stopped  bool
	err      error
	help     help.Model
	keys     keyMap
}

// NewMonitorModel creates a dashboard for monitor. The monitor is started by Init.
func NewMonitorModel(ctx context.Context, monitor Monitor, merchant string) *MonitorModel {
	items := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	items.Title = fmt.Sprintf("Inventory · %s", merchant)
	items.SetShowHelp(false)

	return &MonitorModel{
		ctx:      ctx,
		monitor:  monitor,
		merchant: merchant,
		items:    items,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the monitor and waits for its first poll.
func (m *MonitorModel) Init() tea.Cmd {
	return m.start()
}

// Err returns the error that ended the session, if any.
func (m *MonitorModel) Err() error {
	return m.err
}

// Update handles incoming messages and updates the model state.
func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.items.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m.handleMonitor(msg)
	}

	var cmd tea.Cmd
	m.items, cmd = m.items.Update(msg)
	return m, cmd
}

func (m *MonitorModel) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.items.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.items, cmd = m.items.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.monitor.Stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		if !m.paused && !m.stopped {
			m.monitor.Refresh()
		}
		return m, nil
	case key.Matches(msg, m.keys.pause):
		if m.stopped {
			return m, nil
		}
		if m.paused {
			m.paused = false
			return m, m.start()
		}
		m.paused = true
		m.gen++
		m.monitor.Stop()
		return m, nil
	}

	var cmd tea.Cmd
	m.items, cmd = m.items.Update(msg)
	return m, cmd
}

func (m *MonitorModel) handleMonitor(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgMonitorUpdate:
		u := msg.data.(tasks.MonitorUpdate)
		m.polls++
		m.last = u
		if u.Err == nil {
			cmd := m.items.SetItems(itemRows(u.Items, u.Changes.Added, u.Changes.Updated))
			return m, tea.Batch(cmd, m.waitForUpdate())
		}
		if u.Stopped {
			m.stopped = true
			m.err = u.Err
			return m, nil
		}
		return m, m.waitForUpdate()

	case MsgMonitorStopped:
		m.stopped = true
		return m, nil

	case MsgMonitorFailed:
		m.err = msg.data.(error)
		m.stopped = true
		return m, nil
	}
	return m, nil
}

func (m *MonitorModel) start() tea.Cmd {
	m.gen++
	gen := m.gen
	if err := m.monitor.Start(m.ctx); err != nil {
		return func() tea.Msg { return monitorFailedMsg(gen, err) }
	}
	return m.waitForUpdate()
}

func (m *MonitorModel) waitForUpdate() tea.Cmd {
	gen := m.gen
	updates, done := m.monitor.Updates(), m.monitor.Done()
	return func() tea.Msg {
		select {
		case u := <-updates:
			return monitorUpdateMsg(gen, u)
		case <-done:
			select {
			case u := <-updates:
				return monitorUpdateMsg(gen, u)
			default:
				return monitorStoppedMsg(gen)
			}
		}
	}
}

// View renders the dashboard.
func (m *MonitorModel) View() string {
	return fmt.Sprintf("%s\n%s\n\n%s", m.status(), m.items.View(), m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m *MonitorModel) status() string {
	switch {
	case errors.Is(m.err, shared.ErrTokenExpired):
		return styles.failed.Render("Session expired. Run `butter auth login` and restart the monitor.")
	case m.err != nil:
		return styles.failed.Render(fmt.Sprintf("Monitor stopped: %v", m.err))
	case m.stopped:
		return styles.stopped.Render("Monitor stopped")
	case m.paused:
		return styles.stopped.Render(fmt.Sprintf("⏸ paused · %d polls", m.polls))
	case m.polls == 0:
		return styles.idle.Render("Waiting for first poll...")
	}

	if m.last.Err != nil {
		return styles.failed.Render(fmt.Sprintf("● poll #%d failed: %v", m.last.Seq, m.last.Err))
	}

	live := styles.live.Render(fmt.Sprintf("● live · poll #%d · %d items", m.last.Seq, len(m.last.Items)))
	return fmt.Sprintf("%s · %s · %s", live, styles.changes(m.last.Changes), m.last.FetchedAt.Format(time.TimeOnly))
}
