package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/shared"
	"github.com/desertthunder/butter/internal/tasks"
)

type fakeMonitor struct {
	updates   chan tasks.MonitorUpdate
	done      chan struct{}
	startErr  error
	starts    int
	stops     int
	refreshes int
}

func newFakeMonitor() *fakeMonitor {
	return &fakeMonitor{updates: make(chan tasks.MonitorUpdate, 4)}
}

func (f *fakeMonitor) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	f.done = make(chan struct{})
	return nil
}

func (f *fakeMonitor) Stop() {
	f.stops++
	if f.done != nil {
		select {
		case <-f.done:
		default:
			close(f.done)
		}
	}
}

func (f *fakeMonitor) Refresh()                             { f.refreshes++ }
func (f *fakeMonitor) Updates() <-chan tasks.MonitorUpdate { return f.updates }
func (f *fakeMonitor) Done() <-chan struct{}               { return f.done }

func press(m *MonitorModel, k string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	return cmd
}

func TestMonitorModel(t *testing.T) {
	t.Run("renders polls", func(t *testing.T) {
		mon := newFakeMonitor()
		m := NewMonitorModel(context.Background(), mon, "M1")
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

		wait := m.Init()
		if mon.starts != 1 {
			t.Fatalf("Init should start the monitor")
		}
		if !strings.Contains(m.View(), "Waiting for first poll") {
			t.Errorf("expected waiting status, got %q", m.View())
		}

		mon.updates <- tasks.MonitorUpdate{
			Seq:       1,
			Items:     []models.Item{{ID: "A", Name: "Latte", Price: 450}},
			FetchedAt: time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC),
		}
		msg := wait()
		m.Update(msg)

		view := m.View()
		if !strings.Contains(view, "poll #1") || !strings.Contains(view, "1 items") {
			t.Errorf("expected poll status, got %q", view)
		}
		if !strings.Contains(view, "Latte") {
			t.Errorf("expected item in list, got %q", view)
		}
	})

	t.Run("pause and resume", func(t *testing.T) {
		mon := newFakeMonitor()
		m := NewMonitorModel(context.Background(), mon, "M1")
		stale := m.Init()

		press(m, "p")
		if mon.stops != 1 || !m.paused {
			t.Fatalf("p should stop the monitor")
		}
		if !strings.Contains(m.View(), "paused") {
			t.Errorf("expected paused status")
		}

		m.Update(stale())
		if m.stopped {
			t.Errorf("messages from the paused run should be ignored")
		}

		press(m, "r")
		if mon.refreshes != 0 {
			t.Errorf("refresh should be ignored while paused")
		}

		if cmd := press(m, "p"); cmd == nil {
			t.Errorf("resume should wait for updates")
		}
		if mon.starts != 2 || m.paused {
			t.Errorf("p should restart the monitor")
		}

		press(m, "r")
		if mon.refreshes != 1 {
			t.Errorf("expected refresh, got %d", mon.refreshes)
		}
	})

	t.Run("token expired", func(t *testing.T) {
		mon := newFakeMonitor()
		m := NewMonitorModel(context.Background(), mon, "M1")
		wait := m.Init()

		mon.updates <- tasks.MonitorUpdate{Seq: 1, Err: shared.ErrTokenExpired, Stopped: true}
		_, next := m.Update(wait())

		if next != nil {
			t.Errorf("should not wait after the monitor stopped itself")
		}
		if !errors.Is(m.Err(), shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", m.Err())
		}
		if !strings.Contains(m.View(), "Session expired") {
			t.Errorf("expected expiry message, got %q", m.View())
		}
	})

	t.Run("start failure", func(t *testing.T) {
		mon := newFakeMonitor()
		mon.startErr = shared.ErrMerchantUnresolved
		m := NewMonitorModel(context.Background(), mon, "")

		m.Update(m.Init()())

		if !errors.Is(m.Err(), shared.ErrMerchantUnresolved) {
			t.Errorf("expected ErrMerchantUnresolved, got %v", m.Err())
		}
		if !strings.Contains(m.View(), "Monitor stopped") {
			t.Errorf("expected stopped status, got %q", m.View())
		}
	})

	t.Run("quit stops monitor", func(t *testing.T) {
		mon := newFakeMonitor()
		m := NewMonitorModel(context.Background(), mon, "M1")
		m.Init()

		cmd := press(m, "q")
		if mon.stops != 1 {
			t.Errorf("q should stop the monitor")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("q should quit")
		}
	})
}

func TestItemRows(t *testing.T) {
	items := []models.Item{{ID: "A", Name: "Latte", Price: 450, SKU: "LAT"}, {ID: "B", Name: "Tea", Hidden: true}}
	rows := itemRows(items, []models.Item{{ID: "A"}}, []models.Item{{ID: "B"}})

	a := rows[0].(itemRow)
	if a.Title() != "+ Latte" || a.Description() != "4.50 • LAT" {
		t.Errorf("unexpected row %q / %q", a.Title(), a.Description())
	}
	b := rows[1].(itemRow)
	if b.Title() != "~ Tea" || b.Description() != "0.00 • hidden" {
		t.Errorf("unexpected row %q / %q", b.Title(), b.Description())
	}
}
