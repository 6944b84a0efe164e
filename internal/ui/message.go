package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/butter/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// gen ties a message to one monitor run so messages from a run that was paused are ignored.
type Msg struct {
	kind MsgKind
	gen  int
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgMonitorUpdate MsgKind = iota
	MsgMonitorStopped
	MsgMonitorFailed
)

// monitorUpdateMsg is the constructor for [MsgMonitorUpdate]
func monitorUpdateMsg(gen int, u tasks.MonitorUpdate) Msg {
	return Msg{kind: MsgMonitorUpdate, gen: gen, data: u}
}

// monitorStoppedMsg is the constructor for [MsgMonitorStopped]
func monitorStoppedMsg(gen int) Msg {
	return Msg{kind: MsgMonitorStopped, gen: gen}
}

// monitorFailedMsg is the constructor for [MsgMonitorFailed]
func monitorFailedMsg(gen int, err error) Msg {
	return Msg{kind: MsgMonitorFailed, gen: gen, data: err}
}
