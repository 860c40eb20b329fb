package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songreqs/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgRunComplete
	MsgNotice
)

type runResult struct {
	report *tasks.Report
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// runCompleteMsg is the constructor for [MsgRunComplete]
func runCompleteMsg(report *tasks.Report, err error) Msg {
	return Msg{kind: MsgRunComplete, data: runResult{report: report, err: err}}
}

// NoticeMsg carries handshake status text for the run view, such as a consent URL the browser could not open.
func NoticeMsg(text string) Msg {
	return Msg{kind: MsgNotice, data: text}
}
