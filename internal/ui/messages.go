// Package ui provides the terminal user interface for codescan.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lazyvibe/codescan/internal/model"
	"github.com/lazyvibe/codescan/internal/scanning"
)

// ---------- Scanner Messages ----------

// ScannerStartedMsg is sent when a fresh scanner is running.
type ScannerStartedMsg struct {
	SessionID string
	States    <-chan model.ScanningState
	Cancel    func()
	// Err reports why the capture source ended on its own. May be nil.
	Err func() error
}

// ScannerFailedMsg is sent when a scanner could not be created.
type ScannerFailedMsg struct {
	Err error
}

// StateMsg carries a scanning state change.
type StateMsg struct {
	SessionID string
	State     model.ScanningState
}

// ScannerClosedMsg is sent when a scanner stops publishing.
type ScannerClosedMsg struct {
	SessionID string
}

// ---------- Command Functions ----------

// StartScanner returns a command that asks the engine for a fresh scanner
// and subscribes to it.
func StartScanner(ctx context.Context, engine Engine) tea.Cmd {
	return func() tea.Msg {
		sc, err := engine.StartScan(ctx)
		if err != nil {
			return ScannerFailedMsg{Err: err}
		}
		return subscribe(sc)
	}
}

func subscribe(sc *scanning.Scanner) ScannerStartedMsg {
	ch, cancel := sc.Subscribe()
	return ScannerStartedMsg{
		SessionID: sc.SessionID(),
		States:    ch,
		Cancel:    cancel,
		Err:       sc.Err,
	}
}

// WaitForState returns a command that waits for the next state. The channel
// keeps only the latest value, so a slow render never sees stale states.
func WaitForState(states <-chan model.ScanningState, sessionID string) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-states
		if !ok {
			return ScannerClosedMsg{SessionID: sessionID}
		}
		return StateMsg{SessionID: sessionID, State: st}
	}
}
