package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lazyvibe/codescan/internal/model"
)

// Update handles all messages for the application.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case ScannerStartedMsg:
		a.dropSubscription()
		a.sessionID = msg.SessionID
		a.states = msg.States
		a.unsub = msg.Cancel
		a.scanErr = msg.Err
		a.failure = nil
		a.captureErr = nil
		a.statusBar.SetSessionID(msg.SessionID)
		a.statusBar.ClearMessage()
		return a, WaitForState(msg.States, msg.SessionID)

	case ScannerFailedMsg:
		a.failure = msg.Err
		a.statusBar.SetMessage(msg.Err.Error(), true)
		return a, nil

	case StateMsg:
		if msg.SessionID != a.sessionID {
			return a, nil
		}
		a.state = msg.State
		cmd := a.handleState()
		if a.quitting {
			return a, cmd
		}
		return a, tea.Batch(cmd, WaitForState(a.states, a.sessionID))

	case ScannerClosedMsg:
		if msg.SessionID != a.sessionID || a.state.IsTerminal() {
			return a, nil
		}
		if a.scanErr != nil {
			a.captureErr = a.scanErr()
		}
		if a.captureErr != nil {
			a.statusBar.SetMessage("camera stopped: "+a.captureErr.Error(), true)
		} else {
			a.statusBar.SetMessage("camera stopped", false)
		}
		return a, nil
	}

	return a, nil
}

// handleState reacts to the state just rendered and keeps listening.
func (a *App) handleState() tea.Cmd {
	switch a.state.Kind {
	case model.StateScannedCode:
		a.result = a.state.Payload
		a.scanned = true
		if a.opts.ExitOnScan {
			return a.quit()
		}
		a.statusBar.SetMessage("code scanned", false)
		return nil
	case model.StateError:
		a.statusBar.SetMessage(a.state.Message, true)
		return nil
	case model.StateUnknownCode:
		a.statusBar.SetMessage("code not accepted", false)
	default:
		a.statusBar.ClearMessage()
	}
	return nil
}

func (a *App) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, a.quit()

	case key.Matches(msg, a.keys.Done):
		if a.scanned {
			return a, a.quit()
		}

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll

	case key.Matches(msg, a.keys.Retry):
		if a.canRetry() {
			a.state = model.Undetermined()
			a.scanned = false
			a.result = ""
			return a, StartScanner(a.ctx, a.engine)
		}
	}
	return a, nil
}

// canRetry reports whether a fresh session may be started. A running
// scanner is never replaced from the keyboard.
func (a *App) canRetry() bool {
	if a.permission != model.PermissionGranted {
		return false
	}
	return a.state.IsTerminal() || a.failure != nil
}

func (a *App) quit() tea.Cmd {
	a.quitting = true
	a.dropSubscription()
	a.engine.CloseAll()
	return tea.Quit
}

func (a *App) dropSubscription() {
	if a.unsub != nil {
		a.unsub()
		a.unsub = nil
	}
}

// SetSize updates the layout dimensions.
func (a *App) SetSize(width, height int) {
	a.width = width
	a.height = height
	a.statusBar.SetWidth(width)
	a.help.Width = width
}
