// Package statusbar provides the status bar UI component.
package statusbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lazyvibe/codescan/internal/model"
	"github.com/lazyvibe/codescan/internal/ui/styles"
)

// Model is the status bar component.
type Model struct {
	width      int
	message    string
	isError    bool
	permission model.PermissionStatus
	sessionID  string
	device     string
}

// New creates a new status bar component.
func New(device string) Model {
	return Model{device: device}
}

// SetWidth updates the status bar width.
func (m *Model) SetWidth(width int) {
	m.width = width
}

// SetMessage sets a temporary message.
func (m *Model) SetMessage(msg string, isError bool) {
	m.message = msg
	m.isError = isError
}

// ClearMessage clears the temporary message.
func (m *Model) ClearMessage() {
	m.message = ""
	m.isError = false
}

// SetPermission updates the permission badge.
func (m *Model) SetPermission(p model.PermissionStatus) {
	m.permission = p
}

// SetSessionID updates the active session shown on the right.
func (m *Model) SetSessionID(id string) {
	m.sessionID = id
}

// View renders the status bar.
func (m Model) View() string {
	brand := styles.StatusBarBrand.Render(" codescan ")

	permColor := styles.Muted
	switch m.permission {
	case model.PermissionGranted:
		permColor = styles.Success
	case model.PermissionDenied:
		permColor = styles.Danger
	}
	perm := ""
	if m.permission != "" {
		perm = lipgloss.NewStyle().
			Foreground(styles.Base).
			Background(permColor).
			Bold(true).
			Padding(0, 1).
			Render("camera: " + m.permission.String())
	}

	var msgArea string
	if m.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
		if m.isError {
			msgStyle = lipgloss.NewStyle().Foreground(styles.Danger).Bold(true)
		}
		msgArea = msgStyle.Render(" " + m.message + " ")
	}

	right := ""
	if m.device != "" {
		right = m.device
	}
	if m.sessionID != "" {
		id := m.sessionID
		if len(id) > 8 {
			id = id[:8]
		}
		right += styles.StatusBarSeparator.String() + id
	}
	rightContent := lipgloss.NewStyle().Foreground(styles.Muted).Render(right + " ")

	leftContent := brand + perm
	padding := m.width - lipgloss.Width(leftContent) - lipgloss.Width(msgArea) - lipgloss.Width(rightContent)
	if padding < 0 {
		padding = 0
	}
	leftPad := padding / 2
	rightPad := padding - leftPad

	content := leftContent +
		strings.Repeat(" ", leftPad) +
		msgArea +
		strings.Repeat(" ", rightPad) +
		rightContent

	return styles.StatusBarStyle.
		Padding(0).
		Width(m.width).
		Render(content)
}
