package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lazyvibe/codescan/internal/model"
	"github.com/lazyvibe/codescan/internal/ui/styles"
)

// View renders the entire application.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	if a.width > 0 && (a.width < minAppWidth || a.height < minAppHeight) {
		msg := fmt.Sprintf("window too small, need at least %dx%d (now %dx%d)", minAppWidth, minAppHeight, a.width, a.height)
		return lipgloss.NewStyle().
			Width(a.width).
			Height(a.height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(styles.Hint.Render(msg))
	}

	body := a.renderBody()
	panel := styles.Panel
	if a.width > 4 {
		panel = panel.Width(a.width - 2)
	}

	parts := []string{
		panel.Render(body),
		a.help.View(a.keys),
		a.statusBar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderBody() string {
	switch a.permission {
	case model.PermissionDenied:
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.PanelTitle.Foreground(styles.Danger).Render(styles.IconLock+" Camera access denied"),
			"codescan is not allowed to use the camera.",
			styles.Hint.Render("Run `codescan permission reset` and scan again to be asked once more."),
		)
	case model.PermissionUndetermined:
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.PanelTitle.Render("Camera access not decided"),
			styles.Hint.Render("Run `codescan scan` from a terminal to answer the permission prompt."),
		)
	}

	if a.failure != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.PanelTitle.Foreground(styles.Danger).Render(styles.IconError+" Scanner unavailable"),
			a.failure.Error(),
			styles.Hint.Render("Press r to try again."),
		)
	}

	badge := styles.RenderStateBadge(a.state.Kind)
	var lines []string
	switch a.state.Kind {
	case model.StateUndetermined:
		lines = append(lines, a.spinner.View()+" Starting camera...")
	case model.StateScanning:
		lines = append(lines, a.spinner.View()+" Point the camera at a code.")
	case model.StateUnknownCode:
		lines = append(lines,
			a.spinner.View()+" Point the camera at a code.",
			lipgloss.NewStyle().Foreground(styles.Warning).Render(styles.IconWarning+" That code is not accepted here."),
		)
	case model.StateScannedCode:
		payload := a.state.Payload
		if a.width > 12 {
			payload = styles.TruncateWithEllipsis(payload, a.width-12)
		}
		lines = append(lines,
			lipgloss.NewStyle().Foreground(styles.Success).Bold(true).Render(styles.IconSuccess+" Code scanned"),
			styles.PayloadStyle.Render(payload),
			styles.Hint.Render("Press enter to finish or r to scan another."),
		)
	case model.StateError:
		lines = append(lines,
			lipgloss.NewStyle().Foreground(styles.Danger).Bold(true).Render(styles.IconError+" "+a.state.Message),
			styles.Hint.Render("Press r to try again."),
		)
	}

	return badge + "\n\n" + strings.Join(lines, "\n")
}
