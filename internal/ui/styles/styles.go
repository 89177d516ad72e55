// Package styles defines the visual appearance for the codescan TUI.
// Colors come from the Catppuccin Mocha palette.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lazyvibe/codescan/internal/model"
)

// Catppuccin Mocha color palette
var (
	Mauve    = lipgloss.Color("#CBA6F7")
	Red      = lipgloss.Color("#F38BA8")
	Peach    = lipgloss.Color("#FAB387")
	Yellow   = lipgloss.Color("#F9E2AF")
	Green    = lipgloss.Color("#A6E3A1")
	Sapphire = lipgloss.Color("#74C7EC")
	Blue     = lipgloss.Color("#89B4FA")

	Text     = lipgloss.Color("#CDD6F4")
	Subtext0 = lipgloss.Color("#A6ADC8")
	Overlay0 = lipgloss.Color("#6C7086")
	Surface1 = lipgloss.Color("#45475A")
	Surface0 = lipgloss.Color("#313244")
	Base     = lipgloss.Color("#1E1E2E")
	Mantle   = lipgloss.Color("#181825")
)

// Semantic colors (using the palette)
var (
	Primary   = Mauve
	Accent    = Sapphire
	Danger    = Red
	Warning   = Peach
	Success   = Green
	Info      = Blue
	Muted     = Overlay0
	TextCol   = Text
	TextMuted = Subtext0
	Border    = Surface1
)

// Panel styles
var (
	// Panel frames the main scanning view.
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)

	PanelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginBottom(1)

	Hint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	PayloadStyle = lipgloss.NewStyle().
			Foreground(TextCol).
			Background(Surface0).
			Padding(0, 1)
)

// StatusBar styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Background(Mantle).
			Padding(0, 1)

	StatusBarBrand = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	StatusBarSeparator = lipgloss.NewStyle().
				Foreground(Overlay0).
				SetString(" │ ")
)

// Icons
var (
	IconSuccess = "✔"
	IconWarning = "!"
	IconError   = "✘"
	IconDot     = "●"
	IconLock    = "⊘"
)

// StateColor returns the color for a scanning state.
func StateColor(kind model.ScanningStateKind) lipgloss.Color {
	switch kind {
	case model.StateScanning:
		return Info
	case model.StateScannedCode:
		return Success
	case model.StateUnknownCode:
		return Warning
	case model.StateError:
		return Danger
	default:
		return Muted
	}
}

// RenderStateBadge renders a colored label for a scanning state.
func RenderStateBadge(kind model.ScanningStateKind) string {
	label := strings.ToUpper(strings.ReplaceAll(kind.String(), "_", " "))
	return lipgloss.NewStyle().
		Foreground(Base).
		Background(StateColor(kind)).
		Bold(true).
		Padding(0, 1).
		Render(label)
}

// TruncateWithEllipsis truncates a string to maxLen runes with ellipsis.
func TruncateWithEllipsis(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
