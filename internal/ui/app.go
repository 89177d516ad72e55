package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lazyvibe/codescan/internal/model"
	"github.com/lazyvibe/codescan/internal/scanning"
	"github.com/lazyvibe/codescan/internal/ui/components/statusbar"
	"github.com/lazyvibe/codescan/internal/ui/keys"
	"github.com/lazyvibe/codescan/internal/ui/styles"
)

const (
	minAppWidth  = 40
	minAppHeight = 8
)

// Engine is what the UI needs from the runtime.
type Engine interface {
	Permission() model.PermissionStatus
	StartScan(ctx context.Context) (*scanning.Scanner, error)
	CloseAll()
}

// Options tunes the App.
type Options struct {
	// Device is shown in the status bar.
	Device string
	// ExitOnScan quits as soon as a code is scanned.
	ExitOnScan bool
}

// App is the main application model. It renders the permission status and
// the scanning state; it never writes either.
type App struct {
	engine Engine
	ctx    context.Context
	opts   Options

	keys      keys.KeyMap
	help      help.Model
	spinner   spinner.Model
	statusBar statusbar.Model

	permission model.PermissionStatus
	state      model.ScanningState
	sessionID  string
	states     <-chan model.ScanningState
	unsub      func()
	scanErr    func() error
	captureErr error
	failure    error
	result     string
	scanned    bool

	width    int
	height   int
	quitting bool
}

// New creates a new App.
func New(ctx context.Context, engine Engine, opts Options) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Accent)

	return &App{
		engine:    engine,
		ctx:       ctx,
		opts:      opts,
		keys:      keys.DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		statusBar: statusbar.New(opts.Device),
		state:     model.Undetermined(),
	}
}

// Init reads the permission and, if granted, starts the first scanner.
func (a *App) Init() tea.Cmd {
	a.permission = a.engine.Permission()
	a.statusBar.SetPermission(a.permission)
	if a.permission != model.PermissionGranted {
		return nil
	}
	return tea.Batch(a.spinner.Tick, StartScanner(a.ctx, a.engine))
}

// Result returns the scanned payload, if a code was scanned.
func (a *App) Result() (string, bool) {
	return a.result, a.scanned
}

// State returns the last rendered scanning state.
func (a *App) State() model.ScanningState {
	return a.state
}

// Permission returns the permission status read at startup.
func (a *App) Permission() model.PermissionStatus {
	return a.permission
}

// CaptureError returns why the current scanner's camera stopped on its own,
// if it did.
func (a *App) CaptureError() error {
	return a.captureErr
}

// Failure returns why the last scanner could not be created, if it could not.
func (a *App) Failure() error {
	return a.failure
}
