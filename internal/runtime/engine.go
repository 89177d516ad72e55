// Package runtime ties permission, capture and scanning together for a host.
package runtime

import (
	"context"
	"errors"
	"sync"

	"github.com/lazyvibe/codescan/internal/capture"
	"github.com/lazyvibe/codescan/internal/capture/device"
	"github.com/lazyvibe/codescan/internal/logger"
	"github.com/lazyvibe/codescan/internal/model"
	"github.com/lazyvibe/codescan/internal/permission"
	"github.com/lazyvibe/codescan/internal/scanning"
)

// ErrPermissionDenied is returned by StartScan unless camera access is granted.
var ErrPermissionDenied = errors.New("camera permission not granted")

// Engine manages the permission gate and the scanner of one screen.
type Engine interface {
	// Permission reads the current camera permission.
	Permission() model.PermissionStatus
	// RequestPermission prompts if no decision exists yet.
	RequestPermission(ctx context.Context) model.PermissionStatus
	// StartScan replaces any previous scanner with a fresh one and runs it.
	StartScan(ctx context.Context) (*scanning.Scanner, error)
	// Current returns the active scanner, if any.
	Current() (*scanning.Scanner, bool)
	// Devices lists the registered capture devices.
	Devices() []device.Device
	// CloseAll stops the active scanner.
	CloseAll()
}

// Config holds what the engine needs to build scanners.
type Config struct {
	Device      device.Config
	DeviceName  string
	Facing      model.Facing
	Symbologies model.SymbologySet
	Predicate   model.ValidityPredicate
	FrameRate   float64
}

// DefaultEngine is the default implementation of Engine.
type DefaultEngine struct {
	mu       sync.Mutex
	current  *scanning.Scanner
	gate     *permission.Gate
	registry *device.Registry
	feedback scanning.FeedbackSink
	cfg      Config
	log      *logger.Logger
	observe  []func(*scanning.Scanner)
}

// Option configures a DefaultEngine.
type Option func(*DefaultEngine)

// WithFeedback sets the sink notified on every successful scan.
func WithFeedback(f scanning.FeedbackSink) Option {
	return func(e *DefaultEngine) {
		e.feedback = f
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *DefaultEngine) {
		e.log = l
	}
}

// WithRegistry replaces the registry built from Config.Device.
func WithRegistry(r *device.Registry) Option {
	return func(e *DefaultEngine) {
		e.registry = r
	}
}

// WithObserver registers fn to be called with every new scanner before it runs.
func WithObserver(fn func(*scanning.Scanner)) Option {
	return func(e *DefaultEngine) {
		e.observe = append(e.observe, fn)
	}
}

// NewEngine creates a runtime engine.
func NewEngine(gate *permission.Gate, cfg Config, opts ...Option) *DefaultEngine {
	e := &DefaultEngine{
		gate: gate,
		cfg:  cfg,
		log:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = device.NewRegistryWithConfig(cfg.Device)
	}
	if e.cfg.Facing == "" {
		e.cfg.Facing = model.FacingBack
	}
	return e
}

// Permission reads the current camera permission.
func (e *DefaultEngine) Permission() model.PermissionStatus {
	return e.gate.QueryStatus()
}

// RequestPermission prompts if no decision exists yet.
func (e *DefaultEngine) RequestPermission(ctx context.Context) model.PermissionStatus {
	return e.gate.RequestAccess(ctx)
}

// StartScan builds a fresh capture session and scanner and runs it in the
// background until ctx ends or the scanner finishes. Any previous scanner is
// closed first; sessions are never reused.
func (e *DefaultEngine) StartScan(ctx context.Context) (*scanning.Scanner, error) {
	if e.gate.QueryStatus() != model.PermissionGranted {
		return nil, ErrPermissionDenied
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		e.current.Close()
		e.current = nil
	}

	session := capture.NewSession(e.registry, e.cfg.DeviceName,
		capture.WithLogger(e.log),
		capture.WithFrameRate(e.cfg.FrameRate),
	)
	opts := []scanning.ScannerOption{scanning.WithScannerLogger(e.log)}
	if e.feedback != nil {
		opts = append(opts, scanning.WithFeedback(e.feedback))
	}
	sc := scanning.NewScanner(session, scanning.Config{
		Facing:      e.cfg.Facing,
		Symbologies: e.cfg.Symbologies,
		Predicate:   e.cfg.Predicate,
	}, opts...)

	for _, fn := range e.observe {
		fn(sc)
	}

	e.current = sc
	go func() {
		if err := sc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			e.log.Warn(ctx, "scanner stopped", "session_id", sc.SessionID(), "error", err)
		}
		// Release the device however Run ended.
		session.Stop()
	}()

	return sc, nil
}

// Current returns the active scanner, if any.
func (e *DefaultEngine) Current() (*scanning.Scanner, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.current != nil
}

// Devices lists the registered capture devices.
func (e *DefaultEngine) Devices() []device.Device {
	return e.registry.List()
}

// CloseAll stops the active scanner.
func (e *DefaultEngine) CloseAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		e.current.Close()
		e.current = nil
	}
}
