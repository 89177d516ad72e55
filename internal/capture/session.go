// Package capture owns the video-capture and frame-analysis pipeline of a
// scanning screen.
package capture

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/lazyvibe/codescan/internal/capture/device"
	"github.com/lazyvibe/codescan/internal/logger"
	"github.com/lazyvibe/codescan/internal/model"
)

// DeviceResolver finds a usable device by name and facing.
type DeviceResolver interface {
	Resolve(name string, facing model.Facing) (device.Device, error)
}

// Session owns exactly one device stream and analyzer. It is single use:
// once stopped it cannot be set up or started again.
type Session struct {
	id          string
	resolver    DeviceResolver
	deviceName  string
	newAnalyzer func(model.SymbologySet) Analyzer
	limiter     *rate.Limiter
	log         *logger.Logger

	mu          sync.Mutex
	status      model.SessionStatus
	setup       bool
	settingUp   bool
	setupCancel context.CancelFunc
	stopped     bool
	stream      device.Stream
	analyzer    Analyzer
	cancel      context.CancelFunc
	exitErr     error

	events    chan model.DetectionEvent
	closeOnce sync.Once
	loopDone  chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session's logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// WithFrameRate caps how many frames per second are analyzed. Zero or a
// negative value disables pacing.
func WithFrameRate(fps float64) Option {
	return func(s *Session) {
		if fps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(fps), 1)
		}
	}
}

// WithAnalyzer replaces the default FilterAnalyzer.
func WithAnalyzer(fn func(model.SymbologySet) Analyzer) Option {
	return func(s *Session) {
		s.newAnalyzer = fn
	}
}

// NewSession creates a session that will capture from the named device.
func NewSession(resolver DeviceResolver, deviceName string, opts ...Option) *Session {
	s := &Session{
		id:          uuid.New().String(),
		resolver:    resolver,
		deviceName:  deviceName,
		newAnalyzer: defaultAnalyzer,
		log:         logger.Discard(),
		status:      model.SessionStatusIdle,
		events:      make(chan model.DetectionEvent),
		loopDone:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session_id", s.id, "device", deviceName)
	return s
}

func defaultAnalyzer(types model.SymbologySet) Analyzer {
	return NewFilterAnalyzer(types)
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Setup acquires the device, opens its stream and configures the analyzer.
// It may succeed at most once per session. The session lock is not held
// while the device opens, so Stop can interrupt a slow Open.
func (s *Session) Setup(ctx context.Context, facing model.Facing, symbologies model.SymbologySet) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return &SetupError{Kind: ErrSessionStopped, Device: s.deviceName}
	}
	if s.setup || s.settingUp {
		s.mu.Unlock()
		return &SetupError{Kind: ErrAlreadySetup, Device: s.deviceName}
	}
	s.settingUp = true
	ctx, cancel := context.WithCancel(ctx)
	s.setupCancel = cancel
	s.mu.Unlock()

	stream, name, err := s.open(ctx, facing, symbologies)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	s.settingUp = false
	s.setupCancel = nil

	if s.stopped {
		if stream != nil {
			if cerr := stream.Close(); cerr != nil {
				s.log.Warn(ctx, "closing capture stream", "error", cerr)
			}
		}
		return &SetupError{Kind: ErrSessionStopped, Device: s.deviceName}
	}
	if err != nil {
		s.status = model.SessionStatusError
		return err
	}

	s.stream = stream
	s.analyzer = s.newAnalyzer(symbologies)
	s.setup = true
	s.status = model.SessionStatusReady
	s.log.Debug(ctx, "capture session set up", "device", name, "symbologies", symbologies.Slice())
	return nil
}

func (s *Session) open(ctx context.Context, facing model.Facing, symbologies model.SymbologySet) (device.Stream, string, error) {
	dev, err := s.resolver.Resolve(s.deviceName, facing)
	if err != nil {
		return nil, s.deviceName, &SetupError{Kind: ErrDeviceUnavailable, Device: s.deviceName, Err: err}
	}
	stream, err := dev.Open(ctx, symbologies)
	if err != nil {
		return nil, dev.Name(), &SetupError{Kind: ErrInputAttach, Device: dev.Name(), Err: err}
	}
	return stream, dev.Name(), nil
}

// Start begins frame delivery on a background goroutine and reports whether
// frames are flowing. It never blocks. Calling it before a successful Setup
// or after Stop does nothing and returns false; calling it while running
// returns true.
func (s *Session) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.stopped:
		s.log.Warn(context.Background(), "start on stopped capture session ignored")
		return false
	case !s.setup:
		s.log.Warn(context.Background(), "start before setup ignored")
		return false
	case s.status == model.SessionStatusRunning:
		return true
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.status = model.SessionStatusRunning

	go s.captureLoop(ctx, s.stream, s.analyzer)
	s.log.Debug(ctx, "capture session started")
	return true
}

// captureLoop reads, analyzes and hands over one frame at a time. The events
// channel is unbuffered, so frame N+1 is only handed over once the consumer
// has finished with frame N.
func (s *Session) captureLoop(ctx context.Context, stream device.Stream, analyzer Analyzer) {
	defer close(s.loopDone)
	defer s.closeEvents()

	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
		}

		frame, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.finish(err)
			return
		}

		ev := analyzer.Analyze(frame)

		if ctx.Err() != nil {
			return
		}
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// finish records why the stream ended on its own.
func (s *Session) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != io.EOF {
		s.exitErr = err
	}
	if s.status == model.SessionStatusRunning {
		s.status = model.SessionStatusStopped
	}
	s.log.Info(context.Background(), "capture stream ended", "error", err)
}

func (s *Session) closeEvents() {
	s.closeOnce.Do(func() {
		close(s.events)
	})
}

// Stop halts frame delivery and releases the device. It is idempotent and
// safe to call before, during or without Setup; a Setup in progress is
// cancelled and fails with ErrSessionStopped. A frame already handed to the
// analyzer may still be delivered.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true

	if s.setupCancel != nil {
		s.setupCancel()
	}
	running := s.cancel != nil
	if running {
		s.cancel()
	}
	stream := s.stream
	if s.status != model.SessionStatusError {
		s.status = model.SessionStatusStopped
	}
	s.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			s.log.Warn(context.Background(), "closing capture stream", "error", err)
		}
	}
	if !running {
		// No capture loop owns the channel; close it here so consumers finish.
		s.closeEvents()
		s.closeLoopDone()
	}
	s.log.Debug(context.Background(), "capture session stopped")
}

func (s *Session) closeLoopDone() {
	select {
	case <-s.loopDone:
	default:
		close(s.loopDone)
	}
}

// Wait blocks until the capture loop has exited, or ctx ends. It returns
// immediately for a session that was never started and has been stopped.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the channel frames are delivered on. It is closed when the
// session stops or the device runs out of frames.
func (s *Session) Events() <-chan model.DetectionEvent {
	return s.events
}

// Status returns the current lifecycle status.
func (s *Session) Status() model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ExitError returns why the device stream ended on its own, if it did so
// abnormally.
func (s *Session) ExitError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}
