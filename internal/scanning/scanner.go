package scanning

import (
	"context"
	"errors"
	"sync"

	"github.com/lazyvibe/codescan/internal/capture"
	"github.com/lazyvibe/codescan/internal/logger"
	"github.com/lazyvibe/codescan/internal/model"
)

// ErrAlreadyRun is returned by a second call to Run.
var ErrAlreadyRun = errors.New("scanner already run")

// CaptureSession is the part of capture.Session the scanner drives.
type CaptureSession interface {
	ID() string
	Setup(ctx context.Context, facing model.Facing, symbologies model.SymbologySet) error
	Start() bool
	Stop()
	Events() <-chan model.DetectionEvent
}

// FeedbackSink is notified once per successful scan. Success must not block.
type FeedbackSink interface {
	Success(ctx context.Context, sessionID, payload string)
}

// Config holds what a scanner needs from its host.
type Config struct {
	Facing      model.Facing
	Symbologies model.SymbologySet
	Predicate   model.ValidityPredicate
}

// Scanner owns one capture session and the scanning state derived from it.
// The state is written only by Run; hosts read it through State and
// Subscribe.
type Scanner struct {
	session  CaptureSession
	feedback FeedbackSink
	machine  *Machine
	facing   model.Facing
	types    model.SymbologySet
	log      *logger.Logger

	mu      sync.Mutex
	ran     bool
	ended   bool
	subs    map[int]chan model.ScanningState
	nextSub int
	done    chan struct{}
	exitErr error
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithFeedback sets the sink notified on success.
func WithFeedback(f FeedbackSink) ScannerOption {
	return func(s *Scanner) {
		s.feedback = f
	}
}

// WithScannerLogger sets the scanner's logger.
func WithScannerLogger(l *logger.Logger) ScannerOption {
	return func(s *Scanner) {
		s.log = l
	}
}

// NewScanner creates a scanner in the Undetermined state.
func NewScanner(session CaptureSession, cfg Config, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		session: session,
		machine: NewMachine(cfg.Symbologies, cfg.Predicate),
		facing:  cfg.Facing,
		types:   cfg.Symbologies,
		log:     logger.Discard(),
		subs:    make(map[int]chan model.ScanningState),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session_id", session.ID())
	return s
}

// SessionID returns the ID of the underlying capture session.
func (s *Scanner) SessionID() string {
	return s.session.ID()
}

// State returns the current scanning state.
func (s *Scanner) State() model.ScanningState {
	return s.machine.State()
}

// Done is closed when Run returns.
func (s *Scanner) Done() <-chan struct{} {
	return s.done
}

// Err returns why the capture source ended on its own, if the session
// reports one. It is nil after a scan, a cancel or a Close.
func (s *Scanner) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}

// Subscribe returns a channel that receives the current state immediately
// and then every change. A slow reader only misses intermediate states: the
// channel always holds the latest one. The channel is closed when Run
// returns or cancel is called.
func (s *Scanner) Subscribe() (<-chan model.ScanningState, func()) {
	ch := make(chan model.ScanningState, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	ch <- s.machine.State()
	if s.ended {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish hands state to every subscriber, replacing any unread value.
func (s *Scanner) publish(state model.ScanningState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}

// Run sets up and starts the session, then applies every delivered event
// until a terminal state is reached, the session runs dry, or ctx ends.
// A setup failure is not returned: it becomes the Error state.
func (s *Scanner) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return ErrAlreadyRun
	}
	s.ran = true
	s.mu.Unlock()

	defer s.end()

	if err := s.session.Setup(ctx, s.facing, s.types); err != nil {
		if errors.Is(err, capture.ErrSessionStopped) {
			s.log.Debug(ctx, "capture session closed during setup")
			return nil
		}
		state := s.machine.Fail(setupMessage(err))
		s.log.Error(ctx, "capture setup failed", "error", err)
		s.publish(state)
		return nil
	}

	if !s.session.Start() {
		s.log.Debug(ctx, "capture session closed before start")
		return nil
	}
	s.log.Debug(ctx, "capture session started")

	// The session is alive: report Scanning before the first frame arrives.
	s.apply(ctx, model.DetectionEvent{})

	events := s.session.Events()
	for {
		select {
		case <-ctx.Done():
			s.session.Stop()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				s.recordExit(ctx)
				return nil
			}
			if s.apply(ctx, ev).IsTerminal() {
				return nil
			}
		}
	}
}

// apply runs one event through the machine and acts on the result.
func (s *Scanner) apply(ctx context.Context, ev model.DetectionEvent) model.ScanningState {
	prev := s.machine.State()
	res := s.machine.Apply(ev)

	if res.StopSession {
		s.session.Stop()
	}
	if res.Next != prev {
		s.publish(res.Next)
	}
	if res.FireSuccess {
		s.log.Info(ctx, "code scanned", "frame", ev.Frame)
		if s.feedback != nil {
			s.feedback.Success(ctx, s.session.ID(), res.Next.Payload)
		}
	}
	return res.Next
}

// recordExit keeps the session's exit error when the event stream ran dry.
func (s *Scanner) recordExit(ctx context.Context) {
	es, ok := s.session.(interface{ ExitError() error })
	if !ok {
		s.log.Debug(ctx, "capture session ended")
		return
	}
	err := es.ExitError()
	if err == nil {
		s.log.Debug(ctx, "capture session ended")
		return
	}
	s.log.Warn(ctx, "capture session ended", "error", err)
	s.mu.Lock()
	s.exitErr = err
	s.mu.Unlock()
}

func (s *Scanner) end() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ended = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	close(s.done)
}

// Close tears the scanner down. The session is stopped immediately; Run
// returns once the session's event channel closes.
func (s *Scanner) Close() {
	s.session.Stop()
}

// setupMessage is the user-facing text for a setup failure.
func setupMessage(err error) string {
	switch {
	case errors.Is(err, capture.ErrDeviceUnavailable):
		return capture.ErrDeviceUnavailable.Error()
	case errors.Is(err, capture.ErrInputAttach):
		return capture.ErrInputAttach.Error()
	default:
		return err.Error()
	}
}
