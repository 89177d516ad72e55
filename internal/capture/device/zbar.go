package device

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aymanbagabas/go-pty"

	"github.com/lazyvibe/codescan/internal/model"
)

const (
	zbarName          = "zbar"
	zbarCommand       = "zbarcam"
	defaultGrace      = 500 * time.Millisecond
	exitDrainInterval = 50 * time.Millisecond
	tailLines         = 20
)

// ZbarDevice runs zbarcam under a PTY with --xml output and turns every
// processed image into a frame. The PTY keeps zbarcam's stdout flushed, and
// the XML framing keeps payloads that contain line breaks intact.
type ZbarDevice struct {
	path   string
	video  string
	extra  []string
	grace  time.Duration
	facing model.Facing
}

// NewZbarDevice creates a ZbarDevice. An empty path looks zbarcam up in PATH.
func NewZbarDevice(path, video string, extra ...string) *ZbarDevice {
	return &ZbarDevice{
		path:   path,
		video:  video,
		extra:  extra,
		grace:  defaultGrace,
		facing: model.FacingBack,
	}
}

// SetStartupGrace sets how long Open waits for zbarcam to fail before
// treating the stream as attached.
func (d *ZbarDevice) SetStartupGrace(grace time.Duration) {
	if grace > 0 {
		d.grace = grace
	}
}

// Name returns the device identifier.
func (d *ZbarDevice) Name() string {
	return zbarName
}

// Facing reports the camera direction.
func (d *ZbarDevice) Facing() model.Facing {
	return d.facing
}

// Video returns the video node zbarcam reads.
func (d *ZbarDevice) Video() string {
	return d.video
}

// Available checks the decoder binary and the video node.
func (d *ZbarDevice) Available() error {
	if _, err := lookExecutable(d.command()); err != nil {
		return err
	}
	if d.video == "" {
		return errors.New("no video device configured")
	}
	if _, err := os.Stat(d.video); err != nil {
		return fmt.Errorf("video device: %w", err)
	}
	return nil
}

func (d *ZbarDevice) command() string {
	if d.path != "" {
		return d.path
	}
	return zbarCommand
}

// Args returns the zbarcam arguments for the given symbologies.
func (d *ZbarDevice) Args(symbologies model.SymbologySet) []string {
	args := []string{"--nodisplay", "--xml"}
	if len(symbologies) > 0 {
		args = append(args, "-Sdisable")
		for _, sym := range symbologies.Slice() {
			args = append(args, "-S"+zbarConfigName(sym)+".enable")
		}
	}
	args = append(args, d.extra...)
	if d.video != "" {
		args = append(args, d.video)
	}
	return args
}

// Open starts zbarcam. If the process dies within the startup grace period
// (device busy, no permission) Open fails with the decoder's last output.
func (d *ZbarDevice) Open(ctx context.Context, symbologies model.SymbologySet) (Stream, error) {
	bin, err := lookExecutable(d.command())
	if err != nil {
		return nil, err
	}

	ptmx, err := pty.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create pty: %w", err)
	}

	commander, ok := ptmx.(interface {
		Command(string, ...string) *pty.Cmd
	})
	if !ok {
		ptmx.Close()
		return nil, errors.New("pty implementation does not support Command creation")
	}
	cmd := commander.Command(bin, d.Args(symbologies)...)
	cmd.Env = append(os.Environ(), "TERM=dumb")

	if err := cmd.Start(); err != nil {
		ptmx.Close()
		return nil, fmt.Errorf("start failed: %s: %w", bin, err)
	}

	s := &zbarStream{
		ptmx:     ptmx,
		cmd:      cmd,
		frames:   make(chan model.Frame, 64),
		exited:   make(chan struct{}),
		readDone: make(chan struct{}),
		closed:   make(chan struct{}),
		tail:     newLineTail(tailLines),
	}
	go s.readLoop()
	go s.waitLoop()

	timer := time.NewTimer(d.grace)
	defer timer.Stop()

	select {
	case <-s.exited:
		select {
		case <-s.readDone:
		case <-time.After(d.grace):
		}
		s.Close()
		return nil, fmt.Errorf("%s exited during startup: %v (%s)", zbarCommand, s.exitErr(), s.tail)
	case <-ctx.Done():
		s.Close()
		return nil, ctx.Err()
	case <-timer.C:
	}

	return s, nil
}

type zbarStream struct {
	ptmx     pty.Pty
	cmd      *pty.Cmd
	frames   chan model.Frame
	exited   chan struct{}
	readDone chan struct{}
	closed   chan struct{}
	tail     *lineTail
	seq      atomic.Uint64

	mu      sync.Mutex
	waitErr error
	readErr error
	once    sync.Once
}

// readLoop decodes zbarcam's XML output into frames until the PTY closes.
// Raw output also goes to the tail for startup error reports.
func (s *zbarStream) readLoop() {
	defer close(s.readDone)
	defer close(s.frames)

	err := ParseZbarXML(io.TeeReader(s.ptmx, s.tail), func(dets []model.Detection) bool {
		frame := model.Frame{Seq: s.seq.Add(1), Captured: time.Now(), Symbols: dets}
		select {
		case s.frames <- frame:
			return true
		case <-s.closed:
			return false
		}
	})

	// Reads fail once the PTY closes; only malformed output is worth keeping.
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		s.mu.Lock()
		s.readErr = fmt.Errorf("decoding %s output: %w", zbarCommand, err)
		s.mu.Unlock()
	}
}

// waitLoop monitors process exit and closes the PTY so readLoop ends.
func (s *zbarStream) waitLoop() {
	err := s.cmd.Wait()
	s.mu.Lock()
	s.waitErr = err
	s.mu.Unlock()
	close(s.exited)

	// Let readLoop pick up output written just before exit.
	time.Sleep(exitDrainInterval)
	s.ptmx.Close()
}

func (s *zbarStream) exitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitErr
}

func (s *zbarStream) decodeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

// Next returns the frame for the next image zbarcam processed. An image
// with no recognised symbol yields an empty frame.
func (s *zbarStream) Next(ctx context.Context) (model.Frame, error) {
	select {
	case <-ctx.Done():
		return model.Frame{}, ctx.Err()
	case frame, ok := <-s.frames:
		if !ok {
			if err := s.exitErr(); err != nil {
				return model.Frame{}, fmt.Errorf("%s exited: %w: %w", zbarCommand, err, io.EOF)
			}
			if err := s.decodeErr(); err != nil {
				return model.Frame{}, fmt.Errorf("%w: %w", err, io.EOF)
			}
			return model.Frame{}, io.EOF
		}
		return frame, nil
	}
}

// Close terminates zbarcam and releases the PTY. Safe to call repeatedly.
func (s *zbarStream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		if cerr := s.ptmx.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) {
			err = cerr
		}
	})
	return err
}
