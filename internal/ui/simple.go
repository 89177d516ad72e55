package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lazyvibe/codescan/internal/model"
)

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return false
	}

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// SimpleUI prints one line per state change. It is used when output is not
// a terminal.
type SimpleUI struct {
	engine Engine
	out    io.Writer
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(engine Engine, out io.Writer) *SimpleUI {
	return &SimpleUI{engine: engine, out: out}
}

// Run starts one scanner and reports its states until a terminal state is
// reached, the scanner ends or ctx is done. It returns the last state seen.
func (s *SimpleUI) Run(ctx context.Context) (model.ScanningState, error) {
	last := model.Undetermined()

	s.printf("permission: %s\n", s.engine.Permission())
	sc, err := s.engine.StartScan(ctx)
	if err != nil {
		return last, err
	}
	defer s.engine.CloseAll()

	states, cancel := sc.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case st, ok := <-states:
			if !ok {
				if err := sc.Err(); err != nil {
					return last, fmt.Errorf("capture ended: %w", err)
				}
				return last, nil
			}
			last = st
			s.printf("%s\n", FormatState(st))
			if st.IsTerminal() {
				return last, nil
			}
		}
	}
}

// FormatState renders a state as a single log-friendly line.
func FormatState(st model.ScanningState) string {
	switch st.Kind {
	case model.StateScannedCode:
		return fmt.Sprintf("state: %s payload=%q", st.Kind, st.Payload)
	case model.StateError:
		return fmt.Sprintf("state: %s message=%q", st.Kind, st.Message)
	default:
		return "state: " + st.Kind.String()
	}
}

func (s *SimpleUI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
