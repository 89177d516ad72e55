package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lazyvibe/codescan/internal/model"
)

const spoolName = "spool"

// SpoolDevice treats a directory as a camera: every file renamed into it is
// one frame, holding one "symbology:payload" detection per line. An empty
// file is an empty frame. Files are removed once read; names starting with
// "." are ignored so writers can stage temp files in place.
type SpoolDevice struct {
	dir    string
	facing model.Facing
}

// NewSpoolDevice creates a SpoolDevice watching dir.
func NewSpoolDevice(dir string) *SpoolDevice {
	return &SpoolDevice{dir: dir, facing: model.FacingBack}
}

// Name returns the device identifier.
func (d *SpoolDevice) Name() string {
	return spoolName
}

// Facing reports the camera direction.
func (d *SpoolDevice) Facing() model.Facing {
	return d.facing
}

// Dir returns the watched directory.
func (d *SpoolDevice) Dir() string {
	return d.dir
}

// Available checks that the spool directory exists.
func (d *SpoolDevice) Available() error {
	if d.dir == "" {
		return errors.New("no spool directory configured")
	}
	info, err := os.Stat(d.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", d.dir)
	}
	return nil
}

// Open starts watching the directory. Files already present are not replayed.
func (d *SpoolDevice) Open(_ context.Context, _ model.SymbologySet) (Stream, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(d.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", d.dir, err)
	}
	return &spoolStream{watcher: w}, nil
}

type spoolStream struct {
	watcher *fsnotify.Watcher
	seq     atomic.Uint64
	once    sync.Once
}

// Next blocks until a new file lands in the directory.
func (s *spoolStream) Next(ctx context.Context) (model.Frame, error) {
	for {
		select {
		case <-ctx.Done():
			return model.Frame{}, ctx.Err()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return model.Frame{}, io.EOF
			}
			return model.Frame{}, err
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return model.Frame{}, io.EOF
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			frame, ok := s.read(ev.Name)
			if !ok {
				continue
			}
			return frame, nil
		}
	}
}

// read consumes one spool file. Directories and files that vanished before
// they could be read are skipped.
func (s *spoolStream) read(path string) (model.Frame, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return model.Frame{}, false
	}

	f, err := os.Open(path)
	if err != nil {
		return model.Frame{}, false
	}
	defer os.Remove(path)
	defer f.Close()

	symbols, err := ParseDetections(f)
	if err != nil {
		return model.Frame{}, false
	}
	return model.Frame{
		Seq:      s.seq.Add(1),
		Captured: time.Now(),
		Symbols:  symbols,
	}, true
}

// Close stops watching. Safe to call repeatedly.
func (s *spoolStream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.watcher.Close()
	})
	return err
}
