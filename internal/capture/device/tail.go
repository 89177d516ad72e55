package device

import (
	"bytes"
	"strings"
	"sync"
)

// lineTail is a fixed-size circular buffer holding the most recent lines of
// a decoder's output for error reports.
type lineTail struct {
	mu    sync.Mutex
	lines []string
	size  int
	start int
	n     int

	// partial holds bytes written after the last newline.
	partial []byte
}

func newLineTail(size int) *lineTail {
	return &lineTail{
		lines: make([]string, size),
		size:  size,
	}
}

// Add appends a line, overwriting the oldest once full.
func (t *lineTail) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.add(line)
}

// Write splits raw output into lines and keeps the non-blank ones. A
// trailing fragment waits for its newline.
func (t *lineTail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partial = append(t.partial, p...)
	for {
		i := bytes.IndexByte(t.partial, '\n')
		if i < 0 {
			break
		}
		if line := strings.TrimSpace(string(t.partial[:i])); line != "" {
			t.add(line)
		}
		t.partial = t.partial[i+1:]
	}
	return len(p), nil
}

func (t *lineTail) add(line string) {
	if t.n < t.size {
		t.lines[(t.start+t.n)%t.size] = line
		t.n++
		return
	}
	t.lines[t.start] = line
	t.start = (t.start + 1) % t.size
}

// Lines returns the stored lines, oldest first.
func (t *lineTail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, t.n)
	for i := 0; i < t.n; i++ {
		out = append(out, t.lines[(t.start+i)%t.size])
	}
	return out
}

// String joins the stored lines with "; ".
func (t *lineTail) String() string {
	return strings.Join(t.Lines(), "; ")
}
