package permission

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/lazyvibe/codescan/internal/store"
)

// ResourceCamera is the store key for the camera decision.
const ResourceCamera = "camera"

const defaultQuestion = "Allow codescan to use the camera? [y/N] "

// PromptAuthority asks on a terminal and remembers the answer in a
// DecisionStore, so later runs are already decided.
type PromptAuthority struct {
	mu       sync.Mutex
	in       *bufio.Reader
	out      io.Writer
	store    store.DecisionStore
	question string
	now      func() time.Time
}

// NewPromptAuthority creates a PromptAuthority reading answers from in.
func NewPromptAuthority(in io.Reader, out io.Writer, s store.DecisionStore) *PromptAuthority {
	return &PromptAuthority{
		in:       bufio.NewReader(in),
		out:      out,
		store:    s,
		question: defaultQuestion,
		now:      time.Now,
	}
}

// Status reports the remembered decision.
func (a *PromptAuthority) Status() (AuthStatus, error) {
	d, err := a.store.Get(context.Background(), ResourceCamera)
	if errors.Is(err, store.ErrNotFound) {
		return AuthNotDetermined, nil
	}
	if err != nil {
		return AuthNotDetermined, err
	}
	if d.Granted {
		return AuthAuthorized, nil
	}
	return AuthDenied, nil
}

// Request prints the question and waits for a line of input. Anything other
// than "y" or "yes" is a refusal.
func (a *PromptAuthority) Request(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := fmt.Fprint(a.out, a.question); err != nil {
		return false, err
	}

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := a.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	var ans answer
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case ans = <-ch:
	}
	if ans.err != nil && !(errors.Is(ans.err, io.EOF) && ans.line != "") {
		return false, fmt.Errorf("read answer: %w", ans.err)
	}

	reply := strings.ToLower(strings.TrimSpace(ans.line))
	granted := reply == "y" || reply == "yes"

	if err := a.store.Put(ctx, &store.Decision{
		Resource:  ResourceCamera,
		Granted:   granted,
		DecidedAt: a.now().UTC(),
	}); err != nil {
		return granted, fmt.Errorf("save decision: %w", err)
	}
	return granted, nil
}
