package permission

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazyvibe/codescan/internal/model"
	"github.com/lazyvibe/codescan/internal/store"
)

func newStore(t *testing.T) *store.JSONStore {
	t.Helper()
	s, err := store.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestPromptAuthority_Request(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			s := newStore(t)
			var out bytes.Buffer
			a := NewPromptAuthority(strings.NewReader(tt.input), &out, s)

			st, err := a.Status()
			require.NoError(t, err)
			assert.Equal(t, AuthNotDetermined, st)

			granted, err := a.Request(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, granted)
			assert.Contains(t, out.String(), "Allow codescan to use the camera?")

			st, err = a.Status()
			require.NoError(t, err)
			if tt.want {
				assert.Equal(t, AuthAuthorized, st)
			} else {
				assert.Equal(t, AuthDenied, st)
			}
		})
	}
}

func TestPromptAuthority_EmptyInputIsError(t *testing.T) {
	s := newStore(t)
	a := NewPromptAuthority(strings.NewReader(""), io.Discard, s)

	_, err := a.Request(context.Background())
	assert.Error(t, err)

	st, err := a.Status()
	require.NoError(t, err)
	assert.Equal(t, AuthNotDetermined, st, "no answer leaves the decision open")
}

func TestPromptAuthority_ContextCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	a := NewPromptAuthority(r, io.Discard, newStore(t))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := a.Request(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPromptAuthority_DecisionSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewJSONStore(dir)
	require.NoError(t, err)

	g := NewGate(NewPromptAuthority(strings.NewReader("y\n"), io.Discard, s))
	require.Equal(t, model.PermissionGranted, g.RequestAccess(context.Background()))

	reloaded, err := store.NewJSONStore(dir)
	require.NoError(t, err)
	g = NewGate(NewPromptAuthority(strings.NewReader(""), io.Discard, reloaded))
	assert.Equal(t, model.PermissionGranted, g.QueryStatus())
}

func TestDeviceAuthority(t *testing.T) {
	inner := &fakeAuthority{status: AuthAuthorized, answer: true}

	t.Run("no path defers to inner", func(t *testing.T) {
		st, err := NewDeviceAuthority(inner, "").Status()
		require.NoError(t, err)
		assert.Equal(t, AuthAuthorized, st)
	})

	t.Run("missing node defers to inner", func(t *testing.T) {
		a := NewDeviceAuthority(inner, filepath.Join(t.TempDir(), "video9"))
		st, err := a.Status()
		require.NoError(t, err)
		assert.Equal(t, AuthAuthorized, st)
	})

	t.Run("readable node defers to inner", func(t *testing.T) {
		node := filepath.Join(t.TempDir(), "video0")
		require.NoError(t, os.WriteFile(node, nil, 0o644))

		a := NewDeviceAuthority(inner, node)
		st, err := a.Status()
		require.NoError(t, err)
		assert.Equal(t, AuthAuthorized, st)

		granted, err := a.Request(context.Background())
		require.NoError(t, err)
		assert.True(t, granted)
	})
}
